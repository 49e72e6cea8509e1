// Package server exposes the screen locator as MCP (Model Context Protocol) tools.
//
// The server speaks JSON-RPC 2.0 over stdio so an MCP client can ask where a
// piece of text is on a screenshot, read a screenshot's text, or inspect the
// binarized image the locator actually feeds to Tesseract.
//
// # Protocol
//
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - screen_locate_text: Bounding box and click point of the first fragment containing a string
//   - screen_ocr: Full text and fragments of a screenshot
//   - screen_binarize: Write the grayscale + Otsu image and report the threshold
//   - screen_info: Dimensions and format of an image file
//
// # Error Handling
//
// Protocol errors use standard JSON-RPC codes:
//   - -32601: Method not found
//   - -32602: Invalid params
//   - -32000: Tool execution failed
//
// A text that is not on the screen is a normal result with found=false, not
// an error.
//
// # Logging
//
// Diagnostics go to the provided zerolog logger; stdout is reserved for the
// protocol.
package server
