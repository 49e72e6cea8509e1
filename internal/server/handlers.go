package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/disintegration/imaging"

	imgproc "github.com/ironsheep/favsync/internal/imaging"
	"github.com/ironsheep/favsync/internal/ocr"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "screen_locate_text").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	out, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.Warn().Err(err).Str("tool", params.Name).Msg("Tool execution failed")
		return s.errorResponse(req.ID, codeToolFailed, "Tool execution failed", err.Error())
	}

	return result(req, map[string]interface{}{
		"content": []map[string]interface{}{
			{"type": "text", "text": mustMarshalJSON(out)},
		},
	})
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "screen_locate_text":
		return s.handleLocateText(args)
	case "screen_ocr":
		return s.handleOCR(args)
	case "screen_binarize":
		return s.handleBinarize(args)
	case "screen_info":
		return s.handleInfo(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

type pathArgs struct {
	Path string `json:"path"`
}

func (a pathArgs) validate() error {
	if a.Path == "" {
		return errors.New("path is required")
	}
	return nil
}

// Point is a click target in image pixel coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LocateResult is the screen_locate_text result.
type LocateResult struct {
	Found  bool        `json:"found"`
	Text   string      `json:"text"`
	Bounds *ocr.Bounds `json:"bounds,omitempty"`
	Center *Point      `json:"center,omitempty"`
}

type locateArgs struct {
	pathArgs
	Text string `json:"text"`
}

func (s *Server) handleLocateText(args json.RawMessage) (interface{}, error) {
	var a locateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}

	b, ok, err := s.locator.Locate(a.Text, a.Path)
	if err != nil {
		return nil, err
	}

	res := &LocateResult{Found: ok, Text: a.Text}
	if ok {
		x, y := b.Center()
		res.Bounds = &b
		res.Center = &Point{X: x, Y: y}
	}
	return res, nil
}

func (s *Server) handleOCR(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return s.reader.ExtractText(a.Path)
}

// BinarizeResult is the screen_binarize result.
type BinarizeResult struct {
	Threshold  uint8  `json:"threshold"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	OutputPath string `json:"output_path"`
}

type binarizeArgs struct {
	pathArgs
	OutputPath string `json:"output_path"`
}

func (s *Server) handleBinarize(args json.RawMessage) (interface{}, error) {
	var a binarizeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	if a.OutputPath == "" {
		return nil, errors.New("output_path is required")
	}

	img, err := imgproc.Load(a.Path)
	if err != nil {
		return nil, err
	}
	bin, level := imgproc.Binarize(img)
	if err := imaging.Save(bin, a.OutputPath); err != nil {
		return nil, fmt.Errorf("failed to save binarized image: %w", err)
	}

	return &BinarizeResult{
		Threshold:  level,
		Width:      bin.Bounds().Dx(),
		Height:     bin.Bounds().Dy(),
		OutputPath: a.OutputPath,
	}, nil
}

func (s *Server) handleInfo(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return imgproc.LoadImageInfo(a.Path)
}
