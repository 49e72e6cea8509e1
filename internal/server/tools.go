package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the screenshot or image file",
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "screen_locate_text",
			Description: "Find the first OCR text fragment containing the given text (case-sensitive) and return its bounding box and center point. Returns found=false when the text is not on the screen.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"text": map[string]interface{}{
						"type":        "string",
						"description": "Text to look for; matched as a substring of each fragment",
					},
				},
				"required": []string{"path", "text"},
			},
		},
		{
			Name:        "screen_ocr",
			Description: "Run OCR on an image and return the full text plus each fragment with its bounding box and confidence.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "screen_binarize",
			Description: "Convert an image to grayscale and binarize it with Otsu's threshold, the same preprocessing used before locating text. Writes the result as PNG and returns the chosen threshold.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Where to write the binarized PNG",
					},
				},
				"required": []string{"path", "output_path"},
			},
		},
		{
			Name:        "screen_info",
			Description: "Get the width, height, format and file size of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
	}
}
