package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

func noArguments() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Frames
		{
			Name:        "depth_load",
			Description: "Load a 16-bit greyscale PNG depth frame and report its size and depth range in millimetres.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the depth PNG"),
				},
				"required": []string{"path"},
			},
		},

		// Tracking
		{
			Name:        "track_frame",
			Description: "Run one depth frame through range filtering, silhouette extraction, shape evaluation and track association. Returns the live tracks with their IDs, centroids and hulls.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the depth PNG"),
					"frame": map[string]interface{}{
						"type":        "integer",
						"description": "Frame counter for this frame. Must exceed the previous one. Defaults to the previous counter plus one.",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "track_state",
			Description: "Return the live tracks as of the last processed frame, or a single track by ID.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type":        "integer",
						"description": "Optional track ID",
					},
				},
			},
		},
		{
			Name:        "track_reset",
			Description: "Drop every live track. Track IDs keep increasing and are never reused.",
			InputSchema: noArguments(),
		},
		{
			Name:        "track_configure",
			Description: "Update tracking parameters. Omitted fields keep their current values; an invalid combination is rejected as a whole. Returns the resulting parameters.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"near_limit": map[string]interface{}{
						"type":        "integer",
						"description": "Nearest accepted depth in mm",
					},
					"far_limit": map[string]interface{}{
						"type":        "integer",
						"description": "Farthest accepted depth in mm",
					},
					"threshold": map[string]interface{}{
						"type":        "integer",
						"description": "Foreground threshold on the inverted intensity (0-255)",
					},
					"max_val": map[string]interface{}{
						"type":        "integer",
						"description": "Mask value for foreground pixels (0-255)",
					},
					"min_area": map[string]interface{}{
						"type":        "number",
						"description": "Smallest accepted shape area in square pixels",
					},
					"max_area": map[string]interface{}{
						"type":        "number",
						"description": "Largest accepted shape area in square pixels",
					},
					"max_match_distance": map[string]interface{}{
						"type":        "number",
						"description": "Largest centroid distance in pixels for a match",
					},
					"stale_frame_limit": map[string]interface{}{
						"type":        "integer",
						"description": "Frames a track may go unmatched before eviction",
					},
					"blur_radius": map[string]interface{}{
						"type":        "number",
						"description": "Box blur radius applied before thresholding; 0 disables it",
					},
					"background_tolerance": map[string]interface{}{
						"type":        "integer",
						"description": "Samples within this many mm of the captured background are ignored",
					},
					"frame_width": map[string]interface{}{
						"type":        "integer",
						"description": "Expected frame width",
					},
					"frame_height": map[string]interface{}{
						"type":        "integer",
						"description": "Expected frame height",
					},
				},
			},
		},
		{
			Name:        "track_replay",
			Description: "Replay every PNG depth frame of a directory, in name order, through a fresh tracker using the current parameters. The live tracks are not affected.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"dir": pathProperty("Absolute path to a directory of depth PNGs"),
				},
				"required": []string{"dir"},
			},
		},

		// Background
		{
			Name:        "background_capture",
			Description: "Capture a background reference. Samples close to it are ignored from then on. Uses the given frame, or the last processed frame when no path is given.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Optional absolute path to a depth PNG of the empty scene"),
				},
			},
		},
		{
			Name:        "background_clear",
			Description: "Drop the background reference.",
			InputSchema: noArguments(),
		},

		// Debug views
		{
			Name:        "debug_contours",
			Description: "Return the simplified contours found in the last processed frame, in discovery order.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"raw": map[string]interface{}{
						"type":        "boolean",
						"description": "Also return the unsimplified traced boundaries",
						"default":     false,
					},
				},
			},
		},
		{
			Name:        "debug_overlay",
			Description: "Render the last processed frame as a base64 PNG: the track overlay, or one of the intermediate buffers.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"buffer": map[string]interface{}{
						"type":        "string",
						"description": "Which image to render",
						"enum":        []string{"overlay", "filtered", "intensity", "inverted", "mask"},
						"default":     "overlay",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
				},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
