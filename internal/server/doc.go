// Package server implements the MCP (Model Context Protocol) server for depth
// frame tracking.
//
// This package provides a JSON-RPC 2.0 server that exposes the tracking
// pipeline through the MCP protocol. A client feeds recorded depth frames to
// it one at a time and inspects the resulting tracks, the contours behind
// them and the intermediate images.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
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
// Frames:
//   - depth_load: Load a depth PNG and report its size and depth range
//
// Tracking:
//   - track_frame: Process one frame and return the live tracks
//   - track_state: Query the live tracks
//   - track_reset: Drop all tracks (IDs are not reused)
//   - track_configure: Change tuning parameters at runtime
//   - track_replay: Replay a directory of frames through a fresh tracker
//
// Background:
//   - background_capture: Capture a reference of the empty scene
//   - background_clear: Drop the reference
//
// Debug views:
//   - debug_contours: Contours found in the last frame
//   - debug_overlay: Track overlay or an intermediate buffer as PNG
//
// # Frame Counter
//
// track_frame advances a server-wide frame counter by one unless the caller
// supplies its own. Counters must increase; a frame with a counter at or
// below the last processed one is rejected without touching the tracks.
//
// # Frame Caching
//
// Decoded depth frames are cached by path for the lifetime of the process,
// so a recorded session can be tracked, replayed and inspected without
// decoding each file again.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// A frame whose size differs from the configured resolution fails with an
// error wrapping depth.ErrInvalidFrameShape.
//
// # Usage
//
//	srv := server.New(server.WithPipeline(p))
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
