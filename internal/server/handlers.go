package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"

	"github.com/ironsheep/depth-tracker-mcp/internal/config"
	"github.com/ironsheep/depth-tracker-mcp/internal/depth"
	"github.com/ironsheep/depth-tracker-mcp/internal/overlay"
	"github.com/ironsheep/depth-tracker-mcp/internal/pipeline"
	"github.com/ironsheep/depth-tracker-mcp/internal/tracking"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "track_frame", "debug_overlay").
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
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.WithField("tool", params.Name).WithError(err).Debug("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads depth frames from cache as needed
//  4. Calls into the pipeline
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Frames
	case "depth_load":
		return s.handleDepthLoad(args)

	// Tracking
	case "track_frame":
		return s.handleTrackFrame(args)
	case "track_state":
		return s.handleTrackState(args)
	case "track_reset":
		return s.handleTrackReset(args)
	case "track_configure":
		return s.handleTrackConfigure(args)
	case "track_replay":
		return s.handleTrackReplay(args)

	// Background
	case "background_capture":
		return s.handleBackgroundCapture(args)
	case "background_clear":
		return s.handleBackgroundClear(args)

	// Debug views
	case "debug_contours":
		return s.handleDebugContours(args)
	case "debug_overlay":
		return s.handleDebugOverlay(args)

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
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// unmarshalArgs decodes tool arguments. Tools without required arguments
// may be called with none at all.
func unmarshalArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// === Frame Handlers ===

type pathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleDepthLoad(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return depth.LoadFrameInfo(s.cache, a.Path)
}

// === Tracking Handlers ===

// trackView is a track as reported to clients.
type trackView struct {
	tracking.Shape
	State     tracking.State `json:"state"`
	Staleness int            `json:"staleness"`
}

func viewTracks(tracks []tracking.Shape, frame int) []trackView {
	out := make([]trackView, len(tracks))
	for i, t := range tracks {
		out[i] = trackView{Shape: t, State: t.State(frame), Staleness: t.Staleness(frame)}
	}
	return out
}

// FrameSummary is the result of track_frame and one entry of track_replay.
type FrameSummary struct {
	Frame       int             `json:"frame"`
	Contours    int             `json:"contours"`
	Candidates  int             `json:"candidates"`
	Tracks      []trackView     `json:"tracks"`
	Report      tracking.Report `json:"report"`
	DurationMs  float64         `json:"duration_ms"`
	Background  bool            `json:"background_suppression"`
	NextTrackID int             `json:"next_track_id"`
}

func (s *Server) summarize(res *pipeline.Result, p *pipeline.Pipeline) *FrameSummary {
	return &FrameSummary{
		Frame:       res.Frame,
		Contours:    len(res.Silhouette.Contours),
		Candidates:  len(res.Candidates),
		Tracks:      viewTracks(res.Tracks, res.Frame),
		Report:      res.Report,
		DurationMs:  float64(res.Duration.Microseconds()) / 1000,
		Background:  p.BackgroundCaptured(),
		NextTrackID: p.Tracker().NextID(),
	}
}

type trackFrameArgs struct {
	Path  string `json:"path"`
	Frame *int   `json:"frame"`
}

func (s *Server) handleTrackFrame(args json.RawMessage) (interface{}, error) {
	var a trackFrameArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	f, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	frame := s.counter + 1
	if a.Frame != nil {
		frame = *a.Frame
	}

	res, err := s.pipeline.ProcessFrame(context.Background(), f, frame)
	if err != nil {
		return nil, err
	}
	s.counter = frame
	return s.summarize(res, s.pipeline), nil
}

type trackStateArgs struct {
	ID *int `json:"id"`
}

type trackStateResult struct {
	Frame       int         `json:"frame"`
	Tracks      []trackView `json:"tracks"`
	NextTrackID int         `json:"next_track_id"`
}

func (s *Server) handleTrackState(args json.RawMessage) (interface{}, error) {
	var a trackStateArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}

	frame := s.pipeline.LastFrame()
	tr := s.pipeline.Tracker()

	if a.ID != nil {
		t, ok := tr.Track(*a.ID)
		if !ok {
			return nil, fmt.Errorf("no live track with id %d", *a.ID)
		}
		return viewTracks([]tracking.Shape{t}, frame)[0], nil
	}

	return &trackStateResult{
		Frame:       frame,
		Tracks:      viewTracks(tr.Tracks(), frame),
		NextTrackID: tr.NextID(),
	}, nil
}

func (s *Server) handleTrackReset(args json.RawMessage) (interface{}, error) {
	s.pipeline.Reset()
	return map[string]interface{}{
		"tracks":        0,
		"next_track_id": s.pipeline.Tracker().NextID(),
		"frame":         s.pipeline.LastFrame(),
	}, nil
}

func (s *Server) handleTrackConfigure(args json.RawMessage) (interface{}, error) {
	var cfg config.TuningConfig
	if len(args) != 0 && string(args) != "null" {
		dec := json.NewDecoder(bytes.NewReader(args))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
	}

	params, err := s.pipeline.Config().Apply(&cfg)
	if err != nil {
		return nil, fmt.Errorf("configuration rejected: %w", err)
	}
	s.log.WithField("params", params).Info("configuration updated")
	return params, nil
}

type trackReplayArgs struct {
	Dir string `json:"dir"`
}

type replayResult struct {
	Dir      string          `json:"dir"`
	Files    int             `json:"files"`
	Frames   []*FrameSummary `json:"frames"`
	Rejected int             `json:"rejected"`
	Tracks   []trackView     `json:"final_tracks"`
}

// handleTrackReplay runs a recorded directory through a fresh pipeline that
// shares the live configuration. The live tracks are not touched.
func (s *Server) handleTrackReplay(args json.RawMessage) (interface{}, error) {
	var a trackReplayArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Dir == "" {
		return nil, fmt.Errorf("dir is required")
	}

	// Replayed frames are not cached; a recording can be far larger than
	// the frames an operator inspects by hand.
	src, err := pipeline.NewDirSource(a.Dir, nil, s.log)
	if err != nil {
		return nil, err
	}

	replay := pipeline.New(s.pipeline.Config(), pipeline.WithLogger(s.log))
	driver := pipeline.NewDriver(replay, src)

	out := &replayResult{Dir: a.Dir, Files: len(src.Paths())}
	driver.Subscribe(func(res *pipeline.Result) {
		out.Frames = append(out.Frames, s.summarize(res, replay))
	})
	if err := driver.Run(context.Background()); err != nil {
		return nil, err
	}

	out.Rejected = driver.Rejected()
	out.Tracks = viewTracks(replay.Tracks(), replay.LastFrame())
	return out, nil
}

// === Background Handlers ===

func (s *Server) handleBackgroundCapture(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}

	var f *depth.Frame
	if a.Path != "" {
		var err error
		if f, err = s.cache.Load(a.Path); err != nil {
			return nil, err
		}
	}
	if err := s.pipeline.CaptureBackground(f); err != nil {
		return nil, err
	}

	source := a.Path
	if source == "" {
		source = fmt.Sprintf("frame %d", s.pipeline.LastFrame())
	}
	return map[string]interface{}{
		"captured": true,
		"source":   source,
	}, nil
}

func (s *Server) handleBackgroundClear(args json.RawMessage) (interface{}, error) {
	s.pipeline.ClearBackground()
	return map[string]interface{}{"captured": false}, nil
}

// === Debug Handlers ===

type debugContoursArgs struct {
	Raw bool `json:"raw"`
}

type contoursResult struct {
	Frame    int             `json:"frame"`
	Count    int             `json:"count"`
	Contours [][]image.Point `json:"contours"`
	Vertices []int           `json:"vertices"`
	Raw      [][]image.Point `json:"raw_contours,omitempty"`
}

func (s *Server) handleDebugContours(args json.RawMessage) (interface{}, error) {
	var a debugContoursArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}

	res := s.pipeline.Last()
	if res == nil {
		return nil, fmt.Errorf("no frame has been processed")
	}

	out := &contoursResult{
		Frame:    res.Frame,
		Count:    len(res.Silhouette.Contours),
		Contours: res.Silhouette.Contours,
		Vertices: make([]int, len(res.Silhouette.Contours)),
	}
	for i, c := range res.Silhouette.Contours {
		out.Vertices[i] = len(c)
	}
	if a.Raw {
		out.Raw = res.Silhouette.RawContours
	}
	return out, nil
}

type debugOverlayArgs struct {
	Buffer string  `json:"buffer"`
	Scale  float64 `json:"scale"`
}

func (s *Server) handleDebugOverlay(args json.RawMessage) (interface{}, error) {
	var a debugOverlayArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Buffer == "" {
		a.Buffer = overlay.BufferOverlay
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	return overlay.Encode(s.pipeline.Last(), a.Buffer, a.Scale)
}
