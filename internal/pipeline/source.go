package pipeline

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/depth-tracker-mcp/internal/depth"
)

// DirSource replays the PNG depth frames of a directory in name order.
//
// Files that fail to decode are logged and skipped. With a FrameCache the
// decoded frames stay cached so a replay can be inspected afterwards without
// decoding again; without one each frame is decoded, delivered and dropped.
type DirSource struct {
	paths []string
	cache *depth.FrameCache
	log   logrus.FieldLogger

	start  sync.Once
	stop   sync.Once
	frames chan *depth.Frame
	done   chan struct{}
}

// NewDirSource lists dir and prepares a source over its frames. cache may
// be nil.
func NewDirSource(dir string, cache *depth.FrameCache, log logrus.FieldLogger) (*DirSource, error) {
	paths, err := depth.ListFrames(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no PNG frames in %s", dir)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &DirSource{
		paths:  paths,
		cache:  cache,
		log:    log,
		frames: make(chan *depth.Frame),
		done:   make(chan struct{}),
	}, nil
}

// Paths returns the files the source will replay.
func (s *DirSource) Paths() []string {
	return append([]string(nil), s.paths...)
}

// Frames starts the replay on first call and returns its channel.
func (s *DirSource) Frames() <-chan *depth.Frame {
	s.start.Do(func() {
		go s.run()
	})
	return s.frames
}

func (s *DirSource) run() {
	defer close(s.frames)
	for _, path := range s.paths {
		f, err := s.load(path)
		if err != nil {
			s.log.WithField("path", path).WithError(err).Warn("skipping unreadable frame")
			continue
		}
		select {
		case s.frames <- f:
		case <-s.done:
			return
		}
	}
}

func (s *DirSource) load(path string) (*depth.Frame, error) {
	if s.cache == nil {
		return depth.LoadFrame(path)
	}
	return s.cache.Load(path)
}

// Close stops the replay. It is safe to call more than once.
func (s *DirSource) Close() error {
	s.stop.Do(func() {
		close(s.done)
	})
	return nil
}
