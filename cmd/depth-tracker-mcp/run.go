package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/ironsheep/depth-tracker-mcp/internal/config"
	"github.com/ironsheep/depth-tracker-mcp/internal/pipeline"
	"github.com/ironsheep/depth-tracker-mcp/internal/server"
	"github.com/ironsheep/depth-tracker-mcp/internal/tracking"
)

const (
	modeServe  = "serve"
	modeReplay = "replay"
)

type command struct {
	mode        string
	configPath  string
	metricsAddr string
	dir         string
}

func configureLogging(level string) {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if level == "" {
		log.SetLevel(log.InfoLevel)
		return
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.SetLevel(log.InfoLevel)
		log.Warnf("unknown log level %q, using info", level)
		return
	}
	log.SetLevel(lvl)
}

func parseArgs(args []string) (*command, error) {
	cmd := &command{mode: modeServe}
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd.mode = args[0]
		args = args[1:]
	}
	if cmd.mode != modeServe && cmd.mode != modeReplay {
		return nil, fmt.Errorf("unknown command %q", cmd.mode)
	}

	fs := flag.NewFlagSet(cmd.mode, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&cmd.configPath, "config", "", "tuning parameters file")
	fs.StringVar(&cmd.metricsAddr, "metrics-addr", "", "address for the Prometheus /metrics endpoint")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	rest := fs.Args()
	switch cmd.mode {
	case modeReplay:
		if len(rest) != 1 {
			return nil, errors.New("replay needs exactly one directory")
		}
		cmd.dir = rest[0]
	default:
		if len(rest) != 0 {
			return nil, fmt.Errorf("unexpected arguments: %v", rest)
		}
	}
	return cmd, nil
}

func loadParams(path string) (config.Params, error) {
	if path == "" {
		return config.Defaults(), nil
	}
	p, err := config.LoadParams(path)
	if err != nil {
		return config.Params{}, err
	}
	log.WithField("path", path).Info("loaded tuning parameters")
	return p, nil
}

// startMetrics serves reg on addr and returns a shutdown function.
func startMetrics(addr string, reg *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.WithField("addr", addr).Info("starting metrics server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("metrics server stopped")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("error shutting down metrics server")
		}
	}
}

func run(cmd *command) error {
	params, err := loadParams(cmd.configPath)
	if err != nil {
		return err
	}

	opts := []pipeline.Option{pipeline.WithLogger(log.StandardLogger())}
	if cmd.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		opts = append(opts, pipeline.WithMetrics(pipeline.NewMetrics(reg)))
		stop := startMetrics(cmd.metricsAddr, reg)
		defer stop()
	}
	p := pipeline.New(config.NewStore(params), opts...)

	switch cmd.mode {
	case modeReplay:
		return replay(p, cmd.dir, os.Stdout)
	default:
		srv := server.New(server.WithPipeline(p))
		log.WithField("session", srv.Session()).Info("serving MCP on stdio")
		return srv.Run()
	}
}

// replayLine is one line of replay output.
type replayLine struct {
	Frame      int              `json:"frame"`
	Contours   int              `json:"contours"`
	Candidates int              `json:"candidates"`
	Tracks     []tracking.Shape `json:"tracks"`
	Report     tracking.Report  `json:"report"`
	DurationMs float64          `json:"duration_ms"`
}

func replay(p *pipeline.Pipeline, dir string, out io.Writer) error {
	src, err := pipeline.NewDirSource(dir, nil, log.StandardLogger())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	enc := json.NewEncoder(out)
	var encErr error
	driver := pipeline.NewDriver(p, src)
	driver.Subscribe(func(res *pipeline.Result) {
		if encErr != nil {
			return
		}
		encErr = enc.Encode(replayLine{
			Frame:      res.Frame,
			Contours:   len(res.Silhouette.Contours),
			Candidates: len(res.Candidates),
			Tracks:     res.Tracks,
			Report:     res.Report,
			DurationMs: float64(res.Duration.Microseconds()) / 1000,
		})
	})

	if err := driver.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if encErr != nil {
		return fmt.Errorf("writing replay output: %w", encErr)
	}

	log.WithFields(log.Fields{
		"files":    len(src.Paths()),
		"frames":   driver.FrameCounter(),
		"rejected": driver.Rejected(),
		"tracks":   p.Tracker().Len(),
	}).Info("replay finished")
	return nil
}
