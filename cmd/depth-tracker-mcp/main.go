package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const usage = `depth-tracker-mcp - MCP server for depth frame shape tracking

Usage:
  depth-tracker-mcp [serve] [options]       Run the MCP server on stdin/stdout
  depth-tracker-mcp replay [options] <dir>  Track a directory of depth PNGs and
                                            print one JSON line per frame

Options:
  --config file.json       Tuning parameters (defaults are built in)
  --metrics-addr host:port Serve Prometheus metrics on /metrics
  --version, -v            Print version information
  --help, -h               Print this help message

Environment variables:
  DEPTH_TRACKER_LOG_LEVEL=debug    Log level (trace, debug, info, warn, error)

In serve mode the server communicates via MCP protocol over stdin/stdout.
Configure it in your MCP client (e.g., Claude Desktop).`

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("depth-tracker-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println(usage)
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	configureLogging(os.Getenv("DEPTH_TRACKER_LOG_LEVEL"))
	log.WithFields(log.Fields{
		"version": Version,
		"built":   BuildTime,
		"commit":  GitCommit,
	}).Debug("depth tracker starting")

	cmd, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	if err := run(cmd); err != nil {
		log.Fatalf("%s: %v", cmd.mode, err)
	}
}
