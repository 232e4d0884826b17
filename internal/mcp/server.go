package mcp

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mossline/gardenseer/internal/config"
	"github.com/mossline/gardenseer/internal/logging"
)

// Server wraps the MCP SDK server and provides the garden tools.
type Server struct {
	server  *sdk.Server
	cfg     *Config
	log     *slog.Logger
	trace   *logging.RunLogger
	dataDir string
}

// Config holds server configuration.
type Config struct {
	Name    string        // Server name (e.g., "gardenseer")
	Version string        // Server version
	Root    string        // Project root directory
	DataDir string        // Garden data directory
	Runtime config.Config // Loaded runtime configuration
}

// NewServer creates a new MCP server with the garden tools registered.
func NewServer(cfg *Config, log *slog.Logger) (*Server, error) {
	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			log.Debug("MCP client initialized")
		},
	})

	var trace *logging.RunLogger
	if cfg.Runtime.Logging.TraceRuns {
		var err error
		trace, err = logging.NewRunLogger(cfg.DataDir)
		if err != nil {
			log.Warn("run trace disabled", "error", err)
			trace = nil
		}
	}

	s := &Server{
		server:  mcpServer,
		cfg:     cfg,
		log:     log,
		trace:   trace,
		dataDir: cfg.DataDir,
	}
	s.registerTools()

	return s, nil
}

// registerTools registers all garden MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "garden_train",
		Description: "Train the garden prediction model from the recorded timeline",
	}, s.handleTrain)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "garden_simulate",
		Description: "Run a seeded what-if simulation of an action sequence against the current garden state",
	}, s.handleSimulate)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "garden_alternatives",
		Description: "Simulate the standard alternative futures (aggressive growth, deep connections, rapid mutation)",
	}, s.handleAlternatives)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "garden_next_event",
		Description: "Predict the most likely next garden event from learned patterns",
	}, s.handleNextEvent)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "garden_trajectory",
		Description: "Project a metric's growth trajectory over a time horizon",
	}, s.handleTrajectory)
}

// Run starts the MCP server over stdio transport. Blocks until the
// client disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		<-sigChan
		cancel()
	}()

	err := s.server.Run(ctx, &sdk.StdioTransport{})

	s.trace.Close()
	return err
}

// Close releases server resources.
func (s *Server) Close() error {
	return s.trace.Close()
}
