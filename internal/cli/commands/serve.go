package commands

import (
	"fmt"
	"net"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapcheck/internal/cli/config"
	"github.com/leapstack-labs/leapcheck/internal/llm"
	"github.com/leapstack-labs/leapcheck/internal/server"
)

// ServeOptions holds options for the serve command. The values are read
// through the configuration layer, which maps the flags to server.* keys.
type ServeOptions struct {
	Host        string
	Port        int
	MaxUploadMB int
	Watch       bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the upload and validation web service",
		Long: `Start an HTTP server for parsing and validating uploaded documents.

Endpoints:
  GET  /               Upload page
  POST /parse          Extract text, metadata and sections
  POST /validate       Validate a document, JSON result
  POST /validate_html  Validate a document, HTML report
  GET  /guidelines     List guideline files
  POST /guidelines     Upload guideline files (.txt, .md)
  GET  /health         Liveness check
  GET  /metrics        Prometheus metrics`,
		Example: `  # Serve on the default port
  leapcheck serve

  # Serve on localhost only and rebuild citations when guidelines change
  leapcheck serve --host 127.0.0.1 --port 9000 --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Host, "host", config.DefaultHost, "Interface to listen on")
	cmd.Flags().IntVar(&opts.Port, "port", config.DefaultPort, "Port to listen on")
	cmd.Flags().IntVar(&opts.MaxUploadMB, "max-upload-mb", config.DefaultMaxUploadMB, "Maximum upload size in megabytes")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Reload guidelines when the guidelines directory changes")

	return cmd
}

func runServe(cmd *cobra.Command) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg
	logger := cmdCtx.Logger

	rules, err := cmdCtx.LoadRules()
	if err != nil {
		return err
	}

	store, closeStore := cmdCtx.OpenStore()
	defer closeStore()

	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	srv, err := server.New(ctx, server.Config{
		Addr:           addr,
		Rules:          rules,
		Root:           cfg.ProjectRoot,
		Guidelines:     cfg.Guidelines,
		GuidelinesDir:  cfg.GuidelinesDir,
		Loader:         cmdCtx.NewLoader(store),
		Augmenter:      llm.New(rules.LLM, logger),
		MaxUploadBytes: cfg.Server.MaxUploadBytes(),
		Watch:          cfg.Server.Watch,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	r.Success(fmt.Sprintf("Serving on http://%s", addr))
	r.Muted("Press Ctrl+C to stop")

	return srv.Serve(ctx)
}
