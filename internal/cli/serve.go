package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"quoteclip/internal/fetch"
	"quoteclip/internal/server"
	"quoteclip/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the parse and align API over HTTP",
	Long: `Run the HTTP service exposing subtitle parsing and quote alignment
to remote callers.

Endpoints:
  POST /v1/parse   parse a subtitle source into timed entries
  POST /v1/align   locate a quote's time window in a subtitle source
  GET  /healthz    liveness probe
  GET  /metrics    Prometheus metrics

Examples:
  quoteclip serve
  quoteclip serve --bind 0.0.0.0:8750
  QUOTECLIP_BIND=0.0.0.0:9000 quoteclip serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().
		String("bind", "", "Listen address (default from config or QUOTECLIP_BIND)")
}

func runServe(cmd *cobra.Command, args []string) error {
	bind := cfg.Server.Bind
	if cmd.Flags().Changed("bind") {
		bind, _ = cmd.Flags().GetString("bind")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// the API itself is stateless; the cache only feeds the windows gauge
	var cache *store.Store
	if s, err := store.Open(cfg.Paths.CacheDB); err != nil {
		logger.Warnw("Window cache unavailable, cached_windows gauge disabled",
			"path", cfg.Paths.CacheDB,
			"error", err,
		)
	} else {
		cache = s
		defer cache.Close()
	}

	metrics := server.NewMetrics()
	handler := server.NewHandler(fetch.New(logger), logger, metrics)
	router := server.NewRouter(handler, metrics, func() {
		if cache == nil {
			return
		}
		n, err := cache.Count(context.Background())
		if err != nil {
			logger.Warnw("Counting cached windows failed", "error", err)
			return
		}
		metrics.SetCachedWindows(n)
	})

	logger.Infow("Starting HTTP service",
		"bind", bind,
	)

	return server.Run(ctx, bind, router, logger)
}
