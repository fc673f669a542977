package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/schemalab/circuitlay/internal/api"
	"github.com/schemalab/circuitlay/pkg/cache"
	"github.com/schemalab/circuitlay/pkg/pipeline"
	"github.com/schemalab/circuitlay/pkg/store"
)

const shutdownTimeout = 10 * time.Second

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		redisAddr string
		redisPass string
		redisDB   int
		mongoURL  string
		mongoDB   string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the circuitlay HTTP API server",
		Long: `Run the circuitlay HTTP API server.

The server exposes the layout pipeline over HTTP: POST /v1/layout returns
a layout document, POST /v1/render returns a rendered artifact, and
POST /v1/report returns placement statistics.

With --redis the pipeline cache is shared across instances; without it a
local file cache is used. With --mongo every layout document is persisted
and can be fetched from GET /v1/layouts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, redisAddr, redisPass, redisDB, mongoURL, mongoDB)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&redisAddr, "redis", "", "redis address for a shared pipeline cache")
	cmd.Flags().StringVar(&redisPass, "redis-password", "", "redis password")
	cmd.Flags().IntVar(&redisDB, "redis-db", 0, "redis database number")
	cmd.Flags().StringVar(&mongoURL, "mongo", "", "mongodb URL for layout persistence")
	cmd.Flags().StringVar(&mongoDB, "mongo-db", "", "mongodb database name")

	return cmd
}

// runServe wires the cache, store, and router, then serves until the
// context is cancelled.
func (c *CLI) runServe(ctx context.Context, addr, redisAddr, redisPass string, redisDB int, mongoURL, mongoDB string) error {
	pipelineCache, err := newServeCache(redisAddr, redisPass, redisDB)
	if err != nil {
		return err
	}
	runner := pipeline.NewRunner(pipelineCache, nil, c.Logger)
	defer runner.Close()

	var layoutStore *store.LayoutStore
	if mongoURL != "" {
		layoutStore, err = store.NewLayoutStore(ctx, mongoURL, mongoDB)
		if err != nil {
			return fmt.Errorf("connect layout store: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = layoutStore.Close(shutdownCtx)
		}()
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewServer(runner, layoutStore, c.Logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("serving", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
		c.Logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// newServeCache picks Redis when configured, otherwise the local file cache.
func newServeCache(redisAddr, redisPass string, redisDB int) (cache.Cache, error) {
	if redisAddr == "" {
		return newCache(false)
	}
	redisCache, err := cache.NewRedisCache(redisAddr, redisPass, redisDB)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return redisCache, nil
}
