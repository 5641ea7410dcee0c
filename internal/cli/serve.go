package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/covtools/edgemark/internal/api"
	"github.com/covtools/edgemark/pkg/cache"
	"github.com/covtools/edgemark/pkg/pipeline"
	"github.com/covtools/edgemark/pkg/store"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr     string // listen address
	redis    string // Redis address for the shared result cache
	mongoURI string // MongoDB URI for run persistence
	noCache  bool   // disable the result cache entirely
}

// serveCommand creates the serve command, which runs the HTTP API.
// Without --redis the server falls back to the local file cache; without
// --mongo-uri runs are not persisted and the /v1/runs endpoints are disabled.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts
	fileCfg := loadFileConfig()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", fileCfg.Serve.Addr, "listen address")
	cmd.Flags().StringVar(&opts.redis, "redis", fileCfg.Redis.Addr, "Redis address for the shared result cache")
	cmd.Flags().StringVar(&opts.mongoURI, "mongo-uri", fileCfg.Mongo.URI, "MongoDB URI for run persistence")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the result cache")

	return cmd
}

// runServe wires the cache, store, and API server together and blocks until
// interrupted.
func (c *CLI) runServe(ctx context.Context, opts *serveOpts) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cch, err := c.serveCache(ctx, opts)
	if err != nil {
		return err
	}
	runner := pipeline.NewRunner(cch, nil, c.Logger)
	defer runner.Close()

	var st store.Store
	if opts.mongoURI != "" {
		fileCfg := loadFileConfig()
		st, err = store.NewMongoStore(ctx, store.MongoConfig{
			URI:      opts.mongoURI,
			Database: fileCfg.Mongo.Database,
		})
		if err != nil {
			return err
		}
		defer st.Close(context.Background())
		c.Logger.Info("run persistence enabled", "uri", opts.mongoURI)
	}

	server := api.NewServer(runner, st, c.Logger)
	return server.ListenAndServe(ctx, opts.addr)
}

// serveCache picks the cache backend for the server: Redis when configured,
// the local file cache otherwise.
func (c *CLI) serveCache(ctx context.Context, opts *serveOpts) (cache.Cache, error) {
	if opts.noCache {
		return cache.NewNullCache(), nil
	}
	if opts.redis != "" {
		fileCfg := loadFileConfig()
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     opts.redis,
			Password: fileCfg.Redis.Password,
			DB:       fileCfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		c.Logger.Info("using redis cache", "addr", opts.redis)
		return rc, nil
	}
	return newCache(false)
}
