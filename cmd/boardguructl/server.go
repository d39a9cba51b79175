package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/appboardguru/boardguru/pkg/config"
	"github.com/appboardguru/boardguru/pkg/logging"
	"github.com/appboardguru/boardguru/pkg/server"
	"github.com/appboardguru/boardguru/pkg/server/endpoints"
)

const cacheSweepInterval = time.Minute

func defaultBindAddress() string {
	if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
		return addr
	}
	return "0.0.0.0"
}

func defaultPort() string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return "8000"
}

func defaultPortInt() int {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			return p
		}
	}
	return 8000
}

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the BoardGuru API server",
	Long: `Run the BoardGuru API server together with the AI job worker and the
websocket hub.

The server requires the environment variables DATABASE_URL and
BOARDGURU_JWT_SECRET.

By default, database migrations are run on startup. Use --no-migrate to skip.
Use --no-worker when AI jobs are processed by a separate instance.`,
	Run: func(cmd *cobra.Command, args []string) {
		if os.Getenv("DATABASE_URL") == "" {
			fmt.Fprintln(os.Stderr, "DATABASE_URL environment variable is required")
			os.Exit(1)
		}
		secret := os.Getenv("BOARDGURU_JWT_SECRET")
		if secret == "" {
			fmt.Fprintln(os.Stderr, "BOARDGURU_JWT_SECRET environment variable is required")
			os.Exit(1)
		}

		noMigrate, _ := cmd.Flags().GetBool("no-migrate")
		if !noMigrate {
			logging.Info().Msg("running database migrations")
			if err := runMigrations(); err != nil {
				fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
				os.Exit(1)
			}
		}

		host, _ := cmd.Flags().GetString("bind-address")
		port, _ := cmd.Flags().GetString("port")
		noWorker, _ := cmd.Flags().GetBool("no-worker")
		watch, _ := cmd.Flags().GetBool("watch-config")

		if err := runServer(host, port, []byte(secret), !noWorker, watch); err != nil {
			logging.Error().Err(err).Msg("server stopped with an error")
			os.Exit(1)
		}
	},
}

func runServer(host, port string, secret []byte, worker, watch bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	s := server.NewServer(server.Options{
		DB:        a.db,
		Stores:    a.stores,
		Services:  a.services,
		Hub:       a.hub,
		Cache:     a.cache,
		JWTSecret: secret,
		Host:      host,
		Port:      port,
	})
	endpoints.RegisterAll(s)

	if worker {
		if err := a.worker.Start(cfg.JobPollSchedule); err != nil {
			return err
		}
		defer a.worker.Stop()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := a.hub.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		a.cache.Run(gctx, cacheSweepInterval)
		return nil
	})
	if watch {
		path := cfg.ConfigFilePath()
		g.Go(func() error {
			return config.Watch(gctx, path, func(c *config.Config) {
				logging.Info().
					Int("rate_limit_requests", c.RateLimitRequests).
					Int("cache_ttl_seconds", c.CacheTTLSeconds).
					Msg("new configuration in effect")
			})
		})
	}
	g.Go(func() error {
		err := s.Start(gctx)
		// stop the helpers when the listener fails
		stop()
		return err
	})

	logging.Info().Str("addr", s.Addr()).Bool("worker", worker).Bool("watch_config", watch).Msg("BoardGuru started")
	return g.Wait()
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringP("port", "p", defaultPort(), "server listen port")
	serverCmd.Flags().StringP("bind-address", "b", defaultBindAddress(), "server bind address")
	serverCmd.Flags().Bool("no-migrate", false, "skip running database migrations on start")
	serverCmd.Flags().Bool("no-worker", false, "do not process AI jobs in this instance")
	serverCmd.Flags().Bool("watch-config", false, "reload the configuration file when it changes")
}
