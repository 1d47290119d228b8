package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/aretw0/lattice/internal/adapters/redis"
	"github.com/aretw0/lattice/internal/cli"
	"github.com/aretw0/lattice/internal/logging"
	latticehttp "github.com/aretw0/lattice/pkg/adapters/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the host-side gateway",
	Long: `Starts the gateway a page host mounts next to the backend: the realtime
SSE bridge over Redis, Prometheus metrics, and health.`,
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetString("port")
		redisAddr, _ := cmd.Flags().GetString("redis")
		redisPassword, _ := cmd.Flags().GetString("redis-password")
		redisDB, _ := cmd.Flags().GetInt("redis-db")
		configPath, _ := cmd.Flags().GetString("config")
		explicit := cmd.Flags().Changed("config")

		cfg, err := cli.LoadConfig(orDefault(configPath, cli.DefaultConfigPath), explicit)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		if redisAddr == "" {
			redisAddr = cfg.Redis.Addr
			redisPassword = cfg.Redis.Password
			redisDB = cfg.Redis.DB
		}
		if redisAddr == "" {
			fmt.Println("Error: serve needs a Redis address (--redis or lattice.yaml)")
			os.Exit(1)
		}

		logger := logging.New(slog.LevelInfo)
		rtOpts := []redis.Option{redis.WithLogger(logger)}
		if cfg.Redis.Prefix != "" {
			rtOpts = append(rtOpts, redis.WithPrefix(cfg.Redis.Prefix))
		}
		source := redis.New(redisAddr, redisPassword, redisDB, rtOpts...)
		defer source.Close()

		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		gateway := latticehttp.NewGateway(source,
			latticehttp.WithMetricsGatherer(reg),
			latticehttp.WithGatewayLogger(logger),
		)

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: gateway,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			fmt.Printf("Starting Lattice Gateway on %s\n", srv.Addr)
			fmt.Printf("Realtime source: redis %s (db %d)\n", redisAddr, redisDB)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		// Blocking main and waiting for shutdown.
		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

			// Give outstanding streams a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			fmt.Println("Lattice Gateway stopped gracefully")
		}
	},
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().String("redis", "", "Redis address for the realtime bridge")
	serveCmd.Flags().String("redis-password", "", "Redis password")
	serveCmd.Flags().Int("redis-db", 0, "Redis database")
}
