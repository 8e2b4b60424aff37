package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spigell/airc/internal/httpserver"
	"github.com/spigell/airc/internal/jobs"
	"github.com/spigell/airc/internal/logger"
	"github.com/spigell/airc/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default :5000)")

	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the airc server", zap.String("version", version))

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	recorder, err := metrics.NewPrometheus(registry)
	if err != nil {
		logger.Fatal("registering metrics", zap.Error(err))
	}

	analyzer, err := newAnalyzer(ctx, config, recorder, logger)
	if err != nil {
		logger.Fatal("creating analyzer", zap.Error(err))
	}

	store, err := newStore(ctx, config.Storage)
	if err != nil {
		logger.Fatal("creating storage", zap.Error(err), zap.String("driver", config.Storage.Driver))
	}

	catalog, err := jobs.NewCatalog(config.Jobs)
	if err != nil {
		logger.Fatal("loading jobs", zap.Error(err))
	}
	logger.Info("jobs loaded", zap.Int("count", catalog.Len()))

	srv, err := httpserver.New(httpserver.Options{
		Analyzer:    analyzer,
		Store:       store,
		Jobs:        catalog,
		Logger:      logger,
		Gatherer:    registry,
		MaxUploadMB: config.Server.MaxUploadMB,
	})
	if err != nil {
		logger.Fatal("creating http server", zap.Error(err))
	}

	if err := srv.ListenAndServe(ctx, config.Server.Addr, config.Server.WriteTimeout); err != nil {
		logger.Fatal("serving http", zap.Error(err))
	}

	logger.Info("server stopped")
}
