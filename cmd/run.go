package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonesrussell/blogvault/internal/commentsclient"
	"github.com/jonesrussell/blogvault/internal/config"
	"github.com/jonesrussell/blogvault/internal/logger"
	"github.com/jonesrussell/blogvault/internal/supervisor"
)

func runCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the worker: acquire an identity and process batches until stopped",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := loadConfig()

			log := logger.Must(logger.Config{
				Level:       cfg.LogLevel,
				Format:      cfg.LogFormat,
				Development: cfg.Debug,
			})
			defer log.Sync()

			log.Info("starting worker",
				logger.String("coordinator_base_url", cfg.CoordinatorBaseURL),
				logger.Int("worker_count", cfg.WorkerCount),
				logger.Int("batch_downloader_count", cfg.BatchDownloaderCount),
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sup := supervisor.New(cfg, log, commentsclient.New())
			if err := sup.Run(ctx); err != nil {
				return fmt.Errorf("supervisor exited with error: %w", err)
			}
			return nil
		},
	}
}

func loadConfig() config.Config {
	cfg := config.Config{
		CoordinatorBaseURL:    viper.GetString("coordinator_base_url"),
		UploadBaseURL:         viper.GetString("upload_base_url"),
		MasterDomainsFilePath: viper.GetString("master_domains_file"),
		OutputDir:             viper.GetString("output_dir"),
		WorkerCount:           viper.GetInt("worker_count"),
		BatchDownloaderCount:  viper.GetInt("batch_downloader_count"),
		RequestTimeout:        viper.GetDuration("request_timeout"),
		RedisAddr:             viper.GetString("redis_addr"),
		AdminAddr:             viper.GetString("admin_addr"),
		LogLevel:              viper.GetString("log_level"),
		LogFormat:             viper.GetString("log_format"),
		Debug:                 viper.GetBool("debug"),
	}
	return cfg.WithDefaults()
}
