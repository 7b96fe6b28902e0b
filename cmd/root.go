// Package cmd implements the worker process's command-line interface.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	debug   bool

	rootCmd = &cobra.Command{
		Use:   "blogvault-worker",
		Short: "Coordinator-driven blog archival worker",
		Long:  "Requests batches of blog identifiers from a coordinator, archives their posts and comments, and uploads the result.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	_ = godotenv.Load()
	_ = rootCmd.ParseFlags(os.Args[1:])

	if err := initConfig(); err != nil {
		return fmt.Errorf("initialize configuration: %w", err)
	}

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(runCommand())
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return fmt.Errorf("read config file: %w", err)
		}
	}

	if err := bindEnvVars(); err != nil {
		return err
	}

	if debug {
		viper.Set("log_level", "debug")
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("coordinator_base_url", "https://blogspot-comments-master.herokuapp.com")
	viper.SetDefault("upload_base_url", "http://blogstore.bot.nu")
	viper.SetDefault("master_domains_file", "./data/domains.txt")
	viper.SetDefault("output_dir", "./data/batches")
	viper.SetDefault("worker_count", 10)
	viper.SetDefault("batch_downloader_count", 1)
	viper.SetDefault("request_timeout", "20s")
	viper.SetDefault("redis_addr", "")
	viper.SetDefault("admin_addr", ":9091")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "json")
	viper.SetDefault("debug", false)
}

func bindEnvVars() error {
	bindings := map[string]string{
		"coordinator_base_url":  "COORDINATOR_BASE_URL",
		"upload_base_url":       "UPLOAD_BASE_URL",
		"master_domains_file":   "MASTER_DOMAINS_FILE",
		"output_dir":            "OUTPUT_DIR",
		"worker_count":          "WORKER_COUNT",
		"batch_downloader_count": "BATCH_DOWNLOADER_COUNT",
		"request_timeout":       "REQUEST_TIMEOUT",
		"redis_addr":            "REDIS_ADDR",
		"admin_addr":            "ADMIN_ADDR",
		"log_level":             "LOG_LEVEL",
		"log_format":            "LOG_FORMAT",
		"debug":                 "APP_DEBUG",
	}
	for key, env := range bindings {
		if err := viper.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s: %w", env, err)
		}
	}
	return nil
}
