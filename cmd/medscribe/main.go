// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the medscribe CLI. It analyzes
// doctor-patient transcripts into structured medical records: a summary,
// sentiment and intent, and a SOAP note.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/BCVRaj/Emitrr/internal/logging"
	"github.com/BCVRaj/Emitrr/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// log is the process logger, shared by all subcommands.
var log *logrus.Entry

// rootCmd is the base command for the medscribe CLI.
var rootCmd = &cobra.Command{
	Use:   "medscribe",
	Short: "Medical transcript analysis pipeline",
	Long: `medscribe processes doctor-patient conversation transcripts into
structured medical records. Each run segments the transcript by speaker,
extracts biomedical entities, and generates a medical summary, a sentiment
and intent classification, and a SOAP note.

Results are stored in a local SQLite database and written as JSON
artifacts; use the runs and export subcommands to inspect them.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; real deployments set the environment directly.
		_ = godotenv.Load()
		log = logging.New()
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./medscribe.yaml or ~/.config/medscribe/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("medscribe")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "medscribe"))
		}
	}

	viper.SetEnvPrefix("MEDSCRIBE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig merges defaults, the config file, and the environment into a
// validated pipeline configuration. The generative API key is read from
// GEMINI_API_KEY only; it never lives in config files.
func loadConfig() (types.PipelineConfig, error) {
	cfg := types.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing configuration: %w", err)
	}
	cfg.Generative.APIKey = os.Getenv("GEMINI_API_KEY")
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
