package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/keshon/dsda-bot/internal/config"
	"github.com/keshon/dsda-bot/internal/dsda"
)

//nolint:gochecknoglobals // Global vars needed for cobra CLI
var (
	output   string
	logLevel string
	cfg      *config.Config
	logger   *logrus.Logger
)

//nolint:gochecknoglobals // Cobra commands are typically global
var rootCmd = &cobra.Command{
	Use:   "dsda-cli",
	Short: "Query the Doom Speed Demo Archive from the terminal",
	Long: `dsda-cli runs the same commands as the Discord bot against the records
site and can check the update marker once without Discord.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if output != "text" && output != "yaml" {
			return fmt.Errorf("unknown output format %q (text, yaml)", output)
		}
		var err error
		if cfg, err = config.Load(); err != nil {
			return err
		}
		logger = cfg.Logger()
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("log level: %w", err)
		}
		logger.SetLevel(level)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "text", "output format (text, yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
}

func newClient() (*dsda.HTTPClient, error) {
	return dsda.NewHTTPClient(dsda.Config{
		BaseURL: cfg.DSDABaseURL,
		Rate:    cfg.DSDARate,
		Timeout: cfg.HTTPTimeout,
		Logger:  logger,
	})
}

// printResult writes text as is, or v as YAML.
func printResult(w io.Writer, format, text string, v interface{}) error {
	if format != "yaml" {
		_, err := fmt.Fprintln(w, text)
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
