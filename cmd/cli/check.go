package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/keshon/dsda-bot/internal/storage"
	"github.com/keshon/dsda-bot/internal/watcher"
)

type checkResult struct {
	Result watcher.Result `yaml:"result"`
	Marker string         `yaml:"marker,omitempty"`
	Notice string         `yaml:"notice,omitempty"`
}

//nolint:gochecknoglobals // Cobra commands are typically global
var checkCmd = &cobra.Command{
	Use:   "check-update",
	Short: "Compare the site's update marker with the stored one, ignoring the weekday window",
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		store, err := storage.Open(cfg.StorageOptions())
		if err != nil {
			return err
		}
		defer store.Close()

		res, err := checkUpdate(cmd.Context(), client, store, cfg.NotificationText(), logger)
		if err != nil {
			return err
		}
		text := string(res.Result)
		if res.Notice != "" {
			text = res.Notice
		}
		return printResult(cmd.OutOrStdout(), output, text, res)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func checkUpdate(ctx context.Context, up watcher.Upstream, store storage.MarkerStore, message string, log logrus.FieldLogger) (checkResult, error) {
	sink := &bufferSink{}
	w := watcher.New(up, store, sink, watcher.Config{Message: message}, log)

	res, err := w.CheckNow(ctx, "stdout")
	if err != nil {
		return checkResult{Result: res}, fmt.Errorf("check update: %w", err)
	}
	marker, _, err := store.Load(ctx)
	if err != nil {
		return checkResult{Result: res}, fmt.Errorf("load marker: %w", err)
	}
	return checkResult{Result: res, Marker: marker, Notice: sink.text}, nil
}

// bufferSink keeps the notification so it can be printed in the chosen format.
type bufferSink struct {
	text string
}

func (s *bufferSink) Resolve(_ context.Context, name string) (string, error) {
	return name, nil
}

func (s *bufferSink) Send(_ context.Context, _, text string) error {
	s.text = text
	return nil
}

