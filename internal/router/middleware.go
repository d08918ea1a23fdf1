package router

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/keshon/dsda-bot/internal/metrics"
	"github.com/keshon/dsda-bot/pkg/cmd"
)

// recoverPanics turns a panic inside a command into an error so one bad
// invocation never takes the router down.
func recoverPanics(log logrus.FieldLogger) cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) (err error) {
			defer func() {
				if p := recover(); p != nil {
					log.WithField("command", c.Name()).Errorf("Command panicked: %v", p)
					err = fmt.Errorf("command %s panicked: %v", c.Name(), p)
				}
			}()
			return c.Run(ctx, inv)
		})
	}
}

// WithCommandLogger logs every invocation with its outcome and duration.
func WithCommandLogger(log logrus.FieldLogger) cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			start := time.Now()
			err := c.Run(ctx, inv)
			entry := log.WithFields(logrus.Fields{
				"command":  c.Name(),
				"alias":    inv.Name,
				"args":     inv.Args,
				"outcome":  errorKind(err),
				"duration": time.Since(start).Round(time.Millisecond),
			})
			if err != nil {
				entry.WithError(err).Info("Command rejected")
			} else {
				entry.Debug("Command handled")
			}
			return err
		})
	}
}

// WithMetrics counts invocations per command and outcome.
func WithMetrics() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			start := time.Now()
			err := c.Run(ctx, inv)
			metrics.RecordCommand(c.Name(), errorKind(err), time.Since(start))
			return err
		})
	}
}
