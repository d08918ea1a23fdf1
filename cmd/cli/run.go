package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/keshon/dsda-bot/internal/router"
)

type runResult struct {
	Command string `yaml:"command"`
	Args    string `yaml:"args,omitempty"`
	Private bool   `yaml:"private,omitempty"`
	Reply   string `yaml:"reply"`
}

//nolint:gochecknoglobals // Cobra commands are typically global
var runCmd = &cobra.Command{
	Use:   "run <command> [args...]",
	Short: "Run a bot command, e.g. run gr scythe uv-max 2",
	Long: `Run a bot command and print the reply. Arguments containing spaces are
quoted again before routing, so run gr "2 (1994)" uv-speed works as in Discord.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		rt := router.New(client, logger, router.WithCommandPrefix("dsda-cli run"))

		res := route(cmd.Context(), rt, args[0], args[1:])
		return printResult(cmd.OutOrStdout(), output, res.Reply, res)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func route(ctx context.Context, rt *router.Router, name string, args []string) runResult {
	joined := joinArgs(args)
	reply := rt.Handle(ctx, name, joined)
	return runResult{Command: name, Args: joined, Private: reply.Private, Reply: reply.Text}
}

// joinArgs rebuilds the argument text the shell split, quoting words that
// contain spaces.
func joinArgs(args []string) string {
	parts := make([]string, len(args))
	for i, a := range args {
		if a == "" || strings.ContainsAny(a, " \t") {
			a = `"` + a + `"`
		}
		parts[i] = a
	}
	return strings.Join(parts, " ")
}
