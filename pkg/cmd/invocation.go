// Package cmd provides a transport-agnostic command core: a command is something
// with a name, description, and Run(ctx, invocation). How it is registered and
// dispatched (Discord message, slash command, CLI) is defined by adapters that wrap this.
package cmd

import "context"

// Invocation carries the minimal input any command runner can pass: the name the
// user typed, the raw argument text, a reply hook and an opaque payload. Adapters
// set Data to their context (e.g. *discordgo.Session + event, or a cobra command).
type Invocation struct {
	Name  string
	Args  string
	Data  interface{}
	Reply func(text string) error
}

// Respond delivers text through the adapter's reply hook. A nil hook drops the text.
func (inv *Invocation) Respond(text string) error {
	if inv.Reply == nil {
		return nil
	}
	return inv.Reply(text)
}

// Command is the universal contract: identity plus execution. Permissions, flags,
// and transport-specific registration stay in adapters.
type Command interface {
	Name() string
	Description() string
	Run(ctx context.Context, inv *Invocation) error
}

// Aliased is implemented by commands reachable under additional short names.
type Aliased interface {
	Aliases() []string
}
