package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/keshon/dsda-bot/internal/dsda"
	"github.com/keshon/dsda-bot/pkg/cmd"
)

// Reply is what an adapter delivers back to the user.
type Reply struct {
	Text    string
	Private bool // deliver to the author directly (help)
}

// Router dispatches commands to the records site client. It is safe for
// concurrent use; each invocation is independent.
type Router struct {
	client   dsda.Client
	registry *cmd.Registry
	prefix   string
	log      logrus.FieldLogger
}

// Option customizes a Router.
type Option func(*Router)

// WithMiddleware wraps every routed command, first is outermost.
func WithMiddleware(mws ...cmd.Middleware) Option {
	return func(r *Router) {
		for _, c := range r.registry.GetAll() {
			r.registry.Register(cmd.Apply(c, mws...))
		}
	}
}

// WithCommandPrefix sets how commands are shown in help text, e.g. "!dsda".
func WithCommandPrefix(prefix string) Option {
	return func(r *Router) { r.prefix = prefix }
}

// New builds a router over client.
func New(client dsda.Client, log logrus.FieldLogger, opts ...Option) *Router {
	if log == nil {
		log = logrus.StandardLogger()
	}
	r := &Router{
		client:   client,
		registry: cmd.NewRegistry(),
		prefix:   "!dsda",
		log:      log.WithField("component", "router"),
	}
	for i := range operations {
		r.registry.Register(cmd.Apply(&opCommand{router: r, op: &operations[i]}, recoverPanics(r.log)))
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Commands lists the routed commands, sorted by name.
func (r *Router) Commands() []cmd.Command {
	return r.registry.GetAll()
}

// Handle routes one (name, args) pair and returns the reply. It never panics
// and never returns an empty reply.
func (r *Router) Handle(ctx context.Context, name, args string) Reply {
	c := r.registry.Get(name)
	if c == nil {
		r.log.WithField("command", name).Warn("Unknown command")
		return Reply{Text: Message(fmt.Errorf("%w: %q", ErrUnknownCommand, name))}
	}

	var reply Reply
	inv := &cmd.Invocation{
		Name: name,
		Args: args,
		Reply: func(text string) error {
			reply.Text = text
			return nil
		},
	}
	reply.Private = r.IsPrivate(name)

	if err := c.Run(ctx, inv); err != nil && reply.Text == "" {
		reply.Text = Message(err)
	}
	if reply.Text == "" {
		reply.Text = internalErrorMessage
	}
	return reply
}

// IsPrivate reports whether replies to name go to the author only.
func (r *Router) IsPrivate(name string) bool {
	op, ok := cmd.Root(r.registry.Get(name)).(*opCommand)
	return ok && op.op.op == OpHelp
}

// Execute performs exactly one client call for q and renders the result.
// Failures render the client's fallback message verbatim.
func (r *Router) Execute(ctx context.Context, q Query) (string, error) {
	switch q.Op {
	case OpRecord:
		rec, fallback := r.client.GetRecord(ctx, q.Wad, q.Category, q.Map)
		if rec == nil {
			return fallback, nil
		}
		return renderRecord(rec)
	case OpPlayerStats:
		stats, fallback := r.client.GetPlayerStats(ctx, q.Player)
		if stats == nil {
			return fallback, nil
		}
		return renderPlayerStats(stats)
	case OpWadStats:
		stats, fallback := r.client.GetWadStats(ctx, q.Wad)
		if stats == nil {
			return fallback, nil
		}
		return renderWadStats(stats)
	case OpRandomPlayerPage:
		page, fallback := r.client.RandomPlayerPage(ctx)
		if page == nil {
			return fallback, nil
		}
		return renderPage(page)
	case OpRandomWadPage:
		page, fallback := r.client.RandomWadPage(ctx)
		if page == nil {
			return fallback, nil
		}
		return renderPage(page)
	case OpHelp:
		return r.HelpText(), nil
	}
	return "", fmt.Errorf("%w: op %d", ErrUnknownCommand, q.Op)
}

// opCommand adapts one alias table row to cmd.Command.
type opCommand struct {
	router *Router
	op     *operation
}

func (c *opCommand) Name() string        { return c.op.op.String() }
func (c *opCommand) Description() string { return c.op.description }
func (c *opCommand) Aliases() []string   { return c.op.aliases }

// TakesArgs reports whether the command reads argument text.
func (c *opCommand) TakesArgs() bool {
	switch c.op.op {
	case OpRecord, OpPlayerStats, OpWadStats:
		return true
	}
	return false
}

func (c *opCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	q, err := c.op.parse(inv.Args)
	if err != nil {
		return err
	}
	text, err := c.router.Execute(ctx, q)
	if err != nil {
		return fmt.Errorf("render %s: %w", c.Name(), err)
	}
	return inv.Respond(text)
}

// HelpText lists every command with its short alias.
func (r *Router) HelpText() string {
	p := r.prefix
	var b strings.Builder
	b.WriteString("```Available commands to DSDA:\n")
	fmt.Fprintf(&b, `  - %s get_record (gr) <wad_name> <category> (<map_number>)
      Get record for given wad name, category, and map number
      if provided.

      If map number is not provided, only the first map on the
      wad page is searched. Map number format must be "e#m#" or
      "map##" or "d#ep#" or "d#all". If the format is # or ##,
      it is assumed to be map##.

      Wad and category names with spaces must be put in quotes,
      e.g. "2 (1994)".

  - %s playerstats (ps) <player_name>
      Get player stats for player with player_name or containing
      player_name.

  - %s wadstats (ws) <wad_name>
      Get wad stats for wad with wad_name or containing wad_name.

  - %s random_player_page (rpp)
      Returns random player page URL and name.

  - %s random_wad_page (rwp)
      Returns random wad page URL and name.

  - %s help
      You're reading it.`, p, p, p, p, p, p)
	b.WriteString("```")
	return b.String()
}
