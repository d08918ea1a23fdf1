// Package discord connects the command router and the update watcher to a
// Discord session.
package discord

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/keshon/dsda-bot/internal/router"
)

const (
	// handlerTimeout bounds one routed command, including its records site calls.
	handlerTimeout = 45 * time.Second

	// guildWait bounds how long readiness waits for GUILD_CREATE of the
	// guilds listed in READY.
	guildWait = 30 * time.Second
)

// Options configures the adapter.
type Options struct {
	Prefixes          []string // message prefixes, e.g. "!"
	Group             string   // word after the prefix, e.g. "dsda"
	InitSlashCommands bool
	CacheDir          string // slash command hash cache, default data/commands
}

// Bot is a Discord bot
type Bot struct {
	dg     *discordgo.Session
	router *router.Router
	opts   Options
	log    logrus.FieldLogger

	ready     chan struct{}
	readyOnce sync.Once
	guildWait time.Duration

	mu       sync.Mutex
	pending  map[string]bool // guilds from READY not yet streamed in
	closing  bool
	inflight sync.WaitGroup
}

// New creates a bot for token. The session is opened by Run.
func New(token string, r *router.Router, opts Options, log logrus.FieldLogger) (*Bot, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	if opts.CacheDir == "" {
		opts.CacheDir = defaultCacheDir
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Bot{
		dg:        dg,
		router:    r,
		opts:      opts,
		log:       log.WithField("component", "discord"),
		ready:     make(chan struct{}),
		guildWait: guildWait,
	}, nil
}

// Run opens the session and blocks until ctx is done. In-flight commands
// finish before the session is closed.
func (b *Bot) Run(ctx context.Context) error {
	b.dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	b.dg.AddHandler(b.onReady)
	b.dg.AddHandler(b.onGuildCreate)
	b.dg.AddHandler(b.onMessageCreate)
	b.dg.AddHandler(b.onInteractionCreate)

	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}

	<-ctx.Done()
	b.log.Info("Shutdown signal received, waiting for running commands")
	b.drain()

	if err := b.dg.Close(); err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	return nil
}

// Sink returns the watcher notification sink backed by this session.
func (b *Bot) Sink() *NotificationSink {
	return &NotificationSink{bot: b}
}

// onReady waits for the guilds listed in READY. For bots they arrive as
// unavailable stubs; channels come with the GUILD_CREATE that follows.
func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.mu.Lock()
	b.pending = make(map[string]bool, len(r.Guilds))
	for _, g := range r.Guilds {
		if g.Unavailable {
			b.pending[g.ID] = true
		}
	}
	waiting := len(b.pending)
	b.mu.Unlock()

	if waiting == 0 {
		b.markReady()
		return
	}
	time.AfterFunc(b.guildWait, func() {
		b.mu.Lock()
		left := len(b.pending)
		b.mu.Unlock()
		if left > 0 {
			b.log.WithField("missing", left).Warn("Guilds did not become available in time")
		}
		b.markReady()
	})
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	b.log.WithFields(logrus.Fields{"guild_id": g.ID, "guild": g.Name}).Debug("Guild available")

	b.mu.Lock()
	_, wanted := b.pending[g.ID]
	delete(b.pending, g.ID)
	done := wanted && len(b.pending) == 0
	b.mu.Unlock()

	b.syncCommands(g.ID)
	if done {
		b.markReady()
	}
}

// markReady unblocks NotificationSink.Resolve once guild state is loaded.
func (b *Bot) markReady() {
	b.readyOnce.Do(func() {
		close(b.ready)
		b.dg.State.RLock()
		guilds := len(b.dg.State.Guilds)
		b.dg.State.RUnlock()
		b.log.WithField("guilds", guilds).Info("Discord bot is running")
	})
}

// begin registers an in-flight handler; false once shutdown has started.
func (b *Bot) begin() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closing {
		return false
	}
	b.inflight.Add(1)
	return true
}

// drain stops accepting handlers and waits for the running ones.
func (b *Bot) drain() {
	b.mu.Lock()
	b.closing = true
	b.mu.Unlock()
	b.inflight.Wait()
}

func (b *Bot) syncCommands(guildID string) {
	if !b.opts.InitSlashCommands {
		return
	}
	if err := b.registerCommands(guildID); err != nil {
		b.log.WithError(err).WithField("guild_id", guildID).Error("Error registering slash commands")
	}
}

// onMessageCreate routes "<prefix><group> <command> <args>" messages.
func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || (s.State.User != nil && m.Author.ID == s.State.User.ID) {
		return
	}
	name, args, ok := parseMessage(m.Content, b.opts.Prefixes, b.opts.Group)
	if !ok {
		return
	}

	if !b.begin() {
		return
	}
	defer b.inflight.Done()

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	reply := b.router.Handle(ctx, name, args)
	channelID := m.ChannelID
	if reply.Private {
		dm, err := s.UserChannelCreate(m.Author.ID)
		if err != nil {
			b.log.WithError(err).WithField("user", m.Author.Username).Warn("Failed to open DM channel, replying in channel")
		} else {
			channelID = dm.ID
		}
	}
	for _, chunk := range splitMessage(reply.Text, maxMessageLen) {
		if _, err := s.ChannelMessageSend(channelID, chunk); err != nil {
			b.log.WithError(err).WithField("channel_id", channelID).Error("Failed to send reply")
			return
		}
	}
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	if data.Name != b.commandName() {
		b.log.WithField("command", data.Name).Warn("Unknown slash command")
		return
	}

	if !b.begin() {
		return
	}
	defer b.inflight.Done()

	name, args := interactionArgs(data.Options)

	// Records site lookups can exceed the 3 second interaction deadline.
	if err := deferResponse(s, i, b.router.IsPrivate(name)); err != nil {
		b.log.WithError(err).Error("Failed to acknowledge interaction")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	reply := b.router.Handle(ctx, name, args)
	if err := editResponse(s, i, truncate(reply.Text, maxMessageLen)); err != nil {
		b.log.WithError(err).WithField("command", name).Error("Failed to send interaction reply")
	}
}

func (b *Bot) commandName() string {
	if b.opts.Group != "" {
		return b.opts.Group
	}
	return "dsda"
}
