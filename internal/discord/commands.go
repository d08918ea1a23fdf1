package discord

import (
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/dsda-bot/pkg/cmd"
)

const (
	defaultCacheDir = "data/commands"

	optionCommand = "command"
	optionArgs    = "args"
)

// registerCommands syncs the slash command for a guild with Discord:
// deletes obsolete ones, creates the command when its definition has changed.
func (b *Bot) registerCommands(guildID string) error {
	appID, err := b.appID()
	if err != nil {
		return err
	}

	remote, err := b.dg.ApplicationCommands(appID, guildID)
	if err != nil {
		return fmt.Errorf("list commands: %w", err)
	}

	def := slashDefinition(b.commandName(), b.router.Commands())
	hashes := loadCommandHashes(b.opts.CacheDir, guildID)
	log := b.log.WithField("guild_id", guildID)

	found := false
	for _, rc := range remote {
		if rc.Name == def.Name {
			found = true
			continue
		}
		log.WithField("command", rc.Name).Info("Deleting obsolete command")
		if err := b.dg.ApplicationCommandDelete(appID, guildID, rc.ID); err != nil {
			log.WithError(err).WithField("command", rc.Name).Error("Failed to delete command")
			continue
		}
		delete(hashes, rc.Name)
	}

	h := hashCommand(def)
	if found && hashes[def.Name] == h {
		saveCommandHashes(b.opts.CacheDir, guildID, hashes)
		return nil
	}

	if _, err := b.dg.ApplicationCommandCreate(appID, guildID, def); err != nil {
		return fmt.Errorf("register /%s: %w", def.Name, err)
	}
	log.WithField("command", def.Name).Info("Registered slash command")
	hashes[def.Name] = h
	saveCommandHashes(b.opts.CacheDir, guildID, hashes)

	// stay well under Discord's rate limit when many guilds come online
	time.Sleep(25 * time.Millisecond)
	return nil
}

// slashDefinition builds "/<name> command:<choice> args:<text>" from the
// routed commands.
func slashDefinition(name string, commands []cmd.Command) *discordgo.ApplicationCommand {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(commands))
	for _, c := range commands {
		label := c.Name()
		if a, ok := cmd.Root(c).(cmd.Aliased); ok && len(a.Aliases()) > 0 {
			label = fmt.Sprintf("%s (%s)", c.Name(), a.Aliases()[0])
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: label, Value: c.Name()})
	}
	return &discordgo.ApplicationCommand{
		Name:        name,
		Description: "Query the Doom Speed Demo Archive",
		Type:        discordgo.ChatApplicationCommand,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        optionCommand,
				Description: "Command to run",
				Type:        discordgo.ApplicationCommandOptionString,
				Required:    true,
				Choices:     choices,
			},
			{
				Name:        optionArgs,
				Description: `Arguments, e.g. scythe uv-max 2 or "2 (1994)" uv-speed`,
				Type:        discordgo.ApplicationCommandOptionString,
			},
		},
	}
}

// appID returns the bot's application ID, fetching from Discord if not cached in State.
func (b *Bot) appID() (string, error) {
	if b.dg.State.User != nil && b.dg.State.User.ID != "" {
		return b.dg.State.User.ID, nil
	}
	u, err := b.dg.User("@me")
	if err != nil {
		return "", fmt.Errorf("failed to fetch bot user: %w", err)
	}
	return u.ID, nil
}

// --- Command hash cache ---

func commandHashPath(dir, guildID string) string {
	return filepath.Join(dir, guildID+".json")
}

func loadCommandHashes(dir, guildID string) map[string]string {
	out := make(map[string]string)
	if data, err := os.ReadFile(commandHashPath(dir, guildID)); err == nil {
		_ = json.Unmarshal(data, &out)
	}
	return out
}

func saveCommandHashes(dir, guildID string, hashes map[string]string) {
	path := commandHashPath(dir, guildID)
	_ = os.MkdirAll(filepath.Dir(path), 0755)
	if data, err := json.MarshalIndent(hashes, "", "  "); err == nil {
		_ = os.WriteFile(path, data, 0644)
	}
}

// --- Command hashing ---

// hashCommand returns a deterministic SHA-1 of a command's stable fields.
// Used to skip re-registration when nothing has changed.
func hashCommand(c *discordgo.ApplicationCommand) string {
	stable := map[string]interface{}{
		"name":        c.Name,
		"description": c.Description,
		"type":        c.Type,
	}
	if len(c.Options) > 0 {
		stable["options"] = normalizeOptions(c.Options)
	}
	data, _ := json.Marshal(stable)
	sum := sha1.Sum(data)
	return fmt.Sprintf("%x", sum)
}

func normalizeOptions(opts []*discordgo.ApplicationCommandOption) []map[string]interface{} {
	out := make([]map[string]interface{}, len(opts))
	for i, o := range opts {
		entry := map[string]interface{}{
			"name":        o.Name,
			"description": o.Description,
			"type":        o.Type,
			"required":    o.Required,
		}
		if len(o.Choices) > 0 {
			choices := make([]map[string]interface{}, len(o.Choices))
			for j, ch := range o.Choices {
				choices[j] = map[string]interface{}{"name": ch.Name, "value": ch.Value}
			}
			entry["choices"] = choices
		}
		out[i] = entry
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i]["name"].(string) < out[j]["name"].(string)
	})
	return out
}
