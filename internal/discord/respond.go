package discord

import (
	"github.com/bwmarrin/discordgo"
)

// deferResponse acknowledges an interaction; the reply follows via editResponse.
func deferResponse(s *discordgo.Session, i *discordgo.InteractionCreate, ephemeral bool) error {
	resp := &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}
	if ephemeral {
		resp.Data = &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral}
	}
	return s.InteractionRespond(i.Interaction, resp)
}

// editResponse replaces the deferred placeholder with content.
func editResponse(s *discordgo.Session, i *discordgo.InteractionCreate, content string) error {
	_, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &content})
	return err
}

// interactionArgs reads the "command" and "args" options of /dsda.
func interactionArgs(opts []*discordgo.ApplicationCommandInteractionDataOption) (name, args string) {
	for _, o := range opts {
		switch o.Name {
		case optionCommand:
			name = o.StringValue()
		case optionArgs:
			args = o.StringValue()
		}
	}
	return name, args
}
