package utils

import (
	"github.com/bwmarrin/discordgo"
)

const errorPrefix = "❌ "

// respond answers an interaction with a channel message. Failures are only
// logged: the interaction token may already be spent.
func respond(s *discordgo.Session, i *discordgo.InteractionCreate, data *discordgo.InteractionResponseData, ephemeral bool, kind string) {
	if ephemeral {
		data.Flags |= discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		logger.WithError(err).WithField("kind", kind).Warn("Failed to respond to interaction")
	}
}

// SendErrorResponse answers with an ephemeral error.
func SendErrorResponse(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	respond(s, i, &discordgo.InteractionResponseData{Content: errorPrefix + message}, true, "error")
}

// SendPublicResponse answers with a message everyone in the channel sees.
func SendPublicResponse(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	respond(s, i, &discordgo.InteractionResponseData{Content: message}, false, "public")
}

// SendSimpleResponse answers with an ephemeral message.
func SendSimpleResponse(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	respond(s, i, &discordgo.InteractionResponseData{Content: message}, true, "simple")
}

// SendEmbedResponse answers with embeds, ephemeral unless public is set.
func SendEmbedResponse(s *discordgo.Session, i *discordgo.InteractionCreate, public bool, embeds ...*discordgo.MessageEmbed) {
	respond(s, i, &discordgo.InteractionResponseData{Embeds: embeds}, !public, "embed")
}

// DeferResponse acknowledges an interaction whose answer follows through
// SendFollowUp or SendFollowUpError.
func DeferResponse(s *discordgo.Session, i *discordgo.InteractionCreate, ephemeral bool) error {
	response := &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}
	if ephemeral {
		response.Data = &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral}
	}
	return s.InteractionRespond(i.Interaction, response)
}

// SendFollowUp replaces the deferred response of i with message.
func SendFollowUp(s *discordgo.Session, i *discordgo.Interaction, message string) {
	editDeferred(s, i, message)
}

func SendFollowUpError(s *discordgo.Session, i *discordgo.Interaction, message string) {
	editDeferred(s, i, errorPrefix+message)
}

func editDeferred(s *discordgo.Session, i *discordgo.Interaction, content string) {
	if _, err := s.InteractionResponseEdit(i, &discordgo.WebhookEdit{Content: &content}); err != nil {
		logger.WithError(err).Warn("Failed to edit deferred response")
	}
}
