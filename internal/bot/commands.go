package bot

import (
	"cs2-tracker/internal/constants"
	"cs2-tracker/internal/domain"

	"github.com/bwmarrin/discordgo"
)

const (
	cmdServers   = "servers"
	cmdElo       = "elo"
	cmdLastMatch = "lastmatch"
	cmdFeatured  = "featured"

	optOwner    = "owner"
	optType     = "type"
	optNickname = "nickname"

	// Discord limit for choice names and values.
	maxChoiceValue = 100
)

// buildCommands describes the slash commands. Filter choices come from the
// roster at registration time; /featured only exists when a nickname is set.
func buildCommands(gameTypes, owners []string, featured string) []*discordgo.ApplicationCommand {
	nickname := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        optNickname,
		Description: "FACEIT nickname",
		Required:    true,
	}

	cmds := []*discordgo.ApplicationCommand{
		{
			Name:        cmdServers,
			Description: "Shows the status of the CS2 servers",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        optOwner,
					Description: "Only servers of this community",
					Choices:     filterChoices("All owners", owners),
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        optType,
					Description: "Only servers of this game type",
					Choices:     filterChoices("All types", gameTypes),
				},
			},
		},
		{
			Name:        cmdElo,
			Description: "FACEIT stats of a player",
			Options:     []*discordgo.ApplicationCommandOption{nickname},
		},
		{
			Name:        cmdLastMatch,
			Description: "Stats of a player's last FACEIT match",
			Options:     []*discordgo.ApplicationCommandOption{nickname},
		},
	}

	if featured != "" {
		cmds = append(cmds, &discordgo.ApplicationCommand{
			Name:        cmdFeatured,
			Description: "FACEIT stats of " + truncate(featured, 60),
		})
	}
	return cmds
}

// filterChoices puts the catch-all choice first and keeps within Discord's
// choice limit.
func filterChoices(allLabel string, values []string) []*discordgo.ApplicationCommandOptionChoice {
	choices := []*discordgo.ApplicationCommandOptionChoice{
		{Name: allLabel, Value: domain.AllFilter},
	}
	for _, v := range values {
		if len(choices) == constants.MaxCommandChoices {
			break
		}
		if v == "" || len(v) > maxChoiceValue {
			continue
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: v, Value: v})
	}
	return choices
}

func stringOption(opts []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, o := range opts {
		if o.Name != name {
			continue
		}
		v, _ := o.Value.(string)
		return v
	}
	return ""
}
