// Package bot is the Discord face of the tracker: slash commands for the
// server roster and FACEIT lookups, and page buttons for long rosters.
package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cs2-tracker/internal/config"
	"cs2-tracker/internal/constants"
	"cs2-tracker/internal/domain"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

type RosterFetcher interface {
	FetchRoster(ctx context.Context, q domain.RosterQuery) *domain.Roster
	GameTypes(ctx context.Context) []string
	Owners(ctx context.Context) []string
}

type StatsAggregator interface {
	AggregatePlayerStats(ctx context.Context, nickname string) (*domain.PlayerSummary, error)
	LastMatchDetail(ctx context.Context, nickname string) (*domain.LastMatch, error)
}

// responder is the part of *discordgo.Session that answers interactions.
type responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type Bot struct {
	session  *discordgo.Session
	guildID  string
	featured string
	roster   RosterFetcher
	stats    StatsAggregator
	sessions *sessionStore
	timeout  time.Duration
	now      func() time.Time
	logger   zerolog.Logger
}

func New(cfg *config.Config, roster RosterFetcher, stats StatsAggregator, logger zerolog.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	b := &Bot{
		session:  session,
		guildID:  cfg.DiscordGuildID,
		featured: strings.TrimSpace(cfg.FeaturedNickname),
		roster:   roster,
		stats:    stats,
		sessions: newSessionStore(constants.RosterSessionTTL),
		timeout:  cfg.RequestTimeout(),
		now:      time.Now,
		logger:   logger.With().Str("component", "bot").Logger(),
	}

	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.logger.Info().Str("user", r.User.String()).Int("guilds", len(r.Guilds)).Msg("discord session ready")
	})
	session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		b.dispatch(s, i)
	})

	return b, nil
}

// Start opens the gateway connection and registers the slash commands.
func (b *Bot) Start(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}

	cmds := buildCommands(b.roster.GameTypes(ctx), b.roster.Owners(ctx), b.featured)
	registered, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, b.guildID, cmds)
	if err != nil {
		b.session.Close()
		return fmt.Errorf("failed to register commands: %w", err)
	}

	b.logger.Info().Int("commands", len(registered)).Str("guild_id", b.guildID).Msg("commands registered")
	return nil
}

func (b *Bot) Stop() error {
	b.logger.Info().Msg("closing discord session")
	return b.session.Close()
}

func (b *Bot) dispatch(r responder, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.handleCommand(r, i.Interaction)
	case discordgo.InteractionMessageComponent:
		b.handleComponent(r, i.Interaction)
	}
}

func (b *Bot) handleCommand(r responder, i *discordgo.Interaction) {
	data := i.ApplicationCommandData()
	logger := b.logger.With().Str("command", data.Name).Str("user_id", interactionUser(i)).Logger()
	logger.Debug().Msg("command received")

	if err := r.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		logger.Error().Err(err).Msg("failed to defer response")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()
	ctx = logger.WithContext(ctx)

	var edit *discordgo.WebhookEdit
	switch data.Name {
	case cmdServers:
		edit = b.serversReply(ctx, domain.RosterQuery{
			Owner:    stringOption(data.Options, optOwner),
			GameType: stringOption(data.Options, optType),
		})
	case cmdElo:
		edit = b.statsReply(ctx, stringOption(data.Options, optNickname))
	case cmdFeatured:
		edit = b.statsReply(ctx, b.featured)
	case cmdLastMatch:
		edit = b.lastMatchReply(ctx, stringOption(data.Options, optNickname))
	default:
		edit = textEdit(fmt.Sprintf("Unknown command `%s`.", data.Name))
	}

	if _, err := r.InteractionResponseEdit(i, edit); err != nil {
		logger.Error().Err(err).Msg("failed to send reply")
	}
}

func (b *Bot) serversReply(ctx context.Context, q domain.RosterQuery) *discordgo.WebhookEdit {
	roster := b.roster.FetchRoster(ctx, q)
	label := filterLabel(q)
	embed, p := rosterPage(label, roster, 1)

	id, err := b.sessions.put(label, roster)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to store roster session, replying without buttons")
		return embedEdit(embed, nil)
	}
	return embedEdit(embed, rosterComponents(id, p))
}

func (b *Bot) statsReply(ctx context.Context, nickname string) *discordgo.WebhookEdit {
	summary, err := b.stats.AggregatePlayerStats(ctx, nickname)
	if err != nil {
		return textEdit(errorMessage(err, nickname))
	}
	return embedEdit(summaryEmbed(summary, b.now()), nil)
}

func (b *Bot) lastMatchReply(ctx context.Context, nickname string) *discordgo.WebhookEdit {
	last, err := b.stats.LastMatchDetail(ctx, nickname)
	if err != nil {
		return textEdit(errorMessage(err, nickname))
	}
	return embedEdit(lastMatchEmbed(last), nil)
}

// handleComponent redraws a roster page from its stored session.
func (b *Bot) handleComponent(r responder, i *discordgo.Interaction) {
	customID := i.MessageComponentData().CustomID
	logger := b.logger.With().Str("custom_id", customID).Str("user_id", interactionUser(i)).Logger()

	sessionID, page, ok := parseRosterButtonID(customID)
	if !ok {
		logger.Warn().Msg("unknown component")
		return
	}

	sess, ok := b.sessions.get(sessionID)
	if !ok {
		logger.Debug().Msg("roster session expired")
		if err := r.InteractionRespond(i, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: fmt.Sprintf("This list has expired, run `/%s` again.", cmdServers),
				Flags:   discordgo.MessageFlagsEphemeral,
			},
		}); err != nil {
			logger.Error().Err(err).Msg("failed to answer expired session")
		}
		return
	}

	embed, p := rosterPage(sess.label, sess.roster, page)
	if err := r.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: rosterComponents(sessionID, p),
		},
	}); err != nil {
		logger.Error().Err(err).Int("page", p.Page()).Msg("failed to update roster page")
	}
}

func textEdit(content string) *discordgo.WebhookEdit {
	return &discordgo.WebhookEdit{Content: &content}
}

func embedEdit(embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) *discordgo.WebhookEdit {
	embeds := []*discordgo.MessageEmbed{embed}
	if components == nil {
		components = []discordgo.MessageComponent{}
	}
	return &discordgo.WebhookEdit{Embeds: &embeds, Components: &components}
}

func interactionUser(i *discordgo.Interaction) string {
	switch {
	case i.Member != nil && i.Member.User != nil:
		return i.Member.User.ID
	case i.User != nil:
		return i.User.ID
	default:
		return ""
	}
}
