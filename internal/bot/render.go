package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cs2-tracker/internal/constants"
	"cs2-tracker/internal/domain"
	"cs2-tracker/internal/pagination"

	"github.com/bwmarrin/discordgo"
)

const (
	colorBlurple = 0x5865F2
	colorGreen   = 0x2ECC71
	colorRed     = 0xE74C3C
	colorOrange  = 0xE67E22

	notAvailable  = "N/A"
	faceitIconURL = "https://files.catbox.moe/6v01M.png"

	// Discord rejects embed field values longer than this.
	maxFieldValue = 1024
)

func pingIndicator(ms float64) string {
	switch {
	case ms < 60:
		return "🟢"
	case ms < 100:
		return "🟡"
	default:
		return "🔴"
	}
}

func filterLabel(q domain.RosterQuery) string {
	var parts []string
	if !domain.IsUnfiltered(q.GameType) {
		parts = append(parts, q.GameType)
	}
	if !domain.IsUnfiltered(q.Owner) {
		parts = append(parts, q.Owner)
	}
	if len(parts) == 0 {
		return "All"
	}
	return strings.Join(parts, " / ")
}

// rosterPage renders one page of the online list. page is clamped.
func rosterPage(label string, roster *domain.Roster, page int) (*discordgo.MessageEmbed, *pagination.Pager) {
	p := pagination.New(len(roster.Online), constants.RosterPageSize)
	p.Goto(page)

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🖥️ Status: %s (page %d/%d)", label, p.Page(), p.TotalPages()),
		Color:       colorBlurple,
		Description: "Servers sorted by **lowest ping**.",
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("%d online with free slots • %d offline • %d full",
				len(roster.Online), len(roster.Offline), roster.Dropped),
		},
	}

	if len(roster.Online) == 0 {
		embed.Fields = []*discordgo.MessageEmbedField{{
			Name:  "ℹ️ No servers available",
			Value: fmt.Sprintf("No `%s` server with free slots was found.", label),
		}}
		return embed, p
	}

	var lines []string
	for _, s := range pagination.Slice(roster.Online, p) {
		lines = append(lines, serverLine(s))
	}
	embed.Fields = []*discordgo.MessageEmbedField{{
		Name:  fmt.Sprintf("✅ Online (page %d/%d)", p.Page(), p.TotalPages()),
		Value: truncate(strings.Join(lines, "\n\n"), maxFieldValue),
	}}
	return embed, p
}

func serverLine(s domain.ServerStatus) string {
	ms := s.LatencyMs()
	return fmt.Sprintf("**%s**\n🧍 `%d/%d` | %s `%.1f ms` | 🗺️ `%s`\n🔗 ```%s```",
		s.Name(),
		s.Info.PlayerCount, s.Info.MaxPlayers,
		pingIndicator(ms), ms,
		s.Info.MapName,
		s.ConnectString(),
	)
}

func rosterComponents(sessionID string, p *pagination.Pager) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "⬅️ Previous",
					Style:    discordgo.SecondaryButton,
					CustomID: rosterButtonID(sessionID, p.Page()-1),
					Disabled: !p.HasPrev(),
				},
				discordgo.Button{
					Label:    "Next ➡️",
					Style:    discordgo.SecondaryButton,
					CustomID: rosterButtonID(sessionID, p.Page()+1),
					Disabled: !p.HasNext(),
				},
			},
		},
	}
}

func recordColor(r domain.Record) int {
	switch {
	case r.Wins > r.Losses:
		return colorGreen
	case r.Losses > r.Wins:
		return colorRed
	default:
		return colorOrange
	}
}

func summaryEmbed(s *domain.PlayerSummary, now time.Time) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("FACEIT stats for %s", s.Profile.Nickname),
		URL:   s.Profile.ProfileURL,
		Color: recordColor(s.Last24h),
		Author: &discordgo.MessageEmbedAuthor{
			Name:    "FACEIT Stats",
			IconURL: faceitIconURL,
		},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Elo", Value: bold(intOrNA(s.Profile.Elo)), Inline: true},
			{Name: "Level", Value: bold(intOrNA(s.Profile.SkillLevel)), Inline: true},
			{Name: "Total matches", Value: orNA(s.Lifetime.TotalMatches), Inline: true},
			{Name: "K/D (lifetime)", Value: orNA(s.Lifetime.KDRatio), Inline: true},
			{Name: "Win rate (lifetime)", Value: percent(s.Lifetime.WinRatePercent), Inline: true},
			{Name: "HS (lifetime)", Value: percent(s.Lifetime.HeadshotPercent), Inline: true},
			{
				Name:  fmt.Sprintf("Result (last %s)", windowLabel(s.Window)),
				Value: bold(fmt.Sprintf("%dW / %dL", s.Last24h.Wins, s.Last24h.Losses)),
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("ID: %s • Updated at %s", s.Profile.PlayerID, now.Format("15:04:05")),
		},
	}
	if s.Profile.AvatarURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: s.Profile.AvatarURL}
	}
	return embed
}

func lastMatchEmbed(m *domain.LastMatch) *discordgo.MessageEmbed {
	result, color := "Defeat", colorRed
	if m.Won {
		result, color = "Victory", colorGreen
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Last match of %s", m.Profile.Nickname),
		URL:   m.MatchURL,
		Color: color,
		Author: &discordgo.MessageEmbedAuthor{
			Name:    fmt.Sprintf("%s on %s (%s)", result, orNA(m.MapName), orNA(m.Score)),
			IconURL: faceitIconURL,
		},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Kills", Value: bold(orNA(m.Stats.Kills)), Inline: true},
			{Name: "Deaths", Value: bold(orNA(m.Stats.Deaths)), Inline: true},
			{Name: "Assists", Value: bold(orNA(m.Stats.Assists)), Inline: true},
			{Name: "K/D", Value: bold(orNA(m.Stats.KDRatio)), Inline: true},
			{Name: "Headshots", Value: percent(m.Stats.HeadshotPercent), Inline: true},
			{Name: "MVPs", Value: orNA(m.Stats.MVPs), Inline: true},
			{Name: "🔗 Match link", Value: fmt.Sprintf("[Watch the demo on FACEIT](%s)", m.MatchURL)},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Match ID: %s", m.MatchID)},
	}
	if m.Profile.AvatarURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: m.Profile.AvatarURL}
	}
	return embed
}

// errorMessage turns a lookup failure into the reply shown to the user.
func errorMessage(err error, nickname string) string {
	switch {
	case errors.Is(err, domain.ErrMissingAPIKey):
		return "FACEIT stats are not configured on this bot."
	case errors.Is(err, domain.ErrNoStats):
		return fmt.Sprintf("`%s` has no CS2 stats on FACEIT.", nickname)
	case errors.Is(err, domain.ErrNoHistory):
		return fmt.Sprintf("`%s` has no matches on FACEIT yet.", nickname)
	case errors.Is(err, domain.ErrMatchStatsUnavailable):
		return fmt.Sprintf("Stats for the last match of `%s` are not available yet.", nickname)
	case errors.Is(err, domain.ErrPlayerNotInMatch):
		return fmt.Sprintf("Could not find `%s` in the stats of their last match.", nickname)
	case errors.Is(err, domain.ErrNotFound):
		return fmt.Sprintf("Player `%s` was not found on FACEIT.", nickname)
	case errors.Is(err, domain.ErrUpstreamTimeout):
		return "FACEIT took too long to answer, try again in a moment."
	default:
		return "Something went wrong while talking to FACEIT."
	}
}

func windowLabel(d time.Duration) string {
	if d <= 0 {
		d = constants.HistoryWindow
	}
	return fmt.Sprintf("%dh", int(d.Hours()))
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}

func intOrNA(v int) string {
	if v <= 0 {
		return notAvailable
	}
	return strconv.Itoa(v)
}

func percent(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s + "%"
}

func bold(s string) string {
	return "**" + s + "**"
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
