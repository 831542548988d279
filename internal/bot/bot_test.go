package bot

import (
	"context"
	"testing"
	"time"

	"cs2-tracker/internal/domain"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockResponder struct {
	mock.Mock
}

func (m *mockResponder) InteractionRespond(i *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	return m.Called(i, resp).Error(0)
}

func (m *mockResponder) InteractionResponseEdit(i *discordgo.Interaction, edit *discordgo.WebhookEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	args := m.Called(i, edit)
	return nil, args.Error(1)
}

type mockRoster struct {
	mock.Mock
}

func (m *mockRoster) FetchRoster(ctx context.Context, q domain.RosterQuery) *domain.Roster {
	return m.Called(ctx, q).Get(0).(*domain.Roster)
}

func (m *mockRoster) GameTypes(ctx context.Context) []string {
	return m.Called(ctx).Get(0).([]string)
}

func (m *mockRoster) Owners(ctx context.Context) []string {
	return m.Called(ctx).Get(0).([]string)
}

type mockStats struct {
	mock.Mock
}

func (m *mockStats) AggregatePlayerStats(ctx context.Context, nickname string) (*domain.PlayerSummary, error) {
	args := m.Called(ctx, nickname)
	summary, _ := args.Get(0).(*domain.PlayerSummary)
	return summary, args.Error(1)
}

func (m *mockStats) LastMatchDetail(ctx context.Context, nickname string) (*domain.LastMatch, error) {
	args := m.Called(ctx, nickname)
	last, _ := args.Get(0).(*domain.LastMatch)
	return last, args.Error(1)
}

func newTestBot(roster RosterFetcher, stats StatsAggregator) *Bot {
	return &Bot{
		featured: "Bichoblamef",
		roster:   roster,
		stats:    stats,
		sessions: newSessionStore(time.Minute),
		timeout:  time.Minute,
		now:      time.Now,
		logger:   zerolog.Nop(),
	}
}

func commandInteraction(name string, opts map[string]string) *discordgo.InteractionCreate {
	var options []*discordgo.ApplicationCommandInteractionDataOption
	for k, v := range opts {
		options = append(options, &discordgo.ApplicationCommandInteractionDataOption{
			Name:  k,
			Type:  discordgo.ApplicationCommandOptionString,
			Value: v,
		})
	}
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:   "interaction",
		Type: discordgo.InteractionApplicationCommand,
		Data: discordgo.ApplicationCommandInteractionData{Name: name, Options: options},
		User: &discordgo.User{ID: "U1"},
	}}
}

func componentInteraction(customID string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:   "click",
		Type: discordgo.InteractionMessageComponent,
		Data: discordgo.MessageComponentInteractionData{CustomID: customID},
	}}
}

func isDeferred(resp *discordgo.InteractionResponse) bool {
	return resp.Type == discordgo.InteractionResponseDeferredChannelMessageWithSource
}

// captureEdit records the reply sent after the deferred response.
func captureEdit(r *mockResponder) *discordgo.WebhookEdit {
	edit := &discordgo.WebhookEdit{}
	r.On("InteractionRespond", mock.Anything, mock.MatchedBy(isDeferred)).Return(nil).Once()
	r.On("InteractionResponseEdit", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			*edit = *args.Get(1).(*discordgo.WebhookEdit)
		}).
		Return(nil, nil).Once()
	return edit
}

func TestServersCommand(t *testing.T) {
	roster := new(mockRoster)
	r := new(mockResponder)
	b := newTestBot(roster, new(mockStats))

	roster.On("FetchRoster", mock.Anything, domain.RosterQuery{Owner: "TUGA ARMY", GameType: "all"}).
		Return(&domain.Roster{Online: onlineServers(7)})
	edit := captureEdit(r)

	b.dispatch(r, commandInteraction(cmdServers, map[string]string{optOwner: "TUGA ARMY", optType: "all"}))

	require.NotNil(t, edit.Embeds)
	require.Len(t, *edit.Embeds, 1)
	assert.Equal(t, "🖥️ Status: TUGA ARMY (page 1/2)", (*edit.Embeds)[0].Title)
	require.NotNil(t, edit.Components)
	row := (*edit.Components)[0].(discordgo.ActionsRow)
	next := row.Components[1].(discordgo.Button)

	sessionID, page, ok := parseRosterButtonID(next.CustomID)
	require.True(t, ok)
	assert.Equal(t, 2, page)
	_, stored := b.sessions.get(sessionID)
	assert.True(t, stored)

	roster.AssertExpectations(t)
	r.AssertExpectations(t)
}

func TestRosterButtonRedrawsFromSession(t *testing.T) {
	roster := new(mockRoster)
	r := new(mockResponder)
	b := newTestBot(roster, new(mockStats))

	id, err := b.sessions.put("All", &domain.Roster{Online: onlineServers(7)})
	require.NoError(t, err)

	var resp *discordgo.InteractionResponse
	r.On("InteractionRespond", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { resp = args.Get(1).(*discordgo.InteractionResponse) }).
		Return(nil).Once()

	b.dispatch(r, componentInteraction(rosterButtonID(id, 2)))

	require.NotNil(t, resp)
	assert.Equal(t, discordgo.InteractionResponseUpdateMessage, resp.Type)
	assert.Equal(t, "🖥️ Status: All (page 2/2)", resp.Data.Embeds[0].Title)
	// no new probes for a page change
	roster.AssertNotCalled(t, "FetchRoster", mock.Anything, mock.Anything)
}

func TestRosterButtonExpiredSession(t *testing.T) {
	r := new(mockResponder)
	b := newTestBot(new(mockRoster), new(mockStats))

	var resp *discordgo.InteractionResponse
	r.On("InteractionRespond", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { resp = args.Get(1).(*discordgo.InteractionResponse) }).
		Return(nil).Once()

	b.dispatch(r, componentInteraction(rosterButtonID("gone", 2)))

	require.NotNil(t, resp)
	assert.Equal(t, discordgo.InteractionResponseChannelMessageWithSource, resp.Type)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, resp.Data.Flags)
}

func TestUnknownComponentIsIgnored(t *testing.T) {
	r := new(mockResponder)
	b := newTestBot(new(mockRoster), new(mockStats))

	b.dispatch(r, componentInteraction("something-else"))

	r.AssertNotCalled(t, "InteractionRespond", mock.Anything, mock.Anything)
}

func TestEloCommand(t *testing.T) {
	stats := new(mockStats)
	r := new(mockResponder)
	b := newTestBot(new(mockRoster), stats)

	stats.On("AggregatePlayerStats", mock.Anything, "someone").Return(&domain.PlayerSummary{
		Profile: domain.PlayerProfile{PlayerID: "P1", Nickname: "someone"},
		Last24h: domain.Record{Wins: 1},
	}, nil)
	edit := captureEdit(r)

	b.dispatch(r, commandInteraction(cmdElo, map[string]string{optNickname: "someone"}))

	require.NotNil(t, edit.Embeds)
	assert.Equal(t, "FACEIT stats for someone", (*edit.Embeds)[0].Title)
	stats.AssertExpectations(t)
	r.AssertExpectations(t)
}

func TestFeaturedCommandUsesConfiguredNickname(t *testing.T) {
	stats := new(mockStats)
	r := new(mockResponder)
	b := newTestBot(new(mockRoster), stats)

	stats.On("AggregatePlayerStats", mock.Anything, "Bichoblamef").Return(nil, domain.ErrUpstreamTimeout)
	edit := captureEdit(r)

	b.dispatch(r, commandInteraction(cmdFeatured, nil))

	require.NotNil(t, edit.Content)
	assert.Contains(t, *edit.Content, "too long")
	stats.AssertExpectations(t)
}

func TestLastMatchCommandError(t *testing.T) {
	stats := new(mockStats)
	r := new(mockResponder)
	b := newTestBot(new(mockRoster), stats)

	stats.On("LastMatchDetail", mock.Anything, "unknown_nick_xyz").Return(nil, domain.ErrNotFound)
	edit := captureEdit(r)

	b.dispatch(r, commandInteraction(cmdLastMatch, map[string]string{optNickname: "unknown_nick_xyz"}))

	require.NotNil(t, edit.Content)
	assert.Equal(t, "Player `unknown_nick_xyz` was not found on FACEIT.", *edit.Content)
}

func TestBuildCommands(t *testing.T) {
	types := make([]string, 40)
	for i := range types {
		types[i] = string(rune('A' + i))
	}

	cmds := buildCommands(types, []string{"TUGA ARMY"}, "")
	names := []string{}
	for _, c := range cmds {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{cmdServers, cmdElo, cmdLastMatch}, names)

	servers := cmds[0]
	owner, typ := servers.Options[0], servers.Options[1]
	assert.Equal(t, optOwner, owner.Name)
	require.Len(t, owner.Choices, 2)
	assert.Equal(t, domain.AllFilter, owner.Choices[0].Value)
	assert.Len(t, typ.Choices, 25)
	assert.True(t, cmds[1].Options[0].Required)

	withFeatured := buildCommands(nil, nil, "Bichoblamef")
	assert.Equal(t, cmdFeatured, withFeatured[len(withFeatured)-1].Name)
}

func TestCommandDeadlineFollowsTimeout(t *testing.T) {
	stats := new(mockStats)
	r := new(mockResponder)
	b := newTestBot(new(mockRoster), stats)
	b.timeout = 65 * time.Second

	longDeadline := mock.MatchedBy(func(ctx context.Context) bool {
		deadline, ok := ctx.Deadline()
		return ok && time.Until(deadline) > time.Minute
	})
	stats.On("AggregatePlayerStats", longDeadline, "someone").Return(&domain.PlayerSummary{
		Profile: domain.PlayerProfile{PlayerID: "P1", Nickname: "someone"},
	}, nil)
	captureEdit(r)

	b.dispatch(r, commandInteraction(cmdElo, map[string]string{optNickname: "someone"}))

	stats.AssertExpectations(t)
}
