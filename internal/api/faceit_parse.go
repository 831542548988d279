package api

import (
	"fmt"
	"time"

	"cs2-tracker/internal/domain"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

func parseLifetime(body []byte) (*domain.LifetimeStats, error) {
	lifetime := gjson.GetBytes(body, "lifetime")
	if !lifetime.IsObject() {
		return nil, fmt.Errorf("%w: no lifetime section", domain.ErrNoStats)
	}

	fields := fieldMap(lifetime)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty lifetime section", domain.ErrNoStats)
	}

	return &domain.LifetimeStats{
		KDRatio:         fields["Average K/D Ratio"],
		HeadshotPercent: fields["Average Headshots %"],
		WinRatePercent:  fields["Win Rate %"],
		TotalMatches:    fields["Matches"],
	}, nil
}

// parseHistory keeps every well-formed item of a history page. Items whose
// teams are not an object are logged and dropped.
func parseHistory(body []byte, logger zerolog.Logger) []domain.MatchSummary {
	items := gjson.GetBytes(body, "items")
	if !items.IsArray() {
		logger.Warn().Err(domain.ErrMalformedUpstreamData).Msg("history response without items array")
		return nil
	}

	var matches []domain.MatchSummary
	for _, item := range items.Array() {
		m, err := parseMatchSummary(item, logger)
		if err != nil {
			logger.Warn().Err(err).Str("match_id", item.Get("match_id").String()).Msg("skipping history item")
			continue
		}
		matches = append(matches, m)
	}
	return matches
}

func parseMatchSummary(item gjson.Result, logger zerolog.Logger) (domain.MatchSummary, error) {
	if !item.IsObject() {
		return domain.MatchSummary{}, fmt.Errorf("%w: history item is %s", domain.ErrMalformedUpstreamData, item.Type)
	}

	m := domain.MatchSummary{
		MatchID:        item.Get("match_id").String(),
		Status:         domain.ParseMatchStatus(item.Get("status").String()),
		WinningFaction: item.Get("results.winner").String(),
		URL:            localize(item.Get("faceit_url").String()),
	}
	if ts := item.Get("finished_at").Int(); ts > 0 {
		m.FinishedAt = time.Unix(ts, 0)
	}

	teams := item.Get("teams")
	if !teams.IsObject() {
		return m, fmt.Errorf("%w: teams is not an object", domain.ErrMalformedUpstreamData)
	}

	// ForEach walks the object in document order, which fixes which faction is
	// seen first.
	teams.ForEach(func(name, team gjson.Result) bool {
		if !team.IsObject() {
			logger.Debug().Str("match_id", m.MatchID).Str("faction", name.String()).Msg("faction is not an object, ignoring")
			return true
		}
		f := domain.Faction{Name: name.String()}
		for _, p := range team.Get("players").Array() {
			if entry, ok := parseRosterEntry(p); ok {
				f.Roster = append(f.Roster, entry)
			}
		}
		m.Factions = append(m.Factions, f)
		return true
	})

	return m, nil
}

func parseRosterEntry(r gjson.Result) (domain.RosterEntry, bool) {
	switch {
	case r.Type == gjson.String:
		if r.String() == "" {
			return domain.RosterEntry{}, false
		}
		return domain.BareEntry(r.String()), true
	case r.IsObject():
		id := r.Get("player_id")
		if id.Type != gjson.String || id.String() == "" {
			return domain.RosterEntry{}, false
		}
		return domain.RecordEntry(id.String(), r.Get("nickname").String()), true
	default:
		return domain.RosterEntry{}, false
	}
}

func parseMatchStats(matchID string, body []byte, logger zerolog.Logger) (*domain.MatchDetailStats, error) {
	round := gjson.GetBytes(body, "rounds.0")
	if !round.IsObject() {
		return nil, fmt.Errorf("%w: match %s has no rounds", domain.ErrMatchStatsUnavailable, matchID)
	}

	roundStats := fieldMap(round.Get("round_stats"))
	detail := &domain.MatchDetailStats{
		MatchID: matchID,
		MapName: roundStats["Map"],
		Score:   roundStats["Score"],
	}

	appendTeam := func(fallbackName string, team gjson.Result) {
		if !team.IsObject() {
			logger.Debug().Str("match_id", matchID).Msg("team is not an object, ignoring")
			return
		}
		name := team.Get("team_id").String()
		if name == "" {
			name = fallbackName
		}
		f := domain.DetailFaction{
			Name: name,
			Won:  fieldMap(team.Get("team_stats"))["Team Win"] == "1",
		}
		for _, p := range team.Get("players").Array() {
			entry, ok := parseRosterEntry(p)
			if !ok {
				continue
			}
			f.Players = append(f.Players, domain.DetailPlayer{
				Entry: entry,
				Stats: parsePlayerStats(p.Get("player_stats")),
			})
		}
		detail.Factions = append(detail.Factions, f)
	}

	teams := round.Get("teams")
	switch {
	case teams.IsArray():
		for i, team := range teams.Array() {
			appendTeam(fmt.Sprintf("team%d", i+1), team)
		}
	case teams.IsObject():
		teams.ForEach(func(key, team gjson.Result) bool {
			appendTeam(key.String(), team)
			return true
		})
	default:
		return nil, fmt.Errorf("%w: match %s round has no teams", domain.ErrMalformedUpstreamData, matchID)
	}

	return detail, nil
}

func parsePlayerStats(r gjson.Result) domain.PlayerMatchStats {
	f := fieldMap(r)
	return domain.PlayerMatchStats{
		Kills:           f["Kills"],
		Deaths:          f["Deaths"],
		Assists:         f["Assists"],
		KDRatio:         f["K/D Ratio"],
		HeadshotPercent: f["Headshots %"],
		MVPs:            f["MVPs"],
	}
}

// fieldMap flattens one level of an object. Keys such as "Headshots %" are
// read this way instead of through a gjson path.
func fieldMap(r gjson.Result) map[string]string {
	out := make(map[string]string)
	if !r.IsObject() {
		return out
	}
	r.ForEach(func(k, v gjson.Result) bool {
		out[k.String()] = v.String()
		return true
	})
	return out
}
