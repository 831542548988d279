package server

import (
	"cs2-tracker/internal/domain"
	"cs2-tracker/internal/pagination"
)

type serverJSON struct {
	Name       string  `json:"name"`
	Owner      string  `json:"owner"`
	Type       string  `json:"type"`
	Address    string  `json:"address"`
	Connect    string  `json:"connect"`
	Players    int     `json:"players"`
	MaxPlayers int     `json:"max_players"`
	Map        string  `json:"map"`
	PingMs     float64 `json:"ping_ms"`
}

type endpointJSON struct {
	Name    string `json:"name"`
	Owner   string `json:"owner"`
	Type    string `json:"type"`
	Address string `json:"address"`
}

type rosterResponse struct {
	Type       string         `json:"type"`
	Owner      string         `json:"owner"`
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`
	PageSize   int            `json:"page_size"`
	Online     []serverJSON   `json:"online"`
	Offline    []endpointJSON `json:"offline"`
	// counts cover the whole roster, not just this page
	OnlineCount  int `json:"online_count"`
	OfflineCount int `json:"offline_count"`
	FullCount    int `json:"full_count"`
}

func newRosterResponse(q domain.RosterQuery, roster *domain.Roster, p *pagination.Pager) rosterResponse {
	resp := rosterResponse{
		Type:         orAll(q.GameType),
		Owner:        orAll(q.Owner),
		Page:         p.Page(),
		TotalPages:   p.TotalPages(),
		PageSize:     p.Size(),
		Online:       []serverJSON{},
		Offline:      []endpointJSON{},
		OnlineCount:  len(roster.Online),
		OfflineCount: len(roster.Offline),
		FullCount:    roster.Dropped,
	}

	for _, s := range pagination.Slice(roster.Online, p) {
		resp.Online = append(resp.Online, serverJSON{
			Name:       s.Name(),
			Owner:      s.Endpoint.OwnerTag,
			Type:       s.Endpoint.GameType,
			Address:    s.Endpoint.Address(),
			Connect:    s.ConnectString(),
			Players:    s.Info.PlayerCount,
			MaxPlayers: s.Info.MaxPlayers,
			Map:        s.Info.MapName,
			PingMs:     s.LatencyMs(),
		})
	}
	for _, s := range roster.Offline {
		resp.Offline = append(resp.Offline, endpointJSON{
			Name:    s.Endpoint.DisplayName,
			Owner:   s.Endpoint.OwnerTag,
			Type:    s.Endpoint.GameType,
			Address: s.Endpoint.Address(),
		})
	}
	return resp
}

func orAll(v string) string {
	if domain.IsUnfiltered(v) {
		return domain.AllFilter
	}
	return v
}

type profileJSON struct {
	PlayerID   string `json:"player_id"`
	Nickname   string `json:"nickname"`
	Elo        int    `json:"elo"`
	SkillLevel int    `json:"skill_level"`
	Avatar     string `json:"avatar,omitempty"`
	ProfileURL string `json:"profile_url"`
}

func newProfileJSON(p domain.PlayerProfile) profileJSON {
	return profileJSON{
		PlayerID:   p.PlayerID,
		Nickname:   p.Nickname,
		Elo:        p.Elo,
		SkillLevel: p.SkillLevel,
		Avatar:     p.AvatarURL,
		ProfileURL: p.ProfileURL,
	}
}

type playerResponse struct {
	profileJSON
	Lifetime struct {
		KDRatio         string `json:"kd_ratio"`
		HeadshotPercent string `json:"headshot_percent"`
		WinRatePercent  string `json:"win_rate_percent"`
		Matches         string `json:"matches"`
	} `json:"lifetime"`
	Recent struct {
		WindowHours int `json:"window_hours"`
		Wins        int `json:"wins"`
		Losses      int `json:"losses"`
		MatchesSeen int `json:"matches_seen"`
	} `json:"recent"`
}

func newPlayerResponse(s *domain.PlayerSummary) playerResponse {
	resp := playerResponse{profileJSON: newProfileJSON(s.Profile)}
	resp.Lifetime.KDRatio = s.Lifetime.KDRatio
	resp.Lifetime.HeadshotPercent = s.Lifetime.HeadshotPercent
	resp.Lifetime.WinRatePercent = s.Lifetime.WinRatePercent
	resp.Lifetime.Matches = s.Lifetime.TotalMatches
	resp.Recent.WindowHours = int(s.Window.Hours())
	resp.Recent.Wins = s.Last24h.Wins
	resp.Recent.Losses = s.Last24h.Losses
	resp.Recent.MatchesSeen = s.MatchesSeen
	return resp
}

type lastMatchResponse struct {
	Player   profileJSON    `json:"player"`
	MatchID  string         `json:"match_id"`
	MatchURL string         `json:"match_url"`
	Map      string         `json:"map"`
	Score    string         `json:"score"`
	Won      bool           `json:"won"`
	Stats    matchStatsJSON `json:"stats"`
}

type matchStatsJSON struct {
	Kills           string `json:"kills"`
	Deaths          string `json:"deaths"`
	Assists         string `json:"assists"`
	KDRatio         string `json:"kd_ratio"`
	HeadshotPercent string `json:"headshot_percent"`
	MVPs            string `json:"mvps"`
}

func newLastMatchResponse(m *domain.LastMatch) lastMatchResponse {
	return lastMatchResponse{
		Player:   newProfileJSON(m.Profile),
		MatchID:  m.MatchID,
		MatchURL: m.MatchURL,
		Map:      m.MapName,
		Score:    m.Score,
		Won:      m.Won,
		Stats: matchStatsJSON{
			Kills:           m.Stats.Kills,
			Deaths:          m.Stats.Deaths,
			Assists:         m.Stats.Assists,
			KDRatio:         m.Stats.KDRatio,
			HeadshotPercent: m.Stats.HeadshotPercent,
			MVPs:            m.Stats.MVPs,
		},
	}
}
