package domain

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// AllFilter disables a roster filter when given as its value.
const AllFilter = "all"

type ServerEndpoint struct {
	DisplayName string `json:"name"`
	OwnerTag    string `json:"owner"`
	GameType    string `json:"type"`
	Host        string `json:"host"`
	Port        int    `json:"port"`
}

func (e ServerEndpoint) Address() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// ServerInfo is what a successful A2S info query reports.
type ServerInfo struct {
	ServerName  string
	PlayerCount int
	MaxPlayers  int
	MapName     string
}

type ServerStatus struct {
	Endpoint  ServerEndpoint
	Reachable bool
	// nil unless Reachable
	Info    *ServerInfo
	Latency time.Duration
}

func (s ServerStatus) LatencyMs() float64 {
	if !s.Reachable {
		return 0
	}
	return float64(s.Latency.Microseconds()) / 1000
}

func (s ServerStatus) HasRoom() bool {
	return s.Reachable && s.Info != nil && s.Info.PlayerCount < s.Info.MaxPlayers
}

// Name prefers the name the server advertises over the configured one.
func (s ServerStatus) Name() string {
	if s.Info != nil && s.Info.ServerName != "" {
		return s.Info.ServerName
	}
	return s.Endpoint.DisplayName
}

func (s ServerStatus) ConnectString() string {
	return fmt.Sprintf("connect %s", s.Endpoint.Address())
}

type RosterQuery struct {
	GameType string
	Owner    string
}

// IsUnfiltered reports whether a filter value selects every endpoint.
func IsUnfiltered(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, AllFilter)
}

type Roster struct {
	Online  []ServerStatus
	Offline []ServerStatus
	// reachable servers with no free slot, left out of Online
	Dropped int
}

type PlayerProfile struct {
	PlayerID   string
	Nickname   string
	Elo        int
	SkillLevel int
	AvatarURL  string
	ProfileURL string
}

// LifetimeStats keeps the upstream's own formatting, it is only displayed.
type LifetimeStats struct {
	KDRatio         string
	HeadshotPercent string
	WinRatePercent  string
	TotalMatches    string
}

type MatchStatus int

const (
	MatchStatusOther MatchStatus = iota
	MatchStatusFinished
)

func ParseMatchStatus(s string) MatchStatus {
	if strings.EqualFold(strings.TrimSpace(s), "finished") {
		return MatchStatusFinished
	}
	return MatchStatusOther
}

func (s MatchStatus) String() string {
	if s == MatchStatusFinished {
		return "finished"
	}
	return "other"
}

type Faction struct {
	Name   string
	Roster []RosterEntry
}

type MatchSummary struct {
	MatchID string
	Status  MatchStatus
	// in the order the upstream listed them
	Factions       []Faction
	WinningFaction string
	URL            string
	FinishedAt     time.Time
}

type PlayerMatchStats struct {
	Kills           string
	Deaths          string
	Assists         string
	KDRatio         string
	HeadshotPercent string
	MVPs            string
}

type DetailPlayer struct {
	Entry RosterEntry
	Stats PlayerMatchStats
}

type DetailFaction struct {
	Name    string
	Won     bool
	Players []DetailPlayer
}

type MatchDetailStats struct {
	MatchID  string
	MapName  string
	Score    string
	Factions []DetailFaction
}

func (m *MatchDetailStats) PerPlayerStats() map[string]PlayerMatchStats {
	out := make(map[string]PlayerMatchStats)
	for _, f := range m.Factions {
		for _, p := range f.Players {
			id, ok := p.Entry.PlayerID()
			if !ok {
				continue
			}
			if _, seen := out[id]; !seen {
				out[id] = p.Stats
			}
		}
	}
	return out
}

func (m *MatchDetailStats) PerFactionWin() map[string]bool {
	out := make(map[string]bool, len(m.Factions))
	for _, f := range m.Factions {
		out[f.Name] = f.Won
	}
	return out
}

// Locate returns the stats and faction of the first entry carrying playerID.
func (m *MatchDetailStats) Locate(playerID string) (PlayerMatchStats, DetailFaction, bool) {
	for _, f := range m.Factions {
		for _, p := range f.Players {
			if p.Entry.Is(playerID) {
				return p.Stats, f, true
			}
		}
	}
	return PlayerMatchStats{}, DetailFaction{}, false
}

type Record struct {
	Wins   int
	Losses int
}

type PlayerSummary struct {
	Profile  PlayerProfile
	Lifetime LifetimeStats
	Last24h  Record
	Window   time.Duration
	// matches returned for the window, counted or not
	MatchesSeen int
}

type LastMatch struct {
	Profile  PlayerProfile
	MatchID  string
	MatchURL string
	MapName  string
	Score    string
	Stats    PlayerMatchStats
	Won      bool
}
