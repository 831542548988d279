package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cs2-tracker/internal/config"
	"cs2-tracker/internal/domain"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

// FaceitClient talks to the FACEIT Data API v4. One instance is shared by the
// whole process.
type FaceitClient struct {
	apiKey  string
	baseURL string
	client  *fasthttp.Client
	logger  zerolog.Logger
}

func NewFaceitClient(cfg *config.Config, logger zerolog.Logger) *FaceitClient {
	return &FaceitClient{
		apiKey:  cfg.FaceitAPIKey,
		baseURL: cfg.FaceitBaseURL,
		client: &fasthttp.Client{
			MaxConnsPerHost:     32,
			ReadTimeout:         cfg.FaceitTimeout,
			WriteTimeout:        cfg.FaceitTimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		logger: logger.With().Str("component", "faceit").Logger(),
	}
}

func (c *FaceitClient) Configured() bool {
	return c.apiKey != ""
}

type playerResponse struct {
	PlayerID  string              `json:"player_id"`
	Nickname  string              `json:"nickname"`
	Avatar    string              `json:"avatar"`
	FaceitURL string              `json:"faceit_url"`
	Games     map[string]gameInfo `json:"games"`
}

type gameInfo struct {
	FaceitElo  int `json:"faceit_elo"`
	SkillLevel int `json:"skill_level"`
}

func (c *FaceitClient) GetPlayerByNickname(ctx context.Context, nickname, game string) (*domain.PlayerProfile, error) {
	q := url.Values{}
	q.Set("nickname", nickname)

	resp, err := doRequest[playerResponse](ctx, c, "/players", q)
	if err != nil {
		return nil, err
	}
	if resp.PlayerID == "" {
		return nil, fmt.Errorf("%w: player response without player_id", domain.ErrMalformedUpstreamData)
	}

	g := resp.Games[game]
	return &domain.PlayerProfile{
		PlayerID:   resp.PlayerID,
		Nickname:   resp.Nickname,
		Elo:        g.FaceitElo,
		SkillLevel: g.SkillLevel,
		AvatarURL:  resp.Avatar,
		ProfileURL: localize(resp.FaceitURL),
	}, nil
}

func (c *FaceitClient) GetLifetimeStats(ctx context.Context, playerID, game string) (*domain.LifetimeStats, error) {
	path := fmt.Sprintf("/players/%s/stats/%s", url.PathEscape(playerID), url.PathEscape(game))
	body, err := c.doRaw(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	return parseLifetime(body)
}

// GetHistory lists matches finished after from (zero means unbounded), newest first.
func (c *FaceitClient) GetHistory(ctx context.Context, playerID, game string, from time.Time, limit int) ([]domain.MatchSummary, error) {
	q := url.Values{}
	q.Set("game", game)
	if !from.IsZero() {
		q.Set("from", strconv.FormatInt(from.Unix(), 10))
	}
	q.Set("limit", strconv.Itoa(limit))

	path := fmt.Sprintf("/players/%s/history", url.PathEscape(playerID))
	body, err := c.doRaw(ctx, path, q)
	if err != nil {
		return nil, err
	}
	return parseHistory(body, c.logger), nil
}

func (c *FaceitClient) GetMatchStats(ctx context.Context, matchID string) (*domain.MatchDetailStats, error) {
	path := fmt.Sprintf("/matches/%s/stats", url.PathEscape(matchID))
	body, err := c.doRaw(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	return parseMatchStats(matchID, body, c.logger)
}

func doRequest[T any](ctx context.Context, client *FaceitClient, path string, query url.Values) (*T, error) {
	body, err := client.doRaw(ctx, path, query)
	if err != nil {
		return nil, err
	}

	var result T
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedUpstreamData, err)
	}
	return &result, nil
}

// doRaw returns a copy of the body of a 200 response. 404 maps to
// domain.ErrNotFound and any deadline hit to domain.ErrUpstreamTimeout.
func (c *FaceitClient) doRaw(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, classifyTransportErr(path, err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	uri := c.baseURL + path
	if len(query) > 0 {
		uri += "?" + query.Encode()
	}

	req.SetRequestURI(uri)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = c.client.DoDeadline(req, resp, deadline)
	} else {
		err = c.client.Do(req, resp)
	}
	if err != nil {
		c.logger.Debug().Err(err).Str("path", path).Dur("elapsed", time.Since(start)).Msg("request failed")
		return nil, classifyTransportErr(path, err)
	}

	status := resp.StatusCode()
	c.logger.Debug().Str("path", path).Int("status", status).Dur("elapsed", time.Since(start)).Msg("request completed")

	switch status {
	case fasthttp.StatusOK:
		return append([]byte(nil), resp.Body()...), nil
	case fasthttp.StatusNotFound:
		return nil, fmt.Errorf("%w: GET %s", domain.ErrNotFound, path)
	default:
		return nil, fmt.Errorf("%w: GET %s returned %d", domain.ErrUpstream, path, status)
	}
}

func classifyTransportErr(path string, err error) error {
	var netErr net.Error
	if errors.Is(err, fasthttp.ErrTimeout) ||
		errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: GET %s", domain.ErrUpstreamTimeout, path)
	}
	return fmt.Errorf("GET %s: %w", path, err)
}

func localize(u string) string {
	if u == "" {
		return "https://www.faceit.com"
	}
	return strings.ReplaceAll(u, "{lang}", "en")
}
