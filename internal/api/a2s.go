package api

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"cs2-tracker/internal/constants"
	"cs2-tracker/internal/domain"

	"github.com/rumblefrog/go-a2s"
)

// A2SProber queries Source engine servers with A2S_INFO. Each probe uses its
// own UDP client, so concurrent probes share nothing.
type A2SProber struct{}

func NewA2SProber() *A2SProber {
	return &A2SProber{}
}

func (p *A2SProber) Probe(ctx context.Context, host string, port int) (*domain.ServerInfo, error) {
	timeout := constants.ProbeTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if timeout <= 0 {
		return nil, domain.ErrUpstreamTimeout
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	client, err := a2s.NewClient(addr, a2s.TimeoutOption(timeout))
	if err != nil {
		return nil, fmt.Errorf("failed to create a2s client for %s: %w", addr, err)
	}
	// closing also unblocks a QueryInfo still waiting on the socket
	defer client.Close()

	type result struct {
		info *a2s.ServerInfo
		err  error
	}
	done := make(chan result, 1)
	go func() {
		info, err := client.QueryInfo()
		done <- result{info: info, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %s", domain.ErrUpstreamTimeout, addr)
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("failed to query %s: %w", addr, r.err)
		}
		return &domain.ServerInfo{
			ServerName:  r.info.Name,
			PlayerCount: int(r.info.Players),
			MaxPlayers:  int(r.info.MaxPlayers),
			MapName:     r.info.Map,
		}, nil
	}
}
