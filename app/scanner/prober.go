package scanner

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// ProbeStatus classifies the validation probe's verdict on a candidate key.
type ProbeStatus int

const (
	// ProbeInactive means the probe rejected the candidate (HTTP 403).
	ProbeInactive ProbeStatus = iota
	// ProbeActive means the candidate is a working key.
	ProbeActive
	// ProbeAmbiguous means the response matched neither shape; the candidate
	// is not treated as active.
	ProbeAmbiguous
)

// ProbeResult carries the verdict and, for active keys, the rate-limit
// descriptor reported by the probe endpoint.
type ProbeResult struct {
	Status    ProbeStatus
	RateLimit string
}

// Prober validates a candidate credential against a live endpoint.
type Prober interface {
	Probe(ctx context.Context, candidate string) (ProbeResult, error)
}

const rateLimitHeader = "X-App-Rate-Limit"

// HTTPProber validates candidates by sending them as a Riot API token to a
// fixed endpoint. A 403 means the key is inactive; any other status with the
// rate-limit header present means it is active.
type HTTPProber struct {
	url        string
	userAgent  string
	httpClient *http.Client
}

var _ Prober = (*HTTPProber)(nil)

func NewHTTPProber(url, userAgent string, httpClient *http.Client) *HTTPProber {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPProber{url: url, userAgent: userAgent, httpClient: httpClient}
}

func (p *HTTPProber) Probe(ctx context.Context, candidate string) (ProbeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return ProbeResult{}, fmt.Errorf("failed to create probe request: %w", err)
	}

	req.Header.Set("X-Riot-Token", candidate)
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return ProbeResult{}, fmt.Errorf("probe request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusForbidden {
		return ProbeResult{Status: ProbeInactive}, nil
	}

	if limit := resp.Header.Get(rateLimitHeader); limit != "" {
		return ProbeResult{Status: ProbeActive, RateLimit: limit}, nil
	}

	return ProbeResult{Status: ProbeAmbiguous}, nil
}
