package monitor

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/linkbridge/linkbridge/internal/metrics"
	"github.com/linkbridge/linkbridge/internal/models"
)

// defaultPageSize is how many links one List call loads during a pass.
const defaultPageSize = 200

// LinkLister is the slice of the link repository the monitor reads.
type LinkLister interface {
	List(ctx context.Context, limit, offset int) ([]models.Link, error)
}

// LinkMonitor periodically checks that each provider short URL still answers,
// and logs when one changes between reachable and unreachable.
type LinkMonitor struct {
	links        LinkLister
	interval     time.Duration
	checkTimeout time.Duration
	pageSize     int
	client       *http.Client
	logger       *zap.Logger

	mu          sync.Mutex
	knownStates map[uint]bool
}

// NewLinkMonitor builds a monitor. A nil client uses one that does not follow
// redirects: a provider short URL answering 3xx is healthy.
func NewLinkMonitor(links LinkLister, interval time.Duration, client *http.Client, logger *zap.Logger) *LinkMonitor {
	if client == nil {
		client = &http.Client{
			Timeout: 10 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LinkMonitor{
		links:        links,
		interval:     interval,
		checkTimeout: 5 * time.Second,
		pageSize:     defaultPageSize,
		client:       client,
		logger:       logger.Named("monitor"),
		knownStates:  make(map[uint]bool),
	}
}

// Start checks immediately and then on every tick until ctx is done.
func (m *LinkMonitor) Start(ctx context.Context) {
	m.logger.Info("starting link monitor", zap.Duration("interval", m.interval))
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("link monitor stopped")
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

// Check runs one pass over every stored link, a page at a time, and returns
// how many are currently unreachable. The gauge is only updated after a
// complete pass.
func (m *LinkMonitor) Check(ctx context.Context) int {
	unreachable := 0
	for offset := 0; ; {
		links, err := m.links.List(ctx, m.pageSize, offset)
		if err != nil {
			m.logger.Error("failed to list links for monitoring", zap.Int("offset", offset), zap.Error(err))
			return unreachable
		}
		for _, link := range links {
			if ctx.Err() != nil {
				return unreachable
			}
			if !m.checkLink(ctx, link) {
				unreachable++
			}
		}
		if len(links) < m.pageSize {
			break
		}
		offset += len(links)
	}
	metrics.SetUnreachableLinks(unreachable)
	return unreachable
}

func (m *LinkMonitor) checkLink(ctx context.Context, link models.Link) bool {
	current := m.isReachable(ctx, link.ExternalShortURL)

	m.mu.Lock()
	previous, seen := m.knownStates[link.ID]
	m.knownStates[link.ID] = current
	m.mu.Unlock()

	switch {
	case !seen:
		m.logger.Debug("initial link state",
			zap.String("token", link.Token), zap.String("url", link.ExternalShortURL), zap.String("state", formatState(current)))
	case previous != current:
		m.logger.Warn("link state changed",
			zap.String("token", link.Token),
			zap.String("url", link.ExternalShortURL),
			zap.String("from", formatState(previous)),
			zap.String("to", formatState(current)))
	}
	return current
}

// State reports the last observed state of a link.
func (m *LinkMonitor) State(id uint) (reachable, known bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reachable, known = m.knownStates[id]
	return reachable, known
}

func (m *LinkMonitor) isReachable(ctx context.Context, url string) bool {
	ctx, cancel := context.WithTimeout(ctx, m.checkTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 400
}

func formatState(reachable bool) string {
	if reachable {
		return "REACHABLE"
	}
	return "UNREACHABLE"
}
