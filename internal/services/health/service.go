package health

import (
	"context"
	"time"
)

const pingTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB and the redis client wrapper.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Service reports liveness plus the state of optional dependencies.
type Service struct {
	checks map[string]Pinger
}

// NewService constructs a health service. Nil pingers are ignored.
func NewService(checks map[string]Pinger) *Service {
	filtered := make(map[string]Pinger, len(checks))
	for name, p := range checks {
		if p != nil {
			filtered[name] = p
		}
	}
	return &Service{checks: filtered}
}

// Status returns the health payload and whether every dependency answered.
func (s *Service) Status(ctx context.Context) (map[string]any, bool) {
	out := map[string]any{"ok": true}
	healthy := true
	for name, p := range s.checks {
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := p.PingContext(pctx)
		cancel()
		if err != nil {
			out[name] = "down"
			healthy = false
			continue
		}
		out[name] = "up"
	}
	out["ok"] = healthy
	return out, healthy
}
