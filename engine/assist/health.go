package assist

import (
	"context"
	"fmt"

	"github.com/aibroker/support-assistant/pkg/fn"
)

// Component statuses.
const (
	StatusOperational = "operational"
	StatusDown        = "down"
)

// Overall statuses.
const (
	OverallHealthy  = "healthy"
	OverallDegraded = "degraded"
)

// ComponentHealth is one dependency's probe outcome.
type ComponentHealth struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// HealthReport is the composite health of the assistant's dependencies.
// Rebuilt on every check, never cached.
type HealthReport struct {
	Components map[string]ComponentHealth `json:"components"`
	Overall    string                     `json:"overall"`
	Error      string                     `json:"error,omitempty"`
}

// HealthCheck probes the vector store, the conversation channel, and
// the embedding provider concurrently. Each probe failure is recorded
// for that component only; overall is healthy iff every component is
// operational.
func (s *Service) HealthCheck(ctx context.Context) HealthReport {
	report := HealthReport{Components: map[string]ComponentHealth{}}

	probes := fn.FanOut(
		func() ComponentHealth { return s.probeStore(ctx) },
		func() ComponentHealth { return s.probeChannel(ctx) },
		func() ComponentHealth { return s.probeEmbedder(ctx) },
	)
	report.Components["store"] = probes[0]
	report.Components["channel"] = probes[1]
	report.Components["embedder"] = probes[2]

	report.Overall = OverallHealthy
	for _, c := range report.Components {
		if c.Status != StatusOperational {
			report.Overall = OverallDegraded
			break
		}
	}
	return report
}

func (s *Service) probeStore(ctx context.Context) ComponentHealth {
	exists, err := s.search.Exists(ctx)
	if err != nil {
		return ComponentHealth{Status: StatusDown, Detail: err.Error()}
	}
	if !exists {
		return ComponentHealth{Status: StatusDown, Detail: "collection missing"}
	}
	return ComponentHealth{Status: StatusOperational}
}

func (s *Service) probeChannel(ctx context.Context) ComponentHealth {
	if !s.channel.Health(ctx) {
		return ComponentHealth{Status: StatusDown, Detail: "api unreachable"}
	}
	return ComponentHealth{Status: StatusOperational}
}

func (s *Service) probeEmbedder(ctx context.Context) ComponentHealth {
	dims, err := s.embedder.Dimension(ctx)
	if err != nil {
		return ComponentHealth{Status: StatusDown, Detail: err.Error()}
	}
	return ComponentHealth{Status: StatusOperational, Detail: fmt.Sprintf("dimension=%d", dims)}
}
