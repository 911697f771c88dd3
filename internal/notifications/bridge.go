package notifications

import (
	"github.com/DEVCOACH/internal/agent"
	"github.com/DEVCOACH/internal/domain"
	"github.com/DEVCOACH/internal/observable"
)

// BridgeToRouter subscribes to the reality-check and agent-suggestion
// topics and routes every critical-priority item through router, the
// way the teacher's server.go wires its event bus straight into
// notifyRouter.Route in a dedicated goroutine. Call once per process;
// it runs until done is closed.
func BridgeToRouter(obs *observable.Registry, router *Router, done <-chan struct{}) {
	go bridgeRealityChecks(obs, router, done)
	go bridgeAgentSuggestions(obs, router, done)
}

func bridgeRealityChecks(obs *observable.Registry, router *Router, done <-chan struct{}) {
	sub := obs.Subscribe(observable.TopicRealityChecks)
	defer sub.Close()
	for {
		select {
		case <-done:
			return
		case update, ok := <-sub.C:
			if !ok {
				return
			}
			snapshot, ok := update.Value.(*domain.RealitySnapshot)
			if !ok || snapshot == nil {
				continue
			}
			for _, d := range snapshot.Discrepancies {
				if d.Severity != domain.SeverityCritical {
					continue
				}
				router.Route(FromDiscrepancy(d))
			}
		}
	}
}

func bridgeAgentSuggestions(obs *observable.Registry, router *Router, done <-chan struct{}) {
	sub := obs.Subscribe(observable.TopicAgentSuggestions)
	defer sub.Close()
	for {
		select {
		case <-done:
			return
		case update, ok := <-sub.C:
			if !ok {
				return
			}
			result, ok := update.Value.(*agent.RunResult)
			if !ok || result == nil {
				continue
			}
			for _, s := range result.Suggestions {
				if s.Priority != "critical" {
					continue
				}
				router.Route(FromSuggestion(s))
			}
		}
	}
}
