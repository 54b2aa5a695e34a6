package judge

import (
	"fmt"
	"time"
)

// CheckStatus is the outcome of one integration check.
type CheckStatus string

const (
	// CheckPass marks a satisfied check.
	CheckPass CheckStatus = "pass"
	// CheckWarn marks a check that is satisfiable but currently degraded.
	CheckWarn CheckStatus = "warn"
	// CheckFail marks a violated check.
	CheckFail CheckStatus = "fail"
)

// IntegrationCheck is one structural probe of the assembled system.
type IntegrationCheck struct {
	Name   string      `json:"name"`
	Status CheckStatus `json:"status"`
	Detail string      `json:"detail,omitempty"`
}

// IntegrationReport is the result of one RunIntegrationChecks call. Passed is
// true when no check failed; warnings do not block.
type IntegrationReport struct {
	Checks []IntegrationCheck `json:"checks"`
	Passed bool               `json:"passed"`
	RanAt  time.Time          `json:"ran_at"`
}

// RunIntegrationChecks probes the wiring between the runtime and the
// simulation harness: trace pipeline, shared memory, scenario registry, agent
// executor and tool schemas. Checks are structural, not behavioral; behavior
// is covered by scenario replays.
func (t *Team) RunIntegrationChecks() IntegrationReport {
	checks := []IntegrationCheck{
		t.checkTracer(),
		t.checkMemory(),
		t.checkScenarios(),
		t.checkExecutor(),
		t.checkToolSchemas(),
	}

	passed := true
	for _, c := range checks {
		if c.Status == CheckFail {
			passed = false
		}
	}

	t.mu.Lock()
	t.lastChecks = checks
	t.mu.Unlock()

	t.logger.Info("integration checks finished", "passed", passed, "count", len(checks))
	return IntegrationReport{Checks: checks, Passed: passed, RanAt: time.Now().UTC()}
}

func (t *Team) checkTracer() IntegrationCheck {
	t.mu.RLock()
	tracer := t.tracer
	t.mu.RUnlock()

	c := IntegrationCheck{Name: "trace pipeline"}
	if tracer == nil {
		c.Status = CheckFail
		c.Detail = "no tracer wired; scenario verdicts would see empty traces"
		return c
	}
	if _, err := tracer.Events("integration-probe"); err != nil {
		c.Status = CheckFail
		c.Detail = fmt.Sprintf("tracer read failed: %v", err)
		return c
	}
	c.Status = CheckPass
	return c
}

func (t *Team) checkMemory() IntegrationCheck {
	t.mu.RLock()
	mem := t.memory
	t.mu.RUnlock()

	c := IntegrationCheck{Name: "session memory"}
	if mem == nil {
		c.Status = CheckFail
		c.Detail = "no memory store wired"
		return c
	}
	if _, err := mem.Get("integration-probe"); err != nil {
		c.Status = CheckFail
		c.Detail = fmt.Sprintf("memory read failed: %v", err)
		return c
	}
	c.Status = CheckPass
	return c
}

func (t *Team) checkScenarios() IntegrationCheck {
	c := IntegrationCheck{Name: "scenario registry"}
	n := len(t.engine.Scenarios())
	if n == 0 {
		c.Status = CheckWarn
		c.Detail = "no scenarios registered; there is nothing to judge"
		return c
	}
	c.Status = CheckPass
	c.Detail = fmt.Sprintf("%d scenarios registered", n)
	return c
}

func (t *Team) checkExecutor() IntegrationCheck {
	t.mu.RLock()
	executor := t.executor
	t.mu.RUnlock()

	c := IntegrationCheck{Name: "agent executor"}
	if executor == nil {
		c.Status = CheckFail
		c.Detail = "no agent executor wired"
		return c
	}
	c.Status = CheckPass
	return c
}

func (t *Team) checkToolSchemas() IntegrationCheck {
	// Tool parameter schemas are typed at compile time (model.ToolDefinition);
	// this check exists so reports enumerate the contract explicitly.
	return IntegrationCheck{
		Name:   "tool schemas",
		Status: CheckPass,
		Detail: "tool definitions expose typed JSON-schema parameters",
	}
}
