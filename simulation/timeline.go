package simulation

import (
	"time"

	"github.com/hupe1980/agentdesk/core"
)

// TimelineEvent is one timestamped entry in a scenario's replay record. The
// type vocabulary matches core.TraceEventType so dashboards can merge both
// views.
type TimelineEvent struct {
	Timestamp   time.Time           `json:"timestamp"`
	Type        core.TraceEventType `json:"type"`
	Agent       string              `json:"agent,omitempty"`
	Description string              `json:"description"`
	Data        map[string]any      `json:"data,omitempty"`
}

// FinalState summarizes how a replay ended.
type FinalState struct {
	Resolved       bool          `json:"resolved"`
	Escalated      bool          `json:"escalated"`
	ToolsUsed      []string      `json:"tools_used,omitempty"`
	AgentsInvolved []string      `json:"agents_involved,omitempty"`
	Duration       time.Duration `json:"duration"`
	QualityScore   int           `json:"quality_score"` // 0..100
}

// Timeline is the ordered record of one scenario run. One timeline exists per
// scenario id; re-running overwrites it (last write wins).
type Timeline struct {
	ScenarioID string          `json:"scenario_id"`
	Events     []TimelineEvent `json:"events"`
	FinalState FinalState      `json:"final_state"`
}

func (t *Timeline) addEvent(typ core.TraceEventType, agent, description string, data map[string]any) {
	t.Events = append(t.Events, TimelineEvent{
		Timestamp:   time.Now().UTC(),
		Type:        typ,
		Agent:       agent,
		Description: description,
		Data:        data,
	})
}
