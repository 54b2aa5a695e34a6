package judge

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/hupe1980/agentdesk/simulation"
)

// Recommendation is the release decision of a judging round.
type Recommendation string

const (
	// RecommendShip clears the release.
	RecommendShip Recommendation = "SHIP"
	// RecommendImprove allows the release but flags regressions to address.
	RecommendImprove Recommendation = "IMPROVE"
	// RecommendBlock vetoes the release.
	RecommendBlock Recommendation = "BLOCK"
)

// Issue is one defect surfaced during consensus. Severity is "critical"
// (release-blocking) or "major".
type Issue struct {
	Severity    string `json:"severity"`
	ScenarioID  string `json:"scenario_id"`
	Description string `json:"description"`
}

// ImprovementArea names a capability whose mean score fell below policy.
type ImprovementArea struct {
	Area         string  `json:"area"`
	CurrentScore float64 `json:"current_score"`
	TargetScore  float64 `json:"target_score"`
}

// TrainingSignal is a labeled example harvested from a failed scenario,
// exported for offline fine-tuning and prompt iteration.
type TrainingSignal struct {
	Type       string `json:"type"`
	ScenarioID string `json:"scenario_id"`
	Input      string `json:"input"`
	Expected   string `json:"expected"`
	Actual     string `json:"actual"`
}

// ConsensusVerdict is the aggregated decision of one judging round.
//
// Note that aggregation is an unweighted mean over per-scenario verdicts even
// though the roster declares weights; see DESIGN.md for the rationale.
type ConsensusVerdict struct {
	PassRate         float64           `json:"pass_rate"`
	OverallScore     int               `json:"overall_score"`
	Issues           []Issue           `json:"issues,omitempty"`
	ImprovementAreas []ImprovementArea `json:"improvement_areas,omitempty"`
	TrainingSignals  []TrainingSignal  `json:"training_signals,omitempty"`
	Recommendation   Recommendation    `json:"recommendation"`
}

const (
	passRateFloor     = 80.0 // below this, SHIP degrades to IMPROVE
	overallScoreFloor = 70   // below this, SHIP degrades to IMPROVE
	dimensionFloor    = 80.0 // per-dimension mean below this flags an improvement area
	dimensionTarget   = 85.0
	criticalThreshold = 50 // per-scenario dimension below this raises an issue
)

// ReachConsensus folds the session's per-scenario verdicts into a final
// release decision and completes the session. The final verdict is written
// exactly once: calling ReachConsensus on a completed session returns the
// stored verdict unchanged.
func (t *Team) ReachConsensus(sessionID string) (*ConsensusVerdict, error) {
	s, err := t.find(sessionID)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	if s.Status == SessionCompleted {
		t.mu.Unlock()
		return s.FinalVerdict, nil
	}

	verdicts := make([]*simulation.Verdict, 0, len(s.ScenarioIDs))
	for _, id := range s.ScenarioIDs {
		if v, ok := t.verdicts[id]; ok {
			verdicts = append(verdicts, v)
		}
	}
	t.mu.Unlock()

	cv := &ConsensusVerdict{
		PassRate:     t.passRate(),
		OverallScore: meanOverall(verdicts),
	}
	cv.Issues = collectIssues(verdicts)
	cv.ImprovementAreas = collectImprovementAreas(verdicts)
	cv.TrainingSignals = t.collectTrainingSignals()
	cv.Recommendation = recommend(cv)

	t.mu.Lock()
	if s.Status == SessionCompleted {
		// lost the race against a concurrent consensus call; the first
		// verdict stands
		cv = s.FinalVerdict
		t.mu.Unlock()
		return cv, nil
	}
	s.FinalVerdict = cv
	s.ConsensusReached = true
	s.CompletedAt = time.Now().UTC()
	s.Status = SessionCompleted
	t.mu.Unlock()

	t.metrics.ObserveConsensus(string(cv.Recommendation))
	t.logger.Info("consensus reached",
		"judge_session_id", sessionID,
		"pass_rate", cv.PassRate,
		"overall_score", cv.OverallScore,
		"recommendation", string(cv.Recommendation),
	)
	return cv, nil
}

// passRate is the percentage of executed scenarios that passed. Scenarios
// never run do not count against the rate; zero executed scenarios yield 0.
func (t *Team) passRate() float64 {
	executed, passed := 0, 0
	for _, sc := range t.engine.Scenarios() {
		if !sc.Status.Terminal() {
			continue
		}
		executed++
		if sc.Status == simulation.StatusPassed {
			passed++
		}
	}
	if executed == 0 {
		return 0
	}
	return 100 * float64(passed) / float64(executed)
}

func meanOverall(verdicts []*simulation.Verdict) int {
	if len(verdicts) == 0 {
		return 0
	}
	sum := 0
	for _, v := range verdicts {
		sum += v.OverallScore
	}
	return int(math.Round(float64(sum) / float64(len(verdicts))))
}

func collectIssues(verdicts []*simulation.Verdict) []Issue {
	var issues []Issue
	for _, v := range verdicts {
		if v.EscalationHandling < criticalThreshold {
			issues = append(issues, Issue{
				Severity:    "critical",
				ScenarioID:  v.ScenarioID,
				Description: "escalation handling failed; unhappy customers are not reaching humans",
			})
		}
		if v.Accuracy < criticalThreshold {
			issues = append(issues, Issue{
				Severity:    "major",
				ScenarioID:  v.ScenarioID,
				Description: "response accuracy below acceptable threshold",
			})
		}
	}
	return issues
}

func collectImprovementAreas(verdicts []*simulation.Verdict) []ImprovementArea {
	if len(verdicts) == 0 {
		return nil
	}
	accSum, effSum := 0, 0
	for _, v := range verdicts {
		accSum += v.Accuracy
		effSum += v.Efficiency
	}
	n := float64(len(verdicts))

	var areas []ImprovementArea
	if mean := float64(accSum) / n; mean < dimensionFloor {
		areas = append(areas, ImprovementArea{Area: "Intent Classification", CurrentScore: mean, TargetScore: dimensionTarget})
	}
	if mean := float64(effSum) / n; mean < dimensionFloor {
		areas = append(areas, ImprovementArea{Area: "Response Efficiency", CurrentScore: mean, TargetScore: dimensionTarget})
	}
	return areas
}

// collectTrainingSignals harvests one negative example per failed scenario:
// the opening customer message, the expected reply substrings and what the
// system actually said.
func (t *Team) collectTrainingSignals() []TrainingSignal {
	var signals []TrainingSignal
	for _, sc := range t.engine.Scenarios() {
		if sc.Status != simulation.StatusFailed || sc.Actual == nil {
			continue
		}
		sig := TrainingSignal{
			Type:       "negative",
			ScenarioID: sc.ID,
			Expected:   strings.Join(sc.Expected.FinalMessageContains, ", "),
			Actual:     sc.Actual.FinalMessage,
		}
		if len(sc.Inputs) > 0 {
			sig.Input = sc.Inputs[0].Message
		}
		signals = append(signals, sig)
	}
	return signals
}

func recommend(cv *ConsensusVerdict) Recommendation {
	for _, issue := range cv.Issues {
		if issue.Severity == "critical" {
			return RecommendBlock
		}
	}
	if cv.PassRate < passRateFloor || cv.OverallScore < overallScoreFloor {
		return RecommendImprove
	}
	return RecommendShip
}

// Report is the exportable summary of the latest judging round.
type Report struct {
	GeneratedAt       time.Time          `json:"generated_at"`
	Judges            []Judge            `json:"judges"`
	Session           *Session           `json:"session,omitempty"`
	IntegrationChecks []IntegrationCheck `json:"integration_checks,omitempty"`
}

// ExportReport assembles the latest session, the roster and the most recent
// integration-check results into one document.
func (t *Team) ExportReport() Report {
	latest := t.LatestSession()

	t.mu.RLock()
	checks := make([]IntegrationCheck, len(t.lastChecks))
	copy(checks, t.lastChecks)
	t.mu.RUnlock()

	return Report{
		GeneratedAt:       time.Now().UTC(),
		Judges:            t.Judges(),
		Session:           latest,
		IntegrationChecks: checks,
	}
}

// String renders a verdict as a short human-readable block for CLI output.
func (cv *ConsensusVerdict) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "recommendation: %s\n", cv.Recommendation)
	fmt.Fprintf(&b, "pass rate:      %.1f%%\n", cv.PassRate)
	fmt.Fprintf(&b, "overall score:  %d\n", cv.OverallScore)
	for _, issue := range cv.Issues {
		fmt.Fprintf(&b, "issue [%s] %s: %s\n", issue.Severity, issue.ScenarioID, issue.Description)
	}
	for _, area := range cv.ImprovementAreas {
		fmt.Fprintf(&b, "improve %s: %.1f -> %.1f\n", area.Area, area.CurrentScore, area.TargetScore)
	}
	return b.String()
}
