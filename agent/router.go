package agent

import (
	"strings"

	"github.com/hupe1980/agentdesk/core"
)

// routeRule maps trigger keywords to a target agent. Rules are evaluated in
// order; the first keyword hit wins.
type routeRule struct {
	keywords []string
	agent    string
	reason   string
}

// KeywordRouter is the default core.Router: a deliberately simple keyword
// heuristic. Explicit requests for a person escalate immediately; billing and
// technical vocabularies route to the matching specialist; everything else
// lands on the default agent. Real intent classification is delegated to the
// model-backed agents themselves; the router only has to be cheap and
// predictable.
type KeywordRouter struct {
	escalationTerms []string
	rules           []routeRule
	defaultAgent    string
}

// NewKeywordRouter builds the stock routing table for a customer-service
// roster with the given default (front-desk) agent.
func NewKeywordRouter(defaultAgent string) *KeywordRouter {
	return &KeywordRouter{
		escalationTerms: []string{
			"human", "real person", "representative", "speak to someone",
			"speak to an agent", "talk to an agent", "manager", "supervisor",
		},
		rules: []routeRule{
			{
				keywords: []string{"bill", "billing", "refund", "charge", "charged", "payment", "invoice", "subscription"},
				agent:    "billing",
				reason:   "billing vocabulary",
			},
			{
				keywords: []string{"error", "bug", "crash", "broken", "not working", "technical", "outage", "down", "login", "password"},
				agent:    "technical",
				reason:   "technical vocabulary",
			},
		},
		defaultAgent: defaultAgent,
	}
}

// Route implements core.Router. A sticky session keeps its current agent once
// one has been selected, unless the new message triggers escalation.
func (r *KeywordRouter) Route(sess *core.Session, message string) (core.RouteDecision, error) {
	lowered := strings.ToLower(message)

	for _, term := range r.escalationTerms {
		if strings.Contains(lowered, term) {
			return core.RouteDecision{Escalate: true, Reason: "customer requested a human"}, nil
		}
	}

	for _, rule := range r.rules {
		for _, kw := range rule.keywords {
			if strings.Contains(lowered, kw) {
				return core.RouteDecision{Agent: rule.agent, Reason: rule.reason}, nil
			}
		}
	}

	if sess != nil && sess.CurrentAgent != "" {
		return core.RouteDecision{Agent: sess.CurrentAgent, Reason: "sticky session"}, nil
	}
	return core.RouteDecision{Agent: r.defaultAgent, Reason: "default agent"}, nil
}
