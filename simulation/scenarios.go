package simulation

// BuiltinScenarios returns the stock regression suite for the
// customer-service roster. The suite covers the happy path, specialist
// routing, multi-turn conversations and both escalation directions.
func BuiltinScenarios() []*Scenario {
	return []*Scenario{
		{
			ID:          "SCENE-001",
			Name:        "order status inquiry",
			Description: "A customer asks where their order is; the front desk resolves it without escalation.",
			Inputs: []TurnInput{
				{Message: "Hi, what's the status of my order ORD-1001?", ExpectedIntent: "order_status"},
			},
			Expected: ExpectedOutcome{
				Escalated:            false,
				AgentSequence:        []string{"support"},
				ToolsUsed:            []string{"lookup_order"},
				FinalMessageContains: []string{"order", "status"},
			},
		},
		{
			ID:          "SCENE-002",
			Name:        "refund request",
			Description: "A refund question routes to the billing specialist and resolves in one turn.",
			Inputs: []TurnInput{
				{Message: "I'd like a refund for my last payment, it was charged twice.", ExpectedIntent: "refund"},
			},
			Expected: ExpectedOutcome{
				Escalated:            false,
				AgentSequence:        []string{"billing"},
				FinalMessageContains: []string{"refund"},
			},
		},
		{
			ID:          "SCENE-003",
			Name:        "technical outage report",
			Description: "A crash report routes to the technical specialist.",
			Inputs: []TurnInput{
				{Message: "The app crashes with an error every time I open it.", ExpectedIntent: "technical_issue"},
			},
			Expected: ExpectedOutcome{
				Escalated:            false,
				AgentSequence:        []string{"technical"},
				FinalMessageContains: []string{"troubleshoot"},
			},
		},
		{
			ID:          "SCENE-004",
			Name:        "multi-turn password reset",
			Description: "A two-turn technical conversation that stays with the same specialist.",
			Inputs: []TurnInput{
				{Message: "I can't login to my account.", ExpectedIntent: "technical_issue"},
				{Message: "Yes, please send the password reset link.", ExpectedIntent: "password_reset"},
			},
			Expected: ExpectedOutcome{
				Escalated:            false,
				AgentSequence:        []string{"technical"},
				FinalMessageContains: []string{"reset"},
			},
		},
		{
			ID:          "SCENE-005",
			Name:        "billing dispute escalation",
			Description: "A billing dispute the agent cannot settle must hand off to a human.",
			Inputs: []TurnInput{
				{Message: "My invoice is wrong and I dispute this charge.", ExpectedIntent: "billing_dispute"},
				{Message: "No, that explanation is not acceptable. I want this resolved now.", ExpectedIntent: "billing_dispute"},
			},
			Expected: ExpectedOutcome{
				Escalated:     true,
				AgentSequence: []string{"billing"},
			},
		},
		{
			ID:          "SCENE-006",
			Name:        "explicit human request",
			Description: "The customer asks for a person outright; the turn must escalate immediately.",
			Inputs: []TurnInput{
				{Message: "I want to talk to a human, not a bot.", ExpectedIntent: "human_handoff"},
				{Message: "This message should never be processed.", ExpectedIntent: "unreachable"},
			},
			Expected: ExpectedOutcome{
				Escalated: true,
			},
		},
	}
}
