package simulation

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// scenarioFile is the YAML document shape accepted by LoadScenarioFile.
type scenarioFile struct {
	Scenarios []*Scenario `yaml:"scenarios"`
}

// LoadScenarioFile parses a YAML scenario suite, e.g.:
//
//	scenarios:
//	  - id: SCENE-101
//	    name: order status inquiry
//	    inputs:
//	      - message: "Where is my order?"
//	    expected:
//	      escalated: false
//	      final_message_contains: ["order"]
//
// Every scenario must carry an id and at least one input.
func LoadScenarioFile(path string) ([]*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}
	return ParseScenarios(raw)
}

// ParseScenarios parses a YAML scenario suite from raw bytes.
func ParseScenarios(raw []byte) ([]*Scenario, error) {
	var file scenarioFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse scenario file: %w", err)
	}
	for i, s := range file.Scenarios {
		if s.ID == "" {
			return nil, fmt.Errorf("scenario %d: missing id", i)
		}
		if len(s.Inputs) == 0 {
			return nil, fmt.Errorf("scenario %s: no inputs", s.ID)
		}
	}
	return file.Scenarios, nil
}
