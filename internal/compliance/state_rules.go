package compliance

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed state_rules.yaml
var defaultStateRulesYAML []byte

// StateRule declares what one state requires on a wage statement.
type StateRule struct {
	Code                         string   `yaml:"-"`
	Name                         string   `yaml:"name"`
	Frequency                    string   `yaml:"frequency"`
	RequiredFields               []string `yaml:"required_fields"`
	RequireSickLeaveBalance      bool     `yaml:"require_sick_leave_balance"`
	RequireOvertimeBreakdown     bool     `yaml:"require_overtime_breakdown"`
	RequireEmployerUBI           bool     `yaml:"require_employer_ubi"`
	RequireDeductionDescriptions bool     `yaml:"require_deduction_descriptions"`
	Disclaimers                  []string `yaml:"disclaimers"`
	Recommendations              []string `yaml:"recommendations"`
}

type rulesDocument struct {
	Version int `yaml:"version"`
	Federal struct {
		Disclaimers []string `yaml:"disclaimers"`
	} `yaml:"federal"`
	States map[string]StateRule `yaml:"states"`
}

// StateRegistry maps two-letter state codes to their rules.
type StateRegistry struct {
	federalDisclaimers []string
	rules              map[string]StateRule
}

// NewStateRegistry builds a registry from rules keyed by state code.
func NewStateRegistry(federalDisclaimers []string, rules map[string]StateRule) (*StateRegistry, error) {
	reg := &StateRegistry{
		federalDisclaimers: append([]string(nil), federalDisclaimers...),
		rules:              make(map[string]StateRule, len(rules)),
	}
	for code, rule := range rules {
		code = normalizeState(code)
		if len(code) != 2 {
			return nil, fmt.Errorf("state rules: invalid state code %q", code)
		}
		for _, f := range rule.RequiredFields {
			if !knownField(f) {
				return nil, fmt.Errorf("state rules: %s requires unknown field %q", code, f)
			}
		}
		rule.Code = code
		reg.rules[code] = rule
	}
	return reg, nil
}

// LoadStateRegistry parses a YAML rules document.
func LoadStateRegistry(b []byte) (*StateRegistry, error) {
	var doc rulesDocument
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("state rules: %w", err)
	}
	if doc.Version != 1 {
		return nil, errors.New("state rules: unsupported version")
	}
	if len(doc.States) == 0 {
		return nil, errors.New("state rules: missing states")
	}
	return NewStateRegistry(doc.Federal.Disclaimers, doc.States)
}

// DefaultStateRegistry returns the registry shipped with the binary.
func DefaultStateRegistry() *StateRegistry {
	reg, err := LoadStateRegistry(defaultStateRulesYAML)
	if err != nil {
		panic(err)
	}
	return reg
}

func (r *StateRegistry) Lookup(code string) (StateRule, bool) {
	rule, ok := r.rules[normalizeState(code)]
	return rule, ok
}

func (r *StateRegistry) Codes() []string {
	codes := make([]string, 0, len(r.rules))
	for code := range r.rules {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func (r *StateRegistry) FederalDisclaimers() []string {
	return append([]string(nil), r.federalDisclaimers...)
}

func normalizeState(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
