package rules

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"FocusNews/internal/domain"
)

// ValidationError reports a rule definition that could not be loaded. The
// offending rule is skipped; the remaining rules load normally.
type ValidationError struct {
	Rule   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("rule %q: %s", e.Rule, e.Reason)
}

type ruleFile struct {
	Rules []ruleSpec `yaml:"rules"`
}

type ruleSpec struct {
	Name    string   `yaml:"name"`
	Active  *bool    `yaml:"active"`
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
	Tags    []string `yaml:"tags"`
}

// Load reads the declarative rule set from a YAML file. Rules that fail
// validation come back as ValidationErrors next to the rules that did load;
// only an unreadable or undecodable file is a hard error.
func Load(path string) ([]domain.Rule, []ValidationError, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read rules file: %w", err)
	}

	return Parse(raw)
}

// Parse decodes and validates a YAML rule document.
func Parse(raw []byte) ([]domain.Rule, []ValidationError, error) {
	var doc ruleFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("parse rules file: %w", err)
	}
	if len(doc.Rules) == 0 {
		return nil, nil, fmt.Errorf("rules file declares no rules")
	}

	var (
		loaded []domain.Rule
		issues []ValidationError
	)
	names := map[string]struct{}{}

	for _, spec := range doc.Rules {
		rule, issue := buildRule(spec, names)
		if issue != nil {
			issues = append(issues, *issue)
			continue
		}
		names[rule.Name] = struct{}{}
		loaded = append(loaded, rule)
	}

	return loaded, issues, nil
}

func buildRule(spec ruleSpec, names map[string]struct{}) (domain.Rule, *ValidationError) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return domain.Rule{}, &ValidationError{Rule: spec.Name, Reason: "name must not be empty"}
	}
	if _, dup := names[name]; dup {
		return domain.Rule{}, &ValidationError{Rule: name, Reason: "duplicate rule name"}
	}

	// Rules are active unless the file says otherwise.
	active := true
	if spec.Active != nil {
		active = *spec.Active
	}

	rule := domain.Rule{Name: name, Active: active}

	seen := map[domain.Keyword]struct{}{}
	appendKeywords := func(texts []string, polarity domain.Polarity) *ValidationError {
		for _, text := range texts {
			kw := domain.NewKeyword(text, polarity)
			if kw.Text == "" {
				return &ValidationError{Rule: name, Reason: fmt.Sprintf("%s keyword must not be empty", polarity)}
			}
			if _, ok := seen[kw]; ok {
				// Same text and polarity twice collapses silently (set semantics).
				continue
			}
			seen[kw] = struct{}{}
			rule.Keywords = append(rule.Keywords, kw)
		}
		return nil
	}

	if issue := appendKeywords(spec.Include, domain.Include); issue != nil {
		return domain.Rule{}, issue
	}
	if issue := appendKeywords(spec.Exclude, domain.Exclude); issue != nil {
		return domain.Rule{}, issue
	}

	tagSeen := map[string]struct{}{}
	for _, tag := range spec.Tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			return domain.Rule{}, &ValidationError{Rule: name, Reason: "tag must not be empty"}
		}
		if _, ok := tagSeen[tag]; ok {
			continue
		}
		tagSeen[tag] = struct{}{}
		rule.Tags = append(rule.Tags, tag)
	}

	return rule, nil
}
