package triage

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Rule struct {
	Category Category `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

// Rules are evaluated in order; the first rule with a matching keyword wins.
type Rules []Rule

var defaultRules = Rules{
	{Category: CategoryGarbage, Keywords: []string{"garbage", "trash", "waste"}},
	{Category: CategoryPothole, Keywords: []string{"road", "pothole", "street"}},
	{Category: CategoryLighting, Keywords: []string{"light", "lamp", "lighting"}},
	{Category: CategoryWater, Keywords: []string{"water", "leak", "pipe"}},
}

func DefaultRules() Rules {
	out := make(Rules, 0, len(defaultRules))
	for _, r := range defaultRules {
		out = append(out, Rule{Category: r.Category, Keywords: append([]string(nil), r.Keywords...)})
	}
	return out
}

// Categorize matches against the default rule table.
func Categorize(title, description string) Category {
	return defaultRules.Categorize(title, description)
}

func (rs Rules) Categorize(title, description string) Category {
	text := strings.ToLower(title + " " + description)
	for _, r := range rs {
		for _, kw := range r.Keywords {
			if kw != "" && strings.Contains(text, kw) {
				return r.Category
			}
		}
	}
	return CategoryOther
}

type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules reads a YAML rule table. An empty path returns the defaults.
//
//	rules:
//	  - category: Garbage
//	    keywords: [garbage, trash, waste]
func LoadRules(path string) (Rules, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultRules(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read triage rules: %w", err)
	}
	return ParseRules(raw)
}

func ParseRules(raw []byte) (Rules, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	var f rulesFile
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode triage rules: %w", err)
	}
	if len(f.Rules) == 0 {
		return nil, fmt.Errorf("triage rules: no rules defined")
	}
	out := make(Rules, 0, len(f.Rules))
	for i, r := range f.Rules {
		cat := Category(strings.TrimSpace(string(r.Category)))
		if cat == "" {
			return nil, fmt.Errorf("triage rules[%d]: missing category", i)
		}
		if len(r.Keywords) == 0 {
			return nil, fmt.Errorf("triage rules[%d]: %s has no keywords", i, cat)
		}
		kws := make([]string, 0, len(r.Keywords))
		for _, kw := range r.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				return nil, fmt.Errorf("triage rules[%d]: %s has a blank keyword", i, cat)
			}
			kws = append(kws, kw)
		}
		out = append(out, Rule{Category: cat, Keywords: kws})
	}
	return out, nil
}
