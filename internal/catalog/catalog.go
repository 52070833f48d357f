// Package catalog holds the wizard's steps and options and decides which
// options are selectable given the choices made so far.
//
// The catalog is static data embedded in the binary (catalog.yaml). Each
// option carries a declarative disablement rule; a single resolver evaluates
// every rule, so adding steps or options never touches resolver code.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultYAML []byte

var (
	// ErrUnknownStep is returned for a step index outside the catalog.
	ErrUnknownStep = errors.New("unknown step")
	// ErrUnknownOption is returned for an id that is not an option of the step.
	ErrUnknownOption = errors.New("unknown option")
)

// ---------------------------------------------------------------------------
// Rules
// ---------------------------------------------------------------------------

// RuleKind tags the variant of a disablement rule.
type RuleKind int

const (
	RuleNone       RuleKind = iota // always selectable
	RuleAlways                     // never selectable
	RuleIntersects                 // disabled once any of IDs was chosen earlier
)

func (k RuleKind) String() string {
	switch k {
	case RuleNone:
		return "none"
	case RuleAlways:
		return "always"
	case RuleIntersects:
		return "intersects"
	default:
		return fmt.Sprintf("RuleKind(%d)", int(k))
	}
}

// Rule is a disablement predicate evaluated against prior selections.
type Rule struct {
	Kind RuleKind
	IDs  []string // only for RuleIntersects
}

// Always returns the unconditional rule.
func Always() Rule { return Rule{Kind: RuleAlways} }

// Intersects returns a rule that disables its option once any of ids was chosen.
func Intersects(ids ...string) Rule {
	return Rule{Kind: RuleIntersects, IDs: append([]string(nil), ids...)}
}

// Disables reports whether the rule excludes its option given the prior
// selections. Order of prior is irrelevant.
func (r Rule) Disables(prior []string) bool {
	switch r.Kind {
	case RuleAlways:
		return true
	case RuleIntersects:
		for _, p := range prior {
			for _, id := range r.IDs {
				if p == id {
					return true
				}
			}
		}
		return false
	default:
		return false
	}
}

// IsZero lets yaml.v3 omit the "none" rule.
func (r Rule) IsZero() bool { return r.Kind == RuleNone }

// UnmarshalYAML accepts `true`/`false` or a sequence of option ids.
func (r *Rule) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var b bool
		if err := value.Decode(&b); err != nil {
			return fmt.Errorf("line %d: disabled must be a bool or a list of ids", value.Line)
		}
		if b {
			*r = Always()
		} else {
			*r = Rule{}
		}
		return nil
	case yaml.SequenceNode:
		var ids []string
		if err := value.Decode(&ids); err != nil {
			return fmt.Errorf("line %d: %w", value.Line, err)
		}
		if len(ids) == 0 {
			*r = Rule{}
			return nil
		}
		*r = Intersects(ids...)
		return nil
	default:
		return fmt.Errorf("line %d: disabled must be a bool or a list of ids", value.Line)
	}
}

// MarshalYAML mirrors UnmarshalYAML.
func (r Rule) MarshalYAML() (interface{}, error) {
	switch r.Kind {
	case RuleAlways:
		return true, nil
	case RuleIntersects:
		return r.IDs, nil
	default:
		return false, nil
	}
}

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

// Option is one selectable choice within a step.
type Option struct {
	ID          string `yaml:"id" json:"id"`
	Label       string `yaml:"label" json:"label"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Rule        Rule   `yaml:"disabled,omitempty" json:"-"`
}

// Step is one ordinal stage of the wizard.
type Step struct {
	Index   int      `yaml:"-" json:"index"`
	Title   string   `yaml:"title" json:"title"`
	Options []Option `yaml:"options" json:"options"`
}

// Option returns the option with the given id.
func (s Step) Option(id string) (Option, bool) {
	for _, o := range s.Options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// Catalog is the ordered, immutable list of steps.
type Catalog struct {
	Steps []Step `yaml:"steps"`
}

// OptionState is an option together with its evaluated availability.
type OptionState struct {
	Option
	Disabled bool `json:"disabled"`
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded catalog.yaml: %v", err))
	}
	return c
})

// Default returns the embedded catalog. It is parsed once and shared; callers
// must not modify it.
func Default() *Catalog { return defaultCatalog() }

// Parse decodes and validates a catalog document.
//
// Every id must be unique within its step, and every id named by an
// intersects rule must be an option of an earlier step.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(c.Steps) == 0 {
		return nil, fmt.Errorf("catalog has no steps")
	}
	earlier := make(map[string]bool)
	for i := range c.Steps {
		s := &c.Steps[i]
		s.Index = i
		if len(s.Options) == 0 {
			return nil, fmt.Errorf("step %d (%q) has no options", i, s.Title)
		}
		seen := make(map[string]bool, len(s.Options))
		for _, o := range s.Options {
			if o.ID == "" {
				return nil, fmt.Errorf("step %d: option with empty id", i)
			}
			if seen[o.ID] {
				return nil, fmt.Errorf("step %d: duplicate option id %q", i, o.ID)
			}
			seen[o.ID] = true
			for _, ref := range o.Rule.IDs {
				if !earlier[ref] {
					return nil, fmt.Errorf("step %d: option %q is disabled by %q, which is not an option of an earlier step", i, o.ID, ref)
				}
			}
		}
		for id := range seen {
			earlier[id] = true
		}
	}
	return &c, nil
}

// Len returns the number of steps.
func (c *Catalog) Len() int { return len(c.Steps) }

// Step returns step i.
func (c *Catalog) Step(i int) (Step, error) {
	if i < 0 || i >= len(c.Steps) {
		return Step{}, fmt.Errorf("%w: %d", ErrUnknownStep, i)
	}
	return c.Steps[i], nil
}

// IsDisabled reports whether option id of step i is excluded by the prior
// selections.
func (c *Catalog) IsDisabled(step int, id string, prior []string) (bool, error) {
	s, err := c.Step(step)
	if err != nil {
		return false, err
	}
	o, ok := s.Option(id)
	if !ok {
		return false, fmt.Errorf("%w %q at step %d", ErrUnknownOption, id, step)
	}
	return o.Rule.Disables(prior), nil
}

// Evaluate returns every option of step i with its availability under prior.
func (c *Catalog) Evaluate(step int, prior []string) ([]OptionState, error) {
	s, err := c.Step(step)
	if err != nil {
		return nil, err
	}
	out := make([]OptionState, len(s.Options))
	for j, o := range s.Options {
		out[j] = OptionState{Option: o, Disabled: o.Rule.Disables(prior)}
	}
	return out, nil
}

// Combinations enumerates every legal full selection in catalog order.
func (c *Catalog) Combinations() [][]string {
	var out [][]string
	var walk func(prior []string)
	walk = func(prior []string) {
		if len(prior) == len(c.Steps) {
			out = append(out, append([]string(nil), prior...))
			return
		}
		for _, o := range c.Steps[len(prior)].Options {
			if o.Rule.Disables(prior) {
				continue
			}
			walk(append(prior, o.ID))
		}
	}
	walk(make([]string, 0, len(c.Steps)))
	return out
}
