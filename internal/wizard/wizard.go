// Package wizard holds the confirmed choices of one wizard session.
//
// The selection sequence is never edited in place: every Select builds a new
// slice from the choices before the step plus the new id, so changing an
// earlier answer always discards the later ones.
package wizard

import (
	"errors"
	"fmt"
	"strings"

	"scaffolder/internal/catalog"
)

var (
	// ErrStepOutOfRange is returned when selecting at a step that is not
	// visible yet (or does not exist).
	ErrStepOutOfRange = errors.New("step not selectable")
	// ErrUnknownOption is returned when the id is not an option of the step.
	ErrUnknownOption = catalog.ErrUnknownOption
	// ErrOptionDisabled is returned when the id is excluded by earlier choices.
	ErrOptionDisabled = errors.New("option disabled")
)

// Session is the state of one wizard run. The zero value is not usable; call
// New. A Session is not safe for concurrent use.
type Session struct {
	cat        *catalog.Catalog
	selections []string
}

// StepView is a visible step as a presentation layer renders it.
type StepView struct {
	Index    int                   `json:"index"`
	Title    string                `json:"title"`
	Options  []catalog.OptionState `json:"options"`
	Selected string                `json:"selected,omitempty"` // "" when unset
}

// New returns an empty session over c.
func New(c *catalog.Catalog) *Session {
	return &Session{cat: c}
}

// Replay builds a session by selecting ids[i] at step i, in order.
func Replay(c *catalog.Catalog, ids []string) (*Session, error) {
	s := New(c)
	for i, id := range ids {
		if err := s.Select(i, id); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// ParseIDs splits a comma-separated selection such as "windows,vscode",
// dropping blanks.
func ParseIDs(raw string) []string {
	var ids []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}

// Select confirms id at step and discards every choice after it. On error the
// session is unchanged.
func (s *Session) Select(step int, id string) error {
	if step < 0 || step >= s.cat.Len() || step > len(s.selections) {
		return fmt.Errorf("select %q at step %d: %w (%d of %d steps confirmed)",
			id, step, ErrStepOutOfRange, len(s.selections), s.cat.Len())
	}
	prior := s.selections[:step]
	disabled, err := s.cat.IsDisabled(step, id, prior)
	if err != nil {
		return fmt.Errorf("select: %w", err)
	}
	if disabled {
		return fmt.Errorf("select %q at step %d: %w by %v", id, step, ErrOptionDisabled, prior)
	}
	next := make([]string, step+1)
	copy(next, prior)
	next[step] = id
	s.selections = next
	return nil
}

// Selections returns a copy of the confirmed choices in step order.
func (s *Session) Selections() []string {
	return append([]string(nil), s.selections...)
}

// Len returns the number of confirmed choices.
func (s *Session) Len() int { return len(s.selections) }

// Visible returns how many steps are shown: one past the last confirmed
// choice, capped at the number of steps.
func (s *Session) Visible() int {
	return min(len(s.selections)+1, s.cat.Len())
}

// Complete reports whether every step has a confirmed choice.
func (s *Session) Complete() bool {
	return len(s.selections) == s.cat.Len()
}

// Catalog returns the catalog the session runs over.
func (s *Session) Catalog() *catalog.Catalog { return s.cat }

// View evaluates every visible step against the choices before it. A
// confirmed id that evaluates as disabled is reported as unset.
func (s *Session) View() []StepView {
	n := s.Visible()
	out := make([]StepView, 0, n)
	for i := 0; i < n; i++ {
		prior := s.selections[:min(i, len(s.selections))]
		states, _ := s.cat.Evaluate(i, prior)
		v := StepView{Index: i, Title: s.cat.Steps[i].Title, Options: states}
		if i < len(s.selections) {
			for _, st := range states {
				if st.ID == s.selections[i] && !st.Disabled {
					v.Selected = st.ID
				}
			}
		}
		out = append(out, v)
	}
	return out
}
