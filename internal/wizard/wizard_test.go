package wizard

import (
	"errors"
	"reflect"
	"testing"

	"scaffolder/internal/catalog"
)

func mustSelect(t *testing.T, s *Session, step int, id string) {
	t.Helper()
	if err := s.Select(step, id); err != nil {
		t.Fatalf("Select(%d, %q): %v", step, id, err)
	}
}

func TestNewSessionShowsFirstStep(t *testing.T) {
	s := New(catalog.Default())
	if s.Len() != 0 || s.Visible() != 1 || s.Complete() {
		t.Fatalf("empty session: len=%d visible=%d complete=%v", s.Len(), s.Visible(), s.Complete())
	}
	view := s.View()
	if len(view) != 1 || view[0].Selected != "" {
		t.Fatalf("unexpected view: %+v", view)
	}
}

func TestVisibleGrowsOneStepAtATime(t *testing.T) {
	s := New(catalog.Default())
	ids := []string{"windows", "vscode", "mingw", "cmake"}
	for i, id := range ids {
		mustSelect(t, s, i, id)
		want := min(i+2, 4)
		if s.Visible() != want {
			t.Errorf("after step %d: Visible = %d, want %d", i, s.Visible(), want)
		}
	}
	if !s.Complete() {
		t.Error("session should be complete after four choices")
	}
	if !reflect.DeepEqual(s.Selections(), ids) {
		t.Errorf("Selections = %v, want %v", s.Selections(), ids)
	}
}

// TestReselectTruncates: select(n, id) then select(n, id2) leaves exactly n+1
// choices, whatever the prior length.
func TestReselectTruncates(t *testing.T) {
	c := catalog.Default()
	full := []string{"windows", "vscode", "msvc", "xmake"}
	for step := 0; step < len(full); step++ {
		for prefix := step; prefix <= len(full); prefix++ {
			s, err := Replay(c, full[:prefix])
			if err != nil {
				t.Fatalf("Replay(%v): %v", full[:prefix], err)
			}
			mustSelect(t, s, step, full[step])
			mustSelect(t, s, step, otherEnabled(t, c, step, full[:step], full[step]))
			if s.Len() != step+1 {
				t.Errorf("step=%d prefix=%d: Len = %d, want %d", step, prefix, s.Len(), step+1)
			}
		}
	}
}

// otherEnabled returns an enabled option of step other than not, or not itself
// when it is the only one.
func otherEnabled(t *testing.T, c *catalog.Catalog, step int, prior []string, not string) string {
	t.Helper()
	states, err := c.Evaluate(step, prior)
	if err != nil {
		t.Fatal(err)
	}
	for _, st := range states {
		if !st.Disabled && st.ID != not {
			return st.ID
		}
	}
	return not
}

func TestSelectSameIDIsIdempotent(t *testing.T) {
	once, _ := Replay(catalog.Default(), []string{"windows", "vs"})
	twice, _ := Replay(catalog.Default(), []string{"windows", "vs"})
	mustSelect(t, once, 2, "msvc")
	mustSelect(t, twice, 2, "msvc")
	mustSelect(t, twice, 2, "msvc")
	if !reflect.DeepEqual(once.Selections(), twice.Selections()) || once.Visible() != twice.Visible() {
		t.Errorf("once=%v twice=%v", once.Selections(), twice.Selections())
	}
}

func TestChangingEarlierChoiceDiscardsLater(t *testing.T) {
	s, err := Replay(catalog.Default(), []string{"windows", "vs", "msvc", "sln"})
	if err != nil {
		t.Fatal(err)
	}
	mustSelect(t, s, 0, "mac")
	if !reflect.DeepEqual(s.Selections(), []string{"mac"}) {
		t.Fatalf("Selections = %v, want [mac]", s.Selections())
	}
	if s.Visible() != 2 {
		t.Errorf("Visible = %d, want 2", s.Visible())
	}
	// vs is no longer legal after mac.
	if err := s.Select(1, "vs"); !errors.Is(err, ErrOptionDisabled) {
		t.Errorf("Select(1, vs) err = %v, want ErrOptionDisabled", err)
	}
}

func TestSelectRejectsContractViolations(t *testing.T) {
	tests := []struct {
		name    string
		prefix  []string
		step    int
		id      string
		wantErr error
	}{
		{"negative step", nil, -1, "mac", ErrStepOutOfRange},
		{"step beyond catalog", []string{"windows", "vs", "msvc", "sln"}, 4, "sln", ErrStepOutOfRange},
		{"step not yet visible", []string{"windows"}, 2, "msvc", ErrStepOutOfRange},
		{"unknown id", nil, 0, "beos", ErrUnknownOption},
		{"id from another step", nil, 0, "vscode", ErrUnknownOption},
		{"always disabled", nil, 0, "linux", ErrOptionDisabled},
		{"disabled by earlier choice", []string{"mac"}, 1, "vs", ErrOptionDisabled},
		{"disabled by ide", []string{"windows", "vs"}, 2, "mingw", ErrOptionDisabled},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, err := Replay(catalog.Default(), tc.prefix)
			if err != nil {
				t.Fatal(err)
			}
			before := s.Selections()
			err = s.Select(tc.step, tc.id)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if !reflect.DeepEqual(s.Selections(), before) {
				t.Errorf("state changed on error: %v -> %v", before, s.Selections())
			}
		})
	}
}

// TestMacDisablesMSVCAndSolution: after mac, msvc (step 2) and sln (step 3)
// are disabled; switching to windows makes them selectable again.
func TestMacDisablesMSVCAndSolution(t *testing.T) {
	s := New(catalog.Default())
	mustSelect(t, s, 0, "mac")

	for _, ide := range []string{"vscode", "clion"} {
		mustSelect(t, s, 1, ide)
		view := s.View()
		if !disabled(view[2], "msvc") {
			t.Errorf("mac,%s: msvc should be disabled", ide)
		}
		mustSelect(t, s, 2, "apple-clang")
		if !disabled(s.View()[3], "sln") {
			t.Errorf("mac,%s: sln should be disabled", ide)
		}
	}

	mustSelect(t, s, 0, "windows")
	mustSelect(t, s, 1, "vs")
	if disabled(s.View()[2], "msvc") {
		t.Error("windows,vs: msvc should be enabled")
	}
	mustSelect(t, s, 2, "msvc")
	if disabled(s.View()[3], "sln") {
		t.Error("windows,vs,msvc: sln should be enabled")
	}
}

func TestViewReportsSelection(t *testing.T) {
	s, _ := Replay(catalog.Default(), []string{"windows", "clion"})
	view := s.View()
	if len(view) != 3 {
		t.Fatalf("len(View) = %d, want 3", len(view))
	}
	if view[0].Selected != "windows" || view[1].Selected != "clion" || view[2].Selected != "" {
		t.Errorf("selected = %q %q %q", view[0].Selected, view[1].Selected, view[2].Selected)
	}
	if view[2].Title == "" || view[2].Index != 2 {
		t.Errorf("step 2 view = %+v", view[2])
	}
}

func TestSelectionsIsACopy(t *testing.T) {
	s, _ := Replay(catalog.Default(), []string{"windows"})
	got := s.Selections()
	got[0] = "mac"
	if s.Selections()[0] != "windows" {
		t.Error("mutating Selections() leaked into the session")
	}
}

func disabled(v StepView, id string) bool {
	for _, o := range v.Options {
		if o.ID == id {
			return o.Disabled
		}
	}
	return false
}

func TestParseIDs(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"", nil},
		{"windows", []string{"windows"}},
		{" windows , vscode ,, ", []string{"windows", "vscode"}},
		{",,", nil},
	}
	for _, tc := range tests {
		if got := ParseIDs(tc.raw); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("ParseIDs(%q) = %#v, want %#v", tc.raw, got, tc.want)
		}
	}
}
