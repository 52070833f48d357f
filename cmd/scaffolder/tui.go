package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"scaffolder/internal/catalog"
	"scaffolder/internal/wizard"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	stepStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	chosenStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	disabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Strikethrough(true)
	descStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Confirm  key.Binding
	Back     key.Binding
	Generate key.Binding
	Quit     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Confirm, k.Back, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, {k.Confirm, k.Back}, {k.Generate, k.Quit}}
}

var defaultKeys = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Confirm:  key.NewBinding(key.WithKeys("enter", "right", "l"), key.WithHelp("enter", "choose")),
	Back:     key.NewBinding(key.WithKeys("left", "h", "backspace"), key.WithHelp("←/h", "previous step")),
	Generate: key.NewBinding(key.WithKeys("enter", "g"), key.WithHelp("enter", "generate")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
}

// generatedMsg reports the outcome of a generation run.
type generatedMsg struct {
	path string
	err  error
}

// wizardModel drives a wizard.Session from the keyboard. active is the step
// being edited; it equals the step count once every step is chosen.
type wizardModel struct {
	session *wizard.Session
	run     func([]string) (string, error)

	active int
	cursor int
	err    error

	generating bool
	path       string

	keys    keyMap
	help    help.Model
	spinner spinner.Model
}

func newWizardModel(cat *catalog.Catalog, run func([]string) (string, error)) wizardModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	m := wizardModel{
		session: wizard.New(cat),
		run:     run,
		keys:    defaultKeys,
		help:    help.New(),
		spinner: sp,
	}
	m.cursor = m.firstEnabled()
	return m
}

func (m wizardModel) Init() tea.Cmd { return nil }

func (m wizardModel) stepCount() int { return m.session.Catalog().Len() }

func (m wizardModel) review() bool { return m.active == m.stepCount() }

// activeOptions evaluates the active step against the choices before it.
func (m wizardModel) activeOptions() []catalog.OptionState {
	if m.review() {
		return nil
	}
	sel := m.session.Selections()
	states, _ := m.session.Catalog().Evaluate(m.active, sel[:min(m.active, len(sel))])
	return states
}

func (m wizardModel) firstEnabled() int {
	for i, o := range m.activeOptions() {
		if !o.Disabled {
			return i
		}
	}
	return 0
}

// moveCursor steps in dir, skipping disabled options. It stays put when
// nothing enabled lies that way.
func (m *wizardModel) moveCursor(dir int) {
	opts := m.activeOptions()
	for i := m.cursor + dir; i >= 0 && i < len(opts); i += dir {
		if !opts[i].Disabled {
			m.cursor = i
			return
		}
	}
}

func (m wizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case generatedMsg:
		m.generating = false
		m.path, m.err = msg.path, msg.err
		return m, nil

	case spinner.TickMsg:
		if !m.generating {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		if m.generating {
			return m, nil
		}
		if m.review() {
			return m.updateReview(msg)
		}
		return m.updateStep(msg)
	}
	return m, nil
}

func (m wizardModel) updateStep(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(+1)
	case key.Matches(msg, m.keys.Back):
		m.back()
	case key.Matches(msg, m.keys.Confirm):
		opts := m.activeOptions()
		if m.cursor >= len(opts) {
			return m, nil
		}
		if err := m.session.Select(m.active, opts[m.cursor].ID); err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.path = ""
		m.active++
		m.cursor = m.firstEnabled()
	}
	return m, nil
}

func (m wizardModel) updateReview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.back()
	case key.Matches(msg, m.keys.Generate):
		m.generating = true
		m.err = nil
		m.path = ""
		sel := m.session.Selections()
		run := m.run
		return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
			path, err := run(sel)
			return generatedMsg{path: path, err: err}
		})
	}
	return m, nil
}

// back reopens the previous step with the cursor on its current choice.
// Later choices are kept until a new choice replaces them.
func (m *wizardModel) back() {
	if m.active == 0 {
		return
	}
	m.active--
	m.err = nil
	m.cursor = m.firstEnabled()
	sel := m.session.Selections()
	if m.active < len(sel) {
		for i, o := range m.activeOptions() {
			if o.ID == sel[m.active] {
				m.cursor = i
			}
		}
	}
}

func (m wizardModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Mini-Lisp scaffold") + "\n\n")

	for _, v := range m.session.View() {
		if v.Index == m.active {
			b.WriteString(m.viewActive(v))
			continue
		}
		chosen := descStyle.Render("not chosen")
		for _, o := range v.Options {
			if o.ID == v.Selected {
				chosen = chosenStyle.Render(o.Label)
			}
		}
		fmt.Fprintf(&b, "%s %s %s\n", stepStyle.Render(fmt.Sprintf("%d.", v.Index+1)), v.Title, chosen)
	}

	if m.review() {
		b.WriteString("\n")
		switch {
		case m.generating:
			b.WriteString(m.spinner.View() + " building scaffold...\n")
		case m.path != "":
			b.WriteString(chosenStyle.Render("wrote "+m.path) + "\n")
		default:
			b.WriteString("All steps chosen. Press enter to build the scaffold.\n")
		}
	}
	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render(m.err.Error()) + "\n")
		if m.review() {
			b.WriteString("Press enter to try again.\n")
		}
	}

	b.WriteString("\n" + m.help.View(m.keys) + "\n")
	return b.String()
}

func (m wizardModel) viewActive(v wizard.StepView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", stepStyle.Render(fmt.Sprintf("%d.", v.Index+1)), titleStyle.Render(v.Title))
	for i, o := range v.Options {
		pointer := "  "
		label := o.Label
		switch {
		case o.Disabled:
			label = disabledStyle.Render(label)
		case i == m.cursor:
			pointer = cursorStyle.Render("> ")
			label = cursorStyle.Render(label)
		}
		line := "   " + pointer + label
		if o.Description != "" {
			line += " " + descStyle.Render(o.Description)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}
