package vtree

import (
	"fmt"
	"io"
	"os"
	"strings"

	udiff "github.com/aymanbagabas/go-udiff"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Resolution is the decision for a create that collides with an existing file.
type Resolution int

const (
	Cancel Resolution = iota
	Skip
	Overwrite
	ShowDiff
)

// ConflictStrategy decides what happens to a colliding create.
type ConflictStrategy interface {
	Resolve(path string, existing, newer []byte) (Resolution, error)
}

var (
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("yellow")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan")).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	borderStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("white")).Bold(true)
)

// NewStrategy picks a strategy from the command line flags.
// --force cannot be combined with --skip or --diff.
func NewStrategy(force, skip, diff, interactive bool) (ConflictStrategy, error) {
	if force && (skip || diff) {
		return nil, fmt.Errorf("--force cannot be combined with --skip or --diff")
	}
	if skip && diff {
		return nil, fmt.Errorf("--skip cannot be combined with --diff")
	}

	switch {
	case force:
		return ForceStrategy{}, nil
	case skip:
		return SkipStrategy{}, nil
	case diff:
		return &DiffStrategy{Out: os.Stdout}, nil
	case interactive:
		return InteractiveStrategy{}, nil
	default:
		return FailStrategy{}, nil
	}
}

// FailStrategy cancels on every collision; the commit fails.
type FailStrategy struct{}

// Resolve always returns Cancel for the default mode
func (FailStrategy) Resolve(path string, existing, newer []byte) (Resolution, error) {
	return Cancel, nil
}

// ForceStrategy always overwrites.
type ForceStrategy struct{}

// Resolve always returns Overwrite for force mode
func (ForceStrategy) Resolve(path string, existing, newer []byte) (Resolution, error) {
	return Overwrite, nil
}

// SkipStrategy always keeps the existing file.
type SkipStrategy struct{}

// Resolve always returns Skip for skip mode
func (SkipStrategy) Resolve(path string, existing, newer []byte) (Resolution, error) {
	return Skip, nil
}

// Diff renders a unified diff between two versions of path.
func Diff(path string, before, after []byte) string {
	return udiff.Unified("a/"+path, "b/"+path, string(before), string(after))
}

// DiffStrategy shows the diff, then asks interactively.
type DiffStrategy struct {
	Out io.Writer
}

// Resolve shows the diff (in a pager when long), then the menu
func (s *DiffStrategy) Resolve(path string, existing, newer []byte) (Resolution, error) {
	diff := Diff(path, existing, newer)

	if strings.Count(diff, "\n") > 20 {
		p := tea.NewProgram(diffViewerModel{path: path, diff: diff}, tea.WithAltScreen())
		final, err := p.Run()
		if err != nil {
			return Cancel, fmt.Errorf("failed to show diff: %w", err)
		}
		if final.(diffViewerModel).cancelled {
			return Cancel, nil
		}
	} else {
		fmt.Fprintln(s.Out, diff)
	}

	return InteractiveStrategy{}.Resolve(path, existing, newer)
}

// InteractiveStrategy shows a keyboard-driven menu. Choosing
// "Show diff and decide" prints the diff and shows the menu again.
type InteractiveStrategy struct{}

// Resolve loops on the menu until a final choice is made
func (InteractiveStrategy) Resolve(path string, existing, newer []byte) (Resolution, error) {
	for {
		p := tea.NewProgram(newConflictMenuModel(path, len(existing), len(newer)))
		final, err := p.Run()
		if err != nil {
			return Cancel, fmt.Errorf("failed to show menu: %w", err)
		}

		m := final.(conflictMenuModel)
		if m.selected == nil {
			return Cancel, nil
		}
		if *m.selected != ShowDiff {
			return *m.selected, nil
		}
		fmt.Println(Diff(path, existing, newer))
	}
}

type conflictMenuModel struct {
	path         string
	existingSize int
	newerSize    int
	choices      []string
	cursor       int
	selected     *Resolution
}

func newConflictMenuModel(path string, existingSize, newerSize int) conflictMenuModel {
	return conflictMenuModel{
		path:         path,
		existingSize: existingSize,
		newerSize:    newerSize,
		choices: []string{
			"Show diff and decide",
			"Skip (keep existing file)",
			"Overwrite (replace with generated file)",
			"Cancel generation",
		},
	}
}

func (m conflictMenuModel) Init() tea.Cmd {
	return nil
}

func (m conflictMenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.choices)-1 {
				m.cursor++
			}
		case "enter":
			res := choiceResolution(m.cursor)
			m.selected = &res
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m conflictMenuModel) View() string {
	var b strings.Builder

	b.WriteString(warningStyle.Render("⚠️  File conflict detected: ") + titleStyle.Render(m.path) + "\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("    Existing: %d bytes, generated: %d bytes", m.existingSize, m.newerSize)) + "\n\n")
	b.WriteString(mutedStyle.Render("    [↑/↓] Navigate    [Enter] Select    [q] Cancel") + "\n\n")

	for i, choice := range m.choices {
		if m.cursor == i {
			b.WriteString("    " + selectedStyle.Render("> "+choice) + "\n")
		} else {
			b.WriteString("      " + choice + "\n")
		}
	}
	return b.String()
}

func choiceResolution(cursor int) Resolution {
	switch cursor {
	case 0:
		return ShowDiff
	case 1:
		return Skip
	case 2:
		return Overwrite
	default:
		return Cancel
	}
}

// diffViewerModel pages through a long diff.
type diffViewerModel struct {
	path      string
	diff      string
	viewport  viewport.Model
	ready     bool
	cancelled bool
}

func (m diffViewerModel) Init() tea.Cmd {
	return nil
}

func (m diffViewerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancelled = true
			return m, tea.Quit
		case "q", "esc":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		const chrome = 4
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-chrome)
			m.viewport.SetContent(m.diff)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - chrome
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m diffViewerModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	header := borderStyle.Render("─ Diff: ") + titleStyle.Render(m.path)
	footer := mutedStyle.Render(" [↑/↓] Scroll    [q] Return to menu    [ctrl+c] Cancel")
	return header + "\n\n" + m.viewport.View() + "\n" + footer
}
