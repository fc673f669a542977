package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// Input Resolution
// =============================================================================

// resolveInput returns the netlist path from args, or runs the interactive
// picker over JSON files in the current directory when no argument was given.
func resolveInput(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}

	files, err := listNetlists(".")
	if err != nil {
		return "", err
	}
	switch len(files) {
	case 0:
		return "", fmt.Errorf("no netlist files found in the current directory")
	case 1:
		printInfo("Using %s", files[0])
		return files[0], nil
	}

	return pickNetlist(files)
}

// listNetlists returns the JSON files in dir, sorted by name. Layout
// documents produced by this tool are skipped.
func listNetlists(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		if strings.HasSuffix(name, ".layout.json") || strings.HasSuffix(name, ".dataset.json") {
			continue
		}
		files = append(files, name)
	}
	sort.Strings(files)
	return files, nil
}

// pickNetlist runs the interactive selection list and returns the choice.
func pickNetlist(files []string) (string, error) {
	model := newNetlistPicker(files)
	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return "", err
	}
	picker, ok := final.(netlistPicker)
	if !ok || picker.choice == "" {
		return "", fmt.Errorf("no netlist selected")
	}
	return picker.choice, nil
}

// =============================================================================
// netlistPicker - Interactive netlist selection
// =============================================================================

// netlistPicker is the bubbletea model for selecting a netlist file.
type netlistPicker struct {
	files  []string
	cursor int
	choice string
	height int
	offset int
}

func newNetlistPicker(files []string) netlistPicker {
	return netlistPicker{files: files, height: 15}
}

func (m netlistPicker) Init() tea.Cmd {
	return nil
}

func (m netlistPicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.files)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "enter":
			m.choice = m.files[m.cursor]
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m netlistPicker) View() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render("Select a netlist") + "\n\n")

	end := m.offset + m.height
	if end > len(m.files) {
		end = len(m.files)
	}
	for i := m.offset; i < end; i++ {
		if i == m.cursor {
			b.WriteString(listSelectedStyle.Render("> "+m.files[i]) + "\n")
		} else {
			b.WriteString(listNormalStyle.Render("  "+m.files[i]) + "\n")
		}
	}

	b.WriteString("\n" + listDimStyle.Render("↑/↓ move · enter select · q quit") + "\n")
	return b.String()
}
