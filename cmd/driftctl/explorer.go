package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/driftlabs/driftcortex/internal/cortex/memory"
	cortexstorage "github.com/driftlabs/driftcortex/internal/cortex/storage"
	"github.com/driftlabs/driftcortex/pkg/config"
)

var (
	whyHeaderStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	whySelectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	whyDimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
)

// runDriftWhy opens an interactive explorer over every memory in namespace:
// arrow keys move the selection, enter evaluates --path (a jsonpath
// expression) against the selected memory's Content, q quits.
func runDriftWhy(ctx context.Context, cfg *config.Config, args []string) error {
	var namespace, path string
	if _, err := parseFlags("drift_why", args, func(fs *flag.FlagSet) {
		fs.StringVar(&namespace, "namespace", "", "namespace to explore (required)")
		fs.StringVar(&path, "path", "$.detail", "jsonpath expression evaluated against the selected memory's content")
	}); err != nil {
		return err
	}
	if namespace == "" {
		return fmt.Errorf("--namespace is required")
	}

	mem, err := cortexstorage.Open(ctx, cfg.CortexStore.KivikDriver, cfg.CortexStore.KivikDSN, cfg.CortexStore.KivikDatabase)
	if err != nil {
		return fmt.Errorf("open cortex memory store: %w", err)
	}
	defer mem.Close()

	memories, err := mem.FindByNamespace(ctx, namespace)
	if err != nil {
		return fmt.Errorf("find memories: %w", err)
	}
	if len(memories) == 0 {
		fmt.Printf("no memories in namespace %q\n", namespace)
		return nil
	}

	m := whyModel{memories: memories, path: path}
	p := tea.NewProgram(m)
	_, err = p.Run()
	return err
}

type whyModel struct {
	memories []memory.Memory
	cursor   int
	path     string
	result   string
}

func (m whyModel) Init() tea.Cmd { return nil }

func (m whyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		m.result = ""
	case "down", "j":
		if m.cursor < len(m.memories)-1 {
			m.cursor++
		}
		m.result = ""
	case "enter":
		m.result = m.evaluate()
	}
	return m, nil
}

// evaluate runs m.path against the selected memory's Content via
// PaesslerAG/jsonpath, which operates on generic Go values rather than raw
// JSON bytes, so Content is unmarshaled first.
func (m whyModel) evaluate() string {
	sel := m.memories[m.cursor]
	if len(sel.Content) == 0 {
		return "(no content)"
	}
	var data interface{}
	if err := json.Unmarshal(sel.Content, &data); err != nil {
		return fmt.Sprintf("unmarshal content: %v", err)
	}
	value, err := jsonpath.Get(m.path, data)
	if err != nil {
		return fmt.Sprintf("jsonpath %q: %v", m.path, err)
	}
	return fmt.Sprintf("%v", value)
}

func (m whyModel) View() string {
	var b strings.Builder
	b.WriteString(whyHeaderStyle.Render("driftctl drift_why") + "\n")
	b.WriteString(whyDimStyle.Render("up/down select, enter evaluate "+m.path+", q quit") + "\n\n")

	for i, mem := range m.memories {
		line := fmt.Sprintf("%-8s conf=%.2f  %s", mem.Variant, mem.Confidence, mem.Summary)
		if i == m.cursor {
			b.WriteString(whySelectedStyle.Render("> "+line) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}
	if m.result != "" {
		b.WriteString("\n" + whyHeaderStyle.Render("result: ") + m.result + "\n")
	}
	return b.String()
}
