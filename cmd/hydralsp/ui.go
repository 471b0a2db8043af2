package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"hydralsp/internal/engine/diagnostics"
	"hydralsp/internal/ui/report"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

type item struct {
	title, desc string
	severity    diagnostics.Severity
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + i.desc }

type model struct {
	list       list.Model
	summary    diagnostics.Summary
	documents  int
	targets    int
	lastUpdate time.Time
}

type updateMsg struct {
	docs []report.Document
	root string
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v-4)
	case updateMsg:
		m.summary = report.Total(msg.docs)
		m.documents = len(msg.docs)
		m.targets = 0
		m.lastUpdate = time.Now()
		m.list.SetItems(findingItems(msg.docs, msg.root))
		for _, doc := range msg.docs {
			m.targets += doc.Targets
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func findingItems(docs []report.Document, root string) []list.Item {
	items := []list.Item{}
	for _, doc := range docs {
		path := doc.Path
		if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
			path = rel
		}
		for _, f := range doc.Findings {
			title := "Error"
			if f.Severity == diagnostics.SeverityHint {
				title = "Hint"
			}
			items = append(items, item{
				title:    fmt.Sprintf("%s: %s", title, f.Code),
				desc:     fmt.Sprintf("%s:%d  %s", path, f.Line+1, f.Message),
				severity: f.Severity,
			})
		}
	}
	return items
}

func (m model) View() string {
	status := statusStyle.Render(fmt.Sprintf("Last update: %v | %d documents | %d targets",
		m.lastUpdate.Format("15:04:05"), m.documents, m.targets))

	var summary string
	if m.summary.Total() == 0 {
		summary = successStyle.Render("No findings")
	} else {
		summary = fmt.Sprintf("%s | %s",
			errorStyle.Render(fmt.Sprintf("%d Errors", m.summary.Errors)),
			hintStyle.Render(fmt.Sprintf("%d Hints", m.summary.Hints)))
	}

	header := fmt.Sprintf("%s\n%s | %s\n", titleStyle("Hydra Target Monitor"), status, summary)
	return docStyle.Render(header + "\n" + m.list.View())
}

func initialModel() model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Findings"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)

	return model{
		list:       l,
		lastUpdate: time.Now(),
	}
}
