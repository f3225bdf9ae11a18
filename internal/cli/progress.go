package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/index"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/models"
)

const tickInterval = time.Second

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// rebuilder rebuilds one collection's index.
type rebuilder interface {
	Rebuild(ctx context.Context, c models.Collection) (*index.Index, error)
}

// rebuildResult is the outcome of rebuilding one collection.
type rebuildResult struct {
	collection models.Collection
	documents  int
	took       time.Duration
	err        error
}

// rebuildDoneMsg carries a finished collection.
type rebuildDoneMsg rebuildResult

// tickMsg refreshes the elapsed time.
type tickMsg time.Time

// rebuildModel is the bubbletea model for a multi-collection rebuild.
type rebuildModel struct {
	ctx         context.Context
	cancel      context.CancelFunc
	indexes     rebuilder
	collections []models.Collection
	next        int
	results     []rebuildResult
	started     time.Time
	progress    progress.Model
	theme       Theme
	done        bool
	quitting    bool
}

func newRebuildModel(ctx context.Context, r rebuilder, collections []models.Collection) rebuildModel {
	ctx, cancel := context.WithCancel(ctx)
	return rebuildModel{
		ctx:         ctx,
		cancel:      cancel,
		indexes:     r,
		collections: collections,
		started:     time.Now(),
		progress: progress.New(
			progress.WithDefaultBlend(),
			progress.WithWidth(40),
		),
		theme: defaultTheme,
	}
}

// Init starts the first rebuild.
func (m rebuildModel) Init() tea.Cmd {
	if len(m.collections) == 0 {
		return tea.Quit
	}
	return tea.Batch(
		m.rebuildCmd(m.collections[0]),
		tickCmd(),
		m.progress.Init(),
	)
}

// Update handles messages and returns the updated model.
func (m rebuildModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			m.cancel()
			return m, tea.Quit
		}

	case tickMsg:
		if m.done {
			return m, nil
		}
		return m, tickCmd()

	case rebuildDoneMsg:
		m.results = append(m.results, rebuildResult(msg))
		m.next++
		if m.next >= len(m.collections) {
			m.done = true
			m.cancel()
			return m, tea.Quit
		}
		return m, m.rebuildCmd(m.collections[m.next])

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m rebuildModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m rebuildModel) renderContent() string {
	if m.done || m.quitting {
		return m.finalView()
	}

	total := len(m.collections)
	pct := float64(m.next) / float64(total)
	status := m.theme.statusStyle().Render(fmt.Sprintf("[rebuilding %s]", m.collections[m.next]))
	counts := fmt.Sprintf("%d/%d collections  %s", m.next, total, time.Since(m.started).Round(time.Second))
	hint := m.theme.hintStyle().Render("Press Ctrl+C to cancel; committed collections are kept")

	return fmt.Sprintf("%s %s %s\n%s\n", status, m.progress.ViewAs(pct), counts, hint)
}

func (m rebuildModel) finalView() string {
	var b strings.Builder
	for _, r := range m.results {
		b.WriteString(m.formatResult(r))
	}
	if m.quitting {
		b.WriteString(m.theme.hintStyle().Render("\nRebuild cancelled. The previous index is still served for unfinished collections.\n"))
	}
	return b.String()
}

func (m rebuildModel) formatResult(r rebuildResult) string {
	if r.err != nil {
		return m.theme.errorStyle().Render(fmt.Sprintf("✗ %s: %v", r.collection, r.err)) + "\n"
	}
	return m.theme.completedStyle().Render("✓ "+r.collection.String()) +
		fmt.Sprintf("  %d documents (%s)\n", r.documents, r.took.Round(time.Millisecond))
}

// rebuildCmd runs one rebuild off the update loop.
func (m rebuildModel) rebuildCmd(c models.Collection) tea.Cmd {
	return func() tea.Msg {
		return rebuildDoneMsg(rebuildOne(m.ctx, m.indexes, c))
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func rebuildOne(ctx context.Context, r rebuilder, c models.Collection) rebuildResult {
	start := time.Now()
	idx, err := r.Rebuild(ctx, c)
	res := rebuildResult{collection: c, took: time.Since(start), err: err}
	if idx != nil {
		res.documents = idx.Len()
	}
	return res
}

// RunRebuildProgress rebuilds collections one after another behind a progress bar.
// Returns the joined failures, or the context error when the user cancelled.
func RunRebuildProgress(ctx context.Context, r rebuilder, collections []models.Collection) error {
	model := newRebuildModel(ctx, r, collections)
	p := tea.NewProgram(model)

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("progress UI error: %w", err)
	}

	m, ok := finalModel.(rebuildModel)
	if !ok {
		return nil
	}
	if m.quitting {
		return context.Canceled
	}
	return joinFailures(m.results)
}

// RunRebuildPlain rebuilds collections and prints one line per collection.
func RunRebuildPlain(ctx context.Context, w io.Writer, r rebuilder, collections []models.Collection) error {
	var results []rebuildResult
	for _, c := range collections {
		fmt.Fprintf(w, "rebuilding %s...\n", c)
		res := rebuildOne(ctx, r, c)
		results = append(results, res)
		if res.err != nil {
			fmt.Fprintf(w, "  failed: %v\n", res.err)
			continue
		}
		fmt.Fprintf(w, "  %d documents (%s)\n", res.documents, res.took.Round(time.Millisecond))
		if ctx.Err() != nil {
			break
		}
	}
	return joinFailures(results)
}

func joinFailures(results []rebuildResult) error {
	var errs []error
	for _, r := range results {
		if r.err != nil {
			errs = append(errs, r.err)
		}
	}
	return errors.Join(errs...)
}
