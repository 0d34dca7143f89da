// ytsum-watch submits a video to a running ytsum server and follows the
// task in the terminal, rendering the same tracked progress a web client
// would display.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"ytsum/models"
	"ytsum/tracker"
)

var (
	serverURL     string
	clientTimeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "ytsum-watch <youtube-url>",
	Short: "Submit a video for summarization and watch its progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return watch(args[0])
	},
}

func init() {
	rootCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "ytsum server base URL")
	rootCmd.Flags().DurationVar(&clientTimeout, "timeout", 5*time.Minute, "give up after this long")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type snapshotMsg tracker.Snapshot

type summaryMsg struct {
	summary *models.Summary
	err     error
}

type submitFailedMsg struct{ err error }

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	stageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	doneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	bodyStyle  = lipgloss.NewStyle().PaddingLeft(2)
)

type watchModel struct {
	url     string
	bar     progress.Model
	snap    tracker.Snapshot
	summary *models.Summary
	err     error
	done    bool
}

func (m watchModel) Init() tea.Cmd {
	return nil
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.snap = tracker.Snapshot(msg)
		cmd := m.bar.SetPercent(float64(m.snap.Progress) / 100)
		if m.snap.State == tracker.StateError || m.snap.State == tracker.StateTimedOut {
			m.done = true
			return m, tea.Sequence(cmd, tea.Quit)
		}
		return m, cmd

	case summaryMsg:
		m.summary = msg.summary
		m.err = msg.err
		m.done = true
		return m, tea.Quit

	case submitFailedMsg:
		m.err = msg.err
		m.done = true
		return m, tea.Quit

	case progress.FrameMsg:
		updated, cmd := m.bar.Update(msg)
		m.bar = updated.(progress.Model)
		return m, cmd

	case tea.WindowSizeMsg:
		m.bar.Width = msg.Width - 8
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.done = true
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m watchModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("ytsum") + " " + m.url + "\n\n")

	switch {
	case m.err != nil:
		b.WriteString(errStyle.Render("✗ "+m.err.Error()) + "\n")
	case m.summary != nil:
		b.WriteString(doneStyle.Render("✓ "+m.snap.Stage) + "\n\n")
		b.WriteString(titleStyle.Render(m.summary.Title) + "\n")
		b.WriteString(bodyStyle.Render(m.summary.Summary) + "\n")
		if len(m.summary.KeyPoints) > 0 {
			b.WriteString("\n" + titleStyle.Render("Key points") + "\n")
			for _, p := range m.summary.KeyPoints {
				b.WriteString(bodyStyle.Render("• "+p) + "\n")
			}
		}
	case m.snap.State == tracker.StateError || m.snap.State == tracker.StateTimedOut:
		b.WriteString(errStyle.Render("✗ "+m.snap.Stage) + "\n")
	default:
		b.WriteString(m.bar.ViewAs(float64(m.snap.Progress)/100) + "\n")
		b.WriteString(stageStyle.Render(m.snap.Stage) + "\n")
	}

	return b.String()
}

func watch(url string) error {
	client := tracker.NewClient(serverURL, 30*time.Second)

	m := watchModel{
		url: url,
		bar: progress.New(progress.WithDefaultGradient()),
	}
	p := tea.NewProgram(m)

	tr := tracker.NewTracker(client, tracker.Config{
		BaseInterval:     time.Second,
		MaxInterval:      8 * time.Second,
		Jitter:           250 * time.Millisecond,
		ClientTimeout:    clientTimeout,
		SimulatedCap:     95,
		QueuedGraceCount: 3,
	}, func(snap tracker.Snapshot) {
		p.Send(snapshotMsg(snap))
		if snap.State == tracker.StateCompleted {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				summary, err := client.GetSummary(ctx, snap.TaskID)
				p.Send(summaryMsg{summary: summary, err: err})
			}()
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The display starts moving on the placeholder immediately; the real
	// task id takes over once the server answers.
	tr.Start(ctx)
	go func() {
		submitCtx, submitCancel := context.WithTimeout(ctx, 30*time.Second)
		defer submitCancel()

		taskID, err := client.Summarize(submitCtx, url)
		if err != nil {
			tr.SetTask("")
			p.Send(submitFailedMsg{err: err})
			return
		}
		tr.SetTask(taskID)
	}()

	_, err := p.Run()
	tr.Stop()
	if err != nil {
		return fmt.Errorf("display error: %w", err)
	}
	return nil
}
