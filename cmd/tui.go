// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/ld2410/pkg/ld2410"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Live radar dashboard",
	Long: `Show a live terminal dashboard of the radar.

The dashboard shows the latest report, per-gate energies while engineering
mode is on, the stored parameters and link statistics.

Keys:
  e - toggle engineering mode
  r - re-read parameters
  q - quit`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

type tickMsg time.Time

// reportBatchMsg carries the newest state after one or more reports
type reportBatchMsg struct {
	state ld2410.State
}

// commandDoneMsg is the outcome of a command started from the UI
type commandDoneMsg struct {
	action string
	err    error
}

type linkLostMsg struct {
	err error
}

type logEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

type tuiModel struct {
	ctx      context.Context
	link     *radarLink
	connInfo string

	state       ld2410.State
	stats       ld2410.Statistics
	haveReport  bool
	engineering bool
	busy        string

	spinner spinner.Model
	bar     progress.Model

	log           []logEntry
	maxLogEntries int

	width    int
	height   int
	quitting bool
}

func initialTUIModel(ctx context.Context, link *radarLink) tuiModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	return tuiModel{
		ctx:           ctx,
		link:          link,
		connInfo:      link.info,
		spinner:       s,
		bar:           progress.New(progress.WithDefaultGradient(), progress.WithWidth(30), progress.WithoutPercentage()),
		maxLogEntries: 100,
		busy:          "reading device info",
		width:         80,
		height:        24,
	}
}

func (m tuiModel) Init() tea.Cmd {
	return tea.Batch(
		tuiTickCmd(),
		m.spinner.Tick,
		m.runCommand("device info", m.link.radar.Begin),
	)
}

func tuiTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// runCommand runs fn off the UI goroutine. The driver serializes it with
// the reader loop.
func (m tuiModel) runCommand(action string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return commandDoneMsg{action: action, err: fn(ctx)}
	}
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "e":
			if m.busy != "" {
				return m, nil
			}
			enable := !m.engineering
			m.busy = "switching engineering mode"
			return m, m.runCommand(fmt.Sprintf("engineering mode %s", onOff(enable)), func(ctx context.Context) error {
				return m.link.radar.SetEngineeringMode(ctx, enable)
			})
		case "r":
			if m.busy != "" {
				return m, nil
			}
			m.busy = "reading parameters"
			return m, m.runCommand("read parameters", m.link.radar.ReadParameters)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = max(10, min(40, (msg.Width-30)/2))

	case tickMsg:
		m.stats = m.link.radar.Statistics()
		return m, tuiTickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case reportBatchMsg:
		if !m.haveReport {
			m.addLogEntry("Receiving reports", false)
		}
		m.haveReport = true
		m.state.Report = msg.state.Report
		m.state.Engineering = msg.state.Engineering
		m.engineering = msg.state.Report.Engineering

	case commandDoneMsg:
		m.busy = ""
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("%s: %v", msg.action, msg.err), true)
		} else {
			m.addLogEntry(fmt.Sprintf("%s: ok", msg.action), false)
		}
		state := m.link.radar.State()
		m.state.Parameters = state.Parameters
		m.state.Firmware = state.Firmware
		m.stats = m.link.radar.Statistics()

	case linkLostMsg:
		m.addLogEntry(fmt.Sprintf("Link lost: %v", msg.err), true)
	}

	return m, nil
}

func (m *tuiModel) addLogEntry(message string, isError bool) {
	m.log = append(m.log, logEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})

	// Keep only last N entries
	if len(m.log) > m.maxLogEntries {
		m.log = m.log[len(m.log)-m.maxLogEntries:]
	}
}

var (
	titleStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Background(lipgloss.Color("235")).Padding(0, 1)
	headerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statsLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	statsValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warningStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	boxStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
)

func (m tuiModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("LD2410 - PRESENCE RADAR"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | Firmware: %s | e: engineering  r: read params  q: quit",
		m.connInfo, ld2410.FormatFirmware(m.state.Firmware))))
	s.WriteString("\n\n")

	if m.busy != "" {
		s.WriteString(m.spinner.View() + " " + warningStyle.Render(m.busy+"..."))
		s.WriteString("\n\n")
	}

	s.WriteString(boxStyle.Render(m.renderReport()))
	s.WriteString("\n")

	if m.engineering {
		s.WriteString(boxStyle.Render(m.renderGates()))
		s.WriteString("\n")
	}

	s.WriteString(boxStyle.Render(m.renderStatistics()))
	s.WriteString("\n\n")
	s.WriteString(m.renderLog())
	return s.String()
}

func (m tuiModel) renderReport() string {
	if !m.haveReport {
		return warningStyle.Render("Waiting for reports...")
	}
	r := m.state.Report

	var c strings.Builder
	fmt.Fprintf(&c, "%s %s   %s %s\n",
		statsLabelStyle.Render("Target:"), statsValueStyle.Render(r.TargetState.String()),
		statsLabelStyle.Render("Detection:"), statsValueStyle.Render(fmt.Sprintf("%d cm", r.DetectionDistance)),
	)
	fmt.Fprintf(&c, "%s %s %s\n",
		statsLabelStyle.Render("Moving:    "),
		m.bar.ViewAs(energyPercent(r.MovingEnergy)),
		statsValueStyle.Render(fmt.Sprintf("%3d  %d cm", r.MovingEnergy, r.MovingDistance)),
	)
	fmt.Fprintf(&c, "%s %s %s",
		statsLabelStyle.Render("Stationary:"),
		m.bar.ViewAs(energyPercent(r.StationaryEnergy)),
		statsValueStyle.Render(fmt.Sprintf("%3d  %d cm", r.StationaryEnergy, r.StationaryDistance)),
	)
	return c.String()
}

func (m tuiModel) renderGates() string {
	e := m.state.Engineering
	p := m.state.Parameters

	var c strings.Builder
	fmt.Fprintf(&c, "%s moving %d, stationary %d\n",
		statsLabelStyle.Render("Max gates:"), e.MaxMovingGate, e.MaxStationaryGate)
	c.WriteString(headerStyle.Render("gate  moving (threshold)                 stationary (threshold)"))
	for gate := range ld2410.GateCount {
		fmt.Fprintf(&c, "\n%4d  %s %3d (%3d)  %s %3d (%3d)",
			gate,
			m.bar.ViewAs(energyPercent(e.MovingEnergy[gate])), e.MovingEnergy[gate], p.MovingSensitivity[gate],
			m.bar.ViewAs(energyPercent(e.StationaryEnergy[gate])), e.StationaryEnergy[gate], p.StationarySensitivity[gate],
		)
	}
	return c.String()
}

func (m tuiModel) renderStatistics() string {
	st := m.stats
	errs := st.FrameErrors()

	var c strings.Builder
	fmt.Fprintf(&c, "%s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Reports:"), statsValueStyle.Render(fmt.Sprintf("%d", st.Reports)),
		statsLabelStyle.Render("Acks:"), statsValueStyle.Render(fmt.Sprintf("%d", st.Acks)),
		statsLabelStyle.Render("Frame Errors:"), func() string {
			if errs > 0 {
				return errorStyle.Render(fmt.Sprintf("%d", errs))
			}
			return statsValueStyle.Render("0")
		}(),
	)
	if st.AnomalousReports > 0 {
		fmt.Fprintf(&c, "%s %s\n",
			statsLabelStyle.Render("Anomalous:"), warningStyle.Render(fmt.Sprintf("%d", st.AnomalousReports)))
	}
	fmt.Fprintf(&c, "%s %s   %s %s",
		statsLabelStyle.Render("Frame Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f/s", st.FrameRate)),
		statsLabelStyle.Render("Commands:"), statsValueStyle.Render(fmt.Sprintf("ok %d, failed %d, timed out %d",
			st.CommandsOK, st.CommandsFailed, st.CommandsTimedOut)),
	)
	return c.String()
}

func (m tuiModel) renderLog() string {
	var s strings.Builder
	s.WriteString(statsLabelStyle.Render("Recent Events:"))
	s.WriteString("\n")

	logHeight := max(3, m.height-30)
	start := max(0, len(m.log)-logHeight)

	var c strings.Builder
	if len(m.log) == 0 {
		c.WriteString(headerStyle.Render("  (no events yet)"))
	}
	for _, entry := range m.log[start:] {
		ts := headerStyle.Render(entry.timestamp.Format("15:04:05.000"))
		if entry.isError {
			fmt.Fprintf(&c, "%s %s\n", ts, errorStyle.Render("✗ "+entry.message))
		} else {
			fmt.Fprintf(&c, "%s %s\n", ts, warningStyle.Render("ℹ "+entry.message))
		}
	}
	s.WriteString(boxStyle.Width(max(20, m.width-4)).Render(c.String()))
	return s.String()
}

func energyPercent(v uint8) float64 {
	return min(float64(v), 100) / 100
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func runTUI(cmd *cobra.Command, args []string) error {
	link, err := openRadar()
	if err != nil {
		return err
	}
	defer link.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	p := tea.NewProgram(initialTUIModel(ctx, link), tea.WithAltScreen(), tea.WithContext(ctx))

	go pollLoop(ctx, link, p.Send)

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// pollLoop polls the radar and forwards the newest state to the UI at a
// fixed rate, so a fast report stream does not flood the program.
func pollLoop(ctx context.Context, link *radarLink, send func(tea.Msg)) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	fresh := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if fresh {
				send(reportBatchMsg{state: link.radar.State()})
				fresh = false
			}
		default:
		}

		if link.radar.Poll() {
			fresh = true
			continue
		}
		if err := link.transport.Err(); err != nil {
			send(linkLostMsg{err: err})
			return
		}
		time.Sleep(time.Millisecond)
	}
}
