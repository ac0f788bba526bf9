// Package ui provides the Bubble Tea TUI for the market-making engine.
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fd1az/xvenue-mm/pkg/ui/components"
)

// ConnectionInfo holds connection state and latency.
type ConnectionInfo struct {
	Connected bool
	Latency   time.Duration
	LastSeen  time.Time
}

// StartupStep represents a step in the startup process.
type StartupStep struct {
	Name   string
	Status string // "pending", "connecting", "connected", "failed"
}

// Phase represents the current UI phase.
type Phase string

const (
	PhaseWelcome   Phase = "welcome"   // Initial welcome screen
	PhaseStartup   Phase = "startup"   // Loading/connecting
	PhaseDashboard Phase = "dashboard" // Main dashboard
)

// WelcomeDuration is how long the welcome screen shows before auto-advancing.
const WelcomeDuration = 2 * time.Second

// ErrorEntry represents an error with timestamp.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	// Components
	quotes   *components.QuotesComponent
	activity *components.ActivityComponent
	stats    *components.StatsComponent

	// Phase state
	phase        Phase
	welcomeStart time.Time

	// State
	ready           bool
	quitting        bool
	paused          bool
	width           int
	height          int
	connectionState map[string]*ConnectionInfo
	lastUpdate      time.Time
	errorMsg        string
	errors          []ErrorEntry // Persistent error panel (last 3)
	logs            []string     // Recent log messages

	// Startup state
	startupComplete bool
	startupSteps    map[string]*StartupStep
	startupTime     time.Time

	// Position / hedge state
	posA, posB, unhedged int64
	ratelimited          map[string]bool
	lastTickTime         time.Time
}

// New creates a new TUI model.
func New() Model {
	now := time.Now()
	quotesC, activityC, statsC := newComponents()
	return Model{
		quotes:       quotesC,
		activity:     activityC,
		stats:        statsC,
		phase:        PhaseWelcome,
		welcomeStart: now,
		connectionState: map[string]*ConnectionInfo{
			"Venue A": {Connected: false},
			"Venue B": {Connected: false},
		},
		logs:        make([]string, 0, 10),
		errors:      make([]ErrorEntry, 0, 3),
		ratelimited: make(map[string]bool, 2),
		startupSteps: map[string]*StartupStep{
			"config":  {Name: "Loading configuration", Status: "pending"},
			"venue_a": {Name: "Connecting to venue A", Status: "pending"},
			"venue_b": {Name: "Connecting to venue B", Status: "pending"},
			"gateway": {Name: "Arming order gateway", Status: "pending"},
		},
		startupTime: now,
	}
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// tickCmd returns a command that sends a tick every 100ms for smooth animations.
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
		if m.phase == PhaseWelcome {
			m.phase = PhaseStartup
			m.startupTime = time.Now()
			if OnStartModules != nil {
				go OnStartModules()
			}
			return m, tickCmd()
		}
		switch msg.String() {
		case "c":
			m.activity.Clear()
			return m, nil
		case "p":
			m.paused = !m.paused
			return m, nil
		case "up", "k":
			m.activity.ScrollUp()
			return m, nil
		case "down", "j":
			m.activity.ScrollDown()
			return m, nil
		case "e":
			m.errors = make([]ErrorEntry, 0, 3)
			m.errorMsg = ""
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case TickMsg:
		if m.phase == PhaseWelcome && time.Since(m.welcomeStart) >= WelcomeDuration {
			m.phase = PhaseStartup
			m.startupTime = time.Now()
			if OnStartModules != nil {
				go OnStartModules()
			}
		}
		return m, tickCmd()

	case BBOMsg:
		m.quotes.UpdateBBO(components.BBORow{Venue: msg.Venue, Bid: msg.Bid, Ask: msg.Ask})
		m.lastUpdate = time.Now()

	case QuoteMsg:
		rows := []components.QuoteRow{{Side: msg.Side, State: msg.State, Price: msg.Price, Size: msg.Size}}
		m.quotes.UpdateQuotes(mergeQuoteRows(m.quotes, rows))
		m.lastUpdate = time.Now()

	case PositionMsg:
		switch msg.Venue {
		case "A":
			m.posA = msg.Size
		case "B":
			m.posB = msg.Size
		}
		m.unhedged = msg.Unhedged
		m.lastUpdate = time.Now()

	case HedgeMsg:
		detail := fmt.Sprintf("%s %d contracts", msg.Side, msg.Contracts)
		m.activity.Add(components.ActivityRow{Timestamp: nowStamp(), Kind: "hedge", Detail: detail, Good: true})
		m.lastUpdate = time.Now()

	case RateLimitMsg:
		m.ratelimited[msg.Venue] = msg.Limited
		detail := fmt.Sprintf("venue %s cleared", msg.Venue)
		good := true
		if msg.Limited {
			detail = fmt.Sprintf("venue %s limited until %s", msg.Venue, msg.ResetAt.Format("15:04:05"))
			good = false
		}
		m.activity.Add(components.ActivityRow{Timestamp: nowStamp(), Kind: "rate_limit", Detail: detail, Good: good})
		m.lastUpdate = time.Now()

	case ConnectionStatusMsg:
		m.connectionState[msg.Name] = &ConnectionInfo{
			Connected: msg.Connected,
			Latency:   msg.Latency,
			LastSeen:  time.Now(),
		}
		m.lastUpdate = time.Now()

		stepKey := connectionStepKey(msg.Name)
		if step, ok := m.startupSteps[stepKey]; ok {
			if msg.Connected {
				step.Status = "connected"
			} else {
				step.Status = "connecting"
			}
		}
		if m.startupSteps["config"] != nil {
			m.startupSteps["config"].Status = "done"
		}

	case StatsMsg:
		m.stats.Update(components.Stats{
			Ticks:          msg.Ticks,
			OrdersPlaced:   msg.OrdersPlaced,
			OrdersAmended:  msg.OrdersAmended,
			HedgesPlaced:   msg.HedgesPlaced,
			RateLimitStops: msg.RateLimitStops,
			Errors:         msg.Errors,
		})
		m.lastTickTime = time.Now()

	case ErrorMsg:
		m.errorMsg = msg.Error.Error()
		m.logs = addLog(m.logs, "error", msg.Error.Error())
		m.errors = append(m.errors, ErrorEntry{Message: msg.Error.Error(), Timestamp: time.Now()})
		if len(m.errors) > 3 {
			m.errors = m.errors[len(m.errors)-3:]
		}

	case LogMsg:
		m.logs = addLog(m.logs, msg.Level, msg.Message)

	case StartupMsg:
		if step, ok := m.startupSteps[msg.Step]; ok {
			step.Status = msg.Status
		}
		allConnected := true
		for _, step := range m.startupSteps {
			if step.Status != "connected" && step.Status != "done" {
				allConnected = false
				break
			}
		}
		if allConnected {
			m.startupComplete = true
		}
	}

	return m, nil
}

func connectionStepKey(name string) string {
	switch name {
	case "Venue A":
		return "venue_a"
	case "Venue B":
		return "venue_b"
	case "Gateway":
		return "gateway"
	default:
		return strings.ToLower(strings.ReplaceAll(name, " ", "_"))
	}
}

// mergeQuoteRows folds a single-side update into the component's existing
// (bid, ask) rows, since the component only exposes a full-replace API.
func mergeQuoteRows(q *components.QuotesComponent, updates []components.QuoteRow) []components.QuoteRow {
	bySide := make(map[string]components.QuoteRow, 2)
	for _, r := range q.Quotes() {
		bySide[strings.ToLower(r.Side)] = r
	}
	for _, u := range updates {
		bySide[strings.ToLower(u.Side)] = u
	}
	rows := make([]components.QuoteRow, 0, 2)
	if r, ok := bySide["bid"]; ok {
		rows = append(rows, r)
	}
	if r, ok := bySide["ask"]; ok {
		rows = append(rows, r)
	}
	return rows
}

func nowStamp() string {
	return time.Now().Format("15:04:05")
}

// addLog adds a log message and returns the updated slice (keeps last 5).
func addLog(logs []string, level, message string) []string {
	timestamp := time.Now().Format("15:04:05")
	logLine := fmt.Sprintf("[%s] %s: %s", timestamp, level, message)
	logs = append(logs, logLine)
	if len(logs) > 5 {
		logs = logs[len(logs)-5:]
	}
	return logs
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}

	switch m.phase {
	case PhaseWelcome:
		return m.renderWelcomeScreen()
	case PhaseStartup:
		if !m.startupComplete {
			return m.renderStartupScreen()
		}
		m.phase = PhaseDashboard
		fallthrough
	case PhaseDashboard:
	}

	var b strings.Builder

	title := TitleStyle.Render(" xvenue-mm ")
	b.WriteString(title)
	b.WriteString("\n\n")

	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")

	leftCol := m.quotes.View() + "\n\n" + m.renderPosition()
	rightCol := m.activity.View()

	if m.width > 100 {
		left := BoxStyle.Width(m.width/2 - 2).Render(leftCol)
		right := BoxStyle.Width(m.width/2 - 2).Render(rightCol)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	} else {
		b.WriteString(BoxStyle.Width(m.width - 4).Render(leftCol))
		b.WriteString("\n")
		b.WriteString(BoxStyle.Width(m.width - 4).Render(rightCol))
	}

	b.WriteString("\n\n")
	b.WriteString(m.stats.View())
	b.WriteString("\n\n")

	if len(m.errors) > 0 {
		errorStyle := lipgloss.NewStyle().Foreground(ColorDanger)
		errorHeader := lipgloss.NewStyle().Bold(true).Foreground(ColorDanger)
		mutedError := lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))

		b.WriteString(errorHeader.Render("ERRORS"))
		b.WriteString(mutedError.Render(" (e: clear)"))
		b.WriteString("\n")
		for _, err := range m.errors {
			ago := time.Since(err.Timestamp).Round(time.Second)
			b.WriteString(errorStyle.Render(fmt.Sprintf("  • %s ", err.Message)))
			b.WriteString(mutedError.Render(fmt.Sprintf("(%s ago)", ago)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	helpText := "q: quit • c: clear • p: pause • ↑↓: scroll"
	if m.paused {
		pauseStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F59E0B"))
		b.WriteString(pauseStyle.Render("⏸ PAUSED"))
		b.WriteString(" • ")
	}
	b.WriteString(HelpStyle.Render(helpText))

	return b.String()
}

// renderPosition renders the position/hedge accumulator panel.
func (m Model) renderPosition() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))

	var b strings.Builder
	b.WriteString(headerStyle.Render("POSITION"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("  Venue A: %s   Venue B: %s   Unhedged: %s\n",
		valueStyle.Render(fmt.Sprintf("%d", m.posA)),
		valueStyle.Render(fmt.Sprintf("%d", m.posB)),
		warnStyle.Render(fmt.Sprintf("%d", m.unhedged)),
	))
	return b.String()
}

// renderWelcomeScreen renders the animated welcome screen.
func (m Model) renderWelcomeScreen() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	goldStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F59E0B"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	greenStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))

	elapsed := time.Since(m.welcomeStart)
	dotCount := int(elapsed.Milliseconds()/300) % 4
	dots := strings.Repeat(".", dotCount)

	var sb strings.Builder
	sb.WriteString("\n\n\n\n")

	logo := `
   __  ___   _____  _   ____  __ __    __  __ __  __
  /  |/  /  / ___/ | | / / / / // /_ _/ /_/  |/  /
 / /|_/ /  / /__   | |/ / /_/ / __/ _/ __/ /|_/ /
/_/  /_/   \___/   |___/\____/\__/ / \__/_/  /_/
`
	sb.WriteString(titleStyle.Render(logo))
	sb.WriteString("\n")

	subtitle := "            C R O S S - V E N U E   M A R K E T   M A K E R"
	sb.WriteString(mutedStyle.Render(subtitle))
	sb.WriteString("\n\n\n")

	tagline := "              Quoting the spread, hedging the fills"
	sb.WriteString(goldStyle.Render(tagline))
	sb.WriteString("\n\n\n")

	loading := fmt.Sprintf("                  Initializing%s", dots)
	sb.WriteString(greenStyle.Render(loading))
	sb.WriteString("\n\n")

	hint := "            Press any key to skip, or wait..."
	sb.WriteString(mutedStyle.Render(hint))
	sb.WriteString("\n")

	return sb.String()
}

// renderStartupScreen renders the loading/startup screen.
func (m Model) renderStartupScreen() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")).MarginBottom(1)
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	successStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	connectingStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	failedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))

	var sb strings.Builder
	sb.WriteString("\n\n")
	sb.WriteString(titleStyle.Render("  xvenue-mm"))
	sb.WriteString("\n\n")
	sb.WriteString(headerStyle.Render("  Starting up..."))
	sb.WriteString("\n\n")

	stepOrder := []string{"config", "venue_a", "venue_b", "gateway"}
	for _, key := range stepOrder {
		step, ok := m.startupSteps[key]
		if !ok {
			continue
		}

		var icon, statusText string
		var style lipgloss.Style

		switch step.Status {
		case "connected", "done":
			icon = "✓"
			statusText = "Ready"
			style = successStyle
		case "connecting":
			spinners := []string{"◐", "◓", "◑", "◒"}
			idx := int(time.Since(m.startupTime).Milliseconds()/200) % len(spinners)
			icon = spinners[idx]
			statusText = "Connecting..."
			style = connectingStyle
		case "failed":
			icon = "✗"
			statusText = "Failed"
			style = failedStyle
		default:
			icon = "○"
			statusText = "Pending"
			style = mutedStyle
		}

		sb.WriteString(fmt.Sprintf("  %s %s %s\n", style.Render(icon), mutedStyle.Render(step.Name), style.Render(statusText)))
	}

	sb.WriteString("\n")
	elapsed := time.Since(m.startupTime).Round(time.Second)
	sb.WriteString(mutedStyle.Render(fmt.Sprintf("  Elapsed: %s", elapsed)))
	sb.WriteString("\n\n")
	sb.WriteString(mutedStyle.Render("  Waiting for both venues' snapshots..."))
	sb.WriteString("\n")

	return sb.String()
}

func (m Model) renderStatusBar() string {
	var parts []string

	if time.Since(m.lastTickTime) < 500*time.Millisecond {
		spinners := []string{"⟳", "◐", "◓", "◑", "◒"}
		idx := int(time.Now().UnixMilli()/100) % len(spinners)
		tickingStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
		parts = append(parts, tickingStyle.Render(spinners[idx]+" Ticking"))
	}

	for name, info := range m.connectionState {
		var statusStyle lipgloss.Style
		var icon string
		var status string
		if info != nil && info.Connected {
			statusStyle = StatusConnected
			icon = "●"
			if info.Latency > 0 {
				status = fmt.Sprintf("%s (%dms)", name, info.Latency.Milliseconds())
			} else {
				status = name
			}
		} else {
			statusStyle = StatusDisconnected
			icon = "○"
			status = name + " (disconnected)"
		}
		parts = append(parts, statusStyle.Render(icon+" "+status))
	}

	for venue, limited := range m.ratelimited {
		if limited {
			warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)
			parts = append(parts, warnStyle.Render("⚠ "+venue+" rate-limited"))
		}
	}

	if !m.lastUpdate.IsZero() {
		ago := time.Since(m.lastUpdate).Round(time.Second)
		indicator := ""
		if ago < 2*time.Second {
			indicator = "▪"
		}
		parts = append(parts, MutedValue.Render(fmt.Sprintf("Updated: %s ago %s", ago, indicator)))
	}

	return strings.Join(parts, "  │  ")
}

// Program holds the Bubble Tea program instance for external access.
var Program *tea.Program

// OnStartModules is called when the welcome screen completes and modules should start.
var OnStartModules func()

// Run starts the Bubble Tea program.
func Run() error {
	Program = tea.NewProgram(New(), tea.WithAltScreen())
	_, err := Program.Run()
	return err
}

// Send sends a message to the running program.
func Send(msg tea.Msg) {
	if Program != nil {
		Program.Send(msg)
	}
	if _, ok := msg.(StartModulesMsg); ok && OnStartModules != nil {
		OnStartModules()
	}
}
