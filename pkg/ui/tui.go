// Package ui provides the Bubble Tea TUI for the wallet dashboard.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/web3-connect/business/dashboard/domain"
	gasDomain "github.com/fd1az/web3-connect/business/gas/domain"
	"github.com/fd1az/web3-connect/pkg/ui/components"
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
	Status string // "pending", "connecting", "connected", "failed", "done"
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

var startupOrder = []string{"config", "network", "wallet", "gas"}

// connectionSteps maps reporter connection names to startup steps.
var connectionSteps = map[string]string{
	"RPC": "network",
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	// Components
	status   *components.StatusComponent
	balances *components.BalancesComponent
	gas      *components.GasComponent
	stats    *components.StatsComponent

	keys KeyMap
	help help.Model

	// Phase state
	phase        Phase
	welcomeStart time.Time

	// State
	ready           bool
	quitting        bool
	width           int
	height          int
	currentBlock    uint64
	gasTier         string
	exchange        *domain.ExchangeInfo
	connectionState map[string]*ConnectionInfo
	lastUpdate      time.Time
	errors          []ErrorEntry // Persistent error panel (last 3)
	logs            []string     // Recent log messages

	// Startup state
	startupSteps map[string]*StartupStep
	startupTime  time.Time

	activityFeed []string
}

// New creates a new TUI model.
func New() Model {
	now := time.Now()
	return Model{
		status:       components.NewStatusComponent(),
		balances:     components.NewBalancesComponent(),
		gas:          components.NewGasComponent(),
		stats:        components.NewStatsComponent(),
		keys:         DefaultKeyMap(),
		help:         help.New(),
		phase:        PhaseWelcome,
		welcomeStart: now,
		connectionState: map[string]*ConnectionInfo{
			"RPC": {Connected: false},
		},
		logs:         make([]string, 0, 10),
		errors:       make([]ErrorEntry, 0, 3),
		activityFeed: make([]string, 0, 8),
		startupSteps: map[string]*StartupStep{
			"config":  {Name: "Loading configuration", Status: "pending"},
			"network": {Name: "Connecting to network", Status: "pending"},
			"wallet":  {Name: "Looking for a wallet", Status: "pending"},
			"gas":     {Name: "Starting gas oracle", Status: "pending"},
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
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		// During welcome phase, any other key skips to startup
		if m.phase == PhaseWelcome {
			m.enterStartup()
			return m, tickCmd()
		}
		switch {
		case key.Matches(msg, m.keys.CycleTier):
			m.activityFeed = addActivity(m.activityFeed, "Switching gas tier")
			invoke(OnCycleTier)
		case key.Matches(msg, m.keys.Connect):
			m.status.SetPending("connecting wallet")
			invoke(OnConnect)
		case key.Matches(msg, m.keys.Disconnect):
			m.status.SetPending("disconnecting")
			invoke(OnDisconnect)
		case key.Matches(msg, m.keys.Refresh):
			invoke(OnRefresh)
		case key.Matches(msg, m.keys.ClearErrors):
			m.errors = make([]ErrorEntry, 0, 3)
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true

	case TickMsg:
		if m.phase == PhaseWelcome && time.Since(m.welcomeStart) >= WelcomeDuration {
			m.enterStartup()
		}
		return m, tickCmd()

	case SnapshotMsg:
		if msg.Snapshot != nil {
			m.applySnapshot(msg.Snapshot)
		}

	case ConnectionStatusMsg:
		m.connectionState[msg.Name] = &ConnectionInfo{
			Connected: msg.Connected,
			Latency:   msg.Latency,
			LastSeen:  time.Now(),
		}
		m.lastUpdate = time.Now()

		if stepKey, ok := connectionSteps[msg.Name]; ok {
			if step := m.startupSteps[stepKey]; step != nil {
				if msg.Connected {
					step.Status = "connected"
				} else {
					step.Status = "connecting"
				}
			}
		}

	case ErrorMsg:
		m.logs = addLog(m.logs, "error", msg.Error.Error())
		m.errors = addError(m.errors, msg.Error.Error())

	case LogMsg:
		m.logs = addLog(m.logs, msg.Level, msg.Message)
		m.activityFeed = addActivity(m.activityFeed, msg.Message)

	case StartupMsg:
		if step, ok := m.startupSteps[msg.Step]; ok {
			step.Status = msg.Status
		}
		if msg.Status == "failed" && msg.Message != "" {
			m.errors = addError(m.errors, msg.Message)
		}
		if m.phase == PhaseStartup && m.startupDone() {
			m.phase = PhaseDashboard
		}
	}

	return m, nil
}

func (m *Model) enterStartup() {
	m.phase = PhaseStartup
	m.startupTime = time.Now()
	// Trigger callback directly (don't use Send() from within Update)
	invoke(OnStartModules)
}

func (m Model) startupDone() bool {
	for _, step := range m.startupSteps {
		if step.Status != "connected" && step.Status != "done" {
			return false
		}
	}
	return true
}

func (m *Model) applySnapshot(s *domain.Snapshot) {
	newBlock := s.Block != nil && s.Block.Number != m.currentBlock
	if s.Block != nil {
		m.currentBlock = s.Block.Number
	}

	m.status.Update(walletStatus(s.Connection))

	var ether *components.BalanceRow
	if s.Ether != nil {
		ether = &components.BalanceRow{
			Symbol:   s.Ether.Asset().Symbol(),
			Amount:   s.Ether.ToDecimal(),
			Decimals: s.Ether.Asset().Decimals(),
		}
	}
	rows := make([]components.BalanceRow, 0, len(s.Balances))
	for _, b := range s.Balances {
		rows = append(rows, components.BalanceRow{
			Symbol:   b.Asset().Symbol(),
			Amount:   b.ToDecimal(),
			Decimals: b.Asset().Decimals(),
		})
	}
	m.balances.Update(ether, rows)
	m.balances.SetReadOnly(!s.Connection.CanSign())

	gasRows := make([]components.GasRow, 0, len(gasDomain.Tiers))
	for _, tier := range gasDomain.Tiers {
		row := components.GasRow{Tier: tier.String(), Selected: tier == s.GasTier}
		if p, ok := s.GasPrices[tier]; ok && p != nil {
			row.Gwei = p.Gwei
			row.Source = p.Source
		} else {
			row.Missing = true
		}
		gasRows = append(gasRows, row)
	}
	m.gas.Update(gasRows)
	m.gasTier = s.GasTier.String()
	m.exchange = s.Exchange

	m.stats.Record(s.Duration.Milliseconds(), len(s.Errors), newBlock)
	for _, err := range s.Errors {
		m.errors = addError(m.errors, err.Error())
	}

	if newBlock {
		m.activityFeed = addActivity(m.activityFeed,
			fmt.Sprintf("Block #%d refreshed in %dms", m.currentBlock, s.Duration.Milliseconds()))
	} else {
		m.activityFeed = addActivity(m.activityFeed,
			fmt.Sprintf("Refreshed in %dms", s.Duration.Milliseconds()))
	}

	m.lastUpdate = time.Now()
	if m.phase == PhaseStartup {
		m.phase = PhaseDashboard
	}
}

func walletStatus(c domain.Connection) components.WalletStatus {
	st := components.WalletStatus{
		Context:   c.Context,
		Connector: c.Connector,
		Active:    c.Active,
		ChainID:   c.ChainID,
		CanSign:   c.CanSign(),
	}
	if c.CanSign() {
		st.Account = c.Account.Hex()
	}
	if c.Error != nil {
		st.Error = c.Error.Error()
	}
	if c.WalletError != nil {
		st.WalletError = c.WalletError.Error()
	}
	return st
}

func invoke(fn func()) {
	if fn != nil {
		go fn()
	}
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

// addActivity adds an activity message and returns the updated slice (keeps last 6).
func addActivity(feed []string, message string) []string {
	timestamp := time.Now().Format("15:04:05")
	line := fmt.Sprintf("[%s] %s", timestamp, message)
	feed = append(feed, line)
	if len(feed) > 6 {
		feed = feed[len(feed)-6:]
	}
	return feed
}

// addError keeps the last 3 distinct errors.
func addError(errs []ErrorEntry, message string) []ErrorEntry {
	if n := len(errs); n > 0 && errs[n-1].Message == message {
		errs[n-1].Timestamp = time.Now()
		return errs
	}
	errs = append(errs, ErrorEntry{Message: message, Timestamp: time.Now()})
	if len(errs) > 3 {
		errs = errs[len(errs)-3:]
	}
	return errs
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
		return m.renderStartupScreen()
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render(" ⛓ web3-connect "))
	b.WriteString("\n\n")

	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")

	leftCol := m.status.View() + "\n" + m.balances.View()

	var rightContent strings.Builder
	rightContent.WriteString(m.gas.View())
	rightContent.WriteString("\n\n")
	rightContent.WriteString(m.renderExchange())
	rightContent.WriteString("\n\n")
	rightContent.WriteString(m.renderActivityFeed())
	rightCol := rightContent.String()

	// Side by side if enough width
	if m.width > 100 {
		left := BoxStyle.Width(m.width/2 - 2).Render(leftCol)
		right := BoxStyle.Width(m.width/2 - 2).Render(rightCol)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	} else {
		width := m.width - 4
		if width < 60 {
			width = 60
		}
		b.WriteString(BoxStyle.Width(width).Render(leftCol))
		b.WriteString("\n")
		b.WriteString(BoxStyle.Width(width).Render(rightCol))
	}

	b.WriteString("\n\n")
	b.WriteString(m.stats.View())
	b.WriteString("\n\n")

	if len(m.errors) > 0 {
		errorStyle := lipgloss.NewStyle().Foreground(ColorDanger)
		errorHeader := lipgloss.NewStyle().Bold(true).Foreground(ColorDanger)

		b.WriteString(errorHeader.Render("ERRORS"))
		b.WriteString(MutedValue.Render(" (e: clear)"))
		b.WriteString("\n")
		for _, err := range m.errors {
			ago := time.Since(err.Timestamp).Round(time.Second)
			b.WriteString(errorStyle.Render(fmt.Sprintf("  • %s ", err.Message)))
			b.WriteString(MutedValue.Render(fmt.Sprintf("(%s ago)", ago)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(HelpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

func (m Model) renderExchange() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("EXCHANGE"))
	sb.WriteString("\n\n")

	if m.exchange == nil {
		sb.WriteString(MutedValue.Render("  No exchange data"))
		return sb.String()
	}

	ex := m.exchange
	sb.WriteString(fmt.Sprintf("  Pool:  %s\n", shortAddress(ex.Address)))
	sb.WriteString(fmt.Sprintf("  Fee:   %s%%\n", ex.FeePercent.StringFixed(4)))
	if len(ex.Coins) >= 2 {
		sb.WriteString(fmt.Sprintf("  Pair:  %s → %s\n", shortAddress(ex.Coins[0]), shortAddress(ex.Coins[1])))
	}
	if !ex.Quote.IsZero() {
		sb.WriteString(fmt.Sprintf("  Quote: 1 → %s", InfoValue.Render(ex.Quote.StringFixed(6))))
	}

	return sb.String()
}

func shortAddress(a common.Address) string {
	hex := a.Hex()
	return hex[:6] + "…" + hex[len(hex)-4:]
}

// renderActivityFeed renders the recent activity feed.
func (m Model) renderActivityFeed() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("LIVE ACTIVITY"))
	sb.WriteString("\n\n")

	if len(m.activityFeed) == 0 {
		sb.WriteString(MutedValue.Render("  Waiting for blocks..."))
		return sb.String()
	}

	for _, activity := range m.activityFeed {
		if strings.Contains(activity, "Block #") {
			sb.WriteString(InfoValue.Render("  " + activity))
		} else {
			sb.WriteString(MutedValue.Render("  " + activity))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// renderWelcomeScreen renders the animated welcome screen.
func (m Model) renderWelcomeScreen() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	greenStyle := lipgloss.NewStyle().Foreground(ColorSecondary)

	elapsed := time.Since(m.welcomeStart)
	dotCount := int(elapsed.Milliseconds()/300) % 4
	dots := strings.Repeat(".", dotCount)

	var sb strings.Builder
	sb.WriteString("\n\n\n\n")

	logo := `
   ██╗    ██╗███████╗██████╗ ██████╗
   ██║    ██║██╔════╝██╔══██╗╚════██╗
   ██║ █╗ ██║█████╗  ██████╔╝ █████╔╝
   ██║███╗██║██╔══╝  ██╔══██╗ ╚═══██╗
   ╚███╔███╔╝███████╗██████╔╝██████╔╝
    ╚══╝╚══╝ ╚══════╝╚═════╝ ╚═════╝
`
	sb.WriteString(titleStyle.Render(logo))
	sb.WriteString("\n")
	sb.WriteString(MutedValue.Render("        W A L L E T   C O N N E C T"))
	sb.WriteString("\n\n\n")
	sb.WriteString(greenStyle.Render(fmt.Sprintf("           Initializing%s", dots)))
	sb.WriteString("\n\n")
	sb.WriteString(MutedValue.Render("     Press any key to skip, or wait..."))
	sb.WriteString("\n")

	return sb.String()
}

// renderStartupScreen renders the loading/startup screen.
func (m Model) renderStartupScreen() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary).MarginBottom(1)
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF"))
	successStyle := lipgloss.NewStyle().Foreground(ColorSecondary)
	connectingStyle := lipgloss.NewStyle().Foreground(ColorWarning)
	failedStyle := lipgloss.NewStyle().Foreground(ColorDanger)

	var sb strings.Builder

	sb.WriteString("\n\n")
	sb.WriteString(titleStyle.Render("  ⛓ web3-connect"))
	sb.WriteString("\n\n")
	sb.WriteString(headerStyle.Render("  Starting up..."))
	sb.WriteString("\n\n")

	for _, k := range startupOrder {
		step, ok := m.startupSteps[k]
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
			style = MutedValue
		}

		sb.WriteString(fmt.Sprintf("  %s %s %s\n",
			style.Render(icon),
			MutedValue.Render(step.Name),
			style.Render(statusText),
		))
	}

	sb.WriteString("\n")
	elapsed := time.Since(m.startupTime).Round(time.Second)
	sb.WriteString(MutedValue.Render(fmt.Sprintf("  Elapsed: %s", elapsed)))
	sb.WriteString("\n\n")
	sb.WriteString(MutedValue.Render("  Waiting for the first snapshot..."))
	sb.WriteString("\n")

	for _, err := range m.errors {
		sb.WriteString(failedStyle.Render("  • " + err.Message))
		sb.WriteString("\n")
	}

	return sb.String()
}

func (m Model) renderStatusBar() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("Block: #%d", m.currentBlock))

	if row, ok := m.gas.Selected(); ok && !row.Missing {
		parts = append(parts, fmt.Sprintf("Gas: %s gwei (%s)", row.Gwei.StringFixed(1), row.Tier))
	} else if m.gasTier != "" {
		parts = append(parts, fmt.Sprintf("Gas: - (%s)", m.gasTier))
	}

	for name, info := range m.connectionState {
		if info != nil && info.Connected {
			status := name
			if info.Latency > 0 {
				status = fmt.Sprintf("%s (%dms)", name, info.Latency.Milliseconds())
			}
			parts = append(parts, StatusConnected.Render("● "+status))
		} else {
			parts = append(parts, StatusDisconnected.Render("○ "+name+" (disconnected)"))
		}
	}

	if !m.lastUpdate.IsZero() {
		ago := time.Since(m.lastUpdate).Round(time.Second)
		parts = append(parts, MutedValue.Render(fmt.Sprintf("Updated: %s ago", ago)))
	}

	return strings.Join(parts, "  │  ")
}

// Program holds the Bubble Tea program instance for external access.
var Program *tea.Program

// Callbacks set by main.go. Each runs on its own goroutine.
var (
	// OnStartModules is called when the welcome screen completes and modules should start.
	OnStartModules func()

	// OnCycleTier switches to the next gas tier.
	OnCycleTier func()

	// OnConnect asks the wallet to connect.
	OnConnect func()

	// OnDisconnect drops the wallet connection.
	OnDisconnect func()

	// OnRefresh asks for a new snapshot.
	OnRefresh func()
)

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
}
