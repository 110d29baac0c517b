// Package tui is the terminal blackjack client.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/lox/blackjack/internal/client"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/protocol"
)

const (
	paneLog = iota
	paneInput
)

// Model is the Bubble Tea model for one seat at the table.
type Model struct {
	ctx    context.Context
	player *client.Player
	logger *log.Logger

	// UI components
	logViewport viewport.Model
	actionInput textinput.Model
	keys        keyMap
	help        help.Model

	// State
	table       tableView
	gameLog     []string
	busy        bool
	quitting    bool
	focusedPane int

	// Dimensions
	width       int
	height      int
	initialized bool
}

// resultMsg carries the outcome of a table action back to Update.
type resultMsg struct {
	action string
	resp   *protocol.Response
	err    error
}

type action func(ctx context.Context, p *client.Player, amount int) (*protocol.Response, error)

var actions = map[string]action{
	"bet":     func(ctx context.Context, p *client.Player, n int) (*protocol.Response, error) { return p.Bet(ctx, n) },
	"retake":  func(ctx context.Context, p *client.Player, _ int) (*protocol.Response, error) { return p.Retake(ctx) },
	"deal":    func(ctx context.Context, p *client.Player, _ int) (*protocol.Response, error) { return p.Deal(ctx) },
	"hit":     func(ctx context.Context, p *client.Player, _ int) (*protocol.Response, error) { return p.Hit(ctx) },
	"stand":   func(ctx context.Context, p *client.Player, _ int) (*protocol.Response, error) { return p.Stand(ctx) },
	"double":  func(ctx context.Context, p *client.Player, _ int) (*protocol.Response, error) { return p.Double(ctx) },
	"split":   func(ctx context.Context, p *client.Player, _ int) (*protocol.Response, error) { return p.Split(ctx) },
	"insure":  func(ctx context.Context, p *client.Player, _ int) (*protocol.Response, error) { return p.Insure(ctx) },
	"clear":   func(ctx context.Context, p *client.Player, _ int) (*protocol.Response, error) { return p.Clear(ctx) },
	"restart": func(ctx context.Context, p *client.Player, _ int) (*protocol.Response, error) { return p.Restart(ctx) },
	"reset":   func(ctx context.Context, p *client.Player, _ int) (*protocol.Response, error) { return p.ForceRestart(ctx) },
}

var aliases = map[string]string{
	"b": "bet", "d": "deal", "h": "hit", "s": "stand", "dd": "double", "p": "split", "i": "insure",
}

// command is a parsed line of player input.
type command struct {
	name   string
	amount int
}

func parseCommand(input string) (command, error) {
	parts := strings.Fields(strings.ToLower(input))
	if len(parts) == 0 {
		return command{}, errors.New("enter a command, or 'help'")
	}
	name := parts[0]
	if full, ok := aliases[name]; ok {
		name = full
	}

	switch name {
	case "help", "quit", "exit":
		return command{name: name}, nil
	case "bet":
		if len(parts) != 2 {
			return command{}, errors.New("usage: bet <amount>")
		}
		n, err := strconv.Atoi(parts[1])
		if err != nil || n <= 0 {
			return command{}, fmt.Errorf("invalid bet amount %q", parts[1])
		}
		return command{name: name, amount: n}, nil
	}
	if _, ok := actions[name]; !ok {
		return command{}, fmt.Errorf("unknown command %q", parts[0])
	}
	if len(parts) > 1 {
		return command{}, fmt.Errorf("%s takes no arguments", name)
	}
	return command{name: name}, nil
}

// NewModel creates a model for player. The session is started from Init.
func NewModel(ctx context.Context, player *client.Player, logger *log.Logger) *Model {
	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Placeholder = "bet 10, deal, hit, stand, double, split, insure, help"
	ti.Focus()
	ti.CharLimit = 40
	ti.Width = 60
	ti.PromptStyle = lipgloss.NewStyle().Foreground(focusedBorder).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Prompt = "> "

	return &Model{
		ctx:         ctx,
		player:      player,
		logger:      logger.WithPrefix("tui"),
		logViewport: vp,
		actionInput: ti,
		keys:        defaultKeyMap(),
		help:        help.New(),
		gameLog:     []string{},
		focusedPane: paneInput,
		busy:        true,
	}
}

// Init starts the session.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.start())
}

func (m *Model) start() tea.Cmd {
	return func() tea.Msg {
		resp, err := m.player.Start(m.ctx)
		return resultMsg{action: "start", resp: resp, err: err}
	}
}

func (m *Model) run(cmd command) tea.Cmd {
	fn := actions[cmd.name]
	return func() tea.Msg {
		resp, err := fn(m.ctx, m.player, cmd.amount)
		return resultMsg{action: cmd.name, resp: resp, err: err}
	}
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case resultMsg:
		m.busy = false
		m.handleResult(msg)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Focus):
			if m.focusedPane == paneLog {
				m.focusedPane = paneInput
				m.actionInput.Focus()
			} else {
				m.focusedPane = paneLog
				m.actionInput.Blur()
			}
		case key.Matches(msg, m.keys.Submit) && m.focusedPane == paneInput:
			input := strings.TrimSpace(m.actionInput.Value())
			m.actionInput.SetValue("")
			if cmd := m.submit(input); cmd != nil {
				return m, cmd
			}
		case m.focusedPane == paneLog && key.Matches(msg, m.keys.PageUp):
			m.logViewport.HalfPageUp()
		case m.focusedPane == paneLog && key.Matches(msg, m.keys.PageDown):
			m.logViewport.HalfPageDown()
		}
	}

	var cmd tea.Cmd
	if m.focusedPane == paneInput {
		m.actionInput, cmd = m.actionInput.Update(msg)
		cmds = append(cmds, cmd)
	} else {
		m.logViewport, cmd = m.logViewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// submit handles one line of input, returning the command to run.
func (m *Model) submit(input string) tea.Cmd {
	cmd, err := parseCommand(input)
	if err != nil {
		m.AddLogEntry(WarningStyle.Render(err.Error()))
		return nil
	}
	switch cmd.name {
	case "quit", "exit":
		m.quitting = true
		return tea.Quit
	case "help":
		m.AddLogEntry(InfoStyle.Render("Commands: bet <n>, retake, deal, hit, stand, double, split, insure, clear, restart, reset, quit"))
		return nil
	}
	if m.busy {
		m.AddLogEntry(WarningStyle.Render("Still waiting on the table..."))
		return nil
	}
	m.busy = true
	m.logger.Debug("Submitting action", "action", cmd.name, "amount", cmd.amount)
	return m.run(cmd)
}

func (m *Model) handleResult(msg resultMsg) {
	var rejected *client.RejectedError
	switch {
	case errors.As(msg.err, &rejected):
		m.AddLogEntry(WarningStyle.Render(rejected.Error()))
		return
	case msg.err != nil:
		m.logger.Error("Action failed", "action", msg.action, "error", msg.err)
		m.AddLogEntry(ErrorStyle.Render(fmt.Sprintf("%s failed: %v", msg.action, msg.err)))
		return
	}

	m.table.apply(msg.resp.State)
	m.AddLogEntry(describe(msg.action, msg.resp, m.table))
}

// describe renders a log line for a successful action.
func describe(action string, resp *protocol.Response, t tableView) string {
	var b strings.Builder
	switch action {
	case "start":
		b.WriteString(SuccessStyle.Render("Seated at the table."))
	case "bet", "retake":
		fmt.Fprintf(&b, "Bet on the table: %d", t.bet)
	default:
		if resp.Message != "" {
			b.WriteString(resp.Message)
		} else {
			b.WriteString(strings.ToUpper(action[:1]) + action[1:])
		}
		if t.player != nil {
			fmt.Fprintf(&b, "  you %s %d", formatCards(t.player.Cards), t.player.Total)
		}
	}
	if t.winner != nil && !t.active {
		fmt.Fprintf(&b, "  %s", outcome(*t.winner))
	}
	fmt.Fprintf(&b, "  tokens %d", resp.Tokens)
	return b.String()
}

func outcome(w game.Winner) string {
	switch w {
	case game.WinnerPlayerWon:
		return SuccessStyle.Render("You win!")
	case game.WinnerPush:
		return WarningStyle.Render("Push.")
	case game.WinnerPlayerLost, game.WinnerDealerWon:
		return ErrorStyle.Render("Dealer wins.")
	default:
		return ""
	}
}

// View renders the TUI.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	actionContent := m.renderActionPane()
	actionHeight := lipgloss.Height(actionContent)
	actionStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(blurredBorder).
		Width(max(m.width-2, 1)).
		Height(max(actionHeight, 1))
	if m.focusedPane == paneInput {
		actionStyle = actionStyle.BorderForeground(focusedBorder)
	}
	actionPane := actionStyle.Render(actionContent)

	sidebarContent := m.renderSidebarPane()
	sidebarWidth := max(lipgloss.Width(sidebarContent), 25)
	paneHeight := max(m.height-actionHeight-4, 1)

	sidebarPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(blurredBorder).
		Width(sidebarWidth).
		Height(paneHeight).
		Render(sidebarContent)

	m.logViewport.Width = max(m.width-sidebarWidth-4, 1)
	m.logViewport.Height = paneHeight
	if !m.initialized && m.logViewport.Width > 1 && paneHeight > 1 {
		m.logViewport.GotoBottom()
		m.initialized = true
	}

	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(blurredBorder).
		Width(m.logViewport.Width).
		Height(paneHeight)
	if m.focusedPane == paneLog {
		logStyle = logStyle.BorderForeground(focusedBorder)
	}
	logPane := logStyle.Render(m.logViewport.View())

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, logPane, sidebarPane)
	return lipgloss.JoinVertical(lipgloss.Top, HeaderStyle.Render("Blackjack"), topRow, actionPane)
}

func (m *Model) renderSidebarPane() string {
	var b strings.Builder
	b.WriteString(WarningStyle.Render(fmt.Sprintf("Tokens: %d", m.player.Tokens())))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Bet: %d\n", m.table.bet)
	fmt.Fprintf(&b, "Shoe: %d cards\n", m.table.deckLen)
	b.WriteString(InfoStyle.Render(m.table.phase.String()))
	b.WriteString("\n")

	if len(m.table.pool) > 0 {
		b.WriteString("\n")
		b.WriteString(InfoStyle.Render("Split hands:"))
		b.WriteString("\n")
		for _, h := range m.table.pool {
			b.WriteString("  " + formatHand(h) + "\n")
		}
	}
	return b.String()
}

func (m *Model) renderActionPane() string {
	var b strings.Builder

	if len(m.table.dealer) > 0 {
		label := "Dealer"
		if m.table.dealerMasked {
			label = "Dealer shows"
		}
		b.WriteString(HandInfoStyle.Render(fmt.Sprintf("%s: %s %d", label, formatCards(m.table.dealer), m.table.dealerTotal)))
		b.WriteString("\n")
	}
	if m.table.player != nil && len(m.table.player.Cards) > 0 {
		b.WriteString(HandInfoStyle.Render("You: " + formatHand(*m.table.player)))
		b.WriteString("\n")
	}
	b.WriteString(ActionsStyle.Render("Actions: " + strings.Join(m.availableActions(), " ")))
	b.WriteString("\n")

	b.WriteString(m.actionInput.View())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// availableActions lists the commands that make sense in the current state.
func (m *Model) availableActions() []string {
	if m.busy {
		return []string{InfoStyle.Render("[waiting]")}
	}
	if !m.table.active {
		out := []string{SuccessStyle.Render("[bet n]")}
		if m.table.bet > 0 {
			out = append(out, SuccessStyle.Render("[deal]"), WarningStyle.Render("[retake]"))
		}
		return append(out, InfoStyle.Render("[restart]"))
	}

	out := []string{SuccessStyle.Render("[hit]"), SuccessStyle.Render("[stand]"), WarningStyle.Render("[double]")}
	if m.table.player != nil && m.table.player.CanSplit {
		out = append(out, WarningStyle.Render("[split]"))
	}
	if m.player.CanInsure() {
		out = append(out, WarningStyle.Render("[insure]"))
	}
	return out
}

// AddLogEntry adds an entry to the game log.
func (m *Model) AddLogEntry(entry string) {
	m.gameLog = append(m.gameLog, entry)
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

// Log returns the entries logged so far.
func (m *Model) Log() []string {
	return append([]string{}, m.gameLog...)
}

// Run plays player at the terminal until the user quits or ctx ends.
func Run(ctx context.Context, player *client.Player, logger *log.Logger) error {
	program := tea.NewProgram(NewModel(ctx, player, logger), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
