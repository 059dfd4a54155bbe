package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yolodolo42/mockchat/internal/chat"
	"github.com/yolodolo42/mockchat/internal/config"
	"github.com/yolodolo42/mockchat/internal/llm"
	"github.com/yolodolo42/mockchat/internal/render"
	"github.com/yolodolo42/mockchat/internal/session"
	"github.com/yolodolo42/mockchat/internal/ui"
)

const welcomeText = "Welcome to mockchat!\nType a question below. Use /help for commands, /quit to exit."

// chatMessage represents a line in the chat history. Assistant messages keep
// their entry so they can be re-rendered after a resize or theme change.
type chatMessage struct {
	role    string // "user", "assistant", "error", "system"
	content string
	entry   *session.Entry
}

// model represents the REPL state
type model struct {
	ctx      context.Context
	svc      *chat.Service
	styles   ui.Styles
	prompt   ui.Prompt
	viewport viewport.Model
	spinner  spinner.Model
	selector *ui.Selector
	session  session.Session
	messages []chatMessage
	loading  bool
	width    int
	height   int
	ready    bool
	quitting bool
}

// responseMsg is sent when an answer has been stored
type responseMsg struct {
	session session.Session
	entry   session.Entry
	err     error
}

// initialModel creates the initial model state
func initialModel(ctx context.Context, svc *chat.Service, theme render.Theme) model {
	styles := ui.NewStyles(theme)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Title

	return model{
		ctx:     ctx,
		svc:     svc,
		styles:  styles,
		prompt:  ui.NewPrompt("Ask me anything...", styles),
		spinner: sp,
		messages: []chatMessage{
			{role: "system", content: welcomeText},
		},
	}
}

// Init initializes the model
func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages and updates state
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		piCmd tea.Cmd
		vpCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.quitting = true
			return m, tea.Quit
		}

		if m.selector != nil && m.selector.Active() {
			return m.updateSelector(msg)
		}

		if msg.Type == tea.KeyEnter {
			if m.loading {
				return m, nil
			}

			input := strings.TrimSpace(m.prompt.Value())
			if input == "" {
				return m, nil
			}
			m.prompt.Reset()

			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			m.messages = append(m.messages, chatMessage{role: "user", content: input})
			m.loading = true
			m.updateViewport()
			m.viewport.GotoBottom()

			return m, m.ask(input)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-6)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 6
		}
		m.prompt.SetWidth(msg.Width - 2)
		if m.selector != nil {
			m.selector.SetWidth(msg.Width)
		}
		m.updateViewport()

	case responseMsg:
		m.loading = false
		if msg.err != nil {
			m.addMessage("error", msg.err.Error())
		} else {
			m.session = msg.session
			entry := msg.entry
			m.messages = append(m.messages, chatMessage{role: "assistant", entry: &entry})
		}
		m.updateViewport()
		m.viewport.GotoBottom()
		return m, nil

	case spinner.TickMsg:
		var spCmd tea.Cmd
		m.spinner, spCmd = m.spinner.Update(msg)
		return m, spCmd
	}

	_, piCmd = m.prompt.Update(msg)
	if k, ok := msg.(tea.KeyMsg); !ok || isScrollKey(k) {
		m.viewport, vpCmd = m.viewport.Update(msg)
	}

	return m, tea.Batch(piCmd, vpCmd)
}

// isScrollKey reports keys that scroll the history. Letters stay with the
// prompt so typing never moves the viewport.
func isScrollKey(k tea.KeyMsg) bool {
	switch k.Type {
	case tea.KeyUp, tea.KeyDown, tea.KeyPgUp, tea.KeyPgDown:
		return true
	}
	return false
}

func (m model) updateSelector(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.selector.Update(msg)
	if m.selector.Active() {
		return m, nil
	}

	sel := m.selector
	m.selector = nil
	if sel.Cancelled() {
		m.updateViewport()
		return m, nil
	}
	return m.openSession(sel.Selected())
}

// View renders the UI
func (m model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	if !m.ready {
		return "Initializing...\n"
	}

	var b strings.Builder

	b.WriteString(m.styles.Title.Render("  mockchat") + m.styles.Help.Render(" · "+m.headerInfo()) + "\n\n")

	if m.selector != nil && m.selector.Active() {
		b.WriteString(m.selector.View())
		return b.String()
	}

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.loading {
		b.WriteString(fmt.Sprintf("  %s Thinking...\n", m.spinner.View()))
	} else {
		b.WriteString("\n")
	}

	b.WriteString(m.prompt.View())
	b.WriteString("\n")

	b.WriteString(m.styles.Help.Render("  /help • /sessions • /new • /like • /dislike • /theme • /quit"))

	return b.String()
}

func (m model) headerInfo() string {
	title := session.DefaultTitle
	if m.session.ID != "" {
		title = chat.DisplayTitle(m.session)
	}
	if p := m.svc.Provider(); p != nil {
		return fmt.Sprintf("%s · %s/%s", title, p.ID(), p.DefaultModel())
	}
	return title + " · no provider"
}

func (m *model) addMessage(role, content string) {
	m.messages = append(m.messages, chatMessage{role: role, content: content})
}

func (m model) termOptions() render.TermOptions {
	width := m.width - 2
	if width < 20 {
		width = 0
	}
	return render.TermOptions{Width: width, Theme: m.styles.Theme, Color: true}
}

// updateViewport updates the viewport content with messages
func (m *model) updateViewport() {
	var content strings.Builder
	opts := m.termOptions()
	wrap := func(s string) string {
		if opts.Width <= 0 {
			return s
		}
		return wordwrap.String(s, opts.Width)
	}

	for _, msg := range m.messages {
		switch msg.role {
		case "user":
			content.WriteString(m.styles.User.Render("You: "))
			content.WriteString(wrap(msg.content))
		case "assistant":
			content.WriteString(m.styles.Assistant.Render("mockchat:"))
			content.WriteString(m.styles.System.Render(feedbackMarks(msg.entry.Feedback)))
			content.WriteString("\n")
			content.WriteString(renderEntry(*msg.entry, opts))
		case "error":
			content.WriteString(m.styles.Error.Render("Error: "))
			content.WriteString(wrap(msg.content))
		case "system":
			content.WriteString(m.styles.System.Render(wrap(msg.content)))
		}
		content.WriteString("\n\n")
	}

	m.viewport.SetContent(content.String())
}

// handleCommand handles slash commands
func (m model) handleCommand(input string) (tea.Model, tea.Cmd) {
	parts := strings.SplitN(strings.TrimSpace(input), " ", 2)
	cmd := strings.ToLower(parts[0])
	arg := ""
	if len(parts) > 1 {
		arg = strings.TrimSpace(parts[1])
	}

	switch cmd {
	case "/quit", "/exit", "/q":
		m.quitting = true
		return m, tea.Quit

	case "/new", "/clear":
		m.session = session.Session{}
		m.messages = []chatMessage{{role: "system", content: "New chat. How can I help you?"}}

	case "/sessions", "/s":
		return m.handleSessionsCommand()

	case "/open":
		if arg == "" {
			m.addMessage("error", "Usage: /open <session-id>")
			break
		}
		return m.openSession(arg)

	case "/delete":
		m.handleDeleteCommand()

	case "/like", "/dislike":
		m.handleFeedbackCommand(strings.TrimPrefix(cmd, "/"))

	case "/theme":
		m.styles = ui.NewStyles(m.styles.Theme.Toggle())
		m.prompt = ui.NewPrompt("Ask me anything...", m.styles)
		m.prompt.SetWidth(m.width - 2)
		m.spinner.Style = m.styles.Title
		m.addMessage("system", fmt.Sprintf("Theme: %s", m.styles.Theme))

	case "/model":
		m.handleModelCommand(arg)

	case "/help", "/?":
		m.addMessage("system", `Available commands:
  /help, /?         - Show this help
  /new              - Start a new chat
  /sessions         - Pick a saved chat
  /open <id>        - Open a saved chat by ID
  /delete           - Delete the current chat
  /like, /dislike   - Toggle feedback on the last answer
  /theme            - Switch between dark and light
  /model [id]       - List or switch models
  /quit, /exit      - Exit mockchat`)

	default:
		m.addMessage("error", fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}

	m.updateViewport()
	m.viewport.GotoBottom()
	return m, nil
}

func (m model) handleSessionsCommand() (tea.Model, tea.Cmd) {
	list, err := m.svc.Listing(m.ctx)
	if err != nil {
		m.addMessage("error", err.Error())
		m.updateViewport()
		return m, nil
	}

	items := make([]ui.SelectorItem, len(list))
	for i, s := range list {
		items[i] = ui.SelectorItem{
			ID:      s.ID,
			Label:   s.Title,
			Current: s.ID == m.session.ID,
		}
	}
	sel := ui.NewSelector("Sessions", items, m.styles)
	if m.width > 0 {
		sel.SetWidth(m.width)
	}
	m.selector = &sel
	return m, nil
}

// openSession loads a stored session and replays its history.
func (m model) openSession(id string) (tea.Model, tea.Cmd) {
	sess, err := m.svc.Session(m.ctx, id)
	if err != nil {
		m.addMessage("error", err.Error())
		m.updateViewport()
		return m, nil
	}

	m.session = sess
	m.messages = []chatMessage{{role: "system", content: "Opened " + chat.DisplayTitle(sess)}}
	for i := range sess.History {
		e := sess.History[i]
		if e.EffectiveRole() == session.RoleAssistant {
			m.messages = append(m.messages, chatMessage{role: "assistant", entry: &e})
		} else {
			m.messages = append(m.messages, chatMessage{role: "user", content: e.Question})
		}
	}
	m.updateViewport()
	m.viewport.GotoBottom()
	return m, nil
}

func (m *model) handleDeleteCommand() {
	if m.session.ID == "" {
		m.addMessage("error", "Nothing to delete yet.")
		return
	}
	if err := m.svc.Delete(m.ctx, m.session.ID); err != nil {
		m.addMessage("error", err.Error())
		return
	}
	m.session = session.Session{}
	m.messages = []chatMessage{{role: "system", content: "Chat deleted."}}
}

// handleFeedbackCommand toggles a vote on the most recent answer.
func (m *model) handleFeedbackCommand(kind string) {
	idx := -1
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].role == "assistant" {
			idx = i
			break
		}
	}
	if idx < 0 || m.session.ID == "" {
		m.addMessage("error", "No answer to rate yet.")
		return
	}

	entry := *m.messages[idx].entry
	fb, err := m.svc.Feedback(m.ctx, m.session.ID, entry.ID, kind)
	if err != nil {
		m.addMessage("error", err.Error())
		return
	}
	entry.Feedback = &fb
	m.messages[idx].entry = &entry
}

// handleModelCommand lists models or switches to a new one
func (m *model) handleModelCommand(modelID string) {
	p := m.svc.Provider()
	if p == nil {
		m.addMessage("error", "No provider connected. Run 'mockchat auth connect'.")
		return
	}

	// No argument: list available models
	if modelID == "" {
		current := p.DefaultModel()

		var b strings.Builder
		b.WriteString(fmt.Sprintf("Models for %s:\n", p.Name()))
		for _, md := range p.Models() {
			marker := "  "
			if md.ID == current {
				marker = ui.SymbolArrow + " "
			}
			b.WriteString(fmt.Sprintf("  %s%-30s %s\n", marker, md.ID, md.Name))
		}
		b.WriteString(fmt.Sprintf("\nActive: %s", current))
		b.WriteString("\nUsage: /model <id>")
		m.addMessage("system", b.String())
		return
	}

	if err := p.SetModel(modelID); err != nil {
		m.addMessage("error", fmt.Sprintf("Failed to switch model: %v", err))
		return
	}
	m.addMessage("system", fmt.Sprintf("Switched to %s.", modelID))
}

// ask stores the question and answer, creating the session on first use.
func (m model) ask(question string) tea.Cmd {
	ctx, svc, id := m.ctx, m.svc, m.session.ID
	return func() tea.Msg {
		if id == "" {
			sess, err := svc.Start(ctx)
			if err != nil {
				return responseMsg{err: err}
			}
			id = sess.ID
		}

		entry, err := svc.Ask(ctx, id, question)
		if err != nil {
			return responseMsg{err: err}
		}
		sess, err := svc.Session(ctx, id)
		if err != nil && !errors.Is(err, session.ErrSessionNotFound) {
			return responseMsg{err: err}
		}
		return responseMsg{session: sess, entry: entry}
	}
}

// RunREPL starts the interactive REPL
func RunREPL(cmd *cobra.Command) error {
	ctx := cmd.Context()

	// The alternate screen owns the terminal, so logs go to a file.
	logFile, err := openLogFile(viper.GetString(config.KeyDataDir))
	if err != nil {
		return err
	}
	defer logFile.Close()

	a, err := newApp(ctx, cmd, logFile)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.provider == nil {
		return fmt.Errorf("no LLM provider available. Run 'mockchat auth connect' or set %s", llm.EnvVarForProvider(llm.ProviderGemini))
	}

	p := tea.NewProgram(
		initialModel(ctx, a.svc, a.cfg.UI.Theme),
		tea.WithAltScreen(),
	)

	_, err = p.Run()
	return err
}
