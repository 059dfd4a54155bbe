package setup

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/yolodolo42/mockchat/internal/auth"
	"github.com/yolodolo42/mockchat/internal/llm"
	"github.com/yolodolo42/mockchat/internal/render"
	"github.com/yolodolo42/mockchat/internal/ui"
)

// WizardStep represents the current step in the wizard
type WizardStep int

const (
	StepWelcome WizardStep = iota
	StepProviderSelect
	StepProviderKey
	StepComplete
)

const totalSteps = 2 // Provider, Ready

// Result is the outcome of the wizard
type Result struct {
	ProviderID llm.ProviderID
	Cancelled  bool
}

// KeyValidator checks a key by calling the provider once.
type KeyValidator func(ctx context.Context, id llm.ProviderID, key string) error

// WizardModel is the setup wizard bubbletea model
type WizardModel struct {
	step     WizardStep
	status   *Status
	dataDir  string
	styles   ui.Styles
	quitting bool

	providers        []providerItem
	providerSelector ui.Selector
	selectedProvider llm.ProviderID
	apiKeyInput      textinput.Model
	validatingKey    bool
	keyError         string
	validate         KeyValidator

	spinner  spinner.Model
	progress progress.Model

	result *Result
}

type providerItem struct {
	id          llm.ProviderID
	description string
	recommended bool
}

type keyValidatedMsg struct {
	err error
}

var defaultProviders = []providerItem{
	{id: llm.ProviderGemini, description: "Default model " + llm.DefaultGeminiModel, recommended: true},
	{id: llm.ProviderOpenAI, description: "GPT models"},
	{id: llm.ProviderAnthropic, description: "Claude models"},
	{id: llm.ProviderOpenRouter, description: "Many models with one key"},
}

func providerSelectorItems(providers []providerItem, styles ui.Styles) ui.Selector {
	items := make([]ui.SelectorItem, 0, len(providers))
	for _, p := range providers {
		desc := p.description
		if p.recommended {
			desc = "recommended - " + desc
		}
		items = append(items, ui.SelectorItem{
			ID:          string(p.id),
			Label:       auth.GetProviderInfo(p.id).Label,
			Description: desc,
		})
	}
	return ui.NewSelector("Choose an LLM provider", items, styles)
}

// NewWizard creates a wizard storing keys under dataDir. validate may be
// nil to use a live provider call.
func NewWizard(dataDir string, theme render.Theme, validate KeyValidator) *WizardModel {
	status, _ := DetectStatus(dataDir)
	if status == nil {
		status = &Status{}
	}
	if validate == nil {
		validate = ValidateKey
	}
	styles := ui.NewStyles(theme)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Title

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 40

	apiInput := textinput.New()
	apiInput.Prompt = ""
	apiInput.Placeholder = "Paste your API key here..."
	apiInput.EchoMode = textinput.EchoPassword
	apiInput.EchoCharacter = '•'
	apiInput.CharLimit = 200
	apiInput.Width = 50

	m := &WizardModel{
		step:             StepWelcome,
		status:           status,
		dataDir:          dataDir,
		styles:           styles,
		providers:        defaultProviders,
		providerSelector: providerSelectorItems(defaultProviders, styles),
		apiKeyInput:      apiInput,
		validate:         validate,
		spinner:          sp,
		progress:         prog,
	}

	if status.HasProvider {
		m.selectedProvider = status.ProviderID
		m.step = StepComplete
	}
	return m
}

// Init initializes the wizard
func (m WizardModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, textinput.Blink)
}

// Update handles messages
func (m WizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.result = &Result{Cancelled: true}
			m.quitting = true
			return m, tea.Quit
		}

		switch m.step {
		case StepWelcome:
			if msg.Type == tea.KeyEnter {
				m.step = StepProviderSelect
			}
			return m, nil

		case StepProviderSelect:
			return m.updateProviderSelect(msg)

		case StepProviderKey:
			if m.validatingKey {
				return m, nil
			}
			switch msg.Type {
			case tea.KeyEsc:
				m.apiKeyInput.Blur()
				m.apiKeyInput.Reset()
				m.keyError = ""
				m.providerSelector = providerSelectorItems(m.providers, m.styles)
				m.step = StepProviderSelect
				return m, nil
			case tea.KeyEnter:
				key := strings.TrimSpace(m.apiKeyInput.Value())
				if key == "" {
					m.keyError = "API key is required"
					return m, nil
				}
				m.validatingKey = true
				m.keyError = ""
				return m, m.validateCmd(key)
			}
			// other keys go to the input below

		case StepComplete:
			if msg.Type == tea.KeyEnter {
				m.result = &Result{ProviderID: m.selectedProvider}
				m.quitting = true
				return m, tea.Quit
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.progress.Width = min(40, msg.Width-20)
		m.providerSelector.SetWidth(msg.Width)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case keyValidatedMsg:
		m.validatingKey = false
		if msg.err != nil {
			m.keyError = formatKeyError(msg.err, m.selectedProvider)
			return m, nil
		}
		if err := m.saveProviderKey(); err != nil {
			m.keyError = fmt.Sprintf("Failed to save: %v", err)
			return m, nil
		}
		m.step = StepComplete
		return m, nil
	}

	if m.step == StepProviderKey && !m.validatingKey {
		var cmd tea.Cmd
		m.apiKeyInput, cmd = m.apiKeyInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m WizardModel) updateProviderSelect(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.providerSelector.Update(msg)
	if m.providerSelector.Active() {
		return m, nil
	}

	if m.providerSelector.Cancelled() {
		m.step = StepWelcome
		m.providerSelector = providerSelectorItems(m.providers, m.styles)
		return m, nil
	}

	m.selectedProvider = llm.ProviderID(m.providerSelector.Selected())
	m.apiKeyInput.Focus()
	m.step = StepProviderKey
	return m, nil
}

func (m WizardModel) validateCmd(key string) tea.Cmd {
	id := m.selectedProvider
	validate := m.validate
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return keyValidatedMsg{err: validate(ctx, id, key)}
	}
}

// ValidateKey makes one minimal chat request with key.
func ValidateKey(ctx context.Context, id llm.ProviderID, key string) error {
	provider, err := llm.NewProvider(ctx, id, key, "")
	if err != nil {
		return err
	}
	defer llm.Close(provider)

	_, err = provider.Chat(ctx, &llm.ChatRequest{
		Messages:  []llm.Message{{Role: "user", Content: "Say 'ok' and nothing else."}},
		MaxTokens: 10,
	})
	if err != nil {
		return fmt.Errorf("API test failed: %w", err)
	}
	return nil
}

// saveProviderKey stores the key and makes the provider the default
func (m WizardModel) saveProviderKey() error {
	manager, err := auth.NewManager(m.dataDir)
	if err != nil {
		return fmt.Errorf("failed to create auth manager: %w", err)
	}
	if err := manager.SetAPIKey(m.selectedProvider, m.apiKeyInput.Value()); err != nil {
		return fmt.Errorf("failed to save API key: %w", err)
	}
	if err := manager.SetDefaultProvider(m.selectedProvider); err != nil {
		return fmt.Errorf("failed to set default provider: %w", err)
	}
	return nil
}

// formatKeyError returns a short message for a failed key check
func formatKeyError(err error, provider llm.ProviderID) string {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "connection refused"),
		strings.Contains(errStr, "no such host"),
		strings.Contains(errStr, "timeout"),
		strings.Contains(errStr, "deadline exceeded"):
		return "Connection failed. Check your internet and try again."
	case strings.Contains(errStr, "401"),
		strings.Contains(errStr, "403"),
		strings.Contains(strings.ToLower(errStr), "unauthorized"),
		strings.Contains(errStr, "API key not valid"):
		if url := auth.GetProviderInfo(provider).KeyURL; url != "" {
			return "Invalid key. Verify at " + url
		}
		return "Authentication failed. Check your API key."
	case llm.IsRetryable(err):
		return "Provider busy or rate limited. Wait a moment and try again."
	}

	if len(errStr) > 60 {
		return errStr[:57] + "..."
	}
	return errStr
}

func (m WizardModel) View() string {
	if m.quitting {
		if m.result != nil && m.result.Cancelled {
			return m.styles.Help.Render("\n  Setup cancelled.\n\n")
		}
		return ""
	}

	var b strings.Builder

	if m.step > StepWelcome && m.step < StepComplete {
		b.WriteString("\n")
		b.WriteString(m.renderProgress())
		b.WriteString("\n")
	}

	switch m.step {
	case StepWelcome:
		b.WriteString(m.viewWelcome())
	case StepProviderSelect:
		b.WriteString("\n" + m.providerSelector.View())
	case StepProviderKey:
		b.WriteString(m.viewProviderKey())
	case StepComplete:
		b.WriteString(m.viewComplete())
	}

	return b.String()
}

func (m WizardModel) renderProgress() string {
	current := 1
	if m.step == StepComplete {
		current = 2
	}
	bar := m.progress.ViewAs(float64(current) / float64(totalSteps))
	return fmt.Sprintf("  %s\n%s", bar, m.styles.Help.Render("  Provider              Ready"))
}

func (m WizardModel) viewWelcome() string {
	box := m.styles.Box.Render(
		m.styles.Title.Render("Welcome to mockchat") + "\n" +
			m.styles.Help.Render("Chat with an LLM from the terminal or the browser") + "\n\n" +
			"No provider key was found. Let's connect one.",
	)
	return "\n\n" + box + "\n\n" + m.styles.Help.Render("  Press Enter to continue...")
}

func (m WizardModel) viewProviderKey() string {
	var b strings.Builder
	info := auth.GetProviderInfo(m.selectedProvider)

	b.WriteString("\n")
	b.WriteString(m.styles.Title.Render(fmt.Sprintf("  Enter %s API Key", info.Label)))
	b.WriteString("\n\n")
	if info.KeyURL != "" {
		b.WriteString(m.styles.Help.Render(fmt.Sprintf("  Get your key at: %s", info.KeyURL)))
		b.WriteString("\n")
	}
	if env := auth.GetEnvVarHint(m.selectedProvider); env != "" {
		b.WriteString(m.styles.Help.Render(fmt.Sprintf("  Tip: %s in the environment or .env works too", env)))
		b.WriteString("\n")
	}
	b.WriteString("\n  ")
	b.WriteString(m.apiKeyInput.View())
	b.WriteString("\n")

	if m.validatingKey {
		b.WriteString(fmt.Sprintf("\n  %s Testing connection...\n", m.spinner.View()))
	} else if m.keyError != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", m.styles.Error.Render(ui.SymbolCross+" "+m.keyError)))
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render("  Enter to validate • Esc back"))
	return b.String()
}

func (m WizardModel) viewComplete() string {
	info := auth.GetProviderInfo(m.selectedProvider)
	content := fmt.Sprintf("%s\n\nProvider: %s\n\n%s\n  %s\n  %s",
		m.styles.Title.Render("You're all set!"),
		info.Label,
		m.styles.Help.Render("Try these:"),
		`"Explain goroutines with a short example"`,
		`"Compare three databases in a table"`,
	)
	return "\n\n" + m.styles.Box.Render(content) + "\n\n" + m.styles.Help.Render("  Press Enter to start mockchat...")
}

// Run shows the wizard unless a provider is already configured.
func Run(dataDir string, theme render.Theme) (*Result, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	m := NewWizard(dataDir, theme, nil)
	if m.status.HasProvider {
		return &Result{ProviderID: m.status.ProviderID}, nil
	}

	p := tea.NewProgram(*m, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	return final.(WizardModel).result, nil
}
