// Package chat runs the question and answer flow on top of the session
// store and an LLM provider.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yolodolo42/mockchat/internal/answer"
	"github.com/yolodolo42/mockchat/internal/llm"
	"github.com/yolodolo42/mockchat/internal/session"
)

// GreetingReply answers greetings without calling the provider.
const GreetingReply = "Hello! How can I help you today?"

var (
	// ErrQuestionRequired is returned by Ask for an empty question.
	ErrQuestionRequired = errors.New("question required")
	// ErrInvalidFeedback is returned by Feedback for an unknown vote.
	ErrInvalidFeedback = errors.New("invalid feedback type")
	// ErrNoProvider is the failure recorded when no provider is configured.
	ErrNoProvider = errors.New("no LLM provider configured")
)

// Store is the persistence the service needs.
type Store interface {
	Create(ctx context.Context) (session.Session, error)
	List(ctx context.Context) ([]session.Summary, error)
	All(ctx context.Context) ([]session.Session, error)
	Get(ctx context.Context, id string) (session.Session, error)
	Delete(ctx context.Context, id string) error
	AppendExchange(ctx context.Context, id string, ex session.Exchange) (session.Session, error)
	ToggleFeedback(ctx context.Context, sessionID, entryID string, v session.Vote) (session.Feedback, error)
}

// Service orchestrates sessions and provider calls. It is safe for
// concurrent use; the store serialises file access and the provider call
// runs outside any store lock.
type Service struct {
	store          Store
	provider       llm.Provider
	providerID     llm.ProviderID
	logger         *slog.Logger
	systemPrompt   string
	maxTokens      int
	temperature    *float32
	includeHistory bool
	timeout        time.Duration
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the logger. The default is slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithProviderID names the configured provider. It labels the error reply
// given when no provider could be created. The default is Gemini.
func WithProviderID(id llm.ProviderID) Option {
	return func(s *Service) { s.providerID = id }
}

// WithGeneration sets the output token limit and sampling temperature sent
// with each question.
func WithGeneration(maxTokens int, temperature float32) Option {
	return func(s *Service) {
		s.maxTokens = maxTokens
		s.temperature = llm.Float32(temperature)
	}
}

// WithSystemPrompt sets a system instruction for every provider call.
func WithSystemPrompt(prompt string) Option {
	return func(s *Service) { s.systemPrompt = prompt }
}

// WithHistory sends earlier turns of the session as conversation context.
func WithHistory(enabled bool) Option {
	return func(s *Service) { s.includeHistory = enabled }
}

// WithTimeout bounds each provider call, retries included. Zero means no
// bound beyond the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// NewService creates a service. provider may be nil, in which case every
// non-greeting question is answered with an error reply.
func NewService(store Store, provider llm.Provider, opts ...Option) *Service {
	s := &Service{
		store:      store,
		provider:   provider,
		providerID: llm.ProviderGemini,
		logger:     slog.Default(),
		maxTokens:  2048,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Provider returns the configured provider, or nil.
func (s *Service) Provider() llm.Provider {
	return s.provider
}

// Start creates a new untitled session.
func (s *Service) Start(ctx context.Context) (session.Session, error) {
	sess, err := s.store.Create(ctx)
	if err != nil {
		return session.Session{}, fmt.Errorf("failed to create session: %w", err)
	}
	s.logger.Info("session started", "session", sess.ID)
	return sess, nil
}

// Sessions lists sessions, newest first, with their stored titles.
func (s *Service) Sessions(ctx context.Context) ([]session.Summary, error) {
	return s.store.List(ctx)
}

// Listing returns every session with its display title.
func (s *Service) Listing(ctx context.Context) ([]session.Summary, error) {
	all, err := s.store.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]session.Summary, len(all))
	for i, sess := range all {
		out[i] = session.Summary{ID: sess.ID, Title: DisplayTitle(sess)}
	}
	return out, nil
}

// Session returns one session with its history.
func (s *Service) Session(ctx context.Context, id string) (session.Session, error) {
	return s.store.Get(ctx, id)
}

// Delete removes a session.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("session deleted", "session", id)
	return nil
}

// Ask records question and its answer in the session and returns the
// assistant entry. Provider failures become the reply text rather than an
// error; only validation and storage failures are returned.
func (s *Service) Ask(ctx context.Context, sessionID, question string) (session.Entry, error) {
	if strings.TrimSpace(question) == "" {
		return session.Entry{}, ErrQuestionRequired
	}

	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return session.Entry{}, err
	}

	greeting := IsGreeting(question)
	var reply string
	if greeting {
		reply = GreetingReply
	} else {
		reply = s.reply(ctx, sess, question)
	}

	assistant, err := session.NewAssistantEntry(reply)
	if err != nil {
		return session.Entry{}, fmt.Errorf("failed to encode reply: %w", err)
	}

	ex := session.Exchange{
		User:      session.NewUserEntry(question),
		Assistant: assistant,
	}
	if !greeting {
		ex.Title = TruncateTitle(question, MaxTitleLen)
	}

	if _, err := s.store.AppendExchange(ctx, sessionID, ex); err != nil {
		return session.Entry{}, err
	}
	return assistant, nil
}

// reply asks the provider and turns a failure into "<Provider> Error: ...".
func (s *Service) reply(ctx context.Context, sess session.Session, question string) string {
	if s.provider == nil {
		s.logger.Warn("question without provider", "session", sess.ID, "provider", s.providerID)
		err := ErrNoProvider
		if env := llm.EnvVarForProvider(s.providerID); env != "" {
			err = fmt.Errorf("%w; set %s", ErrNoProvider, env)
		}
		return errorReply(llm.DisplayName(s.providerID), err)
	}

	req := &llm.ChatRequest{
		SystemPrompt: s.systemPrompt,
		Messages:     s.messages(sess, question),
		MaxTokens:    s.maxTokens,
		Temperature:  s.temperature,
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resp, err := s.provider.Chat(ctx, req)
	if err != nil {
		s.logger.Error("provider call failed",
			"session", sess.ID,
			"provider", s.provider.ID(),
			"error", RedactSecrets(err.Error()))
		return errorReply(s.provider.Name(), err)
	}

	s.logger.Debug("provider replied",
		"session", sess.ID,
		"provider", s.provider.ID(),
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens)

	if strings.TrimSpace(resp.Content) == "" {
		s.logger.Warn("provider returned no text",
			"session", sess.ID,
			"provider", s.provider.ID(),
			"stop_reason", resp.StopReason)
		return emptyReply(resp)
	}
	return resp.Content
}

// emptyReply shows a response without text as a JSON code block, so a
// blocked or empty candidate still leaves a visible answer.
func emptyReply(resp *llm.ChatResponse) string {
	dump, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Sprintf("No text in the reply (stop reason: %s).", resp.StopReason)
	}
	return "```json\n" + string(dump) + "\n```"
}

func errorReply(name string, err error) string {
	return fmt.Sprintf("%s Error: %s", name, RedactSecrets(err.Error()))
}

// messages builds the conversation sent to the provider: the question alone,
// or the session's earlier turns followed by it.
func (s *Service) messages(sess session.Session, question string) []llm.Message {
	var msgs []llm.Message
	if s.includeHistory {
		for _, e := range sess.History {
			switch e.EffectiveRole() {
			case session.RoleUser:
				if e.Question != "" {
					msgs = append(msgs, llm.Message{Role: "user", Content: e.Question})
				}
			case session.RoleAssistant:
				if text := answerText(e); text != "" {
					msgs = append(msgs, llm.Message{Role: "assistant", Content: text})
				}
			}
		}
	}
	return append(msgs, llm.Message{Role: "user", Content: question})
}

// answerText flattens a stored answer to the text a provider can read back.
func answerText(e session.Entry) string {
	switch a := e.Answer().(type) {
	case nil:
		return ""
	case answer.PlainText:
		return string(a)
	case answer.StructuredText:
		return a.Text
	default:
		return string(e.Response)
	}
}

// Feedback toggles a like or dislike on an answer and returns the result.
func (s *Service) Feedback(ctx context.Context, sessionID, answerID, kind string) (session.Feedback, error) {
	vote := session.Vote(kind)
	if !vote.Valid() {
		return session.Feedback{}, fmt.Errorf("%w: %q", ErrInvalidFeedback, kind)
	}
	return s.store.ToggleFeedback(ctx, sessionID, answerID, vote)
}
