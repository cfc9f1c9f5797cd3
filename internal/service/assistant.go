package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_llm_client.go -package=mocks monsurface-assistant/internal/service LLMClient
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_access_guard.go -package=mocks monsurface-assistant/internal/service AccessGuard
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_interpreter.go -package=mocks monsurface-assistant/internal/service Interpreter
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_resolver.go -package=mocks monsurface-assistant/internal/service Resolver
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_synthesizer.go -package=mocks monsurface-assistant/internal/service Synthesizer
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_assistant.go -package=mocks monsurface-assistant/internal/service Assistant

import (
	"context"
	"errors"
	"strings"

	"monsurface-assistant/internal/catalog"
	"monsurface-assistant/internal/contextutil"
	"monsurface-assistant/internal/llm"
	"monsurface-assistant/internal/metrics"
	"monsurface-assistant/internal/storage"
)

// LLMClient is an interface for interacting with an LLM API.
// This interface is defined from the service layer's perspective (consumer-first).
type LLMClient interface {
	// ChatWithMessages sends a role-tagged message list and returns the completion.
	ChatWithMessages(ctx context.Context, messages []llm.Message, params llm.ChatParams) (string, error)
}

// AccessGuard decides whether a requester may query.
type AccessGuard interface {
	Check(ctx context.Context, requesterID string) bool
}

// Interpreter turns a free-text message into an intent and keywords.
type Interpreter interface {
	Interpret(ctx context.Context, question string) Intent
}

// Resolver turns keywords into hydrated catalog records.
type Resolver interface {
	Resolve(ctx context.Context, keywords []string) ([]catalog.Record, error)
}

// Synthesizer turns records into reply text.
type Synthesizer interface {
	Synthesize(ctx context.Context, question string, records []catalog.Record) (string, Outcome)
}

// Outcome labels how a reply was produced.
type Outcome string

const (
	OutcomeAnswered           Outcome = "answered"
	OutcomeDenied             Outcome = "denied"
	OutcomeShortcut           Outcome = "shortcut"
	OutcomeNoKeywords         Outcome = "no_keywords"
	OutcomeNoMatch            Outcome = "no_match"
	OutcomeCatalogUnavailable Outcome = "catalog_unavailable"
	OutcomeTabular            Outcome = "tabular"
	OutcomeSynthesisFailed    Outcome = "synthesis_failed"
)

// Reply is the single text handed back to the transport.
type Reply struct {
	Text    string
	Outcome Outcome
}

// AskRequest is one inbound message.
type AskRequest struct {
	RequesterID string
	Message     string
}

// Validate checks the fields the pipeline cannot work without.
func (r AskRequest) Validate() error {
	if strings.TrimSpace(r.RequesterID) == "" {
		return &ValidationError{Field: "user_id", Message: "cannot be empty"}
	}
	if strings.TrimSpace(r.Message) == "" {
		return &ValidationError{Field: "message", Message: "cannot be empty"}
	}
	return nil
}

// Assistant answers catalog questions end to end.
type Assistant interface {
	// Reply runs the full pipeline for one message. It never fails; every
	// stage degrades to a fixed reply.
	Reply(ctx context.Context, requesterID, message string) Reply
}

// assistant implements Assistant.
type assistant struct {
	guard       AccessGuard
	interpreter Interpreter
	resolver    Resolver
	synthesizer Synthesizer
	shortcuts   Shortcuts
}

// NewAssistant wires the pipeline stages together.
func NewAssistant(guard AccessGuard, interpreter Interpreter, resolver Resolver, synthesizer Synthesizer, shortcuts Shortcuts) Assistant {
	return &assistant{
		guard:       guard,
		interpreter: interpreter,
		resolver:    resolver,
		synthesizer: synthesizer,
		shortcuts:   shortcuts,
	}
}

// Reply gates the requester, answers shortcut commands, then interprets,
// resolves and synthesizes.
func (a *assistant) Reply(ctx context.Context, requesterID, message string) Reply {
	logger := contextutil.LoggerFromContext(ctx).With("requester_id", requesterID)
	ctx = contextutil.WithLogger(ctx, logger)

	reply := a.reply(ctx, requesterID, message)

	metrics.RecordReply(string(reply.Outcome))
	logger.InfoContext(ctx, "reply ready",
		"outcome", reply.Outcome,
		"reply_length", len(reply.Text),
	)
	return reply
}

func (a *assistant) reply(ctx context.Context, requesterID, message string) Reply {
	logger := contextutil.LoggerFromContext(ctx)

	if !a.guard.Check(ctx, requesterID) {
		logger.InfoContext(ctx, "request rejected", "error", ErrAccessDenied)
		return Reply{Text: DeniedText, Outcome: OutcomeDenied}
	}

	question := NormalizeMessage(message)
	if text, ok := a.shortcuts.reply(question); ok {
		return Reply{Text: text, Outcome: OutcomeShortcut}
	}

	intent := a.interpreter.Interpret(ctx, question)
	if len(intent.Keywords) == 0 {
		return Reply{Text: InstructionText, Outcome: OutcomeNoKeywords}
	}

	records, err := a.resolver.Resolve(ctx, intent.Keywords)
	if err != nil {
		if errors.Is(err, storage.ErrCatalogNotLoaded) {
			logger.ErrorContext(ctx, "catalog not loaded", "error", err)
		} else {
			logger.ErrorContext(ctx, "catalog search failed", "error", err)
		}
		return Reply{Text: CatalogUnavailableText, Outcome: OutcomeCatalogUnavailable}
	}
	if len(records) == 0 {
		logger.InfoContext(ctx, "no records found", "keywords", intent.Keywords, "error", ErrNoMatch)
	}

	text, outcome := a.synthesizer.Synthesize(ctx, question, records)
	return Reply{Text: text, Outcome: outcome}
}

// NormalizeMessage trims the message and collapses internal whitespace runs,
// including full-width spaces, to a single space.
func NormalizeMessage(message string) string {
	return strings.Join(strings.Fields(message), " ")
}
