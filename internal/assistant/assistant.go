// Package assistant orchestrates a single chat turn end to end: admission,
// access checks, history, retrieval, prompt assembly, generation, and the
// asynchronous write-back of the assistant's reply.
package assistant

import (
	"context"
	"strings"
	"time"

	"github.com/studioverse/tutormind/internal/errs"
	"github.com/studioverse/tutormind/internal/genai"
	"github.com/studioverse/tutormind/internal/logger"
	"github.com/studioverse/tutormind/internal/prompt"
	"github.com/studioverse/tutormind/internal/retrieval"
	"github.com/studioverse/tutormind/internal/vecstore"
	"github.com/studioverse/tutormind/internal/worker"
)

// MaxMessageChars bounds a single incoming message. Longer input is
// rejected before any downstream work happens.
const MaxMessageChars = 2000

// EnrollmentService reports whether a principal is an active member of a
// course.
type EnrollmentService interface {
	IsActivelyEnrolled(ctx context.Context, principalID, courseID string) (bool, error)
}

// ConversationStore persists chat threads and their turns.
type ConversationStore interface {
	FindOrCreate(ctx context.Context, principalID, scopeID string) (string, error)
	AppendTurn(ctx context.Context, conversationID, role, content string) error
	RecentTurns(ctx context.Context, conversationID string, limit int) ([]prompt.Turn, error)
}

// RateLimiter admits or rejects a request for a principal.
type RateLimiter interface {
	Allow(principalID string) bool
}

// Retriever fetches context passages for a query within a scope.
type Retriever interface {
	TopK(ctx context.Context, scope vecstore.Scope, queryText string, k int) []string
}

// Generator produces the model's answer for an assembled prompt.
type Generator interface {
	Generate(ctx context.Context, promptText, apiKeyOverride string) (*genai.Result, error)
}

// Options tunes the orchestrator. Zero values fall back to the defaults
// below.
type Options struct {
	HistoryTurns   int
	TopK           int
	MaxPromptChars int
}

func (o Options) withDefaults() Options {
	if o.HistoryTurns <= 0 {
		o.HistoryTurns = 5
	}
	if o.TopK <= 0 {
		o.TopK = retrieval.DefaultTopK
	}
	if o.MaxPromptChars <= 0 {
		o.MaxPromptChars = prompt.DefaultMaxChars
	}
	return o
}

// ChatRequest is one student message. CourseID selects course mode; when it
// is empty the turn is handled in general mode and LessonID is ignored.
type ChatRequest struct {
	PrincipalID string
	TenantID    string
	CourseID    string
	LessonID    string
	Message     string
}

// ChatResponse carries the answer plus per-turn diagnostics.
type ChatResponse struct {
	Text           string
	ConversationID string
	ContextChunks  int
	PromptTokens   int
	OutputTokens   int
	Latency        time.Duration
}

// Orchestrator wires the collaborators for the chat pipeline.
type Orchestrator struct {
	enrollments EnrollmentService
	convs       ConversationStore
	limiter     RateLimiter
	retriever   Retriever
	generator   Generator
	keys        *KeyRegistry
	pool        *worker.Pool
	assembler   *prompt.Assembler
	opts        Options
}

// New creates an orchestrator. All collaborators are required except pool;
// with a nil pool the assistant turn is persisted synchronously.
func New(enrollments EnrollmentService, convs ConversationStore, limiter RateLimiter, retriever Retriever, generator Generator, keys *KeyRegistry, pool *worker.Pool, opts Options) *Orchestrator {
	opts = opts.withDefaults()
	return &Orchestrator{
		enrollments: enrollments,
		convs:       convs,
		limiter:     limiter,
		retriever:   retriever,
		generator:   generator,
		keys:        keys,
		pool:        pool,
		assembler:   prompt.NewAssembler(opts.MaxPromptChars),
		opts:        opts,
	}
}

// Chat handles one student message and returns the tutor's answer.
//
// The checks run cheapest first: rate limit, input validation, tenant key,
// enrollment. Failures in retrieval degrade to an answer without course
// context; failures in generation or the pre-generation history write
// surface as ErrUpstreamUnavailable.
func (o *Orchestrator) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	started := time.Now()

	if !o.limiter.Allow(req.PrincipalID) {
		logger.Info("Rate limit hit for principal %s", req.PrincipalID)
		return nil, errs.ErrRateLimited
	}

	message := strings.TrimSpace(req.Message)
	if message == "" || len(req.Message) > MaxMessageChars {
		return nil, errs.ErrValidation
	}

	apiKey, err := o.keys.KeyFor(req.TenantID)
	if err != nil {
		return nil, err
	}

	mode := prompt.ModeGeneral
	scope := vecstore.Scope{}
	if req.CourseID != "" {
		mode = prompt.ModeCourse
		scope = vecstore.Scope{CourseID: req.CourseID, LessonID: req.LessonID}

		enrolled, err := o.enrollments.IsActivelyEnrolled(ctx, req.PrincipalID, req.CourseID)
		if err != nil {
			logger.Error("Enrollment check failed for %s/%s: %v", req.PrincipalID, req.CourseID, err)
			return nil, errs.ErrUpstreamUnavailable
		}
		if !enrolled {
			return nil, errs.ErrAccessDenied
		}
	}

	convID, err := o.convs.FindOrCreate(ctx, req.PrincipalID, req.CourseID)
	if err != nil {
		logger.Error("Conversation lookup failed for %s: %v", req.PrincipalID, err)
		return nil, errs.ErrUpstreamUnavailable
	}

	// History is read before the current message is appended so the prompt
	// does not contain the question twice.
	history, err := o.convs.RecentTurns(ctx, convID, o.opts.HistoryTurns)
	if err != nil {
		logger.Warn("History read failed for conversation %s, continuing without it: %v", convID, err)
		history = nil
	}

	if err := o.convs.AppendTurn(ctx, convID, prompt.RoleUser, message); err != nil {
		logger.Error("Failed to persist student turn in %s: %v", convID, err)
		return nil, errs.ErrUpstreamUnavailable
	}

	var contextChunks []string
	if mode == prompt.ModeCourse {
		contextChunks = o.retriever.TopK(ctx, scope, message, o.opts.TopK)
	}

	promptText := o.assembler.Build(mode, strings.Join(contextChunks, "\n\n"), history, message)

	result, err := o.generator.Generate(ctx, promptText, apiKey)
	if err != nil {
		return nil, err
	}

	o.persistAssistantTurn(convID, result.Text)

	resp := &ChatResponse{
		Text:           result.Text,
		ConversationID: convID,
		ContextChunks:  len(contextChunks),
		PromptTokens:   result.PromptTokens,
		OutputTokens:   result.OutputTokens,
		Latency:        time.Since(started),
	}
	if resp.PromptTokens == 0 {
		resp.PromptTokens = estimateTokens(promptText)
	}
	if resp.OutputTokens == 0 {
		resp.OutputTokens = estimateTokens(result.Text)
	}
	return resp, nil
}

// persistAssistantTurn writes the reply off the request path. The student
// already has the answer in hand; a failed write only costs history.
func (o *Orchestrator) persistAssistantTurn(convID, text string) {
	task := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return o.convs.AppendTurn(ctx, convID, prompt.RoleAssistant, text)
	}
	if o.pool == nil {
		if err := task(); err != nil {
			logger.Error("Failed to persist assistant turn in %s: %v", convID, err)
		}
		return
	}
	o.pool.Submit("assistant-turn", task)
}

// estimateTokens is a rough fallback when the model response carries no
// usage metadata. Four characters per token tracks English text closely
// enough for diagnostics.
func estimateTokens(text string) int {
	return (len(text) + 3) / 4
}
