// Package telegram is the chat front end. It maps Telegram updates onto
// assistant requests and keeps each user's current course selection.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/studioverse/tutormind/internal/assistant"
	"github.com/studioverse/tutormind/internal/errs"
	"github.com/studioverse/tutormind/internal/logger"
)

// Assistant answers one chat turn.
type Assistant interface {
	Chat(ctx context.Context, req assistant.ChatRequest) (*assistant.ChatResponse, error)
}

type session struct {
	courseID string
	lessonID string
}

// Bot bridges Telegram and the tutoring assistant. The Telegram user id is
// the principal; the tenant is fixed per deployment.
type Bot struct {
	bot      *bot.Bot
	tutor    Assistant
	tenantID string

	mutex    sync.RWMutex
	sessions map[int64]*session
}

// NewBot creates the bot and registers its update handler.
func NewBot(token, tenantID string, tutor Assistant) (*Bot, error) {
	b := &Bot{
		tutor:    tutor,
		tenantID: tenantID,
		sessions: make(map[int64]*session),
	}

	botAPI, err := bot.New(token, bot.WithDefaultHandler(b.handleUpdate))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}

	b.bot = botAPI
	return b, nil
}

// Start runs the long-polling loop until the context is canceled.
func (b *Bot) Start(ctx context.Context) {
	b.bot.Start(ctx)
}

func (b *Bot) session(userID int64) *session {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	s, ok := b.sessions[userID]
	if !ok {
		s = &session{}
		b.sessions[userID] = s
	}
	return s
}

func (b *Bot) handleUpdate(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	msg := update.Message

	if strings.HasPrefix(msg.Text, "/") {
		b.handleCommand(ctx, msg)
		return
	}
	if msg.Text == "" {
		b.reply(ctx, msg.Chat.ID, "Please send your question as text.")
		return
	}

	b.handleQuestion(ctx, msg)
}

func (b *Bot) handleCommand(ctx context.Context, msg *models.Message) {
	parts := strings.Fields(msg.Text)
	// Strip a @botname suffix so group-chat commands also match.
	command, _, _ := strings.Cut(parts[0], "@")

	switch command {
	case "/start", "/help":
		b.reply(ctx, msg.Chat.ID, helpText)
	case "/course":
		if len(parts) < 2 {
			b.reply(ctx, msg.Chat.ID, "Usage: /course <course-id> [lesson-id]")
			return
		}
		s := b.session(msg.From.ID)
		b.mutex.Lock()
		s.courseID = parts[1]
		s.lessonID = ""
		if len(parts) > 2 {
			s.lessonID = parts[2]
		}
		b.mutex.Unlock()
		b.reply(ctx, msg.Chat.ID, fmt.Sprintf("Switched to course %s. Ask away!", parts[1]))
	case "/general":
		s := b.session(msg.From.ID)
		b.mutex.Lock()
		s.courseID = ""
		s.lessonID = ""
		b.mutex.Unlock()
		b.reply(ctx, msg.Chat.ID, "Switched to general study chat.")
	default:
		b.reply(ctx, msg.Chat.ID, "Unknown command. Try /help.")
	}
}

func (b *Bot) handleQuestion(ctx context.Context, msg *models.Message) {
	principalID := strconv.FormatInt(msg.From.ID, 10)

	b.mutex.RLock()
	s := b.sessions[msg.From.ID]
	var courseID, lessonID string
	if s != nil {
		courseID = s.courseID
		lessonID = s.lessonID
	}
	b.mutex.RUnlock()

	resp, err := b.tutor.Chat(ctx, assistant.ChatRequest{
		PrincipalID: principalID,
		TenantID:    b.tenantID,
		CourseID:    courseID,
		LessonID:    lessonID,
		Message:     msg.Text,
	})
	if err != nil {
		b.reply(ctx, msg.Chat.ID, userMessageFor(err))
		return
	}

	logger.Debug("Answered principal %s in %v (%d context chunks, ~%d prompt tokens)",
		principalID, resp.Latency, resp.ContextChunks, resp.PromptTokens)
	b.reply(ctx, msg.Chat.ID, resp.Text)
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	_, err := b.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		logger.Error("Failed to send message to chat %d: %v", chatID, err)
	}
}

// userMessageFor maps pipeline errors onto the stable user-facing texts.
func userMessageFor(err error) string {
	switch {
	case errors.Is(err, errs.ErrRateLimited):
		return errs.ErrRateLimited.Error()
	case errors.Is(err, errs.ErrAccessDenied):
		return errs.ErrAccessDenied.Error()
	case errors.Is(err, errs.ErrValidation):
		return errs.ErrValidation.Error()
	default:
		return errs.ErrUpstreamUnavailable.Error()
	}
}

const helpText = `I'm your study tutor. Ask me anything, or:
/course <course-id> [lesson-id] - chat about a specific course
/general - switch back to general study chat
/help - show this message`
