package assistant

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/omriShneor/alfred_assistant/internal/actions"
	"github.com/omriShneor/alfred_assistant/internal/intent"
	"github.com/omriShneor/alfred_assistant/internal/llm"
	"github.com/omriShneor/alfred_assistant/internal/logger"
	"github.com/omriShneor/alfred_assistant/internal/metrics"
)

// ErrInvalidMessages is returned when no conversation is given at all. An
// empty conversation is answered as if the last message were blank.
var ErrInvalidMessages = errors.New("invalid messages format")

const (
	modeLLM      = "llm"
	modeFallback = "fallback"
	modeUnparsed = "unparsed"
)

// Dispatcher runs the action for a classified message
type Dispatcher interface {
	Dispatch(ctx context.Context, c intent.Classification) *actions.Result
}

// Reply is the assistant's answer to one chat turn
type Reply struct {
	Message      string          `json:"message"`
	ActionResult *actions.Result `json:"actionResult"`
}

// Service turns a conversation into a reply, asking the language model for
// the intent and falling back to the keyword classifier when it cannot.
type Service struct {
	completer  llm.Completer
	dispatcher Dispatcher
	logger     *zap.Logger
}

// NewService creates a new assistant service
func NewService(completer llm.Completer, dispatcher Dispatcher, logger *zap.Logger) *Service {
	return &Service{
		completer:  completer,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Reply classifies the last message of history and runs its action
func (s *Service) Reply(ctx context.Context, history []llm.Message) (*Reply, error) {
	if history == nil {
		return nil, ErrInvalidMessages
	}
	log := logger.WithRequest(ctx, s.logger)

	var last string
	if len(history) > 0 {
		last = history[len(history)-1].Content
	}

	text, err := s.complete(ctx, history)
	if err != nil {
		log.Warn("language model unavailable, using fallback classifier", zap.Error(err))
		metrics.RecordChatRequest(modeFallback)

		c := intent.Classify(last)
		return &Reply{
			Message:      llm.Describe(err) + " Using fallback mode.",
			ActionResult: s.dispatcher.Dispatch(ctx, c),
		}, nil
	}

	c, err := llm.ParseIntentReply(text)
	mode := modeLLM
	if err != nil {
		log.Warn("unparseable model reply, using fallback classifier", zap.Error(err))
		c = intent.Classify(last)
		mode = modeUnparsed
	}
	metrics.RecordChatRequest(mode)

	log.Info("chat message classified",
		zap.String("intent", string(c.Intent)),
		zap.String("mode", mode))

	return &Reply{
		Message:      c.Message,
		ActionResult: s.dispatcher.Dispatch(ctx, c),
	}, nil
}

func (s *Service) complete(ctx context.Context, history []llm.Message) (string, error) {
	if s.completer == nil {
		return "", errors.New("no language model configured")
	}

	began := time.Now()
	text, err := s.completer.Complete(ctx, llm.BuildConversation(history))
	metrics.RecordLLMLatency(s.completer.Name(), err, time.Since(began))
	return text, err
}
