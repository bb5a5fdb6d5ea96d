package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"ai-chat-be/internal/constant"
	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/pkg/apperror"
	"ai-chat-be/internal/pkg/identity"
	"ai-chat-be/internal/pkg/logger"
	"ai-chat-be/internal/repository/memory"
	"ai-chat-be/pkg/idgen"
	"ai-chat-be/pkg/llm"
)

const completionModule = "COMPLETION"

// DefaultSaveTimeout bounds the transcript save that follows a finished turn.
const DefaultSaveTimeout = 10 * time.Second

type CompletionEventKind int

const (
	CompletionStart CompletionEventKind = iota
	CompletionDelta
	CompletionFinish
	CompletionError
)

type CompletionEvent struct {
	Kind         CompletionEventKind
	MessageId    string
	Delta        string
	FinishReason string
	Usage        llm.Usage
	Err          error
}

// TurnStream delivers the events of one completion. Events is closed when production ends.
type TurnStream struct {
	Events <-chan CompletionEvent

	clientGone chan struct{}
	done       chan struct{}
	once       sync.Once
	onDetach   func()
}

// Detach tells the producer nobody is reading anymore. Safe to call more than once.
func (t *TurnStream) Detach() {
	t.once.Do(func() {
		close(t.clientGone)
		if t.onDetach != nil {
			t.onDetach()
		}
	})
}

// Done is closed after the producer finished, persistence included.
func (t *TurnStream) Done() <-chan struct{} {
	return t.done
}

type ICompletionService interface {
	// StreamTurn appends the client message to the stored transcript, streams the reply and saves
	// the transcript once the reply is complete, whether or not the client is still connected.
	StreamTurn(ctx context.Context, req *dto.CompletionRequest) (*TurnStream, error)
	// StreamStateless streams a reply to the given messages without touching the store.
	StreamStateless(ctx context.Context, req *dto.StatelessCompletionRequest) (*TurnStream, error)
	// Wait blocks until every running producer returned, or ctx ends.
	Wait(ctx context.Context) error
}

type completionService struct {
	chatStore      IChatStoreService
	llmProvider    llm.LLMProvider
	turns          *memory.TurnRegistry
	messageIds     *idgen.Generator
	statelessModel string
	maxDuration    time.Duration
	saveTimeout    time.Duration
	producers      sync.WaitGroup
	logger         logger.ILogger
}

func NewCompletionService(
	chatStore IChatStoreService,
	llmProvider llm.LLMProvider,
	turns *memory.TurnRegistry,
	statelessModel string,
	maxDuration time.Duration,
	log logger.ILogger,
) ICompletionService {
	if maxDuration <= 0 {
		maxDuration = 30 * time.Second
	}
	return &completionService{
		chatStore:      chatStore,
		llmProvider:    llmProvider,
		turns:          turns,
		messageIds:     idgen.NewGenerator(constant.MessageIdPrefix, constant.MessageIdSize),
		statelessModel: statelessModel,
		maxDuration:    maxDuration,
		saveTimeout:    DefaultSaveTimeout,
		logger:         log,
	}
}

func (s *completionService) StreamTurn(ctx context.Context, req *dto.CompletionRequest) (*TurnStream, error) {
	previous, err := s.chatStore.LoadChat(ctx, req.Id)
	if err != nil {
		return nil, err
	}

	message := req.Message
	if message.CreatedAt == nil {
		now := time.Now()
		message.CreatedAt = &now
	}
	messages := appendClientMessage(previous, message)

	assistantId, err := s.messageIds.Next()
	if err != nil {
		return nil, err
	}

	if n := s.turns.Begin(req.Id); n > 1 {
		s.logger.Warn(completionModule, "Overlapping turns for chat, last save wins", map[string]interface{}{
			"chat_id":   req.Id,
			"in_flight": n,
		})
	}

	// Production outlives the request: identity stays in the context, cancellation does not.
	prodCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.maxDuration)
	turn, events := newTurnStream(nil)

	s.producers.Add(1)
	go func() {
		defer s.producers.Done()
		defer cancel()
		defer s.turns.End(req.Id)

		s.produce(prodCtx, turn, events, assistantId, toLLMMessages(messages), nil, func(content string) {
			now := time.Now()
			transcript := append(messages, dto.UIMessage{
				Id:        assistantId,
				Role:      constant.ChatMessageRoleAssistant,
				Content:   content,
				CreatedAt: &now,
			})
			// the generation deadline may be nearly spent, the save gets its own
			saveCtx, cancelSave := context.WithTimeout(context.WithoutCancel(prodCtx), s.saveTimeout)
			defer cancelSave()
			s.persist(saveCtx, req.Id, transcript)
		})
	}()

	return turn, nil
}

func (s *completionService) StreamStateless(ctx context.Context, req *dto.StatelessCompletionRequest) (*TurnStream, error) {
	assistantId, err := s.messageIds.Next()
	if err != nil {
		return nil, err
	}

	prodCtx, cancel := context.WithTimeout(ctx, s.maxDuration)
	turn, events := newTurnStream(cancel)

	var opts []llm.Option
	if s.statelessModel != "" {
		opts = append(opts, llm.WithModel(s.statelessModel))
	}

	s.producers.Add(1)
	go func() {
		defer s.producers.Done()
		defer cancel()
		s.produce(prodCtx, turn, events, assistantId, toLLMMessages(req.Messages), opts, nil)
	}()

	return turn, nil
}

func (s *completionService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.producers.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func newTurnStream(onDetach func()) (*TurnStream, chan CompletionEvent) {
	events := make(chan CompletionEvent)
	return &TurnStream{
		Events:     events,
		clientGone: make(chan struct{}),
		done:       make(chan struct{}),
		onDetach:   onDetach,
	}, events
}

// produce drains the provider stream. Sends are dropped once the client is gone, production is not.
// onComplete runs only when the provider finished without error.
func (s *completionService) produce(
	ctx context.Context,
	turn *TurnStream,
	events chan<- CompletionEvent,
	messageId string,
	history []llm.Message,
	opts []llm.Option,
	onComplete func(content string),
) {
	defer close(turn.done)
	defer close(events)

	send := func(ev CompletionEvent) {
		select {
		case events <- ev:
		case <-turn.clientGone:
		}
	}

	stream, err := s.llmProvider.Stream(ctx, history, opts...)
	if err != nil {
		s.logger.Error(completionModule, "Failed to start completion stream", map[string]interface{}{
			"message_id": messageId,
			"error":      err,
		})
		send(CompletionEvent{Kind: CompletionError, Err: err})
		return
	}
	defer stream.Close()

	send(CompletionEvent{Kind: CompletionStart, MessageId: messageId})

	var content strings.Builder
	var usage llm.Usage
	finishReason := ""
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.logger.Error(completionModule, "Completion stream failed", map[string]interface{}{
				"message_id": messageId,
				"received":   content.Len(),
				"error":      err,
			})
			send(CompletionEvent{Kind: CompletionError, Err: err})
			return
		}
		if chunk.Content != "" {
			content.WriteString(chunk.Content)
			send(CompletionEvent{Kind: CompletionDelta, Delta: chunk.Content})
		}
		if chunk.FinishReason != "" {
			finishReason = chunk.FinishReason
		}
		if chunk.Usage != nil {
			usage = *chunk.Usage
		}
	}

	if onComplete != nil {
		onComplete(content.String())
	}

	if finishReason == "" {
		finishReason = "stop"
	}
	send(CompletionEvent{
		Kind:         CompletionFinish,
		MessageId:    messageId,
		FinishReason: llm.NormalizeFinishReason(finishReason),
		Usage:        usage,
	})
}

func (s *completionService) persist(ctx context.Context, chatId string, transcript []dto.UIMessage) {
	err := s.chatStore.SaveChat(ctx, chatId, transcript)
	switch {
	case err == nil:
		return
	case apperror.IsAuthentication(err):
		s.logger.Info(completionModule, "Transcript not saved for anonymous caller", map[string]interface{}{
			"chat_id": chatId,
		})
	default:
		userId, _ := identity.UserID(ctx)
		s.logger.Error(completionModule, "Failed to save transcript", map[string]interface{}{
			"chat_id": chatId,
			"user_id": userId,
			"error":   err,
		})
	}
}

func toLLMMessages(messages []dto.UIMessage) []llm.Message {
	history := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		history = append(history, llm.Message{Role: m.Role, Content: m.Content})
	}
	return history
}
