package bootstrap

import (
	"context"
	"fmt"

	"ai-chat-be/internal/config"
	"ai-chat-be/internal/controller"
	"ai-chat-be/internal/pkg/logger"
	"ai-chat-be/internal/repository/memory"
	"ai-chat-be/internal/repository/unitofwork"
	"ai-chat-be/internal/service"
	"ai-chat-be/pkg/events"
	"ai-chat-be/pkg/llm/factory"
	pktNats "ai-chat-be/pkg/nats"

	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController       controller.IChatController
	CompletionController controller.ICompletionController
	PageController       controller.IPageController

	Logger logger.ILogger

	completionService service.ICompletionService
	natsPub           *pktNats.Publisher
}

func NewContainer(db *gorm.DB, cfg *config.Config, sysLogger logger.ILogger) (*Container, error) {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)

	// 2. Event Bus
	var eventPublisher events.Publisher = events.NopPublisher{}
	var natsPub *pktNats.Publisher
	if cfg.App.NatsURL != "" {
		pub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "Failed to connect to NATS, chat events disabled", map[string]interface{}{
				"url":   cfg.App.NatsURL,
				"error": err,
			})
		} else {
			natsPub = pub
			eventPublisher = pub
		}
	}

	// 3. LLM Provider
	baseURL := cfg.Ai.BaseURL
	if cfg.Ai.LLMProvider == "ollama" {
		baseURL = cfg.Ai.OllamaBaseURL
	}
	llmProvider, err := factory.NewLLMProvider(cfg.Ai.LLMProvider, cfg.Ai.LLMModel, baseURL, cfg.Ai.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM provider: %w", err)
	}
	sysLogger.Info("BOOTSTRAP", "Using LLM provider", map[string]interface{}{
		"provider":        cfg.Ai.LLMProvider,
		"model":           cfg.Ai.LLMModel,
		"stateless_model": cfg.Ai.StatelessModel,
	})

	// 4. Services
	turns := memory.NewTurnRegistry(cfg.App.MaxDuration)
	chatStoreService := service.NewChatStoreService(uowFactory, eventPublisher, sysLogger)
	completionService := service.NewCompletionService(
		chatStoreService,
		llmProvider,
		turns,
		cfg.Ai.StatelessModel,
		cfg.App.MaxDuration,
		sysLogger,
	)

	// 5. Controllers
	return &Container{
		ChatController:       controller.NewChatController(chatStoreService),
		CompletionController: controller.NewCompletionController(completionService, sysLogger),
		PageController:       controller.NewPageController(chatStoreService),
		Logger:               sysLogger,
		completionService:    completionService,
		natsPub:              natsPub,
	}, nil
}

// Close waits for running completion producers until ctx ends, then releases connections
// opened by NewContainer.
func (c *Container) Close(ctx context.Context) error {
	err := c.completionService.Wait(ctx)
	if err != nil {
		c.Logger.Warn("BOOTSTRAP", "Completion producers still running at close", map[string]interface{}{
			"error": err,
		})
	}
	if c.natsPub != nil {
		c.natsPub.Close()
	}
	return err
}
