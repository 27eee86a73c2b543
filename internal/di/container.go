package di

import (
	"context"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-triage/internal/adapters/gmailapi"
	"github.com/mikey/llm-mail-triage/internal/config"
	"github.com/mikey/llm-mail-triage/internal/core"
	"github.com/mikey/llm-mail-triage/internal/factory"
	"github.com/mikey/llm-mail-triage/internal/logging"
	"github.com/mikey/llm-mail-triage/internal/unsubscribe"
	"github.com/mikey/llm-mail-triage/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
// for the triage binary
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewClassifierFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewHistoryFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return nil, err
	}

	// Register classifier
	if err := container.Provide(func(f *factory.ClassifierFactory) (core.Classifier, error) {
		return f.CreateClassifier()
	}); err != nil {
		return nil, err
	}

	// Register history store
	if err := container.Provide(func(f *factory.HistoryFactory) (core.HistoryStore, error) {
		return f.CreateHistoryStore()
	}); err != nil {
		return nil, err
	}

	// Register mailbox
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) (core.Mailbox, error) {
		svc, err := gmailapi.NewService(context.Background(), cfg.GetGmail())
		if err != nil {
			return nil, err
		}
		return gmailapi.NewClient(svc, logger), nil
	}); err != nil {
		return nil, err
	}

	// Register unsubscribe handler
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) core.Unsubscriber {
		unsubConfig := cfg.GetUnsubscribe()
		if !unsubConfig.Enabled {
			return nil
		}
		gate := unsubscribe.NewGate(unsubConfig.Enabled, unsubConfig.Categories, unsubConfig.SenderPatterns, logger)
		exec := unsubscribe.NewExecutor(unsubConfig.Timeout, unsubConfig.MinRequestInterval, logger)
		return unsubscribe.NewHandler(gate, exec, unsubConfig.DryRun, logger)
	}); err != nil {
		return nil, err
	}

	// Register triage service
	if err := container.Provide(func(
		mailbox core.Mailbox,
		classifier core.Classifier,
		unsub core.Unsubscriber,
		history core.HistoryStore,
		cfg *config.Config,
		logger *zap.Logger,
	) *core.TriageService {
		triageConfig := cfg.GetTriage()
		return core.NewTriageService(mailbox, classifier, unsub, history, logger, core.TriageConfig{
			Query:          triageConfig.Query,
			MaxEmails:      triageConfig.MaxEmails,
			RateLimitDelay: triageConfig.RateLimitDelay,
			KeepCategories: triageConfig.KeepCategories,
		})
	}); err != nil {
		return nil, err
	}

	return container, nil
}
