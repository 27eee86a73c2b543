package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mikey/llm-mail-triage/internal/adapters/history"
	"github.com/mikey/llm-mail-triage/internal/config"
	"github.com/mikey/llm-mail-triage/internal/core"
)

// HistoryFactory creates run history stores based on configuration
type HistoryFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewHistoryFactory creates a new history factory
func NewHistoryFactory(cfg *config.Config, logger *zap.Logger) *HistoryFactory {
	return &HistoryFactory{cfg: cfg, logger: logger}
}

// CreateHistoryStore creates a history store based on the configuration.
// Type "none" returns nil: run recording is disabled.
func (f *HistoryFactory) CreateHistoryStore() (core.HistoryStore, error) {
	historyConfig := f.cfg.GetHistory()

	switch historyConfig.Type {
	case "none":
		return nil, nil
	case "memory":
		return history.NewMemoryStore(f.logger), nil
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(historyConfig.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return history.NewSQLiteStore(historyConfig.SQLitePath, f.logger)
	case "mysql":
		return history.NewMySQLStore(historyConfig.MySQLDSN, f.logger)
	default:
		return nil, fmt.Errorf("unsupported history type: %s", historyConfig.Type)
	}
}
