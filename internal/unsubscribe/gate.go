package unsubscribe

import (
	"strings"

	"go.uber.org/zap"
)

// Gate decides whether unsubscribe should even be attempted for a
// message, before any mechanism extraction happens.
type Gate struct {
	enabled    bool
	categories map[string]struct{}
	patterns   []string
	logger     *zap.Logger
}

// NewGate creates a gate over the configured target categories and sender
// substring patterns. Patterns are normalized to lowercase.
func NewGate(enabled bool, categories, senderPatterns []string, logger *zap.Logger) *Gate {
	cats := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		cats[c] = struct{}{}
	}
	patterns := make([]string, len(senderPatterns))
	for i, p := range senderPatterns {
		patterns[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return &Gate{
		enabled:    enabled,
		categories: cats,
		patterns:   patterns,
		logger:     logger,
	}
}

// ShouldAttempt reports whether the category is a configured unsubscribe
// target and the sender matches any configured pattern. It says nothing
// about whether a mechanism exists; extraction runs later.
func (g *Gate) ShouldAttempt(category, sender string) bool {
	if !g.enabled {
		return false
	}
	if _, ok := g.categories[category]; !ok {
		return false
	}
	senderLower := strings.ToLower(sender)
	for _, pattern := range g.patterns {
		if pattern != "" && strings.Contains(senderLower, pattern) {
			if g.logger != nil {
				g.logger.Debug("Sender matched unsubscribe pattern",
					zap.String("sender", sender),
					zap.String("pattern", pattern))
			}
			return true
		}
	}
	return false
}
