package agent

import (
	"strings"

	"github.com/ThinkArcHQ/profilebase/internal/config"
	"github.com/ThinkArcHQ/profilebase/internal/llm"
)

// Model roles used for strategy selection.
const (
	RoleCoder  = "coder"
	RoleEditor = "editor"
	RoleChat   = "chat"
)

// StrategyEngine chooses models for turn roles.
type StrategyEngine struct {
	registry *llm.Registry
	cfg      config.StrategyConfig
}

// NewStrategyEngine builds a strategy selector.
func NewStrategyEngine(reg *llm.Registry, cfg config.StrategyConfig) *StrategyEngine {
	return &StrategyEngine{registry: reg, cfg: cfg}
}

// ResolveModel picks the model for role. An explicit override wins, then the
// role model, then the strategy default, then the registry default. A model
// that does not resolve is an error; there is no fallback chain.
func (s *StrategyEngine) ResolveModel(role string, override string) (llm.Provider, llm.ModelRoute, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	modelID := firstNonEmpty(
		override,
		roleModel(role, s.cfg),
		s.cfg.DefaultModel,
	)
	return s.registry.Resolve(strings.TrimSpace(modelID))
}

// roleFor maps a turn to its model role.
func roleFor(kind TurnKind, mode Mode) string {
	if kind == KindChat {
		return RoleChat
	}
	if _, ok := mode.(RefineMode); ok {
		return RoleEditor
	}
	return RoleCoder
}

func roleModel(role string, cfg config.StrategyConfig) string {
	switch role {
	case RoleEditor:
		return cfg.EditorModel
	case RoleChat:
		return cfg.ChatModel
	default:
		return cfg.CoderModel
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
