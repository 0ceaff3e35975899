package config

import (
	"fmt"
	"strings"
)

// StrategyConfig picks a model per turn role. Empty entries fall back to
// DefaultModel, then to the registry default.
type StrategyConfig struct {
	DefaultModel string `mapstructure:"default_model"`
	CoderModel   string `mapstructure:"coder_model"`  // create turns
	EditorModel  string `mapstructure:"editor_model"` // refine turns
	ChatModel    string `mapstructure:"chat_model"`   // profile assistant turns
}

func (s StrategyConfig) validate(models map[string]ModelConfig) error {
	for _, modelID := range []string{s.DefaultModel, s.CoderModel, s.EditorModel, s.ChatModel} {
		if strings.TrimSpace(modelID) == "" {
			continue
		}
		if _, ok := models[modelID]; !ok {
			return fmt.Errorf("strategy references unknown model %q", modelID)
		}
	}
	return nil
}
