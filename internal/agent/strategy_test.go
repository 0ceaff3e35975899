package agent

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ThinkArcHQ/profilebase/internal/config"
	"github.com/ThinkArcHQ/profilebase/internal/llm"
	llmmock "github.com/ThinkArcHQ/profilebase/internal/llm/mock"
)

func TestStrategyResolvesRoles(t *testing.T) {
	reg := llm.NewRegistry()
	reg.RegisterProvider("p", &llmmock.Provider{})
	reg.RegisterModel("base", llm.ModelRoute{Provider: "p", Model: "m0"}, true)
	reg.RegisterModel("code-model", llm.ModelRoute{Provider: "p", Model: "m1"}, false)
	reg.RegisterModel("edit-model", llm.ModelRoute{Provider: "p", Model: "m2"}, false)
	reg.RegisterModel("chat-model", llm.ModelRoute{Provider: "p", Model: "m3"}, false)

	engine := NewStrategyEngine(reg, config.StrategyConfig{
		CoderModel:  "code-model",
		EditorModel: "edit-model",
		ChatModel:   "chat-model",
	})

	for role, want := range map[string]string{
		RoleCoder:  "code-model",
		RoleEditor: "edit-model",
		RoleChat:   "chat-model",
		"":         "code-model",
	} {
		_, route, err := engine.ResolveModel(role, "")
		require.NoError(t, err)
		require.Equal(t, want, route.Name, "role %q", role)
	}

	_, route, err := engine.ResolveModel(RoleEditor, "base")
	require.NoError(t, err)
	require.Equal(t, "base", route.Name, "override wins")
}

func TestStrategyDefaults(t *testing.T) {
	reg := llm.NewRegistry()
	reg.RegisterProvider("p", &llmmock.Provider{})
	reg.RegisterModel("first", llm.ModelRoute{Provider: "p", Model: "m1"}, true)
	reg.RegisterModel("second", llm.ModelRoute{Provider: "p", Model: "m2"}, false)

	_, route, err := NewStrategyEngine(reg, config.StrategyConfig{DefaultModel: "second"}).ResolveModel(RoleChat, "")
	require.NoError(t, err)
	require.Equal(t, "second", route.Name)

	_, route, err = NewStrategyEngine(reg, config.StrategyConfig{}).ResolveModel(RoleCoder, "")
	require.NoError(t, err)
	require.Equal(t, "first", route.Name)
}

func TestStrategyUnknownModelIsAnError(t *testing.T) {
	reg := llm.NewRegistry()
	reg.RegisterProvider("p", &llmmock.Provider{})
	reg.RegisterModel("first", llm.ModelRoute{Provider: "p", Model: "m1"}, true)

	_, _, err := NewStrategyEngine(reg, config.StrategyConfig{}).ResolveModel(RoleCoder, "missing")
	require.ErrorContains(t, err, `"missing"`)
}

func TestRoleFor(t *testing.T) {
	require.Equal(t, RoleChat, roleFor(KindChat, CreateMode{}))
	require.Equal(t, RoleEditor, roleFor(KindGenerate, RefineMode{}))
	require.Equal(t, RoleCoder, roleFor(KindGenerate, CreateMode{}))
}
