package dialogue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subthread/companion/bundle"
	"github.com/subthread/companion/core"
	"github.com/subthread/companion/model"
)

func TestStartFoldsBundleIntoInstructions(t *testing.T) {
	mock := model.NewMockModel("test", "mock")
	engine := NewModelEngine(mock)

	b := bundle.Compose("", "likes gardening", "", "", "")
	require.NoError(t, engine.Start(context.Background(), StartOptions{
		Instructions: "You are a companion.",
		Bundle:       b,
	}))

	_, err := engine.Say(context.Background(), "Hello")
	require.NoError(t, err)

	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Instructions, "You are a companion.")
	assert.Contains(t, reqs[0].Instructions, "<user_context>\nlikes gardening\n</user_context>")
}

func TestStartTwiceFails(t *testing.T) {
	engine := NewModelEngine(model.NewMockModel("test", "mock"))
	require.NoError(t, engine.Start(context.Background(), StartOptions{}))
	assert.Error(t, engine.Start(context.Background(), StartOptions{}))
}

func TestSayFiresHookWithPriorHistory(t *testing.T) {
	mock := model.NewMockModel("test", "mock")
	mock.AddResponse("Hello", "Hi Annie!")
	engine := NewModelEngine(mock)

	var hookPrior []core.Turn
	var hookTurn core.Turn
	require.NoError(t, engine.Start(context.Background(), StartOptions{
		OnUserTurnCompleted: func(prior []core.Turn, newTurn core.Turn) core.Turn {
			hookPrior = prior
			hookTurn = newTurn
			return newTurn
		},
	}))

	reply, err := engine.Say(context.Background(), "Hello")
	require.NoError(t, err)
	assert.Equal(t, "Hi Annie!", reply)
	assert.Empty(t, hookPrior)
	assert.Equal(t, "Hello", hookTurn.Content)

	// Second turn sees the first exchange as prior history.
	_, err = engine.Say(context.Background(), "How are you?")
	require.NoError(t, err)
	require.Len(t, hookPrior, 2)
	assert.Equal(t, core.RoleAssistant, hookPrior[1].Role)

	history := engine.History()
	require.Len(t, history, 4)
	assert.Equal(t, core.RoleUser, history[0].Role)
	assert.Equal(t, core.RoleAssistant, history[1].Role)
}

func TestInstructAppendsAssistantTurn(t *testing.T) {
	mock := model.NewMockModel("test", "mock")
	engine := NewModelEngine(mock)
	require.NoError(t, engine.Start(context.Background(), StartOptions{
		Instructions: "Base.",
	}))

	require.NoError(t, engine.Instruct(context.Background(), "Greet the user in Dutch."))

	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Instructions, "Greet the user in Dutch.")

	history := engine.History()
	require.Len(t, history, 1)
	assert.Equal(t, core.RoleAssistant, history[0].Role)
}

func TestDispatchUnknownTool(t *testing.T) {
	engine := NewModelEngine(model.NewMockModel("test", "mock"))
	require.NoError(t, engine.Start(context.Background(), StartOptions{}))

	_, err := engine.Dispatch(context.Background(), "no_such_tool", nil)
	assert.Error(t, err)
}
