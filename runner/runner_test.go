package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subthread/companion/bundle"
	"github.com/subthread/companion/core"
	"github.com/subthread/companion/dialogue"
	"github.com/subthread/companion/memory"
	"github.com/subthread/companion/model"
	"github.com/subthread/companion/tool"
)

type fakeResolver struct {
	caller *core.Caller
	err    error
}

func (f *fakeResolver) Resolve(context.Context, string, string) (*core.Caller, error) {
	return f.caller, f.err
}

type fakeAggregator struct {
	result bundle.Result
}

func (f *fakeAggregator) Load(context.Context, *core.Caller, string) bundle.Result {
	return f.result
}

type failingEngine struct{}

func (failingEngine) Start(context.Context, dialogue.StartOptions) error {
	return errors.New("voice pipeline unavailable")
}

func (failingEngine) Instruct(context.Context, string) error { return nil }

func subjectCaller() *core.Caller {
	return &core.Caller{
		RawIdentity: "u1",
		Subject:     core.Subject{ID: "u1", Name: "Annie", Language: "nl"},
	}
}

func newRunner(t *testing.T, resolver Resolver, store *memory.InMemoryStore, sessionID string) (*Runner, *model.MockModel) {
	t.Helper()
	mock := model.NewMockModel("test", "mock")
	agg := &fakeAggregator{result: bundle.Result{
		Bundle:    bundle.Compose("", "likes gardening", "", "", ""),
		SessionID: sessionID,
	}}
	r := New(
		resolver,
		agg,
		store,
		func(*core.Caller) dialogue.Engine { return dialogue.NewModelEngine(mock) },
		func(caller *core.Caller) []tool.Tool {
			return tool.CompanionToolset(&tool.Deps{Room: nil, Caller: caller})
		},
	)
	return r, mock
}

func TestRunReachesDialogueActiveAndGreets(t *testing.T) {
	store := memory.NewInMemoryStore()
	sessionID, err := store.CreateSession(context.Background(), "u1")
	require.NoError(t, err)

	r, mock := newRunner(t, &fakeResolver{caller: subjectCaller()}, store, sessionID)
	sess, err := r.Run(context.Background(), core.Connection{ParticipantID: "u1", RoomName: "call-1"})
	require.NoError(t, err)
	defer sess.End()

	assert.Equal(t, StateDialogueActive, sess.State())
	assert.Equal(t, "Annie", sess.Caller.Subject.Name)

	// The greeting request carries the variant instructions, the bundle
	// and the language hint.
	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Instructions, "voice companion")
	assert.Contains(t, reqs[0].Instructions, "likes gardening")
	assert.Contains(t, reqs[0].Instructions, `"nl"`)
}

func TestRunWiresIngestionIntoDialogue(t *testing.T) {
	store := memory.NewInMemoryStore()
	sessionID, err := store.CreateSession(context.Background(), "u1")
	require.NoError(t, err)

	r, _ := newRunner(t, &fakeResolver{caller: subjectCaller()}, store, sessionID)
	sess, err := r.Run(context.Background(), core.Connection{ParticipantID: "u1"})
	require.NoError(t, err)
	defer sess.End()

	// The greeting already produced an assistant turn, so the first user
	// utterance completes a pair.
	engine := sess.Engine.(*dialogue.ModelEngine)
	_, err = engine.Say(context.Background(), "Good morning!")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(store.Entries(sessionID)) == 2
	}, time.Second, 5*time.Millisecond)
	entries := store.Entries(sessionID)
	assert.Equal(t, "Annie: Good morning!", entries[0].Content)
}

func TestRunFatalOnResolveFailure(t *testing.T) {
	store := memory.NewInMemoryStore()
	r, _ := newRunner(t, &fakeResolver{err: errors.New("directory down")}, store, "")

	_, err := r.Run(context.Background(), core.Connection{ParticipantID: "u1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "identity resolution")
}

func TestRunFatalOnEngineStartFailure(t *testing.T) {
	store := memory.NewInMemoryStore()
	agg := &fakeAggregator{result: bundle.Result{Bundle: bundle.Compose("", "", "", "", "")}}
	r := New(
		&fakeResolver{caller: subjectCaller()},
		agg,
		store,
		func(*core.Caller) dialogue.Engine { return failingEngine{} },
		func(*core.Caller) []tool.Tool { return nil },
	)

	_, err := r.Run(context.Background(), core.Connection{ParticipantID: "u1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dialogue start")
}

func TestRunDelegateGetsOnboardingVariant(t *testing.T) {
	caller := &core.Caller{
		RawIdentity: "sip_+31600000001",
		Subject:     core.Subject{ID: "u1", Name: "Annie"},
		IsDelegate:  true,
	}
	store := memory.NewInMemoryStore()
	r, mock := newRunner(t, &fakeResolver{caller: caller}, store, "")

	sess, err := r.Run(context.Background(), core.Connection{ParticipantID: "sip_+31600000001"})
	require.NoError(t, err)
	defer sess.End()

	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Instructions, "family member")
}

func TestRunDelegateIngestsWithFamilyMemberRole(t *testing.T) {
	store := memory.NewInMemoryStore()
	sessionID, err := store.CreateSession(context.Background(), "u1")
	require.NoError(t, err)

	caller := &core.Caller{
		RawIdentity: "sip_+31600000001",
		Subject:     core.Subject{ID: "u1", Name: "Annie"},
		IsDelegate:  true,
	}
	r, _ := newRunner(t, &fakeResolver{caller: caller}, store, sessionID)
	sess, err := r.Run(context.Background(), core.Connection{ParticipantID: "sip_+31600000001"})
	require.NoError(t, err)
	defer sess.End()

	engine := sess.Engine.(*dialogue.ModelEngine)
	_, err = engine.Say(context.Background(), "She loves her garden.")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(store.Entries(sessionID)) == 2
	}, time.Second, 5*time.Millisecond)
	// Delegate contributions are attributed to a family member, not the
	// subject.
	for _, entry := range store.Entries(sessionID) {
		assert.Equal(t, memory.RoleFamilyMember, entry.Role)
	}
}

func TestRunDegradedCallerStillStarts(t *testing.T) {
	caller := &core.Caller{
		RawIdentity: "sip_+31600000002",
		Subject:     core.Subject{ID: "sip_+31600000002", Name: core.UnknownCallerName},
		Degraded:    true,
	}
	store := memory.NewInMemoryStore()
	r, _ := newRunner(t, &fakeResolver{caller: caller}, store, "")

	sess, err := r.Run(context.Background(), core.Connection{ParticipantID: "sip_+31600000002"})
	require.NoError(t, err)
	defer sess.End()
	assert.Equal(t, StateDialogueActive, sess.State())
}

func TestSessionEndIsIdempotent(t *testing.T) {
	store := memory.NewInMemoryStore()
	r, _ := newRunner(t, &fakeResolver{caller: subjectCaller()}, store, "")

	sess, err := r.Run(context.Background(), core.Connection{ParticipantID: "u1"})
	require.NoError(t, err)

	sess.End()
	sess.End()
	assert.Equal(t, StateEnded, sess.State())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "dialogue_active", StateDialogueActive.String())
	assert.Equal(t, "ended", StateEnded.String())
}
