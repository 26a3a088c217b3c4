package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subthread/companion/core"
	"github.com/subthread/companion/directory"
)

type fakeDirectory struct {
	users      map[string]*directory.User
	phoneHits  map[string]*directory.LookupResult
	userErr    error
	searchErr  error
	userCalls  []string
	phoneCalls []string
}

func (f *fakeDirectory) UserByID(_ context.Context, id string) (*directory.User, error) {
	f.userCalls = append(f.userCalls, id)
	if f.userErr != nil {
		return nil, f.userErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return u, nil
}

func (f *fakeDirectory) SearchByPhone(_ context.Context, phone string) (*directory.LookupResult, error) {
	f.phoneCalls = append(f.phoneCalls, phone)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	hit, ok := f.phoneHits[phone]
	if !ok {
		return nil, errors.New("not found")
	}
	return hit, nil
}

func TestResolveAppCaller(t *testing.T) {
	dir := &fakeDirectory{users: map[string]*directory.User{
		"u1": {ID: "u1", Name: "Annie", Language: "nl"},
	}}
	r := NewResolver(dir)

	caller, err := r.Resolve(context.Background(), "u1", "room-1")
	require.NoError(t, err)
	assert.Equal(t, "Annie", caller.Subject.Name)
	assert.False(t, caller.IsDelegate)
	assert.False(t, caller.Degraded)
	assert.Empty(t, dir.phoneCalls)
}

func TestResolveAppCallerFailureIsFatal(t *testing.T) {
	dir := &fakeDirectory{userErr: errors.New("directory down")}
	r := NewResolver(dir)

	_, err := r.Resolve(context.Background(), "u1", "room-1")
	assert.Error(t, err)
}

func TestResolveInboundSubject(t *testing.T) {
	dir := &fakeDirectory{phoneHits: map[string]*directory.LookupResult{
		"+31612345678": {User: directory.User{ID: "u1", Name: "Annie", PhoneNumber: "+31612345678"}},
	}}
	r := NewResolver(dir)

	caller, err := r.Resolve(context.Background(), "sip_+31612345678", "inbound-1")
	require.NoError(t, err)
	assert.Equal(t, "u1", caller.Subject.ID)
	assert.False(t, caller.IsDelegate)
}

func TestResolveInboundDelegate(t *testing.T) {
	dir := &fakeDirectory{
		phoneHits: map[string]*directory.LookupResult{
			"+31600000001": {Type: directory.RecordTypeFamilyMember, UserID: "u1"},
		},
		users: map[string]*directory.User{
			"u1": {ID: "u1", Name: "Annie"},
		},
	}
	r := NewResolver(dir)

	caller, err := r.Resolve(context.Background(), "sip_+31600000001", "inbound-2")
	require.NoError(t, err)
	assert.True(t, caller.IsDelegate)
	assert.Equal(t, "u1", caller.Subject.ID)
}

func TestResolveOutboundSkipsPhoneLookup(t *testing.T) {
	dir := &fakeDirectory{users: map[string]*directory.User{
		"u7": {ID: "u7", Name: "Piet"},
	}}
	r := NewResolver(dir)

	caller, err := r.Resolve(context.Background(), "sip_+31612345678", "outbound-u7")
	require.NoError(t, err)
	assert.Equal(t, "u7", caller.Subject.ID)
	assert.Empty(t, dir.phoneCalls)
}

func TestTelephonyFailureDegrades(t *testing.T) {
	dir := &fakeDirectory{searchErr: errors.New("directory down")}
	r := NewResolver(dir)

	caller, err := r.Resolve(context.Background(), "sip_+31699999999", "inbound-3")
	require.NoError(t, err)
	assert.True(t, caller.Degraded)
	assert.Equal(t, "sip_+31699999999", caller.Subject.ID)
	assert.NotEmpty(t, caller.Subject.Name)
	assert.Equal(t, core.UnknownCallerName, caller.DisplayName())
}

func TestDelegateLookupFailureDegrades(t *testing.T) {
	dir := &fakeDirectory{
		phoneHits: map[string]*directory.LookupResult{
			"+31600000001": {Type: directory.RecordTypeFamilyMember, UserID: "u1"},
		},
		userErr: errors.New("directory down"),
	}
	r := NewResolver(dir)

	caller, err := r.Resolve(context.Background(), "sip_+31600000001", "inbound-4")
	require.NoError(t, err)
	assert.True(t, caller.Degraded)
	assert.False(t, caller.IsDelegate)
}
