package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTelephonyIdentity(t *testing.T) {
	assert.True(t, IsTelephonyIdentity("sip_+31612345678"))
	assert.False(t, IsTelephonyIdentity("app-user-42"))
	assert.Equal(t, "+31612345678", PhoneFromIdentity("sip_+31612345678"))
	assert.Equal(t, "app-user-42", PhoneFromIdentity("app-user-42"))
}

func TestCallerDisplayName(t *testing.T) {
	c := &Caller{Subject: Subject{ID: "u1", Name: "Annie"}}
	assert.Equal(t, "Annie", c.DisplayName())

	degraded := &Caller{Subject: Subject{ID: "sip_+31"}, Degraded: true}
	assert.Equal(t, UnknownCallerName, degraded.DisplayName())
}

func TestCallerLanguageDefault(t *testing.T) {
	c := &Caller{Subject: Subject{Language: "de"}}
	assert.Equal(t, "de", c.Language())
	assert.Equal(t, "nl", (&Caller{}).Language())
}

func TestLastTurn(t *testing.T) {
	_, ok := LastTurn(nil)
	assert.False(t, ok)

	turns := []Turn{NewTurn(RoleAssistant, "Hi"), NewTurn(RoleUser, "Hello")}
	last, ok := LastTurn(turns)
	assert.True(t, ok)
	assert.Equal(t, RoleUser, last.Role)
}
