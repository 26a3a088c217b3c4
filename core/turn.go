package core

import "time"

// Role identifies the author side of a dialogue turn.
type Role string

const (
	// RoleUser marks a turn spoken by the caller.
	RoleUser Role = "user"
	// RoleAssistant marks a turn synthesized by the companion.
	RoleAssistant Role = "assistant"
)

// Turn is one utterance boundary in the dialogue. After emission it should
// be treated as immutable.
type Turn struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTurn creates a turn with a fresh ID and UTC timestamp.
func NewTurn(role Role, content string) Turn {
	return Turn{
		ID:        NewID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// LastTurn returns the final element of a turn sequence, reporting false
// when the sequence is empty.
func LastTurn(turns []Turn) (Turn, bool) {
	if len(turns) == 0 {
		return Turn{}, false
	}
	return turns[len(turns)-1], true
}
