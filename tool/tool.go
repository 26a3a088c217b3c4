// Package tool implements the function calling layer exposed to the
// dialogue engine: schema-validated tools over the client device RPC
// surface, the automation partner and the search partner. Dispatch
// failures are conversational: every tool resolves to a natural-language
// string, never an error that could abort the call.
package tool

import (
	"context"
	"fmt"

	"github.com/subthread/companion/internal/util"
)

// Tool is one capability the dialogue engine may invoke.
type Tool interface {
	// Name returns the unique tool identifier (snake_case).
	Name() string

	// Description tells the engine when and how to use the tool.
	Description() string

	// Parameters returns the JSON schema for the accepted arguments.
	Parameters() map[string]any

	// Call executes the tool with already-decoded arguments.
	Call(ctx context.Context, args map[string]any) (any, error)
}

// ValidationError reports an argument that failed schema validation.
type ValidationError = util.ValidationError

// ToolError categorizes tool execution failures.
type ToolError struct {
	Tool    string `json:"tool"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError builds a ToolError.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{Tool: tool, Message: message, Code: code}
}
