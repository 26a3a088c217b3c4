package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/subthread/companion/internal/util"
	"github.com/subthread/companion/logging"
)

// FunctionTool adapts a plain Go function into a Tool. It validates
// arguments against the declared schema before invoking the function and
// normalizes failures into *ToolError:
//
//	*ToolError (returned directly) -> forwarded unchanged
//	validation failure             -> Code "VALIDATION_ERROR"
//	other error                    -> Code "EXECUTION_ERROR"
//
// A FunctionTool has no mutable state after construction and is safe for
// concurrent use.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]any
	logger      logging.Logger
	fn          func(ctx context.Context, args map[string]any) (any, error)
}

// FunctionToolOptions configures a FunctionTool.
type FunctionToolOptions struct {
	Logger logging.Logger
}

// NewFunctionTool constructs a FunctionTool from an explicit schema.
func NewFunctionTool(
	name, description string,
	parameters map[string]any,
	fn func(ctx context.Context, args map[string]any) (any, error),
	optFns ...func(o *FunctionToolOptions),
) *FunctionTool {
	opts := FunctionToolOptions{Logger: logging.NoOpLogger{}}
	for _, optFn := range optFns {
		optFn(&opts)
	}
	return &FunctionTool{
		name:        name,
		description: description,
		parameters:  parameters,
		logger:      opts.Logger,
		fn:          fn,
	}
}

// NewFunctionToolFromStruct derives the parameter schema from a struct's
// exported fields, equivalent to util.CreateSchema(structType).
func NewFunctionToolFromStruct(
	name, description string,
	structType any,
	fn func(ctx context.Context, args map[string]any) (any, error),
	optFns ...func(o *FunctionToolOptions),
) *FunctionTool {
	return NewFunctionTool(name, description, util.CreateSchema(structType), fn, optFns...)
}

// Name returns the tool identifier used in function call routing.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the natural language description shown to the engine.
func (t *FunctionTool) Description() string { return t.description }

// Parameters returns the JSON schema describing expected arguments.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Call validates args against the schema, then invokes the wrapped
// function.
func (t *FunctionTool) Call(ctx context.Context, args map[string]any) (any, error) {
	start := time.Now()
	t.logger.Debug("tool call started", "tool", t.name)

	if err := util.ValidateParameters(args, t.parameters); err != nil {
		t.logger.Warn("tool argument validation failed", "tool", t.name, "error", err.Error())
		return nil, &ToolError{
			Tool:    t.name,
			Message: fmt.Sprintf("parameter validation failed: %v", err),
			Code:    "VALIDATION_ERROR",
			Details: err,
		}
	}

	result, err := t.fn(ctx, args)
	if err != nil {
		if toolErr, ok := err.(*ToolError); ok {
			t.logger.Error("tool call failed", "tool", t.name, "error", toolErr.Message)
			return nil, toolErr
		}
		t.logger.Error("tool call failed", "tool", t.name, "error", err.Error())
		return nil, &ToolError{Tool: t.name, Message: err.Error(), Code: "EXECUTION_ERROR"}
	}

	t.logger.Info("tool call completed", "tool", t.name, "duration_ms", time.Since(start).Milliseconds())
	return result, nil
}
