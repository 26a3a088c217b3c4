package tool

import (
	"context"
	"fmt"

	"github.com/subthread/companion/directory"
)

type wellbeingArgs struct {
	Score int    `json:"score" description:"How the user is feeling today on a scale of 1 (very bad) to 5 (very good)."`
	Note  string `json:"note,omitempty" description:"Optional short note on why the user feels this way."`
}

// NewLogWellbeingCheckin returns the tool that records a mood check-in in
// the directory so family members can follow how the subject is doing.
func NewLogWellbeingCheckin(deps *Deps) *FunctionTool {
	return NewFunctionToolFromStruct(
		"log_wellbeing_checkin",
		"Record how the user is feeling today. Use this after the user has told you about their mood or wellbeing.",
		wellbeingArgs{},
		func(ctx context.Context, args map[string]any) (any, error) {
			score := asInt(args["score"])
			if score < 1 || score > 5 {
				return nil, &ToolError{
					Tool:    "log_wellbeing_checkin",
					Message: fmt.Sprintf("score must be between 1 and 5, got %d", score),
					Code:    "VALIDATION_ERROR",
				}
			}

			err := deps.Wellbeing.ReportWellbeing(ctx, directory.WellbeingEntry{
				SubjectID: deps.Caller.Subject.ID,
				Score:     score,
				Note:      asString(args["note"]),
			})
			if err != nil {
				deps.logger().Warn("log_wellbeing_checkin dispatch failed", "error", err.Error())
				return "I couldn't save the check-in right now. Please try again later.", nil
			}
			return "Thanks, I've noted how you're feeling today.", nil
		},
		func(o *FunctionToolOptions) { o.Logger = deps.logger() },
	)
}
