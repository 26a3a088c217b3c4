package tool

import (
	"context"
	"errors"

	"github.com/subthread/companion/automation"
)

type scheduleTaskArgs struct {
	CronExpression string `json:"cron_expression" description:"Cron expression for when to trigger."`
	Title          string `json:"title" description:"Title of the task."`
	Message        string `json:"message" description:"Topic to discuss during the call."`
}

// NewScheduleTask returns the tool that schedules an outbound companion
// call through the automation partner.
func NewScheduleTask(deps *Deps) *FunctionTool {
	return NewFunctionToolFromStruct(
		"schedule_task",
		"Schedule a phone call at a specific time to discuss a topic.",
		scheduleTaskArgs{},
		func(ctx context.Context, args map[string]any) (any, error) {
			ownerID, err := deps.Room.RemoteParticipant()
			if err != nil {
				deps.logger().Warn("schedule_task dispatch failed", "error", err.Error())
				return "I encountered an error while trying to schedule the call. Please try again later.", nil
			}

			_, err = deps.Scheduler.CreateScheduled(ctx, automation.Spec{
				Cron:        asString(args["cron_expression"]),
				PhoneNumber: deps.Caller.Subject.PhoneNumber,
				SubjectID:   ownerID,
				Message:     asString(args["message"]),
				Title:       asString(args["title"]),
			})
			if err != nil {
				deps.logger().Warn("schedule_task dispatch failed", "error", err.Error())
				return "I encountered an error while trying to schedule the call. Please try again later.", nil
			}
			return "I've scheduled the call for you. You'll receive a call at the specified time.", nil
		},
		func(o *FunctionToolOptions) { o.Logger = deps.logger() },
	)
}

// NewGetScheduledTasks returns the tool that lists the caller's scheduled
// calls.
func NewGetScheduledTasks(deps *Deps) *FunctionTool {
	return NewFunctionTool(
		"get_scheduled_tasks",
		"Get all scheduled tasks for the current user.",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(ctx context.Context, _ map[string]any) (any, error) {
			ownerID, err := deps.Room.RemoteParticipant()
			if err != nil {
				deps.logger().Warn("get_scheduled_tasks dispatch failed", "error", err.Error())
				return "I encountered an error while trying to get your scheduled tasks. Please try again later.", nil
			}

			workflows, err := deps.Scheduler.ListOwned(ctx, ownerID)
			if err != nil {
				deps.logger().Warn("get_scheduled_tasks dispatch failed", "error", err.Error())
				return "I encountered an error while trying to get your scheduled tasks. Please try again later.", nil
			}
			return workflows, nil
		},
		func(o *FunctionToolOptions) { o.Logger = deps.logger() },
	)
}

type deleteTaskArgs struct {
	WorkflowID string `json:"workflow_id" description:"The ID of the workflow to delete."`
}

// NewDeleteScheduledTask returns the tool that deletes one of the caller's
// scheduled calls. An id outside the caller's owned set yields a not-found
// message without touching the partner.
func NewDeleteScheduledTask(deps *Deps) *FunctionTool {
	return NewFunctionToolFromStruct(
		"delete_scheduled_task",
		"Delete a scheduled task by its workflow ID.",
		deleteTaskArgs{},
		func(ctx context.Context, args map[string]any) (any, error) {
			ownerID, err := deps.Room.RemoteParticipant()
			if err != nil {
				deps.logger().Warn("delete_scheduled_task dispatch failed", "error", err.Error())
				return "I encountered an error while trying to delete the scheduled task. Please try again later.", nil
			}

			err = deps.Scheduler.Delete(ctx, ownerID, asString(args["workflow_id"]))
			switch {
			case errors.Is(err, automation.ErrNotOwned):
				return "I couldn't find that scheduled task. Please make sure you're trying to delete one of your own tasks.", nil
			case err != nil:
				deps.logger().Warn("delete_scheduled_task dispatch failed", "error", err.Error())
				return "I encountered an error while trying to delete the scheduled task. Please try again later.", nil
			}
			return "I've successfully deleted the scheduled task.", nil
		},
		func(o *FunctionToolOptions) { o.Logger = deps.logger() },
	)
}
