package tool

import (
	"context"
	"encoding/json"
)

// NewGetLocalTime returns the tool that asks the caller's device for its
// current local time. Device clock beats server clock: the subject may be
// in any timezone.
func NewGetLocalTime(deps *Deps) *FunctionTool {
	return NewFunctionTool(
		"get_local_time",
		"Get the current local time of the user.",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(ctx context.Context, _ map[string]any) (any, error) {
			result, err := deps.performRPC(ctx, "get_local_time", "{}", deps.rpcTimeout())
			if err != nil {
				deps.logger().Warn("get_local_time dispatch failed", "error", err.Error())
				return "I encountered an error while trying to get the local time. Please try again later.", nil
			}
			return result, nil
		},
		func(o *FunctionToolOptions) { o.Logger = deps.logger() },
	)
}

type reminderArgs struct {
	Repeats bool   `json:"repeats" description:"Whether the notification should repeat."`
	WeekDay int    `json:"weekDay" description:"Day of the week (1=Sunday, 7=Saturday)."`
	Day     int    `json:"day" description:"Day of the month."`
	Year    int    `json:"year" description:"Year."`
	Hour    int    `json:"hour" description:"Hour (0-23)."`
	Minute  int    `json:"minute" description:"Minute (0-59)."`
	Month   int    `json:"month" description:"Month (1-12)."`
	Message string `json:"message" description:"The reminder message."`
	Title   string `json:"title" description:"The notification title."`
}

// reminderPayload is the device-side push notification request. The date
// components are nested under dateComponents as the device API expects.
type reminderPayload struct {
	Repeats        bool           `json:"repeats"`
	DateComponents map[string]int `json:"dateComponents"`
	Message        string         `json:"message"`
	Title          string         `json:"title"`
}

// NewScheduleReminder returns the tool that schedules a push notification
// on the caller's device. Phone call reminders go through schedule_task
// instead.
func NewScheduleReminder(deps *Deps) *FunctionTool {
	return NewFunctionToolFromStruct(
		"schedule_reminder_notification",
		"Schedule a reminder notification as a push notification. Use schedule_task for phone call reminders. Always use get_local_time first to get the user's current time.",
		reminderArgs{},
		func(ctx context.Context, args map[string]any) (any, error) {
			payload, err := json.Marshal(reminderPayload{
				Repeats: asBool(args["repeats"]),
				DateComponents: map[string]int{
					"weekDay": asInt(args["weekDay"]),
					"day":     asInt(args["day"]),
					"year":    asInt(args["year"]),
					"hour":    asInt(args["hour"]),
					"minute":  asInt(args["minute"]),
					"month":   asInt(args["month"]),
				},
				Message: asString(args["message"]),
				Title:   asString(args["title"]),
			})
			if err != nil {
				return nil, err
			}

			result, err := deps.performRPC(ctx, "schedule_reminder_notification", string(payload), deps.rpcTimeout())
			if err != nil {
				deps.logger().Warn("schedule_reminder_notification dispatch failed", "error", err.Error())
				return "I encountered an error while trying to schedule the reminder notification. Please try again later.", nil
			}
			return result, nil
		},
		func(o *FunctionToolOptions) { o.Logger = deps.logger() },
	)
}

// JSON-decoded arguments arrive as float64/bool/string.

func asInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return 0
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
