package tool

// CompanionToolset assembles the full tool set for a resolved subject
// conversation.
func CompanionToolset(deps *Deps) []Tool {
	return []Tool{
		NewGetLocalTime(deps),
		NewScheduleReminder(deps),
		NewWebSearch(deps),
		NewMovieRecommendation(deps),
		NewScheduleTask(deps),
		NewGetScheduledTasks(deps),
		NewDeleteScheduledTask(deps),
		NewLogWellbeingCheckin(deps),
	}
}

// OnboardingToolset returns the tool set for delegate (family member)
// calls. Onboarding is a guided conversation without device or automation
// access.
func OnboardingToolset(*Deps) []Tool {
	return nil
}
