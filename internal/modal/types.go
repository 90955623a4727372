package modal

type TaskStatus string

const (
	TaskInProgress              TaskStatus = "in-progress"
	TaskCompleted               TaskStatus = "completed"
	TaskErrored                 TaskStatus = "errored"
	TaskAwaitingHumanAssistance TaskStatus = "awaiting-human-assistance"
)

// Terminal reports whether the task can no longer be re-entered.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskErrored
}

type AssistanceType string

const (
	AssistanceText AssistanceType = "text"
)
