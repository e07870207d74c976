package core

// Broadcast channels and events shared by all connected monitor screens.
// Events are cache-invalidation hints: apart from the inline payload fields
// below, receivers re-fetch the referenced entity from storage rather than
// trusting the event as data.
const (
	ChannelExamUpdates     = "exam-updates"
	ChannelDropdownUpdates = "dropdown-updates"
	ChannelStudentUpdates  = "student-updates"
	ChannelExamBreak       = "exam-break-updates"
	ChannelTimer           = "timer-channel"

	EventExamChanged        = "exam-changed"
	EventDropdownChange     = "dropdown-change"
	EventStudentChanged     = "student-changed"
	EventBreakStatusChanged = "break-status-changed"
	EventTimerStarted       = "timer-started"
	EventTimerStopped       = "timer-stopped"
)

type (
	// Broadcaster publishes fire-and-forget events; delivery is neither
	// acknowledged nor ordered across channels. Implementations log failures
	// instead of returning them.
	Broadcaster interface {
		Publish(channel, event string, payload interface{})
	}

	// Subscriber is the receiving side of the broadcast service.
	Subscriber interface {
		Subscribe(channel string) Subscription
	}

	Subscription interface {
		Bind(event string, handler func(payload interface{}))
		UnbindAll()
		Unsubscribe()
	}
)

// Event payloads. Field names are the wire contract; do not rename.
type (
	ExamChangedEvent struct {
		DocumentID    string `json:"documentId"`
		SelectedClass string `json:"selectedClass"`
	}

	DropdownChangeEvent struct {
		SelectedExam     string `json:"selectedExam"`
		SelectedClass    string `json:"selectedClass"`
		OldSelectedExam  string `json:"oldSelectedExam"`
		OldSelectedClass string `json:"oldSelectedClass"`
	}

	StudentChangedEvent struct {
		DocumentID  string `json:"documentId"`
		StudentUUID string `json:"studentUUID"`
		ClassName   string `json:"className"`
	}

	BreakStatusChangedEvent struct {
		DocumentID    string `json:"documentId"`
		StudentUUID   string `json:"studentUUID"`
		IsBreakActive bool   `json:"isBreakActive"`
	}

	TimerStartedEvent struct {
		DocumentID     string `json:"documentId"`
		StudentUUID    string `json:"studentUUID"`
		StartTimestamp int64  `json:"startTimestamp"` // Unix ms
	}

	TimerStoppedEvent struct {
		DocumentID    string `json:"documentId"`
		StudentUUID   string `json:"studentUUID"`
		StopTimestamp int64  `json:"stopTimestamp"` // Unix ms
	}
)
