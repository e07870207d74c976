package exam

import (
	"github.com/go-playground/validator/v10"
)

// Field names below are the wire contract shared with the monitor clients and
// the document store; do not rename.

type (
	// Student is one exam-taker slot in a class sequence. The sequence order
	// is the exam-taking order: each student's scheduled start equals the
	// previous student's scheduled end, plus any intervening pause.
	Student struct {
		ID            string `json:"_id" bson:"_id"`
		Name          string `json:"name" bson:"name"`
		ExamDate      string `json:"examDate,omitempty" bson:"examDate,omitempty"`
		ExamStartTime string `json:"examStartTime" bson:"examStartTime"`
		ExamDuration  string `json:"examDuration" bson:"examDuration"` // minutes; parsed defensively
		ExamEndTime   string `json:"examEndTime" bson:"examEndTime"`   // always start + duration

		// proctor-recorded actuals
		AuditStartTime   string `json:"auditStartTime,omitempty" bson:"auditStartTime,omitempty"`
		AuditEndTime     string `json:"auditEndTime,omitempty" bson:"auditEndTime,omitempty"`
		AuditElapsedTime string `json:"auditElapsedTime,omitempty" bson:"auditElapsedTime,omitempty"` // "HH:MM:SS"
		AuditExtraTime   string `json:"auditExtraTime,omitempty" bson:"auditExtraTime,omitempty"`     // "HH:MM:SS"
	}

	// Class holds one class's ordered student sequence and its defaults.
	Class struct {
		Students      []Student `json:"students" bson:"students"`
		ExamDate      string    `json:"examDate,omitempty" bson:"examDate,omitempty"`
		ExamStartTime string    `json:"examStartTime,omitempty" bson:"examStartTime,omitempty"`
		ExamDuration  string    `json:"examDuration,omitempty" bson:"examDuration,omitempty"`
	}

	// Document is one exam, keyed by name, holding all of its classes.
	Document struct {
		ID       string           `json:"documentId" bson:"_id,omitempty"`
		ExamName string           `json:"examName" bson:"examName"`
		Classes  map[string]Class `json:"classes" bson:"classes"`
		Version  int64            `json:"-" bson:"version"` // optimistic-concurrency token
	}

	// ClassRecord is the flattened read model the monitor view consumes.
	ClassRecord struct {
		Students   []Student `json:"students"`
		ExamName   string    `json:"examName"`
		ClassName  string    `json:"className"`
		DocumentID string    `json:"documentId"`
	}

	// Selection is the singleton settings record driving what every connected
	// screen displays.
	Selection struct {
		DocumentID    string `json:"documentId" bson:"documentId"`
		SelectedClass string `json:"selectedClass" bson:"selectedClass"`
	}

	// DropdownSelection is the alternate selection-sync record, keyed by exam
	// name rather than document id.
	DropdownSelection struct {
		SelectedExam  string `json:"selectedExam" bson:"selectedExam"`
		SelectedClass string `json:"selectedClass" bson:"selectedClass"`
	}

	// UserState remembers the student a proctor last navigated to.
	UserState struct {
		LastSelectedStudentID string `json:"lastSelectedStudentId" bson:"lastSelectedStudentId"`
		DocumentID            string `json:"documentId" bson:"documentId"`
		ClassName             string `json:"className" bson:"className"`
	}

	// TimeUpdate is one entry of a recalculation change-set; the whole set is
	// persisted in a single batch write.
	TimeUpdate struct {
		StudentID     string `json:"studentId"`
		ExamStartTime string `json:"examStartTime"`
		ExamEndTime   string `json:"examEndTime"`
		ExamName      string `json:"examName"`
		ClassName     string `json:"className"`
	}

	// AuditFields carries the optional audit timestamps of a targeted
	// single-student update; empty fields are left untouched.
	AuditFields struct {
		AuditStartTime   string `json:"auditStartTime,omitempty"`
		AuditEndTime     string `json:"auditEndTime,omitempty"`
		AuditElapsedTime string `json:"auditElapsedTime,omitempty"`
		AuditExtraTime   string `json:"auditExtraTime,omitempty"`
	}
)

// ScheduledDurationMinutes parses the student's duration; malformed values
// yield ok=false and the student is skipped by the engine.
func (s Student) ScheduledDurationMinutes() (int, bool) {
	d, ok := parseDuration(s.ExamDuration)
	return d, ok
}

// NewExam is the data-entry payload populating (or extending) a class from a
// comma-separated name list.
type NewExam struct {
	ExamName      string `json:"examName" validate:"required"`
	ExamClass     string `json:"examClass" validate:"required"`
	StudentsText  string `json:"studentsText" validate:"required"`
	ExamDate      string `json:"examDate"`
	ExamStartTime string `json:"examStartTime" validate:"required,hhmm"`
	ExamDuration  string `json:"examDuration" validate:"required,numeric"`
}

func (ne NewExam) Validate(validate *validator.Validate) error {
	return validate.Struct(ne)
}
