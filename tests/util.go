package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/ozolsdev/examticket/core/exam"
)

// NoopLogger discards everything; for wiring services in tests.
type NoopLogger struct{}

func (NoopLogger) Enable(bool)                        {}
func (NoopLogger) Debug(string, ...interface{})       {}
func (NoopLogger) Info(string, ...interface{})        {}
func (NoopLogger) Warn(string, ...interface{})        {}
func (NoopLogger) Error(string, ...interface{})       {}
func (NoopLogger) Fatal(msg string, _ ...interface{}) { panic(msg) }

// NewStudent builds one scheduled slot; end time derives from start+duration.
func NewStudent(name, startTime, duration string) exam.Student {
	st := exam.Student{
		ID:            uuid.New().String(),
		Name:          name,
		ExamStartTime: startTime,
		ExamDuration:  duration,
		ExamEndTime:   startTime,
	}
	if d, ok := st.ScheduledDurationMinutes(); ok {
		st.ExamEndTime = exam.CalculateEndTime(startTime, d)
	}
	return st
}

// NewChainedStudents builds a back-to-back sequence sharing one duration.
func NewChainedStudents(startTime, duration string, names ...string) []exam.Student {
	students := make([]exam.Student, 0, len(names))
	start := startTime
	for _, name := range names {
		st := NewStudent(name, start, duration)
		students = append(students, st)
		start = st.ExamEndTime
	}
	return students
}

// CreateExam persists a single-class document through the repository.
func CreateExam(t *testing.T, repo exam.Repository, examName, className string, students []exam.Student) exam.Document {
	t.Helper()

	var startTime, duration string
	if len(students) > 0 {
		startTime = students[0].ExamStartTime
		duration = students[0].ExamDuration
	}
	doc := exam.Document{
		ExamName: examName,
		Classes: map[string]exam.Class{
			className: {
				Students:      students,
				ExamStartTime: startTime,
				ExamDuration:  duration,
			},
		},
	}
	doc, err := repo.CreateExam(context.Background(), doc)
	if err != nil {
		t.Fatalf("CreateExam() failed: %v", err)
	}
	return doc
}
