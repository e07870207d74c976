package brake

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("brake record not found")

type (
	// Record is one exam-wide pause. A class has at most one record, reused
	// across pause instances; IsBreakActive tracks the Idle/Active cycle.
	Record struct {
		ID            string    `json:"_id" bson:"_id,omitempty"`
		ExamName      string    `json:"examName" bson:"examName"`
		ClassName     string    `json:"className" bson:"className"`
		DocumentID    string    `json:"documentId" bson:"documentId"`
		StudentUUID   string    `json:"studentUUID" bson:"studentUUID"`
		StartTime     string    `json:"startTime" bson:"startTime"`
		Interval      int       `json:"interval" bson:"interval"` // pause duration, minutes
		EndTime       string    `json:"endTime" bson:"endTime"`
		IsBreakActive bool      `json:"isBreakActive" bson:"isBreakActive"`
		Timestamp     time.Time `json:"timestamp" bson:"timestamp"`
	}

	Repository interface {
		// UpsertBrake creates or replaces the record keyed by exam+class.
		UpsertBrake(ctx context.Context, rec Record) (Record, error)
		SetBrakeActive(ctx context.Context, id string, active bool) error
		FindBrake(ctx context.Context, examName, className string) (Record, error)
		FindBrakesForStudent(ctx context.Context, studentUUID, documentID string) ([]Record, error)
		FindActiveBrakes(ctx context.Context) ([]Record, error)
	}
)
