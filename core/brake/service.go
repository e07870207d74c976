package brake

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/ozolsdev/examticket/core"
	"github.com/ozolsdev/examticket/core/exam"
)

// Pause state machine: Idle -> Active -> Idle. Activation shifts every
// remaining student's schedule forward; deactivation fires automatically at
// wall-clock pause end, or explicitly when a proctor ends a session mid-pause.

var nowFunc = time.Now // mockable

type (
	// Shifter is the slice of the exam service that pushes schedules past a
	// pause.
	Shifter interface {
		PauseShift(ctx context.Context, examName, className string, pauseStartMinutes, pauseEndMinutes int) (int, error)
	}

	StartRequest struct {
		ExamName     string `json:"examName" validate:"required"`
		ClassName    string `json:"className" validate:"required"`
		DocumentID   string `json:"documentId"`
		StudentUUID  string `json:"studentUUID"`
		BrakeMinutes string `json:"brakeMinutes" validate:"required,numeric"`
		StartTime    string `json:"startTime" validate:"required,hhmm"`
		EndTime      string `json:"endTime" validate:"required,hhmm"`
	}

	// Status is the view the monitor polls when a break event arrives.
	Status struct {
		IsBreakActive bool   `json:"isBreakActive"`
		StartTime     string `json:"startTime"`
		EndTime       string `json:"endTime"`
	}

	ServiceInterface interface {
		Start(ctx context.Context, req StartRequest) (Record, error)
		Release(ctx context.Context, examName, className string) error
		Status(ctx context.Context, studentUUID, documentID string) (Status, error)
		ReArm(ctx context.Context) error
		Close()
	}

	service struct {
		repo        Repository
		shifter     Shifter
		broadcaster core.Broadcaster
		logger      core.Logger

		mu     sync.Mutex
		timers map[string]*time.Timer // brake id -> pending deactivation
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, shifter Shifter, broadcaster core.Broadcaster, logger core.Logger) ServiceInterface {
	return &service{
		repo:        repo,
		shifter:     shifter,
		broadcaster: broadcaster,
		logger:      logger,
		timers:      make(map[string]*time.Timer),
	}
}

// Start activates a pause: persist first (a pause that was not durably
// recorded is never broadcast), then notify viewers, shift the downstream
// schedule and arm the deferred deactivation. A failed schedule shift is
// logged but does not undo the pause; it stays recorded and active.
func (svc *service) Start(ctx context.Context, req StartRequest) (Record, error) {
	interval, err := strconv.Atoi(req.BrakeMinutes)
	if err != nil {
		return Record{}, pkgerrors.Wrap(err, "parsing brake minutes")
	}

	rec := Record{
		ExamName:      req.ExamName,
		ClassName:     req.ClassName,
		DocumentID:    req.DocumentID,
		StudentUUID:   req.StudentUUID,
		StartTime:     req.StartTime,
		Interval:      interval,
		EndTime:       req.EndTime,
		IsBreakActive: true,
		Timestamp:     nowFunc().UTC(),
	}
	rec, err = svc.repo.UpsertBrake(ctx, rec)
	if err != nil {
		return Record{}, pkgerrors.Wrap(err, "persisting brake record")
	}

	svc.broadcaster.Publish(core.ChannelExamBreak, core.EventBreakStatusChanged, core.BreakStatusChangedEvent{
		DocumentID:    rec.DocumentID,
		StudentUUID:   rec.StudentUUID,
		IsBreakActive: true,
	})

	pauseStart := exam.ParseTimeToMinutes(rec.StartTime)
	pauseEnd := exam.ParseTimeToMinutes(rec.EndTime)
	if _, err = svc.shifter.PauseShift(ctx, rec.ExamName, rec.ClassName, pauseStart, pauseEnd); err != nil {
		// the pause takes effect for display even when the shift could not be
		// persisted; known inconsistency risk
		svc.logger.Warn(fmt.Sprintf("shifting schedule for brake %s: %v", rec.ID, err))
	}

	svc.arm(rec)
	return rec, nil
}

// arm schedules the automatic deactivation at wall-clock pause end. A delay
// already elapsed means the pause is treated as immediately idle, with no
// transition event.
func (svc *service) arm(rec Record) {
	delay := untilClock(rec.EndTime, nowFunc())
	if delay <= 0 {
		return
	}

	svc.mu.Lock()
	if t, ok := svc.timers[rec.ID]; ok {
		t.Stop()
	}
	svc.timers[rec.ID] = time.AfterFunc(delay, func() {
		svc.mu.Lock()
		delete(svc.timers, rec.ID)
		svc.mu.Unlock()
		svc.deactivate(context.Background(), rec)
	})
	svc.mu.Unlock()
}

func (svc *service) deactivate(ctx context.Context, rec Record) {
	if err := svc.repo.SetBrakeActive(ctx, rec.ID, false); err != nil {
		svc.logger.Error(fmt.Sprintf("deactivating brake %s: %v", rec.ID, err), err)
		return
	}
	svc.broadcaster.Publish(core.ChannelExamBreak, core.EventBreakStatusChanged, core.BreakStatusChangedEvent{
		DocumentID:    rec.DocumentID,
		StudentUUID:   rec.StudentUUID,
		IsBreakActive: false,
	})
}

// Release ends a pause ahead of its wall-clock expiry (the explicit
// timer-stop path). A class with no active pause is a no-op.
func (svc *service) Release(ctx context.Context, examName, className string) error {
	rec, err := svc.repo.FindBrake(ctx, examName, className)
	if pkgerrors.Cause(err) == ErrNotFound {
		return nil
	}
	if err != nil {
		return pkgerrors.Wrap(err, "finding brake")
	}
	if !rec.IsBreakActive {
		return nil
	}

	svc.mu.Lock()
	if t, ok := svc.timers[rec.ID]; ok {
		t.Stop()
		delete(svc.timers, rec.ID)
	}
	svc.mu.Unlock()

	svc.deactivate(ctx, rec)
	return nil
}

// Status reports the pause the given student is closest to right now, for
// viewers reacting to a break-status-changed event.
func (svc *service) Status(ctx context.Context, studentUUID, documentID string) (Status, error) {
	brakes, err := svc.repo.FindBrakesForStudent(ctx, studentUUID, documentID)
	if err != nil {
		return Status{}, err
	}
	if len(brakes) == 0 {
		return Status{}, ErrNotFound
	}

	now := minutesOfDay(nowFunc())
	closest := brakes[0]
	minDiff := absInt(exam.ParseTimeToMinutes(closest.StartTime) - now)
	for _, rec := range brakes[1:] {
		if diff := absInt(exam.ParseTimeToMinutes(rec.StartTime) - now); diff < minDiff {
			closest = rec
			minDiff = diff
		}
	}
	return Status{
		IsBreakActive: closest.IsBreakActive,
		StartTime:     closest.StartTime,
		EndTime:       closest.EndTime,
	}, nil
}

// ReArm restores the deferred deactivations after a process restart: pauses
// whose end is still ahead get a fresh timer, already expired ones are
// deactivated on the spot.
func (svc *service) ReArm(ctx context.Context) error {
	brakes, err := svc.repo.FindActiveBrakes(ctx)
	if err != nil {
		return pkgerrors.Wrap(err, "listing active brakes")
	}
	for _, rec := range brakes {
		if untilClock(rec.EndTime, nowFunc()) <= 0 {
			svc.deactivate(ctx, rec)
			continue
		}
		svc.arm(rec)
	}
	return nil
}

// Close cancels every pending deactivation timer.
func (svc *service) Close() {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	for id, t := range svc.timers {
		t.Stop()
		delete(svc.timers, id)
	}
}

// untilClock is the delay from now until the next occurrence of the "HH:MM"
// wall-clock instant today; negative when it already passed.
func untilClock(hhmm string, now time.Time) time.Duration {
	target := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).
		Add(time.Duration(exam.ParseTimeToMinutes(hhmm)) * time.Minute)
	return target.Sub(now)
}

func minutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
