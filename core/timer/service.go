package timer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/ozolsdev/examticket/core"
	"github.com/ozolsdev/examticket/core/exam"
)

// Audit timer coordinator: per-student start/stop of the live elapsed-time
// measurement. Stopping feeds the audited end time into the schedule engine
// so every later student shifts to absorb the overrun or underrun.

var (
	ErrBeforeScheduledStart = errors.New("cannot start before the student's scheduled start time")

	nowFunc = time.Now // mockable
)

type (
	// Rescheduler is the downstream slice of the exam service the coordinator
	// needs after a stop.
	Rescheduler interface {
		RecalculateAfter(ctx context.Context, documentID, className, studentID string) (int, error)
	}

	// BrakeReleaser ends any pause still active for the class when the
	// proctor explicitly stops a session.
	BrakeReleaser interface {
		Release(ctx context.Context, examName, className string) error
	}

	StartRequest struct {
		DocumentID  string `json:"documentId" validate:"required"`
		ClassName   string `json:"className" validate:"required"`
		StudentUUID string `json:"studentUUID" validate:"required"`
	}

	StopRequest struct {
		DocumentID  string `json:"documentId" validate:"required"`
		ClassName   string `json:"className" validate:"required"`
		StudentUUID string `json:"studentUUID" validate:"required"`
	}

	StartResult struct {
		AuditStartTime string `json:"auditStartTime"`
		StartTimestamp int64  `json:"startTimestamp"` // Unix ms
	}

	StopResult struct {
		AuditEndTime     string `json:"auditEndTime"`
		AuditElapsedTime string `json:"auditElapsedTime"`
		AuditExtraTime   string `json:"auditExtraTime"`
		StopTimestamp    int64  `json:"stopTimestamp"` // Unix ms
		UpdatedStudents  int    `json:"updatedStudents"`
	}

	ServiceInterface interface {
		Start(ctx context.Context, req StartRequest) (StartResult, error)
		Stop(ctx context.Context, req StopRequest) (StopResult, error)
	}

	service struct {
		repo        exam.Repository
		rescheduler Rescheduler
		releaser    BrakeReleaser
		broadcaster core.Broadcaster
		logger      core.Logger

		mu      sync.Mutex
		running map[string]time.Time // studentUUID -> start instant
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(
	repo exam.Repository,
	rescheduler Rescheduler,
	releaser BrakeReleaser,
	broadcaster core.Broadcaster,
	logger core.Logger,
) ServiceInterface {
	return &service{
		repo:        repo,
		rescheduler: rescheduler,
		releaser:    releaser,
		broadcaster: broadcaster,
		logger:      logger,
		running:     make(map[string]time.Time),
	}
}

// Start records the audited start of a student's session. The
// before-scheduled-start guard is advisory: it protects the proctor flow, but
// a direct repository write can still bypass it.
func (svc *service) Start(ctx context.Context, req StartRequest) (StartResult, error) {
	student, scope, err := svc.lookup(ctx, req.DocumentID, req.ClassName, req.StudentUUID)
	if err != nil {
		return StartResult{}, err
	}

	now := nowFunc()
	if minutesOfDay(now) < exam.ParseTimeToMinutes(student.ExamStartTime) {
		return StartResult{}, ErrBeforeScheduledStart
	}

	auditStart := formatHM(now)
	if err = svc.repo.UpdateStudentAuditFields(ctx, scope, req.StudentUUID, exam.AuditFields{
		AuditStartTime: auditStart,
	}); err != nil {
		return StartResult{}, pkgerrors.Wrap(err, "persisting audit start time")
	}

	svc.mu.Lock()
	svc.running[req.StudentUUID] = now
	svc.mu.Unlock()

	startTimestamp := now.UnixNano() / int64(time.Millisecond)
	svc.broadcaster.Publish(core.ChannelTimer, core.EventTimerStarted, core.TimerStartedEvent{
		DocumentID:     req.DocumentID,
		StudentUUID:    req.StudentUUID,
		StartTimestamp: startTimestamp,
	})

	return StartResult{AuditStartTime: auditStart, StartTimestamp: startTimestamp}, nil
}

// Stop records the audited end, computes elapsed and extra (overrun beyond
// the originally scheduled allotment), rechains the downstream schedule from
// the audited end, and notifies the monitor screens. The live ticking clock
// on clients is optimistic display only; the values persisted here are
// authoritative.
func (svc *service) Stop(ctx context.Context, req StopRequest) (StopResult, error) {
	student, scope, err := svc.lookup(ctx, req.DocumentID, req.ClassName, req.StudentUUID)
	if err != nil {
		return StopResult{}, err
	}

	now := nowFunc()
	auditEnd := formatHM(now)

	svc.mu.Lock()
	startInstant, live := svc.running[req.StudentUUID]
	delete(svc.running, req.StudentUUID)
	svc.mu.Unlock()

	var elapsed time.Duration
	if live {
		elapsed = now.Sub(startInstant)
	} else {
		// process restarted mid-session or stop issued from another node:
		// fall back to the persisted audit start at minute granularity
		auditStart := student.AuditStartTime
		if auditStart == "" {
			auditStart = student.ExamStartTime
		}
		elapsed = time.Duration(exam.ParseTimeToMinutes(auditEnd)-exam.ParseTimeToMinutes(auditStart)) * time.Minute
	}
	if elapsed < 0 {
		elapsed = 0
	}

	scheduled := time.Duration(exam.ParseTimeToMinutes(student.ExamEndTime)-exam.ParseTimeToMinutes(student.ExamStartTime)) * time.Minute
	extra := elapsed - scheduled
	if extra < 0 {
		extra = 0
	}

	fields := exam.AuditFields{
		AuditEndTime:     auditEnd,
		AuditElapsedTime: exam.FormatClock(elapsed),
		AuditExtraTime:   exam.FormatClock(extra),
	}
	if err = svc.repo.UpdateStudentAuditFields(ctx, scope, req.StudentUUID, fields); err != nil {
		return StopResult{}, pkgerrors.Wrap(err, "persisting audit end time")
	}

	// rechain downstream slots from the just-audited end
	updated, err := svc.rescheduler.RecalculateAfter(ctx, req.DocumentID, req.ClassName, req.StudentUUID)
	if err != nil {
		return StopResult{}, pkgerrors.Wrap(err, "recalculating downstream schedule")
	}

	stopTimestamp := now.UnixNano() / int64(time.Millisecond)
	svc.broadcaster.Publish(core.ChannelTimer, core.EventTimerStopped, core.TimerStoppedEvent{
		DocumentID:    req.DocumentID,
		StudentUUID:   req.StudentUUID,
		StopTimestamp: stopTimestamp,
	})
	svc.broadcaster.Publish(core.ChannelStudentUpdates, core.EventStudentChanged, core.StudentChangedEvent{
		DocumentID:  req.DocumentID,
		StudentUUID: req.StudentUUID,
		ClassName:   req.ClassName,
	})

	// ending a session while paused ends the pause
	if err = svc.releaser.Release(ctx, scope.ExamName, scope.ClassName); err != nil {
		svc.logger.Warn(fmt.Sprintf("releasing brake for %s/%s: %v", scope.ExamName, scope.ClassName, err))
	}

	return StopResult{
		AuditEndTime:     fields.AuditEndTime,
		AuditElapsedTime: fields.AuditElapsedTime,
		AuditExtraTime:   fields.AuditExtraTime,
		StopTimestamp:    stopTimestamp,
		UpdatedStudents:  updated,
	}, nil
}

func (svc *service) lookup(ctx context.Context, documentID, className, studentID string) (exam.Student, exam.Scope, error) {
	doc, err := svc.repo.FindExamByID(ctx, documentID)
	if err != nil {
		return exam.Student{}, exam.Scope{}, err
	}
	cls, ok := doc.Classes[className]
	if !ok {
		return exam.Student{}, exam.Scope{}, exam.ErrClassNotFound
	}
	for _, s := range cls.Students {
		if s.ID == studentID {
			return s, exam.Scope{ExamName: doc.ExamName, ClassName: className}, nil
		}
	}
	return exam.Student{}, exam.Scope{}, exam.ErrStudentNotFound
}

func minutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

func formatHM(t time.Time) string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}
