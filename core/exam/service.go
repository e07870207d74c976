package exam

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/ozolsdev/examticket/core"
)

var (
	// errors
	ErrNotFound        = errors.New("exam not found")
	ErrClassNotFound   = errors.New("class not found")
	ErrStudentNotFound = errors.New("student not found")
	ErrVersionConflict = errors.New("schedule was modified concurrently")
	ErrNoSelection     = errors.New("no current exam selection")
)

type (
	// Scope narrows a targeted student update to one exam+class.
	Scope struct {
		ExamName  string
		ClassName string
	}

	Repository interface {
		FindExamByName(ctx context.Context, name string) (Document, error)
		FindExamByID(ctx context.Context, id string) (Document, error)
		CreateExam(ctx context.Context, doc Document) (Document, error)
		UpsertExamClasses(ctx context.Context, examID string, classes map[string]Class) error
		DistinctExamNames(ctx context.Context) ([]string, error)
		// BatchUpdateStudentTimes applies a whole change-set in one logical
		// write, conditional on the document version; it bumps the version on
		// success and returns ErrVersionConflict on a stale read.
		BatchUpdateStudentTimes(ctx context.Context, examName, className string, version int64, updates []TimeUpdate) (int, error)
		UpdateStudentAuditFields(ctx context.Context, scope Scope, studentID string, fields AuditFields) error
		GetStudent(ctx context.Context, documentID, className, studentID string) (Student, error)
	}

	// SettingsRepository holds the shared singleton records that keep every
	// connected screen on the same exam/class/student.
	SettingsRepository interface {
		GetCurrentSelection(ctx context.Context) (Selection, error)
		SetCurrentSelection(ctx context.Context, sel Selection) error
		GetDropdownSelection(ctx context.Context) (DropdownSelection, error)
		SetDropdownSelection(ctx context.Context, sel DropdownSelection) error
		GetUserState(ctx context.Context) (UserState, error)
		SaveUserState(ctx context.Context, st UserState) error
	}

	// CurrentSelection is the resolved view of the selection singleton.
	CurrentSelection struct {
		DocumentID    string `json:"documentId"`
		SelectedClass string `json:"selectedClass"`
		ExamName      string `json:"examName"`
	}

	ServiceInterface interface {
		CreateOrAppend(ctx context.Context, ne NewExam) (Document, error)
		GetByID(ctx context.Context, id string) (Document, error)
		GetByName(ctx context.Context, name string) (Document, error)
		ExamNames(ctx context.Context) ([]string, error)
		ClassRecord(ctx context.Context, documentID, className string) (ClassRecord, error)
		GetStudent(ctx context.Context, documentID, className, studentID string) (Student, error)

		Select(ctx context.Context, documentID, selectedClass string) error
		CurrentSelection(ctx context.Context) (CurrentSelection, error)
		SaveDropdown(ctx context.Context, sel DropdownSelection) error
		Dropdown(ctx context.Context) (DropdownSelection, error)
		SelectStudent(ctx context.Context, st UserState) error
		UserState(ctx context.Context) (UserState, error)

		RecalculateAfter(ctx context.Context, documentID, className, studentID string) (int, error)
		PauseShift(ctx context.Context, examName, className string, pauseStartMinutes, pauseEndMinutes int) (int, error)
	}

	service struct {
		repo        Repository
		settings    SettingsRepository
		broadcaster core.Broadcaster
		logger      core.Logger
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, settings SettingsRepository, broadcaster core.Broadcaster, logger core.Logger) ServiceInterface {
	return &service{
		repo:        repo,
		settings:    settings,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// CreateOrAppend populates a class from a comma-separated name list, chaining
// each student's slot from the previous one's end. Appending to an existing
// class continues the chain from its last scheduled end.
func (svc *service) CreateOrAppend(ctx context.Context, ne NewExam) (Document, error) {
	examName := core.CleanString(ne.ExamName)
	className := core.CleanString(ne.ExamClass)

	doc, err := svc.repo.FindExamByName(ctx, examName)
	switch pkgerrors.Cause(err) {
	case nil:
		cls := doc.Classes[className]
		anchor := ne.ExamStartTime
		if n := len(cls.Students); n > 0 {
			anchor = cls.Students[n-1].ExamEndTime
		} else {
			cls.ExamDate = ne.ExamDate
			cls.ExamStartTime = ne.ExamStartTime
			cls.ExamDuration = ne.ExamDuration
		}
		cls.Students = append(cls.Students, newStudents(ne, anchor)...)
		if doc.Classes == nil {
			doc.Classes = make(map[string]Class, 1)
		}
		doc.Classes[className] = cls
		if err = svc.repo.UpsertExamClasses(ctx, doc.ID, doc.Classes); err != nil {
			return Document{}, pkgerrors.Wrap(err, "updating exam classes")
		}
		return doc, nil

	case ErrNotFound:
		doc = Document{
			ExamName: examName,
			Classes: map[string]Class{
				className: {
					Students:      newStudents(ne, ne.ExamStartTime),
					ExamDate:      ne.ExamDate,
					ExamStartTime: ne.ExamStartTime,
					ExamDuration:  ne.ExamDuration,
				},
			},
		}
		doc, err = svc.repo.CreateExam(ctx, doc)
		if err != nil {
			return Document{}, pkgerrors.Wrap(err, "creating exam")
		}
		return doc, nil

	default:
		return Document{}, pkgerrors.Wrap(err, "finding exam")
	}
}

func newStudents(ne NewExam, anchorStart string) []Student {
	names := splitNames(ne.StudentsText)
	students := make([]Student, 0, len(names))
	duration, _ := parseDuration(ne.ExamDuration)
	start := ParseTimeToMinutes(anchorStart)
	for _, name := range names {
		end := start + duration
		students = append(students, Student{
			ID:            uuid.New().String(),
			Name:          name,
			ExamDate:      ne.ExamDate,
			ExamStartTime: FormatMinutesToTime(start),
			ExamDuration:  ne.ExamDuration,
			ExamEndTime:   FormatMinutesToTime(end),
		})
		start = end
	}
	return students
}

func (svc *service) GetByID(ctx context.Context, id string) (Document, error) {
	return svc.repo.FindExamByID(ctx, id)
}

func (svc *service) GetByName(ctx context.Context, name string) (Document, error) {
	return svc.repo.FindExamByName(ctx, core.CleanString(name))
}

func (svc *service) ExamNames(ctx context.Context) ([]string, error) {
	return svc.repo.DistinctExamNames(ctx)
}

func (svc *service) ClassRecord(ctx context.Context, documentID, className string) (ClassRecord, error) {
	doc, err := svc.repo.FindExamByID(ctx, documentID)
	if err != nil {
		return ClassRecord{}, err
	}
	cls, ok := doc.Classes[className]
	if !ok {
		return ClassRecord{}, ErrClassNotFound
	}
	return ClassRecord{
		Students:   cls.Students,
		ExamName:   doc.ExamName,
		ClassName:  className,
		DocumentID: doc.ID,
	}, nil
}

func (svc *service) GetStudent(ctx context.Context, documentID, className, studentID string) (Student, error) {
	return svc.repo.GetStudent(ctx, documentID, className, studentID)
}

// Select persists the shared selection singleton, then notifies every screen.
// Persist-first: a broadcast never advertises a selection that was not
// durably recorded.
func (svc *service) Select(ctx context.Context, documentID, selectedClass string) error {
	if _, err := svc.repo.FindExamByID(ctx, documentID); err != nil {
		return err
	}
	sel := Selection{DocumentID: documentID, SelectedClass: selectedClass}
	if err := svc.settings.SetCurrentSelection(ctx, sel); err != nil {
		return pkgerrors.Wrap(err, "persisting selection")
	}
	svc.broadcaster.Publish(core.ChannelExamUpdates, core.EventExamChanged, core.ExamChangedEvent{
		DocumentID:    documentID,
		SelectedClass: selectedClass,
	})
	return nil
}

func (svc *service) CurrentSelection(ctx context.Context) (CurrentSelection, error) {
	sel, err := svc.settings.GetCurrentSelection(ctx)
	if err != nil {
		return CurrentSelection{}, err
	}
	doc, err := svc.repo.FindExamByID(ctx, sel.DocumentID)
	if err != nil {
		return CurrentSelection{}, err
	}
	return CurrentSelection{
		DocumentID:    sel.DocumentID,
		SelectedClass: sel.SelectedClass,
		ExamName:      doc.ExamName,
	}, nil
}

// SaveDropdown is the alternate selection-sync path: the selection lives in a
// central settings record keyed by exam name, and the change event carries
// both the old and the new values.
func (svc *service) SaveDropdown(ctx context.Context, sel DropdownSelection) error {
	old, err := svc.settings.GetDropdownSelection(ctx)
	if err != nil && pkgerrors.Cause(err) != ErrNoSelection {
		return pkgerrors.Wrap(err, "reading dropdown selection")
	}
	if err = svc.settings.SetDropdownSelection(ctx, sel); err != nil {
		return pkgerrors.Wrap(err, "persisting dropdown selection")
	}
	svc.broadcaster.Publish(core.ChannelDropdownUpdates, core.EventDropdownChange, core.DropdownChangeEvent{
		SelectedExam:     sel.SelectedExam,
		SelectedClass:    sel.SelectedClass,
		OldSelectedExam:  old.SelectedExam,
		OldSelectedClass: old.SelectedClass,
	})
	return nil
}

func (svc *service) Dropdown(ctx context.Context) (DropdownSelection, error) {
	return svc.settings.GetDropdownSelection(ctx)
}

// SelectStudent records which student the proctor navigated to and tells the
// other screens to re-fetch that student.
func (svc *service) SelectStudent(ctx context.Context, st UserState) error {
	if err := svc.settings.SaveUserState(ctx, st); err != nil {
		return pkgerrors.Wrap(err, "persisting user state")
	}
	svc.broadcaster.Publish(core.ChannelStudentUpdates, core.EventStudentChanged, core.StudentChangedEvent{
		DocumentID:  st.DocumentID,
		StudentUUID: st.LastSelectedStudentID,
		ClassName:   st.ClassName,
	})
	return nil
}

func (svc *service) UserState(ctx context.Context) (UserState, error) {
	return svc.settings.GetUserState(ctx)
}

// RecalculateAfter rechains every student after the given one, anchored at
// its audited (or scheduled) end, and persists the change-set in one batch.
// The write is conditional on the document version; a stale read is retried
// once against fresh data before surfacing ErrVersionConflict.
func (svc *service) RecalculateAfter(ctx context.Context, documentID, className, studentID string) (int, error) {
	for attempt := 0; attempt < 2; attempt++ {
		doc, err := svc.repo.FindExamByID(ctx, documentID)
		if err != nil {
			return 0, err
		}
		cls, ok := doc.Classes[className]
		if !ok {
			return 0, ErrClassNotFound
		}
		idx := indexOf(cls.Students, studentID)
		if idx == -1 {
			return 0, ErrStudentNotFound
		}
		updates := RecalculateFrom(cls.Students, idx, AnchorEndMinutes(cls.Students[idx]), doc.ExamName, className)
		if len(updates) == 0 {
			return 0, nil
		}
		n, err := svc.repo.BatchUpdateStudentTimes(ctx, doc.ExamName, className, doc.Version, updates)
		if pkgerrors.Cause(err) == ErrVersionConflict {
			svc.logger.Warn(fmt.Sprintf("stale schedule read for %s/%s, retrying", doc.ExamName, className))
			continue
		}
		return n, err
	}
	return 0, ErrVersionConflict
}

// PauseShift pushes every student at or after the pause start forward,
// anchored at the end of the pause. Same conditional-write discipline as
// RecalculateAfter.
func (svc *service) PauseShift(ctx context.Context, examName, className string, pauseStartMinutes, pauseEndMinutes int) (int, error) {
	for attempt := 0; attempt < 2; attempt++ {
		doc, err := svc.repo.FindExamByName(ctx, examName)
		if err != nil {
			return 0, err
		}
		cls, ok := doc.Classes[className]
		if !ok {
			return 0, ErrClassNotFound
		}
		updates := ShiftForPause(cls.Students, pauseStartMinutes, pauseEndMinutes, doc.ExamName, className)
		if len(updates) == 0 {
			return 0, nil
		}
		n, err := svc.repo.BatchUpdateStudentTimes(ctx, doc.ExamName, className, doc.Version, updates)
		if pkgerrors.Cause(err) == ErrVersionConflict {
			svc.logger.Warn(fmt.Sprintf("stale schedule read for %s/%s, retrying", doc.ExamName, className))
			continue
		}
		return n, err
	}
	return 0, ErrVersionConflict
}

func indexOf(students []Student, studentID string) int {
	for i, s := range students {
		if s.ID == studentID {
			return i
		}
	}
	return -1
}

func splitNames(studentsText string) []string {
	var names []string
	for _, part := range strings.Split(studentsText, ",") {
		if name := core.CleanString(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}
