package inmemdb

import (
	"context"
	"strconv"

	"github.com/ozolsdev/examticket/core/exam"
)

type examRepository struct {
	db *DB
}

var _ exam.Repository = (*examRepository)(nil)

func NewExamRepository(db *DB) *examRepository {
	return &examRepository{db: db}
}

func (repo *examRepository) FindExamByName(ctx context.Context, name string) (exam.Document, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, doc := range repo.db.exams {
		if doc.ExamName == name {
			return copyDocument(*doc), nil
		}
	}
	return exam.Document{}, exam.ErrNotFound
}

func (repo *examRepository) FindExamByID(ctx context.Context, id string) (exam.Document, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if doc, ok := repo.db.exams[id]; ok {
		return copyDocument(*doc), nil
	}
	return exam.Document{}, exam.ErrNotFound
}

func (repo *examRepository) CreateExam(ctx context.Context, doc exam.Document) (exam.Document, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	repo.db.pkCount++
	doc.ID = strconv.Itoa(repo.db.pkCount)
	doc.Version = 1
	stored := copyDocument(doc)
	repo.db.exams[doc.ID] = &stored
	return copyDocument(stored), nil
}

func (repo *examRepository) UpsertExamClasses(ctx context.Context, examID string, classes map[string]exam.Class) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	doc, ok := repo.db.exams[examID]
	if !ok {
		return exam.ErrNotFound
	}
	doc.Classes = make(map[string]exam.Class, len(classes))
	for name, cls := range classes {
		doc.Classes[name] = copyClass(cls)
	}
	doc.Version++
	return nil
}

func (repo *examRepository) DistinctExamNames(ctx context.Context) ([]string, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	seen := make(map[string]bool, len(repo.db.exams))
	names := make([]string, 0, len(repo.db.exams))
	for _, doc := range repo.db.exams {
		if !seen[doc.ExamName] {
			seen[doc.ExamName] = true
			names = append(names, doc.ExamName)
		}
	}
	return names, nil
}

func (repo *examRepository) BatchUpdateStudentTimes(ctx context.Context, examName, className string, version int64, updates []exam.TimeUpdate) (int, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	var doc *exam.Document
	for _, d := range repo.db.exams {
		if d.ExamName == examName {
			doc = d
			break
		}
	}
	if doc == nil {
		return 0, exam.ErrNotFound
	}
	if doc.Version != version {
		return 0, exam.ErrVersionConflict
	}
	cls, ok := doc.Classes[className]
	if !ok {
		return 0, exam.ErrClassNotFound
	}

	byID := make(map[string]exam.TimeUpdate, len(updates))
	for _, u := range updates {
		byID[u.StudentID] = u
	}
	var updated int
	for i, s := range cls.Students {
		if u, ok := byID[s.ID]; ok {
			cls.Students[i].ExamStartTime = u.ExamStartTime
			cls.Students[i].ExamEndTime = u.ExamEndTime
			updated++
		}
	}
	doc.Classes[className] = cls
	doc.Version++
	return updated, nil
}

func (repo *examRepository) UpdateStudentAuditFields(ctx context.Context, scope exam.Scope, studentID string, fields exam.AuditFields) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, doc := range repo.db.exams {
		if doc.ExamName != scope.ExamName {
			continue
		}
		cls, ok := doc.Classes[scope.ClassName]
		if !ok {
			return exam.ErrClassNotFound
		}
		for i, s := range cls.Students {
			if s.ID != studentID {
				continue
			}
			if fields.AuditStartTime != "" {
				cls.Students[i].AuditStartTime = fields.AuditStartTime
			}
			if fields.AuditEndTime != "" {
				cls.Students[i].AuditEndTime = fields.AuditEndTime
			}
			if fields.AuditElapsedTime != "" {
				cls.Students[i].AuditElapsedTime = fields.AuditElapsedTime
			}
			if fields.AuditExtraTime != "" {
				cls.Students[i].AuditExtraTime = fields.AuditExtraTime
			}
			doc.Classes[scope.ClassName] = cls
			return nil
		}
		return exam.ErrStudentNotFound
	}
	return exam.ErrNotFound
}

func (repo *examRepository) GetStudent(ctx context.Context, documentID, className, studentID string) (exam.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	doc, ok := repo.db.exams[documentID]
	if !ok {
		return exam.Student{}, exam.ErrNotFound
	}
	cls, ok := doc.Classes[className]
	if !ok {
		return exam.Student{}, exam.ErrClassNotFound
	}
	for _, s := range cls.Students {
		if s.ID == studentID {
			return s, nil
		}
	}
	return exam.Student{}, exam.ErrStudentNotFound
}
