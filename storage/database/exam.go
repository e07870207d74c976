package database

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/ozolsdev/examticket/core/exam"
)

// examRow is the relational shape of an exam document; the class map is kept
// as one jsonb column so both storage engines share the document layout.
type examRow struct {
	ID       string `db:"id"`
	ExamName string `db:"exam_name"`
	Classes  []byte `db:"classes"`
	Version  int64  `db:"version"`
}

func (r examRow) toDocument() (exam.Document, error) {
	doc := exam.Document{
		ID:       r.ID,
		ExamName: r.ExamName,
		Version:  r.Version,
		Classes:  make(map[string]exam.Class),
	}
	if len(r.Classes) > 0 {
		if err := json.Unmarshal(r.Classes, &doc.Classes); err != nil {
			return exam.Document{}, errors.Wrap(err, "decoding classes")
		}
	}
	return doc, nil
}

type examRepository struct {
	db *sqlx.DB
}

var _ exam.Repository = (*examRepository)(nil)

func NewExamRepository(db *sqlx.DB) *examRepository {
	return &examRepository{db: db}
}

func (repo *examRepository) FindExamByName(ctx context.Context, name string) (exam.Document, error) {
	return repo.getBy(ctx, "exam_name", name)
}

func (repo *examRepository) FindExamByID(ctx context.Context, id string) (exam.Document, error) {
	return repo.getBy(ctx, "id", id)
}

func (repo *examRepository) getBy(ctx context.Context, col, val string) (exam.Document, error) {
	var row examRow
	q := "SELECT id, exam_name, classes, version FROM exam_document WHERE " + col + " = $1"
	if err := repo.db.GetContext(ctx, &row, q, val); err != nil {
		if err == sql.ErrNoRows {
			return exam.Document{}, exam.ErrNotFound
		}
		return exam.Document{}, errors.Wrap(err, "finding exam")
	}
	return row.toDocument()
}

func (repo *examRepository) CreateExam(ctx context.Context, doc exam.Document) (exam.Document, error) {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	doc.Version = 1

	classes, err := json.Marshal(doc.Classes)
	if err != nil {
		return exam.Document{}, errors.Wrap(err, "encoding classes")
	}
	_, err = repo.db.ExecContext(ctx,
		"INSERT INTO exam_document (id, exam_name, classes, version) VALUES ($1, $2, $3, $4)",
		doc.ID, doc.ExamName, classes, doc.Version,
	)
	if err != nil {
		return exam.Document{}, errors.Wrap(err, "inserting exam")
	}
	return doc, nil
}

func (repo *examRepository) UpsertExamClasses(ctx context.Context, examID string, classes map[string]exam.Class) error {
	data, err := json.Marshal(classes)
	if err != nil {
		return errors.Wrap(err, "encoding classes")
	}
	res, err := repo.db.ExecContext(ctx,
		"UPDATE exam_document SET classes = $1, version = version + 1 WHERE id = $2",
		data, examID,
	)
	if err != nil {
		return errors.Wrap(err, "updating exam classes")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return exam.ErrNotFound
	}
	return nil
}

func (repo *examRepository) DistinctExamNames(ctx context.Context) ([]string, error) {
	var names []string
	err := repo.db.SelectContext(ctx, &names, "SELECT exam_name FROM exam_document ORDER BY exam_name")
	if err != nil {
		return nil, errors.Wrap(err, "listing exam names")
	}
	return names, nil
}

func (repo *examRepository) BatchUpdateStudentTimes(ctx context.Context, examName, className string, version int64, updates []exam.TimeUpdate) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}

	var applied int
	err := repo.withDoc(ctx, examName, func(doc *exam.Document) error {
		if doc.Version != version {
			return exam.ErrVersionConflict
		}
		class, ok := doc.Classes[className]
		if !ok {
			return exam.ErrClassNotFound
		}
		byID := make(map[string]exam.TimeUpdate, len(updates))
		for _, u := range updates {
			byID[u.StudentID] = u
		}
		for i := range class.Students {
			if u, ok := byID[class.Students[i].ID]; ok {
				class.Students[i].ExamStartTime = u.ExamStartTime
				class.Students[i].ExamEndTime = u.ExamEndTime
				applied++
			}
		}
		doc.Classes[className] = class
		return nil
	})
	if err != nil {
		return 0, err
	}
	return applied, nil
}

func (repo *examRepository) UpdateStudentAuditFields(ctx context.Context, scope exam.Scope, studentID string, fields exam.AuditFields) error {
	return repo.withDoc(ctx, scope.ExamName, func(doc *exam.Document) error {
		class, ok := doc.Classes[scope.ClassName]
		if !ok {
			return exam.ErrClassNotFound
		}
		for i := range class.Students {
			if class.Students[i].ID != studentID {
				continue
			}
			if fields.AuditStartTime != "" {
				class.Students[i].AuditStartTime = fields.AuditStartTime
			}
			if fields.AuditEndTime != "" {
				class.Students[i].AuditEndTime = fields.AuditEndTime
			}
			if fields.AuditElapsedTime != "" {
				class.Students[i].AuditElapsedTime = fields.AuditElapsedTime
			}
			if fields.AuditExtraTime != "" {
				class.Students[i].AuditExtraTime = fields.AuditExtraTime
			}
			doc.Classes[scope.ClassName] = class
			return nil
		}
		return exam.ErrStudentNotFound
	})
}

func (repo *examRepository) GetStudent(ctx context.Context, documentID, className, studentID string) (exam.Student, error) {
	doc, err := repo.FindExamByID(ctx, documentID)
	if err != nil {
		return exam.Student{}, err
	}
	class, ok := doc.Classes[className]
	if !ok {
		return exam.Student{}, exam.ErrClassNotFound
	}
	for _, st := range class.Students {
		if st.ID == studentID {
			return st, nil
		}
	}
	return exam.Student{}, exam.ErrStudentNotFound
}

// withDoc runs a read-modify-write cycle on one exam row. The row is locked
// for the duration of the transaction so the jsonb rewrite stays atomic.
func (repo *examRepository) withDoc(ctx context.Context, examName string, fn func(doc *exam.Document) error) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var row examRow
	q := "SELECT id, exam_name, classes, version FROM exam_document WHERE exam_name = $1 FOR UPDATE"
	if err = tx.GetContext(ctx, &row, q, examName); err != nil {
		if err == sql.ErrNoRows {
			return exam.ErrNotFound
		}
		return errors.Wrap(err, "finding exam")
	}
	doc, err := row.toDocument()
	if err != nil {
		return err
	}

	if err = fn(&doc); err != nil {
		return err
	}

	classes, err := json.Marshal(doc.Classes)
	if err != nil {
		return errors.Wrap(err, "encoding classes")
	}
	_, err = tx.ExecContext(ctx,
		"UPDATE exam_document SET classes = $1, version = version + 1 WHERE id = $2",
		classes, doc.ID,
	)
	if err != nil {
		return errors.Wrap(err, "updating exam")
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}
