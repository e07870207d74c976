package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/ozolsdev/examticket/core/brake"
)

type brakeRow struct {
	ID            string    `db:"id"`
	ExamName      string    `db:"exam_name"`
	ClassName     string    `db:"class_name"`
	DocumentID    string    `db:"document_id"`
	StudentUUID   string    `db:"student_uuid"`
	StartTime     string    `db:"start_time"`
	Interval      int       `db:"interval_min"`
	EndTime       string    `db:"end_time"`
	IsBreakActive bool      `db:"is_break_active"`
	Timestamp     time.Time `db:"ts"`
}

func (r brakeRow) toRecord() brake.Record {
	return brake.Record{
		ID:            r.ID,
		ExamName:      r.ExamName,
		ClassName:     r.ClassName,
		DocumentID:    r.DocumentID,
		StudentUUID:   r.StudentUUID,
		StartTime:     r.StartTime,
		Interval:      r.Interval,
		EndTime:       r.EndTime,
		IsBreakActive: r.IsBreakActive,
		Timestamp:     r.Timestamp,
	}
}

type brakeRepository struct {
	db *sqlx.DB
}

var _ brake.Repository = (*brakeRepository)(nil)

func NewBrakeRepository(db *sqlx.DB) *brakeRepository {
	return &brakeRepository{db: db}
}

const brakeCols = "id, exam_name, class_name, document_id, student_uuid, start_time, interval_min, end_time, is_break_active, ts"

func (repo *brakeRepository) UpsertBrake(ctx context.Context, rec brake.Record) (brake.Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	q := `INSERT INTO brake_record (` + brakeCols + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (exam_name, class_name) DO UPDATE SET
			document_id = EXCLUDED.document_id,
			student_uuid = EXCLUDED.student_uuid,
			start_time = EXCLUDED.start_time,
			interval_min = EXCLUDED.interval_min,
			end_time = EXCLUDED.end_time,
			is_break_active = EXCLUDED.is_break_active,
			ts = EXCLUDED.ts
		RETURNING ` + brakeCols
	var row brakeRow
	err := repo.db.GetContext(ctx, &row, q,
		rec.ID, rec.ExamName, rec.ClassName, rec.DocumentID, rec.StudentUUID,
		rec.StartTime, rec.Interval, rec.EndTime, rec.IsBreakActive, rec.Timestamp,
	)
	if err != nil {
		return brake.Record{}, errors.Wrap(err, "upserting brake")
	}
	return row.toRecord(), nil
}

func (repo *brakeRepository) SetBrakeActive(ctx context.Context, id string, active bool) error {
	res, err := repo.db.ExecContext(ctx, "UPDATE brake_record SET is_break_active = $1 WHERE id = $2", active, id)
	if err != nil {
		return errors.Wrap(err, "updating brake state")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return brake.ErrNotFound
	}
	return nil
}

func (repo *brakeRepository) FindBrake(ctx context.Context, examName, className string) (brake.Record, error) {
	var row brakeRow
	q := "SELECT " + brakeCols + " FROM brake_record WHERE exam_name = $1 AND class_name = $2"
	if err := repo.db.GetContext(ctx, &row, q, examName, className); err != nil {
		if err == sql.ErrNoRows {
			return brake.Record{}, brake.ErrNotFound
		}
		return brake.Record{}, errors.Wrap(err, "finding brake")
	}
	return row.toRecord(), nil
}

func (repo *brakeRepository) FindBrakesForStudent(ctx context.Context, studentUUID, documentID string) ([]brake.Record, error) {
	q := "SELECT " + brakeCols + " FROM brake_record WHERE student_uuid = $1 AND document_id = $2"
	return repo.find(ctx, q, studentUUID, documentID)
}

func (repo *brakeRepository) FindActiveBrakes(ctx context.Context) ([]brake.Record, error) {
	return repo.find(ctx, "SELECT "+brakeCols+" FROM brake_record WHERE is_break_active")
}

func (repo *brakeRepository) find(ctx context.Context, q string, args ...interface{}) ([]brake.Record, error) {
	var rows []brakeRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "finding brakes")
	}
	recs := make([]brake.Record, 0, len(rows))
	for _, r := range rows {
		recs = append(recs, r.toRecord())
	}
	return recs, nil
}
