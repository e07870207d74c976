package inmemdb

import (
	"context"
	"strconv"

	"github.com/ozolsdev/examticket/core/brake"
)

type brakeRepository struct {
	db *DB
}

var _ brake.Repository = (*brakeRepository)(nil)

func NewBrakeRepository(db *DB) *brakeRepository {
	return &brakeRepository{db: db}
}

func (repo *brakeRepository) UpsertBrake(ctx context.Context, rec brake.Record) (brake.Record, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for id, existing := range repo.db.brakes {
		if existing.ExamName == rec.ExamName && existing.ClassName == rec.ClassName {
			rec.ID = id
			stored := rec
			repo.db.brakes[id] = &stored
			return rec, nil
		}
	}
	repo.db.pkCount++
	rec.ID = strconv.Itoa(repo.db.pkCount)
	stored := rec
	repo.db.brakes[rec.ID] = &stored
	return rec, nil
}

func (repo *brakeRepository) SetBrakeActive(ctx context.Context, id string, active bool) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	rec, ok := repo.db.brakes[id]
	if !ok {
		return brake.ErrNotFound
	}
	rec.IsBreakActive = active
	return nil
}

func (repo *brakeRepository) FindBrake(ctx context.Context, examName, className string) (brake.Record, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, rec := range repo.db.brakes {
		if rec.ExamName == examName && rec.ClassName == className {
			return *rec, nil
		}
	}
	return brake.Record{}, brake.ErrNotFound
}

func (repo *brakeRepository) FindBrakesForStudent(ctx context.Context, studentUUID, documentID string) ([]brake.Record, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var brakes []brake.Record
	for _, rec := range repo.db.brakes {
		if rec.StudentUUID == studentUUID && rec.DocumentID == documentID {
			brakes = append(brakes, *rec)
		}
	}
	return brakes, nil
}

func (repo *brakeRepository) FindActiveBrakes(ctx context.Context) ([]brake.Record, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var brakes []brake.Record
	for _, rec := range repo.db.brakes {
		if rec.IsBreakActive {
			brakes = append(brakes, *rec)
		}
	}
	return brakes, nil
}
