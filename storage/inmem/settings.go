package inmemdb

import (
	"context"

	"github.com/ozolsdev/examticket/core/exam"
)

type settingsRepository struct {
	db *DB
}

var _ exam.SettingsRepository = (*settingsRepository)(nil)

func NewSettingsRepository(db *DB) *settingsRepository {
	return &settingsRepository{db: db}
}

func (repo *settingsRepository) GetCurrentSelection(ctx context.Context) (exam.Selection, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if repo.db.selection == nil {
		return exam.Selection{}, exam.ErrNoSelection
	}
	return *repo.db.selection, nil
}

func (repo *settingsRepository) SetCurrentSelection(ctx context.Context, sel exam.Selection) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	repo.db.selection = &sel
	return nil
}

func (repo *settingsRepository) GetDropdownSelection(ctx context.Context) (exam.DropdownSelection, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if repo.db.dropdown == nil {
		return exam.DropdownSelection{}, exam.ErrNoSelection
	}
	return *repo.db.dropdown, nil
}

func (repo *settingsRepository) SetDropdownSelection(ctx context.Context, sel exam.DropdownSelection) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	repo.db.dropdown = &sel
	return nil
}

func (repo *settingsRepository) GetUserState(ctx context.Context) (exam.UserState, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if repo.db.userState == nil {
		return exam.UserState{}, exam.ErrNoSelection
	}
	return *repo.db.userState, nil
}

func (repo *settingsRepository) SaveUserState(ctx context.Context, st exam.UserState) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	repo.db.userState = &st
	return nil
}
