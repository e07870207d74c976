package database

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/ozolsdev/examticket/core/exam"
)

const (
	selectionKey = "currentExamSelection"
	dropdownKey  = "dropdownSettings"
	userStateKey = "user-state"
)

type settingsRepository struct {
	db *sqlx.DB
}

var _ exam.SettingsRepository = (*settingsRepository)(nil)

func NewSettingsRepository(db *sqlx.DB) *settingsRepository {
	return &settingsRepository{db: db}
}

func (repo *settingsRepository) GetCurrentSelection(ctx context.Context) (exam.Selection, error) {
	var sel exam.Selection
	if err := repo.get(ctx, selectionKey, &sel); err != nil {
		return exam.Selection{}, err
	}
	return sel, nil
}

func (repo *settingsRepository) SetCurrentSelection(ctx context.Context, sel exam.Selection) error {
	return repo.set(ctx, selectionKey, sel)
}

func (repo *settingsRepository) GetDropdownSelection(ctx context.Context) (exam.DropdownSelection, error) {
	var sel exam.DropdownSelection
	if err := repo.get(ctx, dropdownKey, &sel); err != nil {
		return exam.DropdownSelection{}, err
	}
	return sel, nil
}

func (repo *settingsRepository) SetDropdownSelection(ctx context.Context, sel exam.DropdownSelection) error {
	return repo.set(ctx, dropdownKey, sel)
}

func (repo *settingsRepository) GetUserState(ctx context.Context) (exam.UserState, error) {
	var st exam.UserState
	if err := repo.get(ctx, userStateKey, &st); err != nil {
		return exam.UserState{}, err
	}
	return st, nil
}

func (repo *settingsRepository) SaveUserState(ctx context.Context, st exam.UserState) error {
	return repo.set(ctx, userStateKey, st)
}

func (repo *settingsRepository) get(ctx context.Context, key string, dest interface{}) error {
	var raw []byte
	err := repo.db.GetContext(ctx, &raw, "SELECT value FROM app_setting WHERE key = $1", key)
	if err != nil {
		if err == sql.ErrNoRows {
			return exam.ErrNoSelection
		}
		return errors.Wrapf(err, "reading %s", key)
	}
	return errors.Wrapf(json.Unmarshal(raw, dest), "decoding %s", key)
}

func (repo *settingsRepository) set(ctx context.Context, key string, doc interface{}) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrapf(err, "encoding %s", key)
	}
	_, err = repo.db.ExecContext(ctx,
		"INSERT INTO app_setting (key, value) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value",
		key, raw,
	)
	return errors.Wrapf(err, "writing %s", key)
}
