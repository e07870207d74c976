package mongodb

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ozolsdev/examticket/core/exam"
)

// Settings singletons live in one collection as fixed-id documents.
const (
	selectionKey = "currentExamSelection"
	dropdownKey  = "dropdownSettings"
	userStateKey = "user-state"
)

type settingsRepository struct {
	coll *mongo.Collection
}

var _ exam.SettingsRepository = (*settingsRepository)(nil)

func NewSettingsRepository(db *mongo.Database) *settingsRepository {
	return &settingsRepository{coll: db.Collection(settingsCollection)}
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
	err := repo.coll.FindOne(ctx, bson.M{"_id": key}).Decode(dest)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return exam.ErrNoSelection
		}
		return errors.Wrapf(err, "reading %s", key)
	}
	return nil
}

func (repo *settingsRepository) set(ctx context.Context, key string, doc interface{}) error {
	_, err := repo.coll.UpdateOne(
		ctx,
		bson.M{"_id": key},
		bson.M{"$set": doc},
		options.Update().SetUpsert(true),
	)
	return errors.Wrapf(err, "writing %s", key)
}
