package mongodb

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ozolsdev/examticket/core/brake"
)

type brakeRepository struct {
	coll *mongo.Collection
}

var _ brake.Repository = (*brakeRepository)(nil)

func NewBrakeRepository(db *mongo.Database) *brakeRepository {
	return &brakeRepository{coll: db.Collection(brakeCollection)}
}

func (repo *brakeRepository) UpsertBrake(ctx context.Context, rec brake.Record) (brake.Record, error) {
	filter := bson.M{"examName": rec.ExamName, "className": rec.ClassName}
	update := bson.M{
		"$set": bson.M{
			"examName":      rec.ExamName,
			"className":     rec.ClassName,
			"documentId":    rec.DocumentID,
			"studentUUID":   rec.StudentUUID,
			"startTime":     rec.StartTime,
			"interval":      rec.Interval,
			"endTime":       rec.EndTime,
			"isBreakActive": rec.IsBreakActive,
			"timestamp":     rec.Timestamp,
		},
		"$setOnInsert": bson.M{"_id": primitive.NewObjectID().Hex()},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var saved brake.Record
	if err := repo.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&saved); err != nil {
		return brake.Record{}, errors.Wrap(err, "upserting brake")
	}
	return saved, nil
}

func (repo *brakeRepository) SetBrakeActive(ctx context.Context, id string, active bool) error {
	res, err := repo.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"isBreakActive": active}})
	if err != nil {
		return errors.Wrap(err, "updating brake state")
	}
	if res.MatchedCount == 0 {
		return brake.ErrNotFound
	}
	return nil
}

func (repo *brakeRepository) FindBrake(ctx context.Context, examName, className string) (brake.Record, error) {
	var rec brake.Record
	err := repo.coll.FindOne(ctx, bson.M{"examName": examName, "className": className}).Decode(&rec)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return rec, brake.ErrNotFound
		}
		return rec, errors.Wrap(err, "finding brake")
	}
	return rec, nil
}

func (repo *brakeRepository) FindBrakesForStudent(ctx context.Context, studentUUID, documentID string) ([]brake.Record, error) {
	return repo.find(ctx, bson.M{"studentUUID": studentUUID, "documentId": documentID})
}

func (repo *brakeRepository) FindActiveBrakes(ctx context.Context) ([]brake.Record, error) {
	return repo.find(ctx, bson.M{"isBreakActive": true})
}

func (repo *brakeRepository) find(ctx context.Context, filter bson.M) ([]brake.Record, error) {
	cur, err := repo.coll.Find(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "finding brakes")
	}
	var recs []brake.Record
	if err = cur.All(ctx, &recs); err != nil {
		return nil, errors.Wrap(err, "decoding brakes")
	}
	return recs, nil
}
