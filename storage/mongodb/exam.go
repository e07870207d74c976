package mongodb

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ozolsdev/examticket/core/exam"
)

type examRepository struct {
	coll *mongo.Collection
}

var _ exam.Repository = (*examRepository)(nil)

func NewExamRepository(db *mongo.Database) *examRepository {
	return &examRepository{coll: db.Collection(examCollection)}
}

func (repo *examRepository) FindExamByName(ctx context.Context, name string) (exam.Document, error) {
	var doc exam.Document
	err := repo.coll.FindOne(ctx, bson.M{"examName": name}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return doc, exam.ErrNotFound
		}
		return doc, errors.Wrap(err, "finding exam by name")
	}
	return doc, nil
}

func (repo *examRepository) FindExamByID(ctx context.Context, id string) (exam.Document, error) {
	var doc exam.Document
	err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return doc, exam.ErrNotFound
		}
		return doc, errors.Wrap(err, "finding exam by id")
	}
	return doc, nil
}

func (repo *examRepository) CreateExam(ctx context.Context, doc exam.Document) (exam.Document, error) {
	if doc.ID == "" {
		doc.ID = primitive.NewObjectID().Hex()
	}
	doc.Version = 1
	if _, err := repo.coll.InsertOne(ctx, doc); err != nil {
		return exam.Document{}, errors.Wrap(err, "inserting exam")
	}
	return doc, nil
}

func (repo *examRepository) UpsertExamClasses(ctx context.Context, examID string, classes map[string]exam.Class) error {
	update := bson.M{
		"$set": bson.M{"classes": classes},
		"$inc": bson.M{"version": 1},
	}
	res, err := repo.coll.UpdateOne(ctx, bson.M{"_id": examID}, update)
	if err != nil {
		return errors.Wrap(err, "updating exam classes")
	}
	if res.MatchedCount == 0 {
		return exam.ErrNotFound
	}
	return nil
}

func (repo *examRepository) DistinctExamNames(ctx context.Context) ([]string, error) {
	vals, err := repo.coll.Distinct(ctx, "examName", bson.D{})
	if err != nil {
		return nil, errors.Wrap(err, "listing exam names")
	}
	names := make([]string, 0, len(vals))
	for _, v := range vals {
		if s, ok := v.(string); ok {
			names = append(names, s)
		}
	}
	return names, nil
}

// BatchUpdateStudentTimes writes a change-set as one ordered bulk write. Every
// per-student update is filtered on the version read by the caller; a final
// model bumps the version so a concurrent writer invalidates the next batch.
func (repo *examRepository) BatchUpdateStudentTimes(ctx context.Context, examName, className string, version int64, updates []exam.TimeUpdate) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}

	filter := bson.M{"examName": examName, "version": version}
	prefix := "classes." + className + ".students.$[s]."

	models := make([]mongo.WriteModel, 0, len(updates)+1)
	for _, u := range updates {
		m := mongo.NewUpdateOneModel().
			SetFilter(filter).
			SetUpdate(bson.M{"$set": bson.M{
				prefix + "examStartTime": u.ExamStartTime,
				prefix + "examEndTime":   u.ExamEndTime,
			}}).
			SetArrayFilters(options.ArrayFilters{Filters: []interface{}{bson.M{"s._id": u.StudentID}}})
		models = append(models, m)
	}
	models = append(models, mongo.NewUpdateOneModel().
		SetFilter(filter).
		SetUpdate(bson.M{"$inc": bson.M{"version": 1}}))

	res, err := repo.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true))
	if err != nil {
		return 0, errors.Wrap(err, "batch updating student times")
	}
	if res.MatchedCount == 0 {
		return 0, exam.ErrVersionConflict
	}
	return len(updates), nil
}

func (repo *examRepository) UpdateStudentAuditFields(ctx context.Context, scope exam.Scope, studentID string, fields exam.AuditFields) error {
	prefix := "classes." + scope.ClassName + ".students.$[s]."
	set := bson.M{}
	if fields.AuditStartTime != "" {
		set[prefix+"auditStartTime"] = fields.AuditStartTime
	}
	if fields.AuditEndTime != "" {
		set[prefix+"auditEndTime"] = fields.AuditEndTime
	}
	if fields.AuditElapsedTime != "" {
		set[prefix+"auditElapsedTime"] = fields.AuditElapsedTime
	}
	if fields.AuditExtraTime != "" {
		set[prefix+"auditExtraTime"] = fields.AuditExtraTime
	}
	if len(set) == 0 {
		return nil
	}

	res, err := repo.coll.UpdateOne(
		ctx,
		bson.M{"examName": scope.ExamName},
		bson.M{"$set": set},
		options.Update().SetArrayFilters(options.ArrayFilters{Filters: []interface{}{bson.M{"s._id": studentID}}}),
	)
	if err != nil {
		return errors.Wrap(err, "updating student audit fields")
	}
	if res.MatchedCount == 0 {
		return exam.ErrNotFound
	}
	return nil
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
