package counselorRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mindwell/database"
	"mindwell/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCounselorRepo implements CounselorRepository using MongoDB.
type MongoCounselorRepo struct {
	coll *mongo.Collection
}

func NewMongoCounselorRepo(db *mongo.Database) (*MongoCounselorRepo, error) {
	repo := &MongoCounselorRepo{coll: db.Collection("counselors")}
	if err := repo.ensureIndexes(); err != nil {
		return nil, err
	}
	return repo, nil
}

func newContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, timeout)
}

func (r *MongoCounselorRepo) ensureIndexes() error {
	ctx, cancel := newContext(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true).SetName("unique_id")},
		{
			Keys:    bson.D{{Key: "isActive", Value: 1}, {Key: "gender", Value: 1}, {Key: "statistics.rating", Value: -1}},
			Options: options.Index().SetName("active_gender_rating_idx"),
		},
		{Keys: bson.D{{Key: "specializations", Value: 1}}, Options: options.Index().SetName("specializations_idx")},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create counselor indexes: %w", err)
	}
	return nil
}

func (r *MongoCounselorRepo) Create(ctx context.Context, c *models.Counselor) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	if c.AssignedPatients == nil {
		c.AssignedPatients = []models.AssignedPatient{}
	}
	if c.Reviews == nil {
		c.Reviews = []models.Review{}
	}
	if c.ProcessedCompletions == nil {
		c.ProcessedCompletions = []string{}
	}
	if _, err := r.coll.InsertOne(ctx, c); err != nil {
		return database.Classify("create counselor "+c.ID, err)
	}
	return nil
}

func (r *MongoCounselorRepo) GetByID(ctx context.Context, id string) (*models.Counselor, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var c models.Counselor
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, database.Classify("get counselor "+id, err)
	}
	return &c, nil
}

// List returns active counselors matching filter, best rated first. Review bodies,
// patients and completion ids are projected out.
func (r *MongoCounselorRepo) List(ctx context.Context, filter models.CounselorFilter) ([]models.Counselor, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	query := bson.M{"isActive": true}
	if filter.Gender != "" {
		query["gender"] = filter.Gender
	}
	if filter.Specialization != "" {
		query["specializations"] = filter.Specialization
	}
	if filter.SessionType != "" {
		query["sessionTypes"] = filter.SessionType
	}
	if filter.AcceptingOnly {
		query["isVerified"] = true
		query["availability.allowsNewPatients"] = true
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "statistics.rating", Value: -1}, {Key: "name", Value: 1}}).
		SetProjection(bson.M{"reviews": 0, "processedCompletions": 0})
	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, database.Classify("list counselors", err)
	}
	defer cursor.Close(ctx)

	out := []models.Counselor{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, database.Classify("list counselors", err)
	}
	return out, nil
}

func (r *MongoCounselorRepo) SetActive(ctx context.Context, id string, active bool) error {
	return r.updateOne(ctx, "set counselor active "+id, bson.M{"id": id},
		bson.M{"$set": bson.M{"isActive": active, "updatedAt": time.Now().UTC()}})
}

func (r *MongoCounselorRepo) updateOne(ctx context.Context, op string, filter, update bson.M) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return database.Classify(op, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
