package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mindwell/database"
	"mindwell/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionName = "bookings"
	// slotIndexName is the partial unique index enforcing one slot-holding booking per
	// counselor/date/time. Duplicate-key errors naming it mean the slot is taken.
	slotIndexName   = "active_slot_unique"
	numberIndexName = "booking_number_unique"
)

// MongoBookingRepo implements BookingRepository using MongoDB.
type MongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo creates the repository and ensures its indexes.
func NewMongoBookingRepo(db *mongo.Database) (*MongoBookingRepo, error) {
	repo := &MongoBookingRepo{coll: db.Collection(collectionName)}
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

func (r *MongoBookingRepo) ensureIndexes() error {
	ctx, cancel := newContext(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		{
			Keys:    bson.D{{Key: "bookingNumber", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(numberIndexName),
		},
		{
			Keys: bson.D{
				{Key: "counselorId", Value: 1},
				{Key: "sessionDetails.date", Value: 1},
				{Key: "sessionDetails.time", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetName(slotIndexName).
				SetPartialFilterExpression(bson.M{"slotHeld": true}),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("user_created_idx"),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "sessionDetails.scheduledDate", Value: 1}},
			Options: options.Index().SetName("user_scheduled_idx"),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("user_status_idx"),
		},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}
	return nil
}

// Insert writes a new booking in a single document write. The slot index makes the
// conflict check and the write one atomic step.
func (r *MongoBookingRepo) Insert(ctx context.Context, b *models.Booking) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	b.SlotHeld = b.Status.HoldsSlot()
	if _, err := r.coll.InsertOne(ctx, b); err != nil {
		return mapWriteError("insert booking "+b.ID, err)
	}
	return nil
}

// mapWriteError translates duplicate-key errors on the slot and number indexes into repository
// sentinels. Anything else, including duplicates on other indexes, goes through Classify.
func mapWriteError(op string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		switch {
		case duplicateOn(err, numberIndexName):
			return fmt.Errorf("%s: %w", op, ErrDuplicateNumber)
		case duplicateOn(err, slotIndexName):
			return fmt.Errorf("%s: %w", op, ErrSlotTaken)
		}
	}
	return database.Classify(op, err)
}

func duplicateOn(err error, index string) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if strings.Contains(e.Message, index) {
				return true
			}
		}
	}
	return strings.Contains(err.Error(), index)
}

func (r *MongoBookingRepo) findOne(ctx context.Context, op string, filter bson.M) (*models.Booking, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var b models.Booking
	if err := r.coll.FindOne(ctx, filter).Decode(&b); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, database.Classify(op, err)
	}
	return &b, nil
}

func (r *MongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	return r.findOne(ctx, "get booking "+id, bson.M{"id": id})
}

func (r *MongoBookingRepo) GetByNumber(ctx context.Context, number string) (*models.Booking, error) {
	return r.findOne(ctx, "get booking "+number, bson.M{"bookingNumber": number})
}

// GetByNumberForUser scopes the lookup to the owning user.
func (r *MongoBookingRepo) GetByNumberForUser(ctx context.Context, number, userID string) (*models.Booking, error) {
	return r.findOne(ctx, "get booking "+number, bson.M{"bookingNumber": number, "userId": userID})
}
