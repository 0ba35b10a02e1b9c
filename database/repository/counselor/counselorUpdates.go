package counselorRepo

import (
	"context"
	"errors"
	"time"

	"mindwell/database"
	"mindwell/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AssignPatient pushes the user only when no entry for them exists yet.
func (r *MongoCounselorRepo) AssignPatient(ctx context.Context, id, userID string, at time.Time) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	now := at.UTC()
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"id": id, "assignedPatients.userId": bson.M{"$ne": userID}},
		bson.M{
			"$push": bson.M{"assignedPatients": models.AssignedPatient{
				UserID:     userID,
				Status:     models.PatientStatusActive,
				AssignedAt: now,
			}},
			"$set": bson.M{"updatedAt": now},
		})
	if err != nil {
		return database.Classify("assign patient to "+id, err)
	}
	if res.MatchedCount == 0 {
		// Either already assigned or the counselor is gone.
		return r.exists(ctx, id)
	}
	return nil
}

func (r *MongoCounselorRepo) IncrementTotalSessions(ctx context.Context, id string) error {
	return r.updateOne(ctx, "increment total sessions "+id, bson.M{"id": id},
		bson.M{"$inc": bson.M{"statistics.totalSessions": 1}})
}

func (r *MongoCounselorRepo) IncrementCancelledSessions(ctx context.Context, id string) error {
	return r.updateOne(ctx, "increment cancelled sessions "+id, bson.M{"id": id},
		bson.M{"$inc": bson.M{"statistics.cancelledSessions": 1}})
}

// ApplyCompletion is guarded twice: the booking id must not be in processedCompletions and
// the document version must still be expectedVersion. Counters other than the review
// derived ones are only ever $inc'd so concurrent increments are never overwritten.
func (r *MongoCounselorRepo) ApplyCompletion(ctx context.Context, id string, expectedVersion int64, c models.Completion) (bool, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"id":                   id,
		"version":              expectedVersion,
		"processedCompletions": bson.M{"$ne": c.BookingID},
	}
	set := bson.M{"updatedAt": c.At.UTC()}
	update := bson.M{
		"$inc":      bson.M{"statistics.completedSessions": 1, "version": 1},
		"$addToSet": bson.M{"processedCompletions": c.BookingID},
	}
	if c.Review != nil {
		update["$push"] = bson.M{"reviews": c.Review}
		set["statistics.rating"] = c.Rating
		set["statistics.totalReviews"] = c.TotalReviews
	}
	update["$set"] = set

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, database.Classify("apply completion "+c.BookingID, err)
	}
	if res.MatchedCount == 1 {
		return true, nil
	}

	// Work out which guard failed.
	var current struct {
		Version              int64    `bson:"version"`
		ProcessedCompletions []string `bson:"processedCompletions"`
	}
	opts := options.FindOne().SetProjection(bson.M{"version": 1, "processedCompletions": 1})
	if err := r.coll.FindOne(ctx, bson.M{"id": id}, opts).Decode(&current); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, ErrNotFound
		}
		return false, database.Classify("apply completion "+c.BookingID, err)
	}
	for _, done := range current.ProcessedCompletions {
		if done == c.BookingID {
			return false, nil
		}
	}
	return false, ErrVersionConflict
}

func (r *MongoCounselorRepo) exists(ctx context.Context, id string) error {
	n, err := r.coll.CountDocuments(ctx, bson.M{"id": id}, options.Count().SetLimit(1))
	if err != nil {
		return database.Classify("counselor lookup "+id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
