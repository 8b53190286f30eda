package recordsRepo

import (
	"context"
	"errors"
	"time"

	"meetwise/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// How far back to look when learning a recurring meeting's usual duration.
const recurringLookbackDays = 60

// Create inserts a booking record and returns its ID.
func (r *mongoRecordRepo) Create(ctx context.Context, record models.BookingRecord) (string, error) {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	_, err := r.coll.InsertOne(ctx, record)
	if err != nil {
		return "", err
	}
	return record.ID, nil
}

// GetByUserID fetches all booking records for a user, newest first.
func (r *mongoRecordRepo) GetByUserID(ctx context.Context, userID string) ([]models.BookingRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []models.BookingRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// MostFrequentDuration looks at the user's recent bookings whose title
// mentions the keyword and returns the most common duration. A single past
// booking is enough of a signal; zero means no pattern.
func (r *mongoRecordRepo) MostFrequentDuration(ctx context.Context, userID, keyword string) (int, error) {
	since := time.Now().AddDate(0, 0, -recurringLookbackDays)
	filter := bson.M{
		"userId":    userID,
		"title":     bson.M{"$regex": primitive.Regex{Pattern: keyword, Options: "i"}},
		"createdAt": bson.M{"$gte": since},
	}

	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var records []models.BookingRecord
	if err := cursor.All(ctx, &records); err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}
	if len(records) == 1 {
		return records[0].DurationMinutes, nil
	}

	counts := map[int]int{}
	best, bestCount := 0, 0
	for _, rec := range records {
		counts[rec.DurationMinutes]++
		if counts[rec.DurationMinutes] > bestCount {
			best, bestCount = rec.DurationMinutes, counts[rec.DurationMinutes]
		}
	}
	if bestCount < 2 {
		return 0, nil
	}
	return best, nil
}

// DeleteByID removes a booking record by ID.
func (r *mongoRecordRepo) DeleteByID(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return errors.New("record not found")
	}
	return nil
}
