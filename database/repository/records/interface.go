package recordsRepo

import (
	"context"

	"meetwise/database"
	"meetwise/models"

	"go.mongodb.org/mongo-driver/mongo"
)

type BookingRecordRepository interface {
	Create(ctx context.Context, record models.BookingRecord) (string, error)
	GetByUserID(ctx context.Context, userID string) ([]models.BookingRecord, error)
	MostFrequentDuration(ctx context.Context, userID, keyword string) (int, error)
	DeleteByID(ctx context.Context, id string) error
}

type mongoRecordRepo struct {
	coll *mongo.Collection
}

// NewMongoRecordRepo returns a new BookingRecordRepository instance using MongoDB.
func NewMongoRecordRepo() BookingRecordRepository {
	db := database.MongoClient.Database("meetwise")
	return &mongoRecordRepo{
		coll: db.Collection("booking_records"),
	}
}
