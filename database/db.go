package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"mindwell/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"
)

// MongoClient is the global MongoDB client instance.
var MongoClient *mongo.Client

// ErrUnavailable marks storage failures that are safe to retry.
var ErrUnavailable = errors.New("storage unavailable")

// InitDB initializes the MongoDB connection.
func InitDB() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(config.AppConfig.DatabaseURL).
		SetTimeout(5 * time.Second).
		// Transitions read then conditionally write; stale secondary reads would surface as
		// INVALID_STATE.
		SetReadPreference(readpref.Primary())
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		log.Fatalf("failed to connect to MongoDB: %v", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		log.Fatalf("failed to ping MongoDB: %v", err)
	}
	MongoClient = client
	log.Println("Connected to MongoDB successfully!")
}

// Database returns the configured application database.
func Database() *mongo.Database {
	return MongoClient.Database(config.AppConfig.DatabaseName)
}

func Disconnect(ctx context.Context) error {
	if MongoClient == nil {
		return nil
	}
	return MongoClient.Disconnect(ctx)
}

// Classify wraps transient driver errors with ErrUnavailable so callers can map them to 503.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsTransient(err) {
		return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func IsTransient(err error) bool {
	var serverSel mongo.ServerError
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, mongo.ErrClientDisconnected),
		mongo.IsTimeout(err),
		mongo.IsNetworkError(err):
		return true
	case errors.As(err, &serverSel) && serverSel.HasErrorLabel("RetryableWriteError"):
		return true
	}
	var selErr topology.ServerSelectionError
	return errors.As(err, &selErr)
}
