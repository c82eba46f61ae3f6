package sharelink

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"smithagency/internal/adapters/storage"
	domain "smithagency/internal/domain/sharelink"
)

// Collection names.
const (
	LinksCollection  = "shareLinks"
	ClicksCollection = "shareLinkClicks"
)

// MongoStore implements the share link Store interface on MongoDB.
type MongoStore struct {
	links  *mongo.Collection
	clicks *mongo.Collection
}

// NewMongoStore creates a share link store on db.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		links:  db.Collection(LinksCollection, storage.ISOTimeCollection()),
		clicks: db.Collection(ClicksCollection, storage.ISOTimeCollection()),
	}
}

// EnsureIndexes creates the one-link-per-booking index and the click lookup index.
// POST: Indexes exist; safe to call on every start
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	if _, err := s.links.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "bookingId", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("unique_booking"),
	}); err != nil {
		return fmt.Errorf("create share link index: %w", err)
	}
	if _, err := s.clicks.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "shareLinkId", Value: 1}},
		Options: options.Index().SetName("share_link"),
	}); err != nil {
		return fmt.Errorf("create click index: %w", err)
	}
	return nil
}

// Create persists a new share link.
func (s *MongoStore) Create(ctx context.Context, l domain.ShareLink) error {
	_, err := s.links.InsertOne(ctx, l)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateBooking, l.BookingID)
	}
	return err
}

// GetByID retrieves a share link by its public id.
func (s *MongoStore) GetByID(ctx context.Context, id string) (domain.ShareLink, error) {
	var l domain.ShareLink
	err := s.links.FindOne(ctx, bson.M{"_id": id}).Decode(&l)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ShareLink{}, fmt.Errorf("%w: %s", domain.ErrShareLinkNotFound, id)
	}
	return l, err
}

// GetByBookingID retrieves the link created for a booking.
func (s *MongoStore) GetByBookingID(ctx context.Context, bookingID string) (domain.ShareLink, error) {
	var l domain.ShareLink
	err := s.links.FindOne(ctx, bson.M{"bookingId": bookingID}).Decode(&l)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ShareLink{}, fmt.Errorf("%w: booking %s", domain.ErrShareLinkNotFound, bookingID)
	}
	return l, err
}

// RecordClick appends a click.
func (s *MongoStore) RecordClick(ctx context.Context, c domain.Click) error {
	_, err := s.clicks.InsertOne(ctx, c)
	return err
}

// ListStats returns every link with its click count, newest first.
func (s *MongoStore) ListStats(ctx context.Context) ([]domain.Stats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: ClicksCollection},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "shareLinkId"},
			{Key: "as", Value: "clickDocs"},
		}}},
		{{Key: "$addFields", Value: bson.D{{Key: "clicks", Value: bson.D{{Key: "$size", Value: "$clickDocs"}}}}}},
		{{Key: "$project", Value: bson.D{{Key: "clickDocs", Value: 0}}}},
	}
	cur, err := s.links.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var out []domain.Stats
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
