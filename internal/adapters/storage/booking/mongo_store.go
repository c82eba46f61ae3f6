package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"smithagency/internal/adapters/storage"
	domain "smithagency/internal/domain/booking"
	"smithagency/internal/domain/pricing"
)

// CollectionName is the Mongo collection holding bookings.
const CollectionName = "bookings"

// MongoStore implements the booking Store interface on a MongoDB collection.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore creates a booking store on db's bookings collection.
// Timestamps are written as ISO-8601 strings.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(CollectionName, storage.ISOTimeCollection())}
}

// EnsureIndexes creates the unique checkout-session index and the client listing index.
// PRE: ctx is valid
// POST: Indexes exist; safe to call on every start
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	idxs := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "stripeCheckoutSessionId", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("unique_checkout_session").
				SetPartialFilterExpression(bson.M{"stripeCheckoutSessionId": bson.M{"$gt": ""}}),
		},
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("client_created"),
		},
	}
	if _, err := s.coll.Indexes().CreateMany(ctx, idxs); err != nil {
		return fmt.Errorf("create booking indexes: %w", err)
	}
	return nil
}

// NormalizeLegacyDeposits folds the deposit fallback chain into bookingFeeCentsPaid and
// stamps the standard rate on documents written before it was recorded.
// PRE: ctx is valid
// POST: Every booking has a positive bookingFeeCentsPaid and ratePerDayCents
func (s *MongoStore) NormalizeLegacyDeposits(ctx context.Context) (int64, error) {
	fee := bson.D{{Key: "$ifNull", Value: bson.A{"$bookingFeeCents", 0}}}
	deposits, err := s.coll.UpdateMany(ctx,
		bson.M{"$or": bson.A{
			bson.M{"bookingFeeCentsPaid": bson.M{"$exists": false}},
			bson.M{"bookingFeeCentsPaid": bson.M{"$lte": 0}},
		}},
		mongo.Pipeline{{{Key: "$set", Value: bson.D{{Key: "bookingFeeCentsPaid", Value: bson.D{{Key: "$cond", Value: bson.A{
			bson.D{{Key: "$gt", Value: bson.A{fee, 0}}},
			fee,
			pricing.DefaultDepositCents,
		}}}}}}}},
	)
	if err != nil {
		return 0, fmt.Errorf("normalize legacy deposits: %w", err)
	}
	rates, err := s.coll.UpdateMany(ctx,
		bson.M{"$or": bson.A{
			bson.M{"ratePerDayCents": bson.M{"$exists": false}},
			bson.M{"ratePerDayCents": bson.M{"$lte": 0}},
		}},
		bson.M{"$set": bson.M{"ratePerDayCents": pricing.DefaultRatePerDayCents}},
	)
	if err != nil {
		return deposits.ModifiedCount, fmt.Errorf("stamp legacy rates: %w", err)
	}
	return deposits.ModifiedCount + rates.ModifiedCount, nil
}

// NormalizeTimestamps rewrites BSON-date createdAt and updatedAt fields as ISO-8601 strings
// so the client listing sorts on a single type.
// POST: No booking carries a BSON date timestamp
func (s *MongoStore) NormalizeTimestamps(ctx context.Context) (int64, error) {
	var total int64
	for _, field := range []string{"createdAt", "updatedAt"} {
		res, err := s.coll.UpdateMany(ctx,
			bson.M{field: bson.M{"$type": "date"}},
			mongo.Pipeline{{{Key: "$set", Value: bson.D{{Key: field, Value: bson.D{{Key: "$dateToString", Value: bson.D{
				{Key: "date", Value: "$" + field},
				{Key: "format", Value: "%Y-%m-%dT%H:%M:%S.%LZ"},
			}}}}}}}},
		)
		if err != nil {
			return total, fmt.Errorf("normalize %s: %w", field, err)
		}
		total += res.ModifiedCount
	}
	return total, nil
}

// GetByID retrieves a booking by its ID.
// PRE: id is non-empty
// POST: Returns the booking or an error wrapping domain.ErrBookingNotFound
func (s *MongoStore) GetByID(ctx context.Context, id string) (domain.Booking, error) {
	var b domain.Booking
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Booking{}, fmt.Errorf("%w: %s", domain.ErrBookingNotFound, id)
	}
	return b, err
}

// GetByCheckoutSession retrieves the booking created for a checkout session.
// PRE: sessionID is non-empty
// POST: Returns the booking or an error wrapping domain.ErrBookingNotFound
func (s *MongoStore) GetByCheckoutSession(ctx context.Context, sessionID string) (domain.Booking, error) {
	var b domain.Booking
	err := s.coll.FindOne(ctx, bson.M{"stripeCheckoutSessionId": sessionID}).Decode(&b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Booking{}, fmt.Errorf("%w: checkout session %s", domain.ErrBookingNotFound, sessionID)
	}
	return b, err
}

// Create inserts a new booking.
// PRE: b has been validated
// POST: Booking persisted, or domain.ErrDuplicateCheckoutSession on a duplicate key
func (s *MongoStore) Create(ctx context.Context, b domain.Booking) error {
	if b.DatesNeeded == nil {
		b.DatesNeeded = []pricing.DateNeed{}
	}
	b.Currency = b.CurrencyOrDefault()
	_, err := s.coll.InsertOne(ctx, b)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateCheckoutSession, b.StripeCheckoutSessionID)
	}
	return err
}

// ListByClient returns a client's bookings, newest first.
// PRE: clientID is non-empty
// POST: Returns all bookings owned by the client
func (s *MongoStore) ListByClient(ctx context.Context, clientID string) ([]domain.Booking, error) {
	cur, err := s.coll.Find(ctx, bson.M{"clientId": clientID}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var out []domain.Booking
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// BackfillPaymentReferences writes each reference only where the stored value is still empty.
// PRE: id is non-empty
// POST: Returns true if any field was written
func (s *MongoStore) BackfillPaymentReferences(ctx context.Context, id string, refs domain.PaymentReferences, now time.Time) (bool, error) {
	fields := []struct{ name, value string }{
		{"stripeCustomerId", refs.CustomerID},
		{"stripePaymentMethodId", refs.PaymentMethodID},
	}
	var wrote bool
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		res, err := s.coll.UpdateOne(ctx,
			bson.M{"_id": id, f.name: bson.M{"$in": bson.A{"", nil}}},
			bson.M{"$set": bson.M{f.name: f.value, "updatedAt": now}},
		)
		if err != nil {
			return wrote, fmt.Errorf("backfill %s: %w", f.name, err)
		}
		wrote = wrote || res.ModifiedCount > 0
	}
	return wrote, nil
}

// MarkFinalPaid moves payment status to final_paid if it is not already.
// PRE: id is non-empty
// POST: Booking updated, or domain.ErrAlreadyFinalPaid / domain.ErrBookingNotFound
func (s *MongoStore) MarkFinalPaid(ctx context.Context, id string, amountCents int64, chargeID string, now time.Time) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "paymentStatus": bson.M{"$ne": domain.PaymentStatusFinalPaid}},
		bson.M{"$set": bson.M{
			"paymentStatus":              domain.PaymentStatusFinalPaid,
			"finalChargeCents":           amountCents,
			"finalChargePaymentIntentId": chargeID,
			"updatedAt":                  now,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 1 {
		return nil
	}
	n, err := s.coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrBookingNotFound, id)
	}
	return fmt.Errorf("%w: %s", domain.ErrAlreadyFinalPaid, id)
}

// IncrementFinalChargeAttempts bumps the attempt counter after a declined charge.
// PRE: id is non-empty
// POST: FinalChargeAttempts incremented by one
func (s *MongoStore) IncrementFinalChargeAttempts(ctx context.Context, id string, now time.Time) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"finalChargeAttempts": 1}, "$set": bson.M{"updatedAt": now}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", domain.ErrBookingNotFound, id)
	}
	return nil
}
