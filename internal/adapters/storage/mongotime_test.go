package storage

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

type stamped struct {
	CreatedAt time.Time `bson:"createdAt"`
}

func TestISOTimeRegistry_WritesStrings(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.FixedZone("EST", -5*3600))
	raw, err := bson.MarshalWithRegistry(ISOTimeRegistry(), stamped{CreatedAt: at})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	v := bson.Raw(raw).Lookup("createdAt")
	got, ok := v.StringValueOK()
	if !ok {
		t.Fatalf("createdAt stored as %s, want string", v.Type)
	}
	if got != "2024-03-01T14:30:00.000Z" {
		t.Errorf("createdAt = %q", got)
	}

	var back stamped
	if err := bson.UnmarshalWithRegistry(ISOTimeRegistry(), raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.CreatedAt.Equal(at) {
		t.Errorf("round trip = %v, want %v", back.CreatedAt, at)
	}
}

func TestISOTimeRegistry_ReadsLegacyDates(t *testing.T) {
	at := time.Date(2023, 11, 5, 18, 0, 0, 0, time.UTC)
	raw, err := bson.Marshal(stamped{CreatedAt: at})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back stamped
	if err := bson.UnmarshalWithRegistry(ISOTimeRegistry(), raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.CreatedAt.Equal(at) {
		t.Errorf("CreatedAt = %v, want %v", back.CreatedAt, at)
	}
}

func TestISOTimeLayout_SortsLikeTime(t *testing.T) {
	a := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	b := a.Add(500 * time.Millisecond)
	if !(a.Format(ISOTimeLayout) < b.Format(ISOTimeLayout)) {
		t.Errorf("%q should sort before %q", a.Format(ISOTimeLayout), b.Format(ISOTimeLayout))
	}
}
