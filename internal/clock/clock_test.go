package clock

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNow(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 10, 0, 0, 123456789, time.FixedZone("x", 3600))
	restore := SetNowForTest(func() time.Time { return fixed })
	defer restore()

	want := time.Date(2024, 3, 1, 9, 0, 0, 123000000, time.UTC)
	if got := Now(); !got.Equal(want) || got.Location() != time.UTC {
		t.Fatalf("Now() = %v, want %v", got, want)
	}
}

func TestTimestamp(t *testing.T) {
	fixed := time.Unix(1700000000, 0)
	restore := SetNowForTest(func() time.Time { return fixed })
	defer restore()

	first, second := Timestamp(), Timestamp()
	if first.T != 1700000000 || second.T != first.T {
		t.Fatalf("Timestamp() seconds = %d, %d, want 1700000000", first.T, second.T)
	}
	if second.I != first.I+1 {
		t.Fatalf("Timestamp() increments = %d, %d, want consecutive", first.I, second.I)
	}

	fixed = time.Unix(1700000001, 0)
	if got := Timestamp(); got != (primitive.Timestamp{T: 1700000001, I: 1}) {
		t.Fatalf("Timestamp() = %v, want {1700000001 1}", got)
	}
}
