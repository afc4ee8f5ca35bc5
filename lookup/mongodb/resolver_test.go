package mongodb

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestFromBSON(t *testing.T) {
	d128, err := primitive.ParseDecimal128("12.50")
	if err != nil {
		t.Fatal(err)
	}
	if got, ok := fromBSON(d128).(decimal.Decimal); !ok || !got.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("decimal128 = %v", fromBSON(d128))
	}

	if got := fromBSON(int32(7)); got != int64(7) {
		t.Errorf("int32 = %v (%T)", got, got)
	}

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if got, ok := fromBSON(primitive.NewDateTimeFromTime(at)).(time.Time); !ok || !got.Equal(at) {
		t.Errorf("datetime = %v", got)
	}

	id := primitive.NewObjectID()
	if got := fromBSON(id); got != id.Hex() {
		t.Errorf("object id = %v", got)
	}

	if got := fromBSON("plain"); got != "plain" {
		t.Errorf("string = %v", got)
	}
}
