package db

import (
	"testing"

	"agrolink/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// A replacement delivery can coexist with a failed or cancelled one under
// the same orderid; the shared filter must exclude exactly the two
// replaceable terminals so lookups land on the replacement.
func TestActiveDeliveryFilterSkipsReplacedDeliveries(t *testing.T) {
	filter := ActiveDeliveryFilter("ord1")

	assert.Equal(t, "ord1", filter["orderid"])

	statusCond, ok := filter["status"].(bson.M)
	require.True(t, ok)
	excluded, ok := statusCond["$nin"].([]string)
	require.True(t, ok)

	assert.ElementsMatch(t, []string{models.DeliveryFailed, models.DeliveryCancelled}, excluded)
	assert.NotContains(t, excluded, models.DeliveryDelivered)
	assert.NotContains(t, excluded, models.DeliveryAssigned)
}

func TestIsDuplicateKeyError(t *testing.T) {
	dup := mongo.WriteException{
		WriteErrors: mongo.WriteErrors{{Code: 11000}},
	}
	other := mongo.WriteException{
		WriteErrors: mongo.WriteErrors{{Code: 121}},
	}

	assert.True(t, IsDuplicateKeyError(dup))
	assert.False(t, IsDuplicateKeyError(other))
	assert.False(t, IsDuplicateKeyError(nil))
}
