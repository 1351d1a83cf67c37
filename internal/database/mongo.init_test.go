package database

import (
	"testing"

	authmodels "tamil_society/internal/api/auth/models"
	notifmodels "tamil_society/internal/api/notification/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func specsByName(t *testing.T, model interface{}) map[string]IndexSpec {
	t.Helper()
	specs, err := IndexSpecs(model)
	require.NoError(t, err)
	out := map[string]IndexSpec{}
	for _, s := range specs {
		out[s.Name] = s
	}
	return out
}

func TestIndexSpecs_Notification(t *testing.T) {
	specs := specsByName(t, notifmodels.Notification{})

	assert.Equal(t, bson.D{{Key: "recipientRef", Value: 1}, {Key: "startAt", Value: 1}}, specs["recipient_window"].Keys)
	assert.Equal(t, bson.D{{Key: "recipientRef", Value: 1}, {Key: "isRead", Value: 1}}, specs["recipient_unread"].Keys)
	assert.Equal(t, bson.D{{Key: "priorityRank", Value: -1}, {Key: "createdAt", Value: -1}}, specs["feed_order"].Keys)
	assert.Equal(t, bson.D{{Key: "sendEmail", Value: 1}, {Key: "createdAt", Value: 1}}, specs["pending_email"].Keys)
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}}, specs["createdAt_single"].Keys)
	assert.Equal(t, bson.D{{Key: "tags", Value: 1}}, specs["tags_single"].Keys)
}

func TestIndexSpecs_DeliveryLogTTL(t *testing.T) {
	specs := specsByName(t, &notifmodels.DeliveryLog{})

	ttl, ok := specs["createdAt_ttl"]
	require.True(t, ok)
	require.NotNil(t, ttl.TTL)
	assert.Equal(t, int32(7776000), *ttl.TTL)
}

func TestIndexSpecs_UniqueSparse(t *testing.T) {
	specs := specsByName(t, authmodels.User{})

	email := specs["email_unique"]
	assert.True(t, email.Unique)
	assert.True(t, email.Sparse)
	assert.Equal(t, bson.D{{Key: "email", Value: 1}}, email.Keys)
}

func TestIndexSpecs_InvalidTTL(t *testing.T) {
	type bad struct {
		At int64 `bson:"at" index:"ttl:soon"`
	}
	_, err := IndexSpecs(bad{})
	assert.Error(t, err)
}

func TestIndexSpec_Matches(t *testing.T) {
	seconds := int32(60)
	spec := IndexSpec{Name: "createdAt_ttl", Keys: bson.D{{Key: "createdAt", Value: 1}}, TTL: &seconds}

	assert.True(t, spec.matches(bson.M{"key": bson.M{"createdAt": int32(1)}, "expireAfterSeconds": int32(60)}))
	assert.False(t, spec.matches(bson.M{"key": bson.M{"createdAt": int32(1)}, "expireAfterSeconds": int32(30)}))
	assert.False(t, spec.matches(bson.M{"key": bson.M{"createdAt": int32(-1)}, "expireAfterSeconds": int32(60)}))
	assert.False(t, spec.matches(bson.M{"key": bson.M{"createdAt": int32(1)}, "unique": true, "expireAfterSeconds": int32(60)}))
}
