package mongodb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/onurcolak/checkin-dispatch-service/internal/domain"
)

func TestDocumentsRoundTrip(t *testing.T) {
	history := domain.DispatchHistory{
		"A-1": {Timestamp: "07/03/2025 10:00:00", Success: true},
		"B-2": {Timestamp: "07/03/2025 10:00:01", Success: true},
	}

	docs := toDocuments(history)

	assert.Len(t, docs, 2)
	assert.Equal(t, history, fromDocuments(docs))
}

func TestHistoryDocumentUsesDispatchIDAsKey(t *testing.T) {
	raw, err := bson.Marshal(historyDocument{ID: "A-1", Timestamp: "07/03/2025 10:00:00", Success: true})
	assert.NoError(t, err)

	var decoded bson.M
	assert.NoError(t, bson.Unmarshal(raw, &decoded))
	assert.Equal(t, "A-1", decoded["_id"])
	assert.Equal(t, "07/03/2025 10:00:00", decoded["timestamp"])
	assert.Equal(t, true, decoded["success"])
}
