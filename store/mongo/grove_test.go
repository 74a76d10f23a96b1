package mongo

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xraph/depot"
	"github.com/xraph/depot/checklog"
	"github.com/xraph/depot/id"
)

func TestNewCheckLogStoreRequiresDatabase(t *testing.T) {
	_, err := NewCheckLogStore(nil, depot.Config{})
	require.Error(t, err)
}

func TestCheckLogModelTableMatchesCollection(t *testing.T) {
	f, ok := reflect.TypeOf(checkLogModel{}).FieldByName("BaseModel")
	require.True(t, ok)
	assert.Equal(t, "table:"+checkLogs.Name, f.Tag.Get("grove"))
}

func TestCheckLogModelDocumentShape(t *testing.T) {
	e := &checklog.Entry{
		ID:        id.NewCheckLogID(),
		Kind:      checklog.KindLoginFailed,
		Email:     "ana@example.com",
		CreatedAt: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
	}
	raw, err := bson.Marshal(checkLogToModel(e))
	require.NoError(t, err)

	var doc bson.M
	require.NoError(t, bson.Unmarshal(raw, &doc))
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"_id", "kind", "email", "created_at"}, keys)

	var back checkLogModel
	require.NoError(t, bson.Unmarshal(raw, &back))
	got := checkLogFromModel(&back)
	assert.Equal(t, e.ID.String(), got.ID.String())
	assert.Equal(t, e.Kind, got.Kind)
	assert.Equal(t, e.Email, got.Email)
	assert.True(t, e.CreatedAt.Equal(got.CreatedAt))
}
