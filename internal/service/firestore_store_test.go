package service

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/nutrilog/backend/internal/models"
)

// Runs against the Firestore emulator only
func setupFirestoreStore(t *testing.T) *FirestoreMealStore {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	store, err := NewFirestoreMealStore(context.Background(), fmt.Sprintf("nutrilog-test-%d", time.Now().UnixNano()), time.UTC)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestFirestoreMealStore(t *testing.T) {
	store := setupFirestoreStore(t)
	ctx := context.Background()

	rec := &snapshotRecorder{}
	unsubscribe := store.Subscribe(rec.onChange, rec.onError)
	defer unsubscribe()

	added, err := store.Add(ctx, "rice", "1,2,3,4,5,6")
	require.NoError(t, err)
	assert.NotEmpty(t, added.ID)

	assert.Eventually(t, func() bool {
		views, _ := rec.last()
		return len(views) == 1 && views[0].ID == added.ID && views[0].Timestamp != models.Unregistered
	}, 5*time.Second, 50*time.Millisecond)

	views, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "rice", views[0].Input)

	require.NoError(t, store.Delete(ctx, added.ID))
	assert.NoError(t, store.Delete(ctx, added.ID))

	assert.Eventually(t, func() bool {
		views, n := rec.last()
		return n > 1 && len(views) == 0
	}, 5*time.Second, 50*time.Millisecond)
}
