package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pageza/nutrilog/backend/internal/models"
)

func TestHub(t *testing.T) {
	hub := NewHub()

	var first, second []models.MealView
	var gotErr error
	id1 := hub.Register(func(v []models.MealView) { first = v }, func(err error) { gotErr = err })
	id2 := hub.Register(func(v []models.MealView) { second = v }, nil)
	assert.Equal(t, 2, hub.Len())

	views := []models.MealView{{ID: "a", Input: "rice"}}
	hub.Broadcast(views)
	assert.Equal(t, views, first)
	assert.Equal(t, views, second)

	// listeners get independent copies
	first[0].Input = "changed"
	assert.Equal(t, "rice", second[0].Input)
	assert.Equal(t, "rice", views[0].Input)

	hub.BroadcastError(errors.New("unavailable"))
	assert.EqualError(t, gotErr, "unavailable")

	hub.Unregister(id1)
	hub.Unregister(id1)
	assert.Equal(t, 1, hub.Len())

	hub.Broadcast(nil)
	assert.Equal(t, "changed", first[0].Input)
	assert.Empty(t, second)

	hub.Unregister(id2)
	assert.Zero(t, hub.Len())
}

func TestLocalNotifier(t *testing.T) {
	n := NewLocalNotifier()

	// pending signals are coalesced
	assert.NoError(t, n.Notify(context.Background()))
	assert.NoError(t, n.Notify(context.Background()))

	select {
	case <-n.Changes():
	default:
		t.Fatal("expected a pending change")
	}
	select {
	case <-n.Changes():
		t.Fatal("expected signals to be coalesced")
	default:
	}

	assert.NoError(t, n.Close())
	assert.NoError(t, n.Close())
	_, ok := <-n.Changes()
	assert.False(t, ok)
}
