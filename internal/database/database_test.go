package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/nutrilog/backend/config"
	"github.com/pageza/nutrilog/backend/internal/models"
)

func TestNewSQLite(t *testing.T) {
	cfg := &config.Config{StoreDriver: config.StoreSQLite, SQLitePath: ":memory:"}

	db, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, RunMigrations(db))
	assert.NoError(t, HealthCheck(context.Background(), db))

	now := time.Now().UTC()
	meal := models.MealRecord{ID: models.NewMealID(), Input: "rice", GPTResponse: "1,2,3,4,5,6", Timestamp: &now}
	require.NoError(t, db.Create(&meal).Error)

	var count int64
	require.NoError(t, db.Model(&models.MealRecord{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestNewRejectsFirestore(t *testing.T) {
	_, err := New(&config.Config{StoreDriver: config.StoreFirestore})
	assert.Error(t, err)
}

func TestNewRedisClientNotConfigured(t *testing.T) {
	client, err := NewRedisClient(&config.Config{})
	assert.NoError(t, err)
	assert.Nil(t, client)
}

func TestDropMeals(t *testing.T) {
	db, err := New(&config.Config{StoreDriver: config.StoreSQLite, SQLitePath: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, RunMigrations(db))

	require.NoError(t, DropMeals(db))
	assert.False(t, db.Migrator().HasTable(&models.MealRecord{}))

	require.NoError(t, RunMigrations(db))
	assert.True(t, db.Migrator().HasTable("meals"))
}
