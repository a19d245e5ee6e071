package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTimestamp(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	ts := time.Date(2025, 6, 1, 3, 4, 5, 0, time.UTC)

	assert.Equal(t, "2025/6/1 12:04:05", FormatTimestamp(&ts, tokyo))
	assert.Equal(t, Unregistered, FormatTimestamp(nil, tokyo))
	assert.Equal(t, Unregistered, FormatTimestamp(&time.Time{}, tokyo))
}

func TestViewsKeepOrder(t *testing.T) {
	ts := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	records := []MealRecord{
		{ID: "b", Input: "rice", GPTResponse: "252,3.8,0.5,55.7,55.2,0.5", Timestamp: &ts},
		{ID: "a", Input: "natto", GPTResponse: "no reply"},
	}

	views := Views(records, time.UTC)

	require.Len(t, views, 2)
	assert.Equal(t, "b", views[0].ID)
	assert.Equal(t, "2025/6/1 00:00:00", views[0].Timestamp)
	assert.Equal(t, "a", views[1].ID)
	assert.Equal(t, Unregistered, views[1].Timestamp)
}

func TestPayloadFields(t *testing.T) {
	v := MealView{ID: "x", Input: "toast", GPTResponse: "1,2,3,4,5,6", Timestamp: "2025/6/1 00:00:00"}

	data, err := json.Marshal(v.Payload())
	require.NoError(t, err)
	assert.JSONEq(t, `{"input":"toast","gptResponse":"1,2,3,4,5,6","timestamp":"2025/6/1 00:00:00"}`, string(data))
}
