package models

import (
	"time"

	"github.com/google/uuid"
)

// TimestampLayout is the display form of a meal's creation time
const TimestampLayout = "2006/1/2 15:04:05"

// Unregistered is shown when a record has no creation time yet
const Unregistered = "unregistered"

// MealRecord is one logged meal with the nutrient text derived for it
type MealRecord struct {
	ID          string     `gorm:"type:varchar(64);primaryKey" json:"id" firestore:"-"`
	Input       string     `gorm:"type:text;not null" json:"input" firestore:"input"`
	GPTResponse string     `gorm:"column:gpt_response;type:text;not null" json:"gptResponse" firestore:"gptResponse"`
	Timestamp   *time.Time `gorm:"index" json:"timestamp" firestore:"timestamp"`
}

// TableName returns the table name for the MealRecord model
func (MealRecord) TableName() string {
	return "meals"
}

// NewMealID generates a new record identifier
func NewMealID() string {
	return uuid.New().String()
}

// MealView is a MealRecord in display form
type MealView struct {
	ID          string `json:"id"`
	Input       string `json:"input"`
	GPTResponse string `json:"gptResponse"`
	Timestamp   string `json:"timestamp"`
}

// FormatTimestamp renders t in loc, or Unregistered when t is nil
func FormatTimestamp(t *time.Time, loc *time.Location) string {
	if t == nil || t.IsZero() {
		return Unregistered
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(TimestampLayout)
}

// View converts the record to its display form
func (m MealRecord) View(loc *time.Location) MealView {
	return MealView{
		ID:          m.ID,
		Input:       m.Input,
		GPTResponse: m.GPTResponse,
		Timestamp:   FormatTimestamp(m.Timestamp, loc),
	}
}

// Views converts a slice of records, keeping their order
func Views(records []MealRecord, loc *time.Location) []MealView {
	views := make([]MealView, 0, len(records))
	for _, r := range records {
		views = append(views, r.View(loc))
	}
	return views
}

// ExportPayload is the body posted to the export webhook
type ExportPayload struct {
	Input       string `json:"input"`
	GPTResponse string `json:"gptResponse"`
	Timestamp   string `json:"timestamp"`
}

// Payload returns the webhook body for the view
func (v MealView) Payload() ExportPayload {
	return ExportPayload{
		Input:       v.Input,
		GPTResponse: v.GPTResponse,
		Timestamp:   v.Timestamp,
	}
}
