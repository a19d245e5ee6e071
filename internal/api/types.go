package api

import (
	"github.com/pageza/nutrilog/backend/internal/models"
	"github.com/pageza/nutrilog/backend/internal/service"
)

// ActionResponse is returned by every session action and pushed on the stream
type ActionResponse struct {
	State  service.State   `json:"state"`
	Alerts []service.Alert `json:"alerts"`
}

// CreateSessionResponse is returned when a session is opened
type CreateSessionResponse struct {
	Token     string        `json:"token"`
	SessionID string        `json:"session_id"`
	ExpiresAt int64         `json:"expires_at"`
	State     service.State `json:"state"`
}

// MealsResponse lists the records a session currently shows
type MealsResponse struct {
	Meals []models.MealView `json:"meals"`
}

func actionResponse(ctrl *service.Controller) ActionResponse {
	return ActionResponse{State: ctrl.State(), Alerts: ctrl.DrainAlerts()}
}
