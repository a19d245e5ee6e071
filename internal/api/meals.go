package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/nutrilog/backend/internal/middleware"
	"github.com/pageza/nutrilog/backend/internal/types"
)

type MealHandler struct {
	sessions SessionRegistry
	limiter  *middleware.RateLimiter
}

func NewMealHandler(sessions SessionRegistry, limiter *middleware.RateLimiter) *MealHandler {
	return &MealHandler{sessions: sessions, limiter: limiter}
}

func (h *MealHandler) RegisterRoutes(router *gin.RouterGroup) {
	meals := router.Group("/meals")
	meals.Use(middleware.SessionMiddleware(h.sessions))
	{
		meals.GET("", h.ListMeals)
		meals.POST("", h.limiter.RateLimitMiddleware(), h.AddMeal)
		meals.DELETE("/:id", h.DeleteMeal)
		meals.POST("/export", h.ExportMeals)
	}
}

func (h *MealHandler) ListMeals(c *gin.Context) {
	sess, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, MealsResponse{Meals: sess.Controller.State().Meals})
}

// AddMeal logs the session input, or the input given in the body
func (h *MealHandler) AddMeal(c *gin.Context) {
	sess, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}

	var req types.AddMealRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}
	if req.Input != nil {
		sess.Controller.SetInput(*req.Input)
	}

	sess.Controller.AddMeal(c.Request.Context())
	c.JSON(http.StatusOK, actionResponse(sess.Controller))
}

func (h *MealHandler) DeleteMeal(c *gin.Context) {
	sess, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}

	sess.Controller.DeleteMeal(c.Request.Context(), c.Param("id"))
	c.JSON(http.StatusOK, actionResponse(sess.Controller))
}

// ExportMeals sends every listed record to the spreadsheet webhook
func (h *MealHandler) ExportMeals(c *gin.Context) {
	sess, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}

	sess.Controller.HandleExport(c.Request.Context())
	c.JSON(http.StatusOK, actionResponse(sess.Controller))
}
