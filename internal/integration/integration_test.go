package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/nutrilog/backend/config"
	"github.com/pageza/nutrilog/backend/internal/api"
	"github.com/pageza/nutrilog/backend/internal/mocks"
	"github.com/pageza/nutrilog/backend/internal/models"
	"github.com/pageza/nutrilog/backend/internal/service"
	"github.com/pageza/nutrilog/backend/internal/testhelpers"
)

// TestMealLogFlow drives the HTTP API against a sqlite store, a fake completion endpoint and a fake webhook
func TestMealLogFlow(t *testing.T) {
	gin.SetMode(gin.TestMode)

	completionAPI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"140,4,1,28,0,1"}}]}`))
	}))
	defer completionAPI.Close()

	var mu sync.Mutex
	var exported []models.ExportPayload
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p models.ExportPayload
		_ = json.NewDecoder(r.Body).Decode(&p)
		mu.Lock()
		exported = append(exported, p)
		mu.Unlock()
	}))
	defer webhook.Close()

	db := testhelpers.SetupSQLite(t)
	store := service.NewGormMealStore(db, nil, time.UTC)
	defer store.Close()

	completion, err := service.NewCompletionService(&config.Config{
		OpenAIAPIKey:          "sk-test",
		CompletionURL:         completionAPI.URL,
		CompletionModel:       "gpt-3.5-turbo",
		CompletionTemperature: 0.7,
	}, completionAPI.Client())
	require.NoError(t, err)
	exporter := service.NewExportService(webhook.URL, webhook.Client(), store, nil, false)
	sessions := service.NewSessionManager("integration-secret", time.Hour, func() *service.Controller {
		return service.NewController(completion, store, exporter)
	})
	defer sessions.CloseAll()

	router := gin.New()
	api.RegisterRoutes(router, sessions, nil)

	do := func(method, path, token string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := do(http.MethodPost, "/api/v1/sessions", "", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var sess api.CreateSessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sess))

	for _, input := range []string{"rice", "natto"} {
		w = do(http.MethodPost, "/api/v1/meals", sess.Token, map[string]string{"input": input})
		require.Equal(t, http.StatusOK, w.Code)
	}

	// the list follows the store asynchronously
	var meals api.MealsResponse
	require.Eventually(t, func() bool {
		w := do(http.MethodGet, "/api/v1/meals", sess.Token, nil)
		_ = json.Unmarshal(w.Body.Bytes(), &meals)
		return len(meals.Meals) == 2
	}, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, "rice", meals.Meals[0].Input)
	assert.Equal(t, "140,4,1,28,0,1", meals.Meals[0].GPTResponse)

	w = do(http.MethodPost, "/api/v1/meals/export", sess.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp api.ActionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []service.Alert{service.AlertSendComplete}, resp.Alerts)

	mu.Lock()
	require.Len(t, exported, 2)
	assert.Equal(t, "rice", exported[0].Input)
	assert.Equal(t, "natto", exported[1].Input)
	mu.Unlock()

	remaining, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

// TestSharedFeedAcrossReplicas checks that a write through one store reaches listeners of another
func TestSharedFeedAcrossReplicas(t *testing.T) {
	db, cfg := testhelpers.SetupPostgres(t)

	notifierA, err := service.NewPGNotifier(db, cfg.DSN())
	require.NoError(t, err)
	notifierB, err := service.NewPGNotifier(db, cfg.DSN())
	require.NoError(t, err)

	replicaA := service.NewGormMealStore(db, notifierA, time.UTC)
	defer replicaA.Close()
	replicaB := service.NewGormMealStore(db, notifierB, time.UTC)
	defer replicaB.Close()

	completion := new(mocks.MockCompletionService)
	completion.On("Nutrients", mock.Anything, "miso soup").Return("40,3,1,5,1,1")

	watcher := service.NewController(completion, replicaB, nil)
	watcher.Start()
	defer watcher.Close()

	writer := service.NewController(completion, replicaA, nil)
	writer.Start()
	defer writer.Close()

	writer.SetInput("miso soup")
	writer.AddMeal(context.Background())
	assert.Empty(t, writer.DrainAlerts())

	require.Eventually(t, func() bool {
		meals := watcher.State().Meals
		return len(meals) == 1 && meals[0].Input == "miso soup"
	}, 5*time.Second, 50*time.Millisecond)

	id := watcher.State().Meals[0].ID
	watcher.DeleteMeal(context.Background(), id)

	require.Eventually(t, func() bool {
		return len(writer.State().Meals) == 0
	}, 5*time.Second, 50*time.Millisecond)
}
