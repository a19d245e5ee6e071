package service

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/pageza/nutrilog/backend/internal/models"
)

// Alert is a message the user has to acknowledge
type Alert struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

const sendErrorTitle = "Send error"

var (
	AlertEmptyInput    = Alert{Title: "Input error", Message: "Please enter what you ate"}
	AlertAddFailed     = Alert{Title: "Add error", Message: "Failed to add the record"}
	AlertDeleteFailed  = Alert{Title: "Delete error", Message: "Failed to delete the record"}
	AlertLoadFailed    = Alert{Title: "Load error", Message: "Failed to fetch the records"}
	AlertNothingToSend = Alert{Title: sendErrorTitle, Message: "There is no data to send"}
	AlertSendBusy      = Alert{Title: sendErrorTitle, Message: "An export is already in progress"}
	AlertSendComplete  = Alert{Title: "Send complete", Message: "All records were sent to the spreadsheet."}
)

// State is a copy of what a session shows
type State struct {
	Input   string            `json:"input"`
	Meals   []models.MealView `json:"meals"`
	Sending bool              `json:"sending"`
}

// Controller holds the state of one meal-logging session and runs its actions
type Controller struct {
	completion ICompletionService
	store      IMealStore
	exporter   IExporter

	mu          sync.Mutex
	input       string
	meals       []models.MealView
	sending     bool
	alerts      []Alert
	closed      bool
	unsubscribe func()
	watchers    map[uint64]func()
	nextWatch   uint64
}

func NewController(completion ICompletionService, store IMealStore, exporter IExporter) *Controller {
	return &Controller{
		completion: completion,
		store:      store,
		exporter:   exporter,
		meals:      []models.MealView{},
		watchers:   make(map[uint64]func()),
	}
}

// Start subscribes to the store's live snapshots
func (c *Controller) Start() {
	unsubscribe := c.store.Subscribe(c.onSnapshot, c.onSnapshotError)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		unsubscribe()
		return
	}
	c.unsubscribe = unsubscribe
	c.mu.Unlock()
}

// Close releases the subscription. Later snapshots are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.watchers = make(map[uint64]func())
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (c *Controller) onSnapshot(views []models.MealView) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.meals = views
	c.mu.Unlock()
	c.changed()
}

func (c *Controller) onSnapshotError(err error) {
	log.Printf("[Controller] subscription error: %v", err)
	c.alert(AlertLoadFailed)
}

// SetInput replaces the meal text being edited
func (c *Controller) SetInput(text string) {
	c.mu.Lock()
	c.input = text
	c.mu.Unlock()
	c.changed()
}

// AddMeal stores the current input together with its nutrient text
func (c *Controller) AddMeal(ctx context.Context) {
	c.mu.Lock()
	text := strings.TrimSpace(c.input)
	c.mu.Unlock()

	if text == "" {
		c.alert(AlertEmptyInput)
		return
	}

	// once started, the action runs to completion even if the caller goes away
	ctx = context.WithoutCancel(ctx)
	reply := c.completion.Nutrients(ctx, text)
	if _, err := c.store.Add(ctx, text, reply); err != nil {
		log.Printf("[Controller] add failed: %v", err)
		c.alert(AlertAddFailed)
		return
	}

	c.mu.Lock()
	c.input = ""
	c.mu.Unlock()
	c.changed()
}

// DeleteMeal removes one record; the list follows through the subscription
func (c *Controller) DeleteMeal(ctx context.Context, id string) {
	if err := c.store.Delete(context.WithoutCancel(ctx), id); err != nil {
		log.Printf("[Controller] delete of %s failed: %v", id, err)
		c.alert(AlertDeleteFailed)
	}
}

// HandleExport sends the current list to the webhook
func (c *Controller) HandleExport(ctx context.Context) {
	c.mu.Lock()
	if len(c.meals) == 0 {
		c.mu.Unlock()
		c.alert(AlertNothingToSend)
		return
	}
	if c.sending {
		c.mu.Unlock()
		c.alert(AlertSendBusy)
		return
	}
	c.sending = true
	records := make([]models.MealView, len(c.meals))
	copy(records, c.meals)
	c.mu.Unlock()
	c.changed()

	defer func() {
		c.mu.Lock()
		c.sending = false
		c.mu.Unlock()
		c.changed()
	}()

	if _, err := c.exporter.ExportAll(context.WithoutCancel(ctx), records); err != nil {
		log.Printf("[Controller] export failed: %v", err)
		c.alert(Alert{Title: sendErrorTitle, Message: err.Error()})
		return
	}

	c.alert(AlertSendComplete)
	c.mu.Lock()
	c.meals = []models.MealView{}
	c.mu.Unlock()
}

// State returns a copy of the session state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	meals := make([]models.MealView, len(c.meals))
	copy(meals, c.meals)
	return State{Input: c.input, Meals: meals, Sending: c.sending}
}

// DrainAlerts returns pending alerts and forgets them
func (c *Controller) DrainAlerts() []Alert {
	c.mu.Lock()
	defer c.mu.Unlock()
	alerts := c.alerts
	c.alerts = nil
	if alerts == nil {
		alerts = []Alert{}
	}
	return alerts
}

// Watch calls fn after every state change until the returned cancel is called.
// fn runs on the goroutine that made the change and must not block.
func (c *Controller) Watch(fn func()) func() {
	c.mu.Lock()
	c.nextWatch++
	id := c.nextWatch
	c.watchers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.watchers, id)
		c.mu.Unlock()
	}
}

func (c *Controller) alert(a Alert) {
	c.mu.Lock()
	c.alerts = append(c.alerts, a)
	c.mu.Unlock()
	c.changed()
}

func (c *Controller) changed() {
	c.mu.Lock()
	fns := make([]func(), 0, len(c.watchers))
	for _, fn := range c.watchers {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
