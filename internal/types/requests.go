package types

// SetInputRequest replaces the meal text being edited
type SetInputRequest struct {
	Input string `json:"input"`
}

// AddMealRequest adds a meal. When Input is omitted the session's current input is used.
type AddMealRequest struct {
	Input *string `json:"input,omitempty"`
}
