package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/pageza/nutrilog/backend/config"
)

// NutrientPrompt is prepended to every meal description
const NutrientPrompt = "For the following food, list calories, protein, fat, carbohydrates, sugar and dietary fiber as comma-separated values. " +
	"Do not include the food itself. Do not add units. Do not add a header. "

// Placeholders returned in place of nutrient text
const (
	ReplyNone          = "no reply"
	ReplyCommunication = "communication failure"
)

// Message represents a message in the chat
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request represents a request to the chat completion API
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// CompletionService handles interactions with the chat completion API
type CompletionService struct {
	apiKey      string
	apiURL      string
	model       string
	temperature float64
	client      *http.Client
}

// NewCompletionService creates a new CompletionService instance
func NewCompletionService(cfg *config.Config, client *http.Client) (*CompletionService, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY must be set")
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &CompletionService{
		apiKey:      cfg.OpenAIAPIKey,
		apiURL:      cfg.CompletionURL,
		model:       cfg.CompletionModel,
		temperature: cfg.CompletionTemperature,
		client:      client,
	}, nil
}

// Nutrients asks the model for the nutrient breakdown of input
func (s *CompletionService) Nutrients(ctx context.Context, input string) string {
	content, err := s.complete(ctx, NutrientPrompt+input)
	if err != nil {
		log.Printf("[CompletionService] request failed: %v", err)
		return ReplyCommunication
	}
	if content == "" {
		return ReplyNone
	}
	return content
}

func (s *CompletionService) complete(ctx context.Context, prompt string) (string, error) {
	reqBody := Request{
		Model:       s.model,
		Messages:    []Message{{Role: "user", Content: prompt}},
		Temperature: s.temperature,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	// Error bodies are decoded too; they simply carry no choices
	var result completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Choices) == 0 {
		log.Printf("[CompletionService] no choices in response (status %d)", resp.StatusCode)
		return "", nil
	}

	return result.Choices[0].Message.Content, nil
}
