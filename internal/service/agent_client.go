package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"aicoach/pkg/circuitbreaker"
	"aicoach/pkg/metrics"
)

// AgentClient calls the agent service over HTTP, guarded by a circuit
// breaker so a down agent doesn't stall the worker.
type AgentClient struct {
	baseURL    string
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
}

func NewAgentClient(baseURL string) *AgentClient {
	return &AgentClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second, // keeps the worker from hanging on a dead agent
		},
		breaker: circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig()),
	}
}

// ActionInput describes the action the agent should execute.
type ActionInput struct {
	PendingActionID int             `json:"pending_action_id"`
	UserID          int             `json:"user_id"`
	ActionType      string          `json:"action_type"`
	Payload         json.RawMessage `json:"payload"`
}

// ActionResult is the agent's execution verdict.
type ActionResult struct {
	Completed bool   `json:"completed"`
	ErrorCode string `json:"error_code,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// Execute asks the agent service to run an action.
func (c *AgentClient) Execute(ctx context.Context, input ActionInput) (*ActionResult, error) {
	var result *ActionResult

	err := c.breaker.Execute(func() error {
		r, err := c.execute(ctx, input)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *AgentClient) execute(ctx context.Context, input ActionInput) (*ActionResult, error) {
	b, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/execute", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordAgentCallLatency("/execute", "error", time.Since(start))
		return nil, fmt.Errorf("failed to call agent service: %w", err)
	}
	defer resp.Body.Close()

	metrics.RecordAgentCallLatency("/execute", fmt.Sprintf("%d", resp.StatusCode), time.Since(start))

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("agent service rate limited: %d", resp.StatusCode)
	}
	if resp.StatusCode >= 500 {
		// Retryable.
		return nil, fmt.Errorf("agent service 5xx: %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("agent service error: %d", resp.StatusCode)
	}

	var result ActionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}
