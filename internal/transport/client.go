package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fire-rescue/viewer/internal/proto"
)

const requestTimeout = 10 * time.Second

// Client issues the one-shot REST calls of the simulation service contract.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a REST client for the service at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// CreateInstance asks the server for a brand-new simulation and returns its
// id plus the initial snapshot.
func (c *Client) CreateInstance(ctx context.Context) (string, *proto.SimulationSnapshot, error) {
	body, status, err := c.do(ctx, http.MethodPost, "/api/create_simulation")
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	if status < 200 || status > 299 {
		return "", nil, fmt.Errorf("%w: create returned status %d", ErrServiceUnavailable, status)
	}

	var resp proto.CreateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", nil, fmt.Errorf("%w: decode create response: %v", ErrServiceUnavailable, err)
	}
	if resp.SimulationID == "" {
		return "", nil, fmt.Errorf("%w: create returned no simulation id", ErrServiceUnavailable)
	}
	if resp.State == nil {
		return "", nil, fmt.Errorf("%w: create returned no state", proto.ErrMalformedSnapshot)
	}
	if err := resp.State.Validate(); err != nil {
		return "", nil, err
	}
	return resp.SimulationID, resp.State, nil
}

// FetchSnapshot loads the current snapshot of an existing simulation.
func (c *Client) FetchSnapshot(ctx context.Context, id string) (*proto.SimulationSnapshot, error) {
	body, status, err := c.do(ctx, http.MethodGet, "/api/simulation/"+id+"/state")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("%w: state returned status %d", ErrServiceUnavailable, status)
	}
	return proto.DecodeSnapshot(body)
}

// Step advances the simulation one step and returns the resulting snapshot.
func (c *Client) Step(ctx context.Context, id string) (*proto.SimulationSnapshot, error) {
	body, status, err := c.do(ctx, http.MethodPost, "/api/simulation/"+id+"/step")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("%w: step returned status %d", ErrCommandRejected, status)
	}

	var resp proto.StepResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode step response: %v", proto.ErrMalformedSnapshot, err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("%w: simulation refused to step", ErrCommandRejected)
	}
	if resp.State == nil {
		return nil, fmt.Errorf("%w: step returned no state", proto.ErrMalformedSnapshot)
	}
	if err := resp.State.Validate(); err != nil {
		return nil, err
	}
	return resp.State, nil
}

// StartAuto asks the server to begin its run loop for the instance.
func (c *Client) StartAuto(ctx context.Context, id string) error {
	return c.command(ctx, id, "auto_start")
}

// StopAuto asks the server to halt its run loop for the instance.
func (c *Client) StopAuto(ctx context.Context, id string) error {
	return c.command(ctx, id, "auto_stop")
}

// DeleteInstance removes an abandoned simulation server-side. Best-effort;
// callers may ignore the error.
func (c *Client) DeleteInstance(ctx context.Context, id string) error {
	_, status, err := c.do(ctx, http.MethodDelete, "/api/simulation/"+id+"/delete")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	if status == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if status < 200 || status > 299 {
		return fmt.Errorf("%w: delete returned status %d", ErrServiceUnavailable, status)
	}
	return nil
}

func (c *Client) command(ctx context.Context, id, action string) error {
	_, status, err := c.do(ctx, http.MethodPost, "/api/simulation/"+id+"/"+action)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	if status < 200 || status > 299 {
		return fmt.Errorf("%w: %s returned status %d", ErrCommandRejected, action, status)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return body, resp.StatusCode, nil
}
