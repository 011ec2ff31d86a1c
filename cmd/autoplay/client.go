package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wricardo/mcp-training/memorymatch/game/engine"
	"github.com/wricardo/mcp-training/memorymatch/game/service"
)

// Client drives one session through the REST API
type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) CreateSession(configID string) (*engine.GameState, error) {
	var body interface{}
	if configID != "" {
		body = map[string]string{"config_id": configID}
	}

	var session service.SessionInfo
	if err := c.do("POST", "/api/sessions", body, &session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	c.sessionID = session.ID
	return session.GameState, nil
}

func (c *Client) GetState() (*engine.GameState, error) {
	var state engine.GameState
	if err := c.do("GET", c.sessionPath("state"), nil, &state); err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}
	return &state, nil
}

func (c *Client) NewGame() (*engine.GameState, error) {
	var resp struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.do("POST", c.sessionPath("new-game"), nil, &resp); err != nil {
		return nil, fmt.Errorf("new game: %w", err)
	}
	return resp.State, nil
}

func (c *Client) Reveal(cardID int) (*service.RevealResult, error) {
	var result service.RevealResult
	if err := c.do("POST", c.sessionPath("reveal"), map[string]int{"card_id": cardID}, &result); err != nil {
		return nil, fmt.Errorf("reveal %d: %w", cardID, err)
	}
	return &result, nil
}

func (c *Client) Resolve(gameID string) (*service.ResolveResult, error) {
	var result service.ResolveResult
	if err := c.do("POST", c.sessionPath("resolve"), map[string]string{"game_id": gameID}, &result); err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}
	return &result, nil
}

func (c *Client) sessionPath(action string) string {
	return fmt.Sprintf("/api/sessions/%s/%s", c.sessionID, action)
}

func (c *Client) do(method, path string, body, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s - %s", resp.Status, bytes.TrimSpace(data))
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}
