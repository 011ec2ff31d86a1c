package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mcp-training/memorymatch/game/engine"
	"github.com/wricardo/mcp-training/memorymatch/game/service"
)

// Version is reported to MCP clients during initialization
const Version = "1.0.0"

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer

	// board column count per session, learned from session info
	columns map[string]int
	mu      sync.Mutex
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		columns: make(map[string]int),
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Memory Match",
		Version,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Memory Match - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Find every pair of matching cards. All cards start face down. Reveal two cards per move:
equal faces stay up as a matched pair, different faces are flipped back.

AVAILABLE TOOLS:
- create_session: Create a new game session (optionally pick easy/medium/hard)
- list_sessions / get_session: Inspect sessions
- game_state: Board and progress for a session
- reveal_card: Turn a card face up by id
- resolve_mismatch: Flip back two mismatched cards before continuing
- new_game: Deal a fresh board, optionally switching difficulty
- reveal_history: Every card revealed so far, with face values
- list_configs: Available difficulty tiers
- game_instructions: Full rules and board legend

TIP: Every revealed face stays in reveal_history. Use it as your memory.`),
	)

	c.registerTools()
}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional difficulty selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Difficulty tier id such as easy, medium or hard (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board and progress",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reveal_card",
		Description: "Turn one card face up. The second reveal of a move either matches or mismatches.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"card_id": map[string]interface{}{
					"type":        "integer",
					"description": "Card id as shown on the board (the number before the colon)",
				},
			},
			Required: []string{"session_id", "card_id"},
		},
	}, c.handleRevealCard)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "resolve_mismatch",
		Description: "Flip back the two face-up cards of a mismatch so play can continue",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"game_id": map[string]interface{}{
					"type":        "string",
					"description": "Only resolve if this game is still current (optional)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleResolveMismatch)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "new_game",
		Description: "Deal a new board for the session, optionally switching difficulty",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Difficulty tier id (optional, keeps the current tier when empty)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleNewGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reveal_history",
		Description: "Get the reveal log of the current game, including every face seen",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page (max 100)",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Oldest first (asc) or newest first (desc, default)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleRevealHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available difficulty tiers",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get game rules and the board legend",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// HTTPHandler answers single JSON-RPC messages posted to it
func (c *Client) HTTPHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := c.mcpServer.HandleMessage(r.Context(), body)
		if response == nil {
			// Notifications have no reply
			w.WriteHeader(http.StatusAccepted)
			return
		}

		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	})
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func sessionPath(sessionID string, parts ...string) string {
	p := "/api/sessions/" + url.PathEscape(sessionID)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

// rememberColumns caches the board width of a session's tier
func (c *Client) rememberColumns(info *service.SessionInfo) {
	if info == nil || info.GameConfig == nil || info.GameConfig.Columns <= 0 {
		return
	}
	c.mu.Lock()
	c.columns[strings.ToLower(info.ID)] = info.GameConfig.Columns
	c.mu.Unlock()
}

// columnsFor returns the board width for a session, asking the API once if needed
func (c *Client) columnsFor(ctx context.Context, sessionID string) int {
	c.mu.Lock()
	cols, ok := c.columns[strings.ToLower(sessionID)]
	c.mu.Unlock()
	if ok {
		return cols
	}

	var info service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID), nil, &info); err == nil {
		c.rememberColumns(&info)
		if info.GameConfig != nil && info.GameConfig.Columns > 0 {
			return info.GameConfig.Columns
		}
	}
	return 0
}

func (c *Client) forgetColumns(sessionID string) {
	c.mu.Lock()
	delete(c.columns, strings.ToLower(sessionID))
	c.mu.Unlock()
}

// Argument helpers. JSON numbers arrive as float64.

func stringArg(args map[string]interface{}, key string) string {
	v, _ := args[key].(string)
	return v
}

func requireString(args map[string]interface{}, key string) (string, error) {
	v := stringArg(args, key)
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

func intArg(args map[string]interface{}, key string) int {
	v, _ := requireInt(args, key)
	return v
}

func requireInt(args map[string]interface{}, key string) (int, error) {
	switch v := args[key].(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	case string:
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n, nil
		}
		return 0, fmt.Errorf("%s must be a number", key)
	case nil:
		return 0, fmt.Errorf("%s is required", key)
	default:
		return 0, fmt.Errorf("%s must be a number", key)
	}
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	configID := stringArg(request.GetArguments(), "config_id")

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	c.rememberColumns(&session)

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s", session.ID, session.ConfigName,
		formatGameState(session.GameState, columnsOf(session.GameConfig)))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		progress := ""
		if s.GameState != nil {
			progress = fmt.Sprintf(", Pairs: %d/%d, Moves: %d", s.GameState.MatchedPairs, s.GameState.TotalPairs, s.GameState.Moves)
		}
		fmt.Fprintf(&b, "- %s (Config: %s%s, Created: %s)\n",
			s.ID, s.ConfigName, progress, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, err := requireString(args, "session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	c.rememberColumns(&session)

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, err := requireString(args, "session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state, c.columnsFor(ctx, sessionID))), nil
}

func (c *Client) handleRevealCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, err := requireString(args, "session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cardID, err := requireInt(args, "card_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.RevealResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "reveal"), map[string]int{"card_id": cardID}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRevealResult(&result, c.columnsFor(ctx, sessionID))), nil
}

func (c *Client) handleResolveMismatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, err := requireString(args, "session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	gameID := stringArg(args, "game_id")

	var result service.ResolveResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "resolve"), map[string]string{"game_id": gameID}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	header := "Mismatched cards flipped back."
	if !result.Changed {
		header = "Nothing to resolve: no mismatch is pending."
	}
	return mcp.NewToolResultText(header + "\n\n" + formatGameState(result.GameState, c.columnsFor(ctx, sessionID))), nil
}

func (c *Client) handleNewGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, err := requireString(args, "session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	configID := stringArg(args, "config_id")

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "new-game"), map[string]string{"config_id": configID}, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if configID != "" {
		c.forgetColumns(sessionID)
	}
	return mcp.NewToolResultText(response.Message + "\n\n" + formatGameState(response.State, c.columnsFor(ctx, sessionID))), nil
}

func (c *Client) handleRevealHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, err := requireString(args, "session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	params := url.Values{}
	if page := intArg(args, "page"); page > 0 {
		params.Set("page", fmt.Sprint(page))
	}
	if limit := intArg(args, "limit"); limit > 0 {
		params.Set("limit", fmt.Sprint(limit))
	}
	if order := stringArg(args, "order"); order != "" {
		params.Set("order", order)
	}

	path := sessionPath(sessionID, "history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, config := range configs {
		fmt.Fprintf(&b, "• %s (config_id: %s)\n  %s\n  Cards: %d (%d pairs), Columns: %d, Mismatch delay: %dms\n\n",
			config.Name, config.ConfigID, config.Description, config.CardCount, config.PairCount, config.Columns, config.MismatchDelayMs)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

const instructions = `Memory Match - Complete Instructions

GAME OBJECTIVE:
Uncover every matching pair. The game ends when all pairs are matched.

RULES:
• Every card has a face value (face key). Each value appears on exactly two cards.
• A move is two reveals. Reveal one card, then a second one.
• Same face: both cards stay face up as a matched pair.
• Different faces: a mismatch. Both stay visible until resolved, then flip back.
  While a mismatch is pending no other card can be revealed.
  Call resolve_mismatch, or wait when the tier resolves automatically.
• Revealing a matched card, the already revealed card, or an id off the board does nothing.
• The move counter grows by one for every completed pair of reveals.

BOARD LEGEND:
Every cell reads id:face, for example
  12:??     card 12, face down
  12:07     card 12, face up showing face 7
  12:[07]   card 12, part of a matched pair
Card ids do not follow board position; always use the number before the colon.

STRATEGY:
• Remember every face you have seen; reveal_history keeps them all.
• When the first card of a move shows a face you have seen before, reveal its twin.
• Otherwise spend the second reveal on an unseen card to learn more.
• A perfect memory needs about 1.6 moves per pair on average.

TOOLS:
create_session → game_state → reveal_card (twice) → resolve_mismatch on a miss → repeat.
new_game deals again; pass config_id to switch between easy, medium and hard.`

// Formatting

func columnsOf(config *engine.GameConfig) int {
	if config == nil {
		return 0
	}
	return config.Columns
}

func formatSessionInfo(session *service.SessionInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\nConfig: %s\nCreated: %s\nLast Accessed: %s\n\n",
		session.ID, session.ConfigName,
		session.CreatedAt.Format(time.RFC3339), session.LastAccessedAt.Format(time.RFC3339))
	b.WriteString(formatGameState(session.GameState, columnsOf(session.GameConfig)))
	return b.String()
}

// formatGameState renders progress and the board
func formatGameState(state *engine.GameState, columns int) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Game: %s\n", state.GameID)
	fmt.Fprintf(&b, "Pairs: %d/%d | Moves: %d", state.MatchedPairs, state.TotalPairs, state.Moves)
	if remaining := engine.RemainingPairs(state); remaining > 0 && !state.Complete {
		fmt.Fprintf(&b, " | Left: %d", remaining)
	}
	if state.Elapsed != "" {
		fmt.Fprintf(&b, " | Time: %s", state.Elapsed)
	}
	b.WriteString("\n")
	if state.Phase != "" {
		fmt.Fprintf(&b, "Phase: %s\n", state.Phase)
	}
	if len(state.PendingReveal) > 0 {
		fmt.Fprintf(&b, "Face up (unmatched): %s\n", formatCardList(state, state.PendingReveal))
	}
	if state.Message != "" {
		fmt.Fprintf(&b, "Message: %s\n", state.Message)
	}
	if state.Complete {
		b.WriteString("🎉 All pairs found!\n")
	} else if state.Phase == engine.PhaseAwaitingMismatchReset {
		if state.ResolveAfterMs > 0 {
			fmt.Fprintf(&b, "Mismatch pending: cards flip back after %dms, or call resolve_mismatch.\n", state.ResolveAfterMs)
		} else {
			b.WriteString("Mismatch pending: call resolve_mismatch before revealing again.\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(formatBoard(state.Cards, columns))
	return b.String()
}

// formatCardList renders ids with their visible faces, e.g. "#3 (07), #9 (12)"
func formatCardList(state *engine.GameState, ids []int) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		if card, ok := state.FindCard(id); ok {
			parts = append(parts, fmt.Sprintf("#%d (%02d)", id, card.FaceKey))
		}
	}
	return strings.Join(parts, ", ")
}

// cellToken returns the board text for one card
func cellToken(card engine.Card) string {
	switch {
	case card.Matched:
		return fmt.Sprintf("[%02d]", card.FaceKey)
	case card.Revealed:
		return fmt.Sprintf("%02d", card.FaceKey)
	default:
		return "??"
	}
}

// formatBoard lays cards out in rows of the tier's column count.
// Each cell is "id:face" so agents can address cards directly.
func formatBoard(cards []engine.Card, columns int) string {
	if len(cards) == 0 {
		return "(empty board)\n"
	}
	if columns <= 0 {
		columns = defaultColumns(len(cards))
	}

	idWidth := len(fmt.Sprint(len(cards) - 1))
	var b strings.Builder
	for i, row := range engine.BoardRows(cards, columns) {
		fmt.Fprintf(&b, "Row %d:", i)
		for _, card := range row {
			fmt.Fprintf(&b, "  %*d:%-4s", idWidth, card.ID, cellToken(card))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// defaultColumns picks the smallest width whose square covers n cards
func defaultColumns(n int) int {
	cols := 1
	for cols*cols < n {
		cols++
	}
	return cols
}

func formatRevealResult(result *service.RevealResult, columns int) string {
	var b strings.Builder

	switch result.Outcome {
	case engine.OutcomeIgnored:
		fmt.Fprintf(&b, "Card #%d: nothing happened (already face up, matched, off the board, or a mismatch is pending).\n", result.CardID)
	case engine.OutcomeFirst:
		fmt.Fprintf(&b, "Card #%d revealed. Pick a second card.\n", result.CardID)
	case engine.OutcomeMatch:
		fmt.Fprintf(&b, "Card #%d revealed: MATCH!\n", result.CardID)
	case engine.OutcomeMismatch:
		fmt.Fprintf(&b, "Card #%d revealed: no match.\n", result.CardID)
		if result.ResolveAfterMs > 0 {
			fmt.Fprintf(&b, "Call resolve_mismatch (cards flip back after %dms).\n", result.ResolveAfterMs)
		}
	case engine.OutcomeVictory:
		fmt.Fprintf(&b, "Card #%d revealed: MATCH! Last pair found.\n", result.CardID)
	default:
		fmt.Fprintf(&b, "Card #%d: %s\n", result.CardID, result.Outcome)
	}

	if state := result.GameState; state != nil && result.Changed {
		if card, ok := state.FindCard(result.CardID); ok {
			fmt.Fprintf(&b, "Face: %02d", card.FaceKey)
			if row, col, ok := engine.CardPosition(state, result.CardID, columns); ok {
				fmt.Fprintf(&b, " at row %d, column %d", row, col)
			}
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState, columns))
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Reveal History (Page %d/%d, Total: %d reveals):\n\n",
		history.Page, history.TotalPages, history.TotalReveals)

	for _, entry := range history.Reveals {
		fmt.Fprintf(&b, "Move %d: card #%d face %02d (%s)\n",
			entry.MoveNumber, entry.CardID, entry.FaceKey, entry.Outcome)
	}

	if history.HasNext {
		b.WriteString("\n(more on the next page)\n")
	}
	return b.String()
}
