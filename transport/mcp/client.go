package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/looney-race/game/engine"
	"github.com/wricardo/looney-race/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Looney Race",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Looney Race - MCP Interface

This is a thin client that proxies all requests to the REST API server.

Four cartoon characters race on a small grid. Each one moves at random in
its own turn. Carrots (C) must be carried to the mountain (F); the second
delivery wins. Marvin (M) eliminates anyone he runs into and moves the
mountain every third turn he takes. Races run by themselves: you start,
watch and stop them.

AVAILABLE TOOLS:
- start_race: Start a new race
- list_races: List races
- race_state: Status, counters and actors of a race
- race_board: The board as text
- race_events: What happened, paginated
- stop_race: End a race without a winner
- race_rules: The rules every race is played with`),
	)

	c.registerTools()
}

func raceIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Race ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "start_race",
		Description: "Start a new race. The actors begin moving immediately.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"delay_ms": map[string]interface{}{
					"type":        "integer",
					"description": "Pause each actor takes between turns, in milliseconds (optional, default 200)",
				},
			},
		},
	}, c.handleStartRace)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_races",
		Description: "List races, newest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"status": map[string]interface{}{
					"type":        "string",
					"enum":        []string{service.StatusPending, service.StatusRunning, service.StatusFinished},
					"description": "Only races with this status (optional)",
				},
			},
		},
	}, c.handleListRaces)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "race_state",
		Description: "Get the status, counters, actors and board of a race",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"race_id": raceIDProperty(),
			},
			Required: []string{"race_id"},
		},
	}, c.handleRaceState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "race_board",
		Description: "Get the board of a race as text. Actors carrying a carrot show as X(C).",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"race_id": raceIDProperty(),
			},
			Required: []string{"race_id"},
		},
	}, c.handleRaceBoard)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "race_events",
		Description: "Get the event history of a race with pagination",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"race_id": raceIDProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number (default 1)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Events per page (default 20, max 100)",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Sort order (default desc, most recent first)",
				},
				"type": map[string]interface{}{
					"type":        "string",
					"description": "Only events of this type, e.g. delivery or elimination (optional)",
				},
			},
			Required: []string{"race_id"},
		},
	}, c.handleRaceEvents)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "stop_race",
		Description: "Stop a running race. It ends without a winner.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"race_id": raceIDProperty(),
			},
			Required: []string{"race_id"},
		},
	}, c.handleStopRace)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "race_rules",
		Description: "Get the rules every race is played with",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleRaceRules)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
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

	if result == nil {
		return nil
	}

	// Plain text endpoints decode into a string
	if s, ok := result.(*string); ok {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		*s = string(data)
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(result)
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil
	}
	return 0, false
}

func requireRaceID(args map[string]interface{}) (string, *mcp.CallToolResult) {
	raceID, _ := args["race_id"].(string)
	if raceID == "" {
		return "", mcp.NewToolResultError("race_id is required")
	}
	return raceID, nil
}

func racePath(raceID string, suffix string) string {
	return "/api/races/" + url.PathEscape(raceID) + suffix
}

// Tool handlers

func (c *Client) handleStartRace(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	body := map[string]int{}
	if delay, ok := intArg(args, "delay_ms"); ok {
		body["delay_ms"] = delay
	}

	var info service.RaceInfo
	if err := c.apiCall("POST", "/api/races", body, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Started race: %s\nDelay: %dms\n\n", info.ID, info.DelayMS)
	result += formatRaceInfo(&info)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListRaces(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	path := "/api/races"
	if status, _ := args["status"].(string); status != "" {
		path += "?status=" + url.QueryEscape(status)
	}

	var resp struct {
		Races []*service.RaceInfo `json:"races"`
		Count int                 `json:"count"`
	}
	if err := c.apiCall("GET", path, nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if resp.Count == 0 {
		return mcp.NewToolResultText("No races"), nil
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Races (%d):\n", resp.Count))
	for _, info := range resp.Races {
		result.WriteString(fmt.Sprintf("- %s [%s] cycles: %d, delivered: %d/%d",
			info.ID, info.Status, info.State.Cycles, info.State.Delivered, engine.DefaultWinThreshold))
		if info.Result != nil {
			result.WriteString(" " + formatOutcome(info.Result))
		}
		result.WriteString("\n")
	}
	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleRaceState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raceID, errResult := requireRaceID(arguments(request))
	if errResult != nil {
		return errResult, nil
	}

	var info service.RaceInfo
	if err := c.apiCall("GET", racePath(raceID, ""), nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRaceInfo(&info)), nil
}

func (c *Client) handleRaceBoard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raceID, errResult := requireRaceID(arguments(request))
	if errResult != nil {
		return errResult, nil
	}

	var board string
	if err := c.apiCall("GET", racePath(raceID, "/board"), nil, &board); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(board), nil
}

func (c *Client) handleRaceEvents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	raceID, errResult := requireRaceID(args)
	if errResult != nil {
		return errResult, nil
	}

	query := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		query.Set("page", strconv.Itoa(page))
	}
	if limit, ok := intArg(args, "limit"); ok {
		query.Set("limit", strconv.Itoa(limit))
	}
	if order, _ := args["order"].(string); order != "" {
		query.Set("order", order)
	}
	if eventType, _ := args["type"].(string); eventType != "" {
		query.Set("type", eventType)
	}

	path := racePath(raceID, "/events")
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall("GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleStopRace(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raceID, errResult := requireRaceID(arguments(request))
	if errResult != nil {
		return errResult, nil
	}

	var info service.RaceInfo
	if err := c.apiCall("POST", racePath(raceID, "/stop"), nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Race stopped.\n\n" + formatRaceInfo(&info)), nil
}

func (c *Client) handleRaceRules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var rules engine.Rules
	if err := c.apiCall("GET", "/api/rules", nil, &rules); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRules(rules)), nil
}

// Formatting

func formatOutcome(result *engine.Result) string {
	switch result.Reason {
	case engine.ReasonDelivered:
		if result.Winner != nil {
			return fmt.Sprintf("won by %s (%c)", result.Winner.Name, result.Winner.Symbol)
		}
	case engine.ReasonStepCap:
		if result.Winner != nil {
			return fmt.Sprintf("step cap, %s (%c) declared winner", result.Winner.Name, result.Winner.Symbol)
		}
		return "step cap, nobody left"
	case engine.ReasonStopped:
		return "stopped"
	}
	return string(result.Reason)
}

func formatRaceInfo(info *service.RaceInfo) string {
	var result strings.Builder
	state := info.State

	result.WriteString(fmt.Sprintf("Race %s [%s] | Cycles: %d | Delivered: %d | Carrots on board: %d\n",
		info.ID, info.Status, state.Cycles, state.Delivered, info.ItemsOnBoard))
	result.WriteString(fmt.Sprintf("Mountain: (%d,%d)\n", state.Goal.Row, state.Goal.Col))

	result.WriteString("\nActors:\n")
	for _, a := range state.Actors {
		status := "racing"
		if !a.Alive {
			status = "out"
		}
		carrying := ""
		if a.Carrying {
			carrying = ", carrying a carrot"
		}
		result.WriteString(fmt.Sprintf("  %c %-10s (%d,%d) %s%s\n", a.Symbol, a.Name, a.Pos.Row, a.Pos.Col, status, carrying))
	}

	if len(state.Rows) > 0 {
		result.WriteString("\nBoard:\n")
		result.WriteString(engine.FormatBoard(state))
	}

	if info.Result != nil {
		result.WriteString("Outcome: " + formatOutcome(info.Result) + "\n")
	}

	return result.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var result strings.Builder

	result.WriteString(fmt.Sprintf("Events %d total | page %d/%d\n",
		history.TotalEvents, history.Page, history.TotalPages))
	for _, ev := range history.Events {
		result.WriteString(fmt.Sprintf("#%d [cycle %d] %s: %s\n", ev.Seq, ev.Cycle, ev.Type, ev.Message))
	}
	if history.HasNext {
		result.WriteString(fmt.Sprintf("More on page %d\n", history.Page+1))
	}

	return result.String()
}

func formatRules(rules engine.Rules) string {
	var result strings.Builder

	result.WriteString("Looney Race - Rules\n\n")
	result.WriteString(fmt.Sprintf("Board: %dx%d\n", rules.Size, rules.Size))
	result.WriteString(fmt.Sprintf("Carrots: %d\n", rules.Items))
	result.WriteString(fmt.Sprintf("Deliveries to win: %d\n", rules.WinThreshold))
	result.WriteString(fmt.Sprintf("Marvin moves the mountain every %d of his turns\n", rules.RelocateEvery))
	if rules.MaxSteps > 0 {
		result.WriteString(fmt.Sprintf("Step cap: %d cycles, then the first actor still racing wins\n", rules.MaxSteps))
	}

	result.WriteString(`
LEGEND:
  .  empty
  F  mountain (goal)
  C  carrot
  B  Bugs Bunny    D  Daffy Duck    T  Tweety    M  Marvin
  X(C) an actor carrying a carrot

MOVEMENT:
- Every turn an actor picks right, left, down or up at random
- Walls of the board, the mountain without a carrot, another actor and a
  second carrot all block the move; the actor stays put
- Stepping on a carrot picks it up; stepping on the mountain with one
  delivers it

MARVIN:
- Walks into other actors and eliminates them, stealing their carrot
- Every few of his turns his time machine moves the mountain
`)

	return result.String()
}
