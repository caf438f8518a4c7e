package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wricardo/looney-race/game/engine"
	"github.com/wricardo/looney-race/game/service"
)

func callTool(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()

	if result == nil {
		t.Fatal("Expected result, got nil")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

func finishedRace() service.RaceInfo {
	winner := engine.Actor{ID: 0, Symbol: 'B', Name: "Bugs Bunny", Pos: engine.Position{Row: 1, Col: 0}, Alive: true}
	return service.RaceInfo{
		ID:     "race-123",
		Status: service.StatusFinished,
		State: engine.Snapshot{
			Rows: []string{"...", "B..", "..M"},
			Goal: engine.Position{Row: 1, Col: 0},
			Actors: []engine.Actor{
				winner,
				{ID: 1, Symbol: 'D', Name: "Daffy Duck", Pos: engine.Position{Row: -1, Col: -1}},
				{ID: 3, Symbol: 'M', Name: "Marvin", Pos: engine.Position{Row: 2, Col: 2}, Alive: true, Carrying: true, Privileged: true},
			},
			Delivered: 2,
			Cycles:    41,
			GameOver:  true,
			Winner:    &winner,
			Reason:    engine.ReasonDelivered,
		},
		Result: &engine.Result{Winner: &winner, Reason: engine.ReasonDelivered, Delivered: 2, Cycles: 41},
	}
}

func TestNewClient(t *testing.T) {
	baseURL := "http://localhost:8080"
	client := NewClient(baseURL + "/")

	if client == nil {
		t.Fatal("Expected client to be created")
	}
	if client.baseURL != baseURL {
		t.Errorf("Expected baseURL %s, got %s", baseURL, client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/json":
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]int{"cycles": 7})
		case "/text":
			w.Header().Set("Content-Type", "text/plain")
			w.Write([]byte("B    .    \n"))
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "race not found: x"})
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var result map[string]int
	if err := client.apiCall("GET", "/json", nil, &result); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}
	if result["cycles"] != 7 {
		t.Errorf("Expected cycles 7, got %d", result["cycles"])
	}

	var text string
	if err := client.apiCall("GET", "/text", nil, &text); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}
	if text != "B    .    \n" {
		t.Errorf("Unexpected text %q", text)
	}

	err := client.apiCall("GET", "/missing", nil, nil)
	if err == nil || err.Error() != "race not found: x" {
		t.Errorf("Expected API error message, got %v", err)
	}

	err = client.apiCall("GET", "/broken", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "API error") {
		t.Errorf("Expected 'API error' in error message, got: %v", err)
	}
}

func TestClient_apiCall_Error(t *testing.T) {
	client := NewClient("http://invalid-url-that-does-not-exist:99999")

	if err := client.apiCall("GET", "/api/races", nil, nil); err == nil {
		t.Error("Expected error for invalid URL")
	}
}

func TestClient_handleStartRace(t *testing.T) {
	var gotBody map[string]int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/races" {
			t.Errorf("Expected POST /api/races, got %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(service.RaceInfo{ID: "race-new", Status: service.StatusRunning, DelayMS: 50})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleStartRace(context.Background(), callTool("start_race", map[string]interface{}{
		"delay_ms": float64(50),
	}))
	if err != nil {
		t.Fatalf("handleStartRace failed: %v", err)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "Started race: race-new") {
		t.Errorf("Expected race ID in result, got: %s", text)
	}
	if gotBody["delay_ms"] != 50 {
		t.Errorf("Expected delay_ms 50 in request, got %v", gotBody)
	}
}

func TestClient_handleListRaces(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		race := finishedRace()
		json.NewEncoder(w).Encode(map[string]interface{}{
			"races": []service.RaceInfo{race},
			"count": 1,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleListRaces(context.Background(), callTool("list_races", map[string]interface{}{
		"status": "finished",
	}))
	if err != nil {
		t.Fatalf("handleListRaces failed: %v", err)
	}

	text := resultText(t, result)
	if gotQuery != "status=finished" {
		t.Errorf("Expected status filter in query, got %q", gotQuery)
	}
	if !strings.Contains(text, "race-123 [finished]") {
		t.Errorf("Expected race line in result, got: %s", text)
	}
	if !strings.Contains(text, "won by Bugs Bunny (B)") {
		t.Errorf("Expected outcome in result, got: %s", text)
	}
}

func TestClient_handleRaceState(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/races/race-123" {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "race not found"})
			return
		}
		json.NewEncoder(w).Encode(finishedRace())
	}))
	defer server.Close()

	client := NewClient(server.URL)

	t.Run("Existing race", func(t *testing.T) {
		result, err := client.handleRaceState(context.Background(), callTool("race_state", map[string]interface{}{
			"race_id": "race-123",
		}))
		if err != nil {
			t.Fatalf("handleRaceState failed: %v", err)
		}

		text := resultText(t, result)
		expected := []string{
			"Race race-123 [finished]",
			"Cycles: 41",
			"Marvin",
			"carrying a carrot",
			"out",
			"M(C)",
			"Outcome: won by Bugs Bunny (B)",
		}
		for _, s := range expected {
			if !strings.Contains(text, s) {
				t.Errorf("Expected %q in result, got: %s", s, text)
			}
		}
	})

	t.Run("Missing race", func(t *testing.T) {
		result, err := client.handleRaceState(context.Background(), callTool("race_state", map[string]interface{}{
			"race_id": "nope",
		}))
		if err != nil {
			t.Fatalf("handleRaceState failed: %v", err)
		}
		if !result.IsError {
			t.Error("Expected tool error for missing race")
		}
	})

	t.Run("Missing race_id", func(t *testing.T) {
		result, _ := client.handleRaceState(context.Background(), callTool("race_state", nil))
		if !result.IsError {
			t.Error("Expected tool error without race_id")
		}
	})
}

func TestClient_handleRaceBoard(t *testing.T) {
	board := "B    .    \nF    M    \n\n"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/races/race-123/board" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(board))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleRaceBoard(context.Background(), callTool("race_board", map[string]interface{}{
		"race_id": "race-123",
	}))
	if err != nil {
		t.Fatalf("handleRaceBoard failed: %v", err)
	}
	if text := resultText(t, result); text != board {
		t.Errorf("Expected board %q, got %q", board, text)
	}
}

func TestClient_handleRaceEvents(t *testing.T) {
	var gotQuery map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		json.NewEncoder(w).Encode(service.HistoryResponse{
			Events: []engine.Event{
				{Seq: 12, Type: engine.EventElimination, Cycle: 9, Actor: 'M', Message: "Marvin eliminated D at (2,2)"},
			},
			TotalEvents: 30,
			Page:        2,
			PageSize:    1,
			TotalPages:  30,
			HasNext:     true,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleRaceEvents(context.Background(), callTool("race_events", map[string]interface{}{
		"race_id": "race-123",
		"page":    float64(2),
		"limit":   float64(1),
		"order":   "asc",
		"type":    "elimination",
	}))
	if err != nil {
		t.Fatalf("handleRaceEvents failed: %v", err)
	}

	for key, want := range map[string]string{"page": "2", "limit": "1", "order": "asc", "type": "elimination"} {
		if got := gotQuery[key]; len(got) != 1 || got[0] != want {
			t.Errorf("Expected %s=%s in query, got %v", key, want, got)
		}
	}

	text := resultText(t, result)
	if !strings.Contains(text, "#12 [cycle 9] elimination: Marvin eliminated D at (2,2)") {
		t.Errorf("Expected event line in result, got: %s", text)
	}
	if !strings.Contains(text, "More on page 3") {
		t.Errorf("Expected next page hint, got: %s", text)
	}
}

func TestClient_handleStopRace(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/races/race-123/stop" {
			t.Errorf("Expected POST /api/races/race-123/stop, got %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(service.RaceInfo{
			ID:     "race-123",
			Status: service.StatusFinished,
			Result: &engine.Result{Reason: engine.ReasonStopped},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleStopRace(context.Background(), callTool("stop_race", map[string]interface{}{
		"race_id": "race-123",
	}))
	if err != nil {
		t.Fatalf("handleStopRace failed: %v", err)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "Race stopped.") || !strings.Contains(text, "Outcome: stopped") {
		t.Errorf("Unexpected result: %s", text)
	}
}

func TestClient_handleRaceRules(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(engine.DefaultRules())
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleRaceRules(context.Background(), callTool("race_rules", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("handleRaceRules failed: %v", err)
	}

	text := resultText(t, result)
	expected := []string{
		"Looney Race - Rules",
		"Board: 5x5",
		"Deliveries to win: 2",
		"every 3 of his turns",
		"Step cap: 100 cycles",
		"LEGEND:",
		"MARVIN:",
	}
	for _, s := range expected {
		if !strings.Contains(text, s) {
			t.Errorf("Expected %q in rules, got: %s", s, text)
		}
	}
}

func TestFormatOutcome(t *testing.T) {
	daffy := &engine.Actor{Symbol: 'D', Name: "Daffy Duck"}

	tests := []struct {
		name     string
		result   engine.Result
		expected string
	}{
		{"Delivered", engine.Result{Winner: daffy, Reason: engine.ReasonDelivered}, "won by Daffy Duck (D)"},
		{"Step cap", engine.Result{Winner: daffy, Reason: engine.ReasonStepCap}, "step cap, Daffy Duck (D) declared winner"},
		{"Step cap nobody", engine.Result{Reason: engine.ReasonStepCap}, "step cap, nobody left"},
		{"Stopped", engine.Result{Reason: engine.ReasonStopped}, "stopped"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatOutcome(&tt.result); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}
