package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/wricardo/looney-race/game/service"
	"github.com/wricardo/looney-race/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.RaceService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server. hub may be nil, in which case /ws
// is not served.
func NewServer(raceService service.RaceService, hub *websocket.Hub) *Server {
	s := &Server{
		service: raceService,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.MethodNotAllowedHandler = http.HandlerFunc(handleMethodNotAllowed)
	s.router.MethodNotAllowedHandler = http.HandlerFunc(handleMethodNotAllowed)

	// Races
	api.HandleFunc("/races", s.handleStartRace).Methods("POST")
	api.HandleFunc("/races", s.handleListRaces).Methods("GET")
	api.HandleFunc("/races/{id}", s.handleGetRace).Methods("GET")
	api.HandleFunc("/races/{id}", s.handleDeleteRace).Methods("DELETE")
	api.HandleFunc("/races/{id}/board", s.handleGetBoard).Methods("GET")
	api.HandleFunc("/races/{id}/events", s.handleGetEvents).Methods("GET")
	api.HandleFunc("/races/{id}/stop", s.handleStopRace).Methods("POST")

	api.HandleFunc("/rules", s.handleGetRules).Methods("GET")
	api.HandleFunc("", s.handleIndex).Methods("GET")

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	if s.hub != nil {
		s.router.HandleFunc("/ws", s.handleWebSocket)
	}
}

func handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusMethodNotAllowed, fmt.Sprintf("method %s not allowed", r.Method))
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service errors to status codes
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrRaceNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidDelay):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// Race Handlers

func (s *Server) handleStartRace(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DelayMS int64 `json:"delay_ms,omitempty"`
	}

	if r.Body != nil {
		// An empty body selects the defaults
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	info, err := s.service.StartRace(r.Context(), service.StartOptions{
		Delay: time.Duration(req.DelayMS) * time.Millisecond,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListRaces(w http.ResponseWriter, r *http.Request) {
	races, err := s.service.ListRaces(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	// Optional status filter
	if status := r.URL.Query().Get("status"); status != "" {
		filtered := make([]*service.RaceInfo, 0, len(races))
		for _, race := range races {
			if race.Status == status {
				filtered = append(filtered, race)
			}
		}
		races = filtered
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"races": races,
		"count": len(races),
	})
}

func (s *Server) handleGetRace(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.GetRace(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteRace(w http.ResponseWriter, r *http.Request) {
	raceID := mux.Vars(r)["id"]

	if err := s.service.DeleteRace(r.Context(), raceID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Race deleted successfully",
		"id":      raceID,
	})
}

func (s *Server) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	board, err := s.service.GetBoard(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(board))
}

func (s *Server) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	opts := service.HistoryOptions{
		Page:  1,
		Limit: service.DefaultPageSize,
		Order: "desc",
	}

	query := r.URL.Query()
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			opts.Page = p
		}
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			opts.Limit = l
		}
	}

	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}

	opts.Type = query.Get("type")

	history, err := s.service.GetEvents(r.Context(), mux.Vars(r)["id"], opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}

func (s *Server) handleStopRace(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.StopRace(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleGetRules(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.service.GetRules(r.Context()))
}

// handleIndex lists the available endpoints
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"name": "Looney Race API",
		"endpoints": []string{
			"POST /api/races",
			"GET /api/races",
			"GET /api/races/{id}",
			"GET /api/races/{id}/board",
			"GET /api/races/{id}/events",
			"POST /api/races/{id}/stop",
			"DELETE /api/races/{id}",
			"GET /api/rules",
			"GET /ws?race={id}",
		},
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	raceID := r.URL.Query().Get("race")
	if raceID == "" {
		http.Error(w, "race parameter required", http.StatusBadRequest)
		return
	}

	info, err := s.service.GetRace(r.Context(), raceID)
	if err != nil {
		http.Error(w, "Invalid race", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, info.ID, &info.State)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
