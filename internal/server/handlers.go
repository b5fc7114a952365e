package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/splitsig/splitsig/internal/store"
)

type HealthResponse struct {
	Status           string `json:"status"`
	ExperimentsCount int    `json:"experiments_count"`
	DBSizeBytes      int64  `json:"db_size_bytes"`
	UptimeSeconds    int64  `json:"uptime_seconds"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	experiments, err := s.store.ListExperiments(r.Context())
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var dbSize int64
	row := s.store.DB().QueryRow("SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()")
	_ = row.Scan(&dbSize)

	response := HealthResponse{
		Status:           "ok",
		ExperimentsCount: len(experiments),
		DBSizeBytes:      dbSize,
		UptimeSeconds:    int64(time.Since(s.startTime).Seconds()),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// BeaconRequest represents an incoming tracking event
type BeaconRequest struct {
	Experiment string `json:"t"`
	Variant    int    `json:"v"`
	EventType  string `json:"e"`
	VisitorID  string `json:"vid"`
}

func (s *Server) handleBeacon(w http.ResponseWriter, r *http.Request) {
	// CORS headers for cross-origin beacons
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req BeaconRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if req.Experiment == "" || req.VisitorID == "" {
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}

	if req.EventType != store.EventExposure && req.EventType != store.EventConvert {
		http.Error(w, "Invalid event type", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	exp, err := s.store.GetExperiment(ctx, req.Experiment)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Experiment not found", http.StatusBadRequest)
			return
		}
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if exp.State != store.StateRunning {
		http.Error(w, "Experiment is not running", http.StatusConflict)
		return
	}

	if req.Variant < 0 || req.Variant >= len(exp.Variants) {
		http.Error(w, "Invalid variant", http.StatusBadRequest)
		return
	}

	// Deduplication is handled by the store
	if err := s.store.RecordEvent(ctx, req.Experiment, req.Variant, req.EventType, req.VisitorID); err != nil {
		http.Error(w, "Failed to record event", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ExperimentResponse is the public listing shape.
type ExperimentResponse struct {
	Name      string   `json:"name"`
	State     string   `json:"state"`
	Variants  []string `json:"variants"`
	Goal      string   `json:"goal,omitempty"`
	CreatedAt int64    `json:"created_at"`
}

func (s *Server) handleExperimentsAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	experiments, err := s.store.ListExperiments(r.Context())
	if err != nil {
		http.Error(w, "Failed to fetch experiments", http.StatusInternalServerError)
		return
	}

	response := make([]ExperimentResponse, 0, len(experiments))
	for _, exp := range experiments {
		names := make([]string, len(exp.Variants))
		for i, v := range exp.Variants {
			names[i] = v.Name
		}
		response = append(response, ExperimentResponse{
			Name:      exp.Name,
			State:     string(exp.State),
			Variants:  names,
			Goal:      exp.Goal,
			CreatedAt: exp.CreatedAt.Unix(),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleExperimentResults serves /api/experiments/{name}/results
func (s *Server) handleExperimentResults(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/experiments/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "results" {
		http.NotFound(w, r)
		return
	}
	name := parts[0]

	ctx := r.Context()

	exp, err := s.store.GetExperiment(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Experiment not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	response, err := s.analysisResponse(ctx, exp)
	if err != nil {
		http.Error(w, "Failed to analyze experiment", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleDashboardAPI serves the full analysis for every experiment.
func (s *Server) handleDashboardAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	experiments, err := s.store.ListExperiments(ctx)
	if err != nil {
		http.Error(w, "Failed to fetch experiments", http.StatusInternalServerError)
		return
	}

	response := make([]AnalysisResponse, 0, len(experiments))
	for _, exp := range experiments {
		a, err := s.analysisResponse(ctx, exp)
		if err != nil {
			http.Error(w, "Failed to analyze experiment", http.StatusInternalServerError)
			return
		}
		response = append(response, a)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
