// ABOUTME: Dashboard and submission API server
// ABOUTME: VIN search, PII-free public vehicle pages, submit endpoint, queue and health views
package web

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"

	"github.com/purpledash/fieldsync/engine"
	"github.com/purpledash/fieldsync/metrics"
	"github.com/purpledash/fieldsync/models"
	"github.com/purpledash/fieldsync/normalize"
	"github.com/purpledash/fieldsync/queue"
	"github.com/purpledash/fieldsync/store"
)

// Server exposes the read paths the old dashboard depended on plus the
// submission API.
type Server struct {
	store   store.EntityStore
	queue   queue.Store
	syncer  *engine.Syncer
	metrics *metrics.Registry
	mux     *http.ServeMux
}

func NewServer(st store.EntityStore, q queue.Store, syncer *engine.Syncer, reg *metrics.Registry) *Server {
	s := &Server{store: st, queue: q, syncer: syncer, metrics: reg, mux: http.NewServeMux()}

	s.mux.HandleFunc("/search", s.handleSearch)
	s.mux.HandleFunc("/public/", s.handlePublicVehicle)
	s.mux.HandleFunc("/api/submissions", s.handleSubmit)
	s.mux.HandleFunc("/api/queue", s.handleQueue)
	s.mux.HandleFunc("/healthz", s.handleHealth)
	if reg != nil {
		s.mux.Handle("/metrics", reg.Handler())
	}
	return s
}

func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) Start(addr string) error {
	log.Printf("Starting dashboard server at http://localhost%s", addr)
	return http.ListenAndServe(addr, s.mux)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, format string, args ...interface{}) {
	writeJSON(w, status, map[string]string{"error": fmt.Sprintf(format, args...)})
}

// handleSearch serves GET /search?vin= with the legacy record and service
// history for staff use.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	vin := normalize.VIN(r.URL.Query().Get("vin"))
	if !normalize.IsValidVIN(vin) {
		writeError(w, http.StatusBadRequest, "vin must be 17 characters")
		return
	}

	record, err := s.store.FindLegacyByVIN(r.Context(), vin)
	if err != nil {
		writeError(w, http.StatusBadGateway, "lookup failed: %v", err)
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "no record for %s", vin)
		return
	}

	history, err := s.store.ListServiceHistory(r.Context(), vin)
	if err != nil {
		log.Printf("history lookup for %s failed: %v", vin, err)
		history = nil
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"record":  record,
		"history": history,
	})
}

var driveFolderRe = regexp.MustCompile(`/folders/([A-Za-z0-9_-]+)`)

// EmbedFolderURL converts a Drive folder link into the embeddable list
// view. Empty when the link carries no folder id.
func EmbedFolderURL(link string) string {
	m := driveFolderRe.FindStringSubmatch(link)
	if m == nil {
		return ""
	}
	return "https://drive.google.com/embeddedfolderview?id=" + m[1] + "#list"
}

// publicVehicle is the PII-free projection served to customers.
type publicVehicle struct {
	VIN         string               `json:"vin"`
	Year        int                  `json:"year,omitempty"`
	Make        string               `json:"make,omitempty"`
	Model       string               `json:"model,omitempty"`
	Trim        string               `json:"trim,omitempty"`
	Nickname    string               `json:"nickname,omitempty"`
	PhotosEmbed string               `json:"photos_embed_url,omitempty"`
	History     []publicHistoryEntry `json:"history"`
}

type publicHistoryEntry struct {
	Date                   string `json:"date,omitempty"`
	ServiceType            string `json:"service_type,omitempty"`
	ServiceNotes           string `json:"service_notes,omitempty"`
	NextRecommendedService string `json:"next_recommended_service,omitempty"`
}

// handlePublicVehicle serves GET /public/{vin}. Customer name, phone,
// email, and address never appear here.
func (s *Server) handlePublicVehicle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	vin := normalize.VIN(strings.TrimPrefix(r.URL.Path, "/public/"))
	if !normalize.IsValidVIN(vin) {
		writeError(w, http.StatusBadRequest, "vin must be 17 characters")
		return
	}

	record, err := s.store.FindLegacyByVIN(r.Context(), vin)
	if err != nil {
		writeError(w, http.StatusBadGateway, "lookup failed: %v", err)
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "no record for %s", vin)
		return
	}

	view := publicVehicle{
		VIN:         record.VIN,
		Year:        record.Year,
		Make:        record.Make,
		Model:       record.Model,
		Trim:        record.Trim,
		Nickname:    record.Nickname,
		PhotosEmbed: EmbedFolderURL(record.ServiceHistoryLink),
		History:     []publicHistoryEntry{},
	}

	history, err := s.store.ListServiceHistory(r.Context(), vin)
	if err != nil {
		log.Printf("history lookup for %s failed: %v", vin, err)
	}
	for _, e := range history {
		view.History = append(view.History, publicHistoryEntry{
			Date:                   e.Date,
			ServiceType:            e.ServiceType,
			ServiceNotes:           e.ServiceNotes,
			NextRecommendedService: e.NextRecommendedService,
		})
	}

	writeJSON(w, http.StatusOK, view)
}

// handleSubmit serves POST /api/submissions through the same
// submit-or-queue path the CLI uses.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var payload models.SubmissionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "bad request body: %v", err)
		return
	}

	res, err := s.syncer.SubmitOrQueue(r.Context(), payload)
	if err != nil {
		if engine.IsValidation(err) {
			writeError(w, http.StatusBadRequest, "%v", err)
			return
		}
		writeError(w, http.StatusBadGateway, "submit failed: %v", err)
		return
	}

	status := http.StatusCreated
	if res.Outcome == models.SubmitOutcomeQueued {
		status = http.StatusAccepted
	}
	writeJSON(w, status, res)
}

// handleQueue serves GET /api/queue with pending and dead entries.
func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	pending, err := s.queue.ListAll()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list queue: %v", err)
		return
	}
	dead, err := s.queue.ListDead()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list dead letters: %v", err)
		return
	}
	if pending == nil {
		pending = []models.PendingJob{}
	}
	if dead == nil {
		dead = []models.DeadJob{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"pending": pending,
		"dead":    dead,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{"status": "ok"}
	if err := s.store.Ping(r.Context()); err != nil {
		status["status"] = "degraded"
		status["store"] = err.Error()
	}
	writeJSON(w, http.StatusOK, status)
}
