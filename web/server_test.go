// ABOUTME: Tests for the dashboard and submission API
// ABOUTME: Covers VIN search, PII-free public pages, submit outcomes, and queue views
package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/purpledash/fieldsync/engine"
	"github.com/purpledash/fieldsync/models"
	"github.com/purpledash/fieldsync/queue"
	"github.com/purpledash/fieldsync/store"
)

func newTestServer(t *testing.T, online bool) (*Server, *store.MemoryStore, *queue.MemoryStore) {
	t.Helper()
	st := store.NewMemoryEntityStore()
	q := queue.NewMemoryStore()
	mon := engine.NewStaticMonitor(online)
	syncer := engine.NewSyncer(q, engine.NewReconciler(st, nil, mon), mon)
	return NewServer(st, q, syncer, nil), st, q
}

func seedLegacy(st *store.MemoryStore) {
	st.Legacy = append(st.Legacy, models.LegacyRecord{
		VIN:                "1HGCM82633A004352",
		CustomerName:       "Dana Fields",
		Phone:              "(312) 555-0147",
		Email:              "dana@example.com",
		Address:            "12 Elm St",
		Year:               2003,
		Make:               "Honda",
		Model:              "Accord",
		Nickname:           "The Daily",
		ServiceHistoryLink: "https://drive.google.com/drive/folders/abc_123-XY?usp=sharing",
	})
	st.History = append(st.History, models.ServiceHistoryEntry{
		VIN: "1HGCM82633A004352", Date: "2024-06-02", ServiceType: "Full Detail",
		Technician: "Mo", Price: "250",
	})
}

func TestSearchReturnsRecordAndHistory(t *testing.T) {
	srv, st, _ := newTestServer(t, true)
	seedLegacy(st)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search?vin=1hgcm82633a004352", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Record  models.LegacyRecord          `json:"record"`
		History []models.ServiceHistoryEntry `json:"history"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "Dana Fields", body.Record.CustomerName)
	require.Len(t, body.History, 1)
}

func TestSearchRejectsBadVIN(t *testing.T) {
	srv, _, _ := newTestServer(t, true)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search?vin=short", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchUnknownVINIs404(t *testing.T) {
	srv, _, _ := newTestServer(t, true)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search?vin=1HGCM82633A004352", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPublicPageOmitsPII(t *testing.T) {
	srv, st, _ := newTestServer(t, true)
	seedLegacy(st)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/public/1HGCM82633A004352", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	raw := rec.Body.String()
	require.NotContains(t, raw, "Dana Fields")
	require.NotContains(t, raw, "555-0147")
	require.NotContains(t, raw, "dana@example.com")
	require.NotContains(t, raw, "Elm St")

	var view map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &view))
	require.Equal(t, "Honda", view["make"])
	require.Equal(t, "https://drive.google.com/embeddedfolderview?id=abc_123-XY#list", view["photos_embed_url"])
	require.Len(t, view["history"], 1)
}

func TestEmbedFolderURL(t *testing.T) {
	tests := []struct {
		name string
		link string
		want string
	}{
		{"full share link", "https://drive.google.com/drive/folders/a1B2_c-3?usp=sharing", "https://drive.google.com/embeddedfolderview?id=a1B2_c-3#list"},
		{"bare folder link", "https://drive.google.com/drive/folders/xyz", "https://drive.google.com/embeddedfolderview?id=xyz#list"},
		{"not a folder link", "https://example.com/photos", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, EmbedFolderURL(tt.link))
		})
	}
}

func submissionBody() string {
	return `{
		"vin": "1HGCM82633A004352",
		"customer_name": "Dana Fields",
		"phone": "(312) 555-0147",
		"package_id": "full-detail",
		"total_charged": "250"
	}`
}

func TestSubmitOnlineCreates(t *testing.T) {
	srv, st, _ := newTestServer(t, true)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/submissions", strings.NewReader(submissionBody())))
	require.Equal(t, http.StatusCreated, rec.Code)

	var res engine.SubmitResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	require.Equal(t, models.SubmitOutcomeSaved, res.Outcome)
	require.Len(t, st.Jobs, 1)
}

func TestSubmitOfflineAccepted(t *testing.T) {
	srv, _, q := newTestServer(t, false)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/submissions", strings.NewReader(submissionBody())))
	require.Equal(t, http.StatusAccepted, rec.Code)

	n, err := q.Count()
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestSubmitInvalidIs400(t *testing.T) {
	srv, _, q := newTestServer(t, true)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/submissions",
		strings.NewReader(`{"vin":"bad","customer_name":"x","package_id":"p"}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	n, err := q.Count()
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestQueueView(t *testing.T) {
	srv, _, q := newTestServer(t, true)
	job := queue.NewPendingJob(models.SubmissionPayload{VIN: "1HGCM82633A004352"})
	require.NoError(t, q.Push(job))
	require.NoError(t, q.Bury(queue.NewPendingJob(models.SubmissionPayload{VIN: "bad"}), "validation: invalid VIN"))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/queue", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Pending []models.PendingJob `json:"pending"`
		Dead    []models.DeadJob    `json:"dead"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Pending, 1)
	require.Len(t, body.Dead, 1)
}

func TestHealthz(t *testing.T) {
	srv, _, _ := newTestServer(t, true)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"ok"`)
}
