// ABOUTME: HTTP client for the hosted relational data service
// ABOUTME: Filtered point lookups, insert-returning-id, and update-by-id with error classification
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/purpledash/fieldsync/models"
)

// RemoteStore talks to the hosted relational API:
//
//	GET    {base}/api/{collection}?column=&value=&ci=&limit=   -> JSON array of rows
//	POST   {base}/api/{collection}                             -> {"id": "..."}
//	PATCH  {base}/api/{collection}/{id}                        -> 204
//	GET    {base}/api/health                                   -> 200
//
// Transport failures and 5xx responses are classified transient so the sync
// scheduler leaves the submission queued.
type RemoteStore struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewRemoteStore(baseURL, token string) *RemoteStore {
	return &RemoteStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *RemoteStore) Close() error { return nil }

func (s *RemoteStore) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, Transient(err)
	}
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode == http.StatusTooManyRequests {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		_ = resp.Body.Close()
		return nil, Transient(fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp, nil
}

// findRows runs a filtered lookup and decodes the row array into out, which
// must be a pointer to a slice.
func (s *RemoteStore) findRows(ctx context.Context, collection, column, value string, ci bool, limit int, out interface{}) error {
	q := url.Values{}
	q.Set("column", column)
	q.Set("value", value)
	if ci {
		q.Set("ci", "1")
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", limit))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/api/%s?%s", s.baseURL, collection, q.Encode()), nil)
	if err != nil {
		return err
	}
	resp, err := s.do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s rows: %w", collection, err)
	}
	return nil
}

// insert posts a row and writes the returned id back through setID.
func (s *RemoteStore) insert(ctx context.Context, collection string, row interface{}, setID func(uuid.UUID)) error {
	body, err := json.Marshal(row)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/api/%s", s.baseURL, collection), bytes.NewReader(body))
	if err != nil {
		return err
	}
	resp, err := s.do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode %s insert response: %w", collection, err)
	}
	if setID != nil && result.ID != "" {
		id, err := uuid.Parse(result.ID)
		if err != nil {
			return fmt.Errorf("parse %s insert id: %w", collection, err)
		}
		setID(id)
	}
	return nil
}

func (s *RemoteStore) update(ctx context.Context, collection string, id uuid.UUID, row interface{}) error {
	body, err := json.Marshal(row)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch,
		fmt.Sprintf("%s/api/%s/%s", s.baseURL, collection, id), bytes.NewReader(body))
	if err != nil {
		return err
	}
	resp, err := s.do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	return nil
}

func (s *RemoteStore) FindVehicleByVIN(ctx context.Context, vin string) (*models.Vehicle, error) {
	var rows []models.Vehicle
	if err := s.findRows(ctx, CollectionVehicles, "vin", vin, false, 1, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (s *RemoteStore) InsertVehicle(ctx context.Context, v *models.Vehicle) error {
	return s.insert(ctx, CollectionVehicles, v, func(id uuid.UUID) { v.ID = id })
}

func (s *RemoteStore) UpdateVehicle(ctx context.Context, v *models.Vehicle) error {
	return s.update(ctx, CollectionVehicles, v.ID, v)
}

func (s *RemoteStore) FindCustomerByPhoneKey(ctx context.Context, key string) (*models.Customer, error) {
	var rows []models.Customer
	if err := s.findRows(ctx, CollectionCustomers, "phone_key", key, false, 1, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (s *RemoteStore) InsertCustomer(ctx context.Context, c *models.Customer) error {
	return s.insert(ctx, CollectionCustomers, c, func(id uuid.UUID) { c.ID = id })
}

func (s *RemoteStore) UpdateCustomer(ctx context.Context, c *models.Customer) error {
	return s.update(ctx, CollectionCustomers, c.ID, c)
}

func (s *RemoteStore) FindJobByIdempotencyKey(ctx context.Context, key string) (*models.Job, error) {
	var rows []models.Job
	if err := s.findRows(ctx, CollectionJobs, "idempotency_key", key, false, 1, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (s *RemoteStore) InsertJob(ctx context.Context, j *models.Job) error {
	return s.insert(ctx, CollectionJobs, j, func(id uuid.UUID) { j.ID = id })
}

func (s *RemoteStore) InsertServiceLine(ctx context.Context, l *models.ServiceLine) error {
	return s.insert(ctx, CollectionJobServices, l, func(id uuid.UUID) { l.ID = id })
}

func (s *RemoteStore) FindLegacyByVIN(ctx context.Context, vin string) (*models.LegacyRecord, error) {
	var rows []models.LegacyRecord
	if err := s.findRows(ctx, CollectionLegacy, "vin", vin, true, 1, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (s *RemoteStore) InsertLegacy(ctx context.Context, r *models.LegacyRecord) error {
	return s.insert(ctx, CollectionLegacy, r, func(id uuid.UUID) { r.ID = id })
}

func (s *RemoteStore) UpdateLegacy(ctx context.Context, r *models.LegacyRecord) error {
	return s.update(ctx, CollectionLegacy, r.ID, r)
}

func (s *RemoteStore) ListServiceHistory(ctx context.Context, vin string) ([]models.ServiceHistoryEntry, error) {
	var rows []models.ServiceHistoryEntry
	if err := s.findRows(ctx, CollectionHistory, "vin", vin, false, 0, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *RemoteStore) InsertServiceHistory(ctx context.Context, e *models.ServiceHistoryEntry) error {
	return s.insert(ctx, CollectionHistory, e, func(id uuid.UUID) { e.ID = id })
}

func (s *RemoteStore) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/health", nil)
	if err != nil {
		return err
	}
	resp, err := s.do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	return nil
}
