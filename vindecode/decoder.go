// ABOUTME: VIN decode collaborator client
// ABOUTME: Best-effort year/make/model/trim lookup; any failure means no identity
package vindecode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/purpledash/fieldsync/models"
)

// Decoder resolves a VIN to best-effort vehicle identity. Implementations
// must treat every failure as non-fatal; callers receive (nil, error) and
// proceed without the identity.
type Decoder interface {
	Decode(ctx context.Context, vin string) (*models.VehicleIdentity, error)
}

// HTTPDecoder calls GET {base}/vin-decode?vin=<17 chars>.
type HTTPDecoder struct {
	baseURL string
	client  *http.Client
}

func NewHTTPDecoder(baseURL string) *HTTPDecoder {
	return &HTTPDecoder{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (d *HTTPDecoder) Decode(ctx context.Context, vin string) (*models.VehicleIdentity, error) {
	u := fmt.Sprintf("%s/vin-decode?vin=%s", d.baseURL, url.QueryEscape(vin))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		var failure struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&failure)
		if failure.Error != "" {
			return nil, fmt.Errorf("decode %s: %s", vin, failure.Error)
		}
		return nil, fmt.Errorf("decode %s: status %d", vin, resp.StatusCode)
	}

	var body struct {
		Year  *int    `json:"year"`
		Make  *string `json:"make"`
		Model *string `json:"model"`
		Trim  *string `json:"trim"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode %s: %w", vin, err)
	}

	identity := &models.VehicleIdentity{}
	if body.Year != nil {
		identity.Year = *body.Year
	}
	if body.Make != nil {
		identity.Make = *body.Make
	}
	if body.Model != nil {
		identity.Model = *body.Model
	}
	if body.Trim != nil {
		identity.Trim = *body.Trim
	}
	return identity, nil
}

// StaticDecoder returns a fixed identity, or an error when Err is set.
// Used in tests and the dry-run CLI path.
type StaticDecoder struct {
	Identity *models.VehicleIdentity
	Err      error
	Calls    int
}

func (d *StaticDecoder) Decode(ctx context.Context, vin string) (*models.VehicleIdentity, error) {
	d.Calls++
	if d.Err != nil {
		return nil, d.Err
	}
	return d.Identity, nil
}
