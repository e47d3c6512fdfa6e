// ABOUTME: Submission MCP tool handlers
// ABOUTME: Implements submit_job, vin_search, and queue_status tools
package handlers

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/purpledash/fieldsync/engine"
	"github.com/purpledash/fieldsync/models"
	"github.com/purpledash/fieldsync/normalize"
	"github.com/purpledash/fieldsync/store"
)

type SubmissionHandlers struct {
	store  store.EntityStore
	syncer *engine.Syncer
}

func NewSubmissionHandlers(st store.EntityStore, syncer *engine.Syncer) *SubmissionHandlers {
	return &SubmissionHandlers{store: st, syncer: syncer}
}

type SubmitJobInput struct {
	VIN          string   `json:"vin" jsonschema:"Vehicle VIN, 17 characters (required)"`
	Year         int      `json:"year,omitempty" jsonschema:"Model year"`
	Make         string   `json:"make,omitempty" jsonschema:"Vehicle make"`
	Model        string   `json:"model,omitempty" jsonschema:"Vehicle model"`
	Trim         string   `json:"trim,omitempty" jsonschema:"Vehicle trim level"`
	CustomerName string   `json:"customer_name" jsonschema:"Customer name (required)"`
	Phone        string   `json:"phone,omitempty" jsonschema:"Customer phone number"`
	Email        string   `json:"email,omitempty" jsonschema:"Customer email address"`
	Address      string   `json:"address,omitempty" jsonschema:"Customer street address"`
	Zip          string   `json:"zip,omitempty" jsonschema:"Customer zip code"`
	PackageID    string   `json:"package_id" jsonschema:"Catalog id of the detailing package (required)"`
	AddOnIDs     []string `json:"addon_ids,omitempty" jsonschema:"Catalog ids of purchased add-ons"`
	TotalCharged string   `json:"total_charged" jsonschema:"Total charged, free-text dollars"`
	Notes        string   `json:"notes,omitempty" jsonschema:"Job notes"`
}

type SubmitJobOutput struct {
	Outcome string `json:"outcome"` // "saved" or "queued"
	VIN     string `json:"vin"`
	JobID   string `json:"job_id,omitempty"`
}

// SubmitJob records a completed detailing job, queuing it when offline.
func (h *SubmissionHandlers) SubmitJob(ctx context.Context, request *mcp.CallToolRequest, input SubmitJobInput) (*mcp.CallToolResult, SubmitJobOutput, error) {
	payload := models.SubmissionPayload{
		VIN:          input.VIN,
		Year:         input.Year,
		Make:         input.Make,
		Model:        input.Model,
		Trim:         input.Trim,
		CustomerName: input.CustomerName,
		Phone:        input.Phone,
		Email:        input.Email,
		Address:      input.Address,
		Zip:          input.Zip,
		PackageID:    input.PackageID,
		AddOnIDs:     input.AddOnIDs,
		TotalCharged: input.TotalCharged,
		Notes:        input.Notes,
	}

	res, err := h.syncer.SubmitOrQueue(ctx, payload)
	if err != nil {
		return nil, SubmitJobOutput{}, err
	}
	return nil, SubmitJobOutput{Outcome: res.Outcome, VIN: res.VIN, JobID: res.JobID}, nil
}

type VinSearchInput struct {
	VIN string `json:"vin" jsonschema:"Vehicle VIN, 17 characters (required)"`
}

type VinSearchOutput struct {
	Found        bool                         `json:"found"`
	VIN          string                       `json:"vin"`
	CustomerName string                       `json:"customer_name,omitempty"`
	Phone        string                       `json:"phone,omitempty"`
	Year         int                          `json:"year,omitempty"`
	Make         string                       `json:"make,omitempty"`
	Model        string                       `json:"model,omitempty"`
	Nickname     string                       `json:"nickname,omitempty"`
	History      []models.ServiceHistoryEntry `json:"history,omitempty"`
}

// VinSearch looks up a vehicle's record and service history by VIN.
func (h *SubmissionHandlers) VinSearch(ctx context.Context, request *mcp.CallToolRequest, input VinSearchInput) (*mcp.CallToolResult, VinSearchOutput, error) {
	vin := normalize.VIN(input.VIN)
	if !normalize.IsValidVIN(vin) {
		return nil, VinSearchOutput{}, fmt.Errorf("vin must be 17 characters")
	}

	record, err := h.store.FindLegacyByVIN(ctx, vin)
	if err != nil {
		return nil, VinSearchOutput{}, fmt.Errorf("lookup failed: %w", err)
	}
	if record == nil {
		return nil, VinSearchOutput{Found: false, VIN: vin}, nil
	}

	history, err := h.store.ListServiceHistory(ctx, vin)
	if err != nil {
		history = nil
	}

	return nil, VinSearchOutput{
		Found:        true,
		VIN:          record.VIN,
		CustomerName: record.CustomerName,
		Phone:        record.Phone,
		Year:         record.Year,
		Make:         record.Make,
		Model:        record.Model,
		Nickname:     record.Nickname,
		History:      history,
	}, nil
}

type QueueStatusInput struct{}

type QueueStatusOutput struct {
	Queued  int  `json:"queued"`
	Dead    int  `json:"dead"`
	Online  bool `json:"online"`
	Syncing bool `json:"syncing"`
}

// QueueStatus reports pending and dead-letter counts and connectivity.
func (h *SubmissionHandlers) QueueStatus(ctx context.Context, request *mcp.CallToolRequest, input QueueStatusInput) (*mcp.CallToolResult, QueueStatusOutput, error) {
	queued, dead, online, syncing := h.syncer.Status()
	return nil, QueueStatusOutput{Queued: queued, Dead: dead, Online: online, Syncing: syncing}, nil
}
