// Package httpstore implements the RecordStore and Validator ports against
// the remote table store's HTTP API.
package httpstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/fintab-labs/gridsave/internal/domain"
	"github.com/fintab-labs/gridsave/internal/ports"
)

const (
	upsertEndpoint   = "/v1/tables/%s/records:batchUpsert"
	validateEndpoint = "/v1/tables/%s/records:validate"
)

// Client talks to the remote table store over HTTP with JSON bodies.
type Client struct {
	serviceURL string
	table      string
	authKey    string
	httpClient ports.HTTPClient
	logger     ports.Logger
}

// NewClient creates a store client for one table.
func NewClient(serviceURL, table, authKey string, httpClient ports.HTTPClient, logger ports.Logger) *Client {
	return &Client{
		serviceURL: serviceURL,
		table:      table,
		authKey:    authKey,
		httpClient: httpClient,
		logger:     logger,
	}
}

// UpsertBatch sends all records in one call. Each record is flattened into
// one JSON object carrying its id, its field values and the updated_at
// stamp. Every flush gets a fresh request id for server-side tracing.
func (c *Client) UpsertBatch(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}

	payload := make([]map[string]any, len(records))
	for i, r := range records {
		row := make(map[string]any, len(r.Fields)+2)
		for k, v := range r.Fields {
			row[k] = v
		}
		row["id"] = r.ID
		row["updated_at"] = r.UpdatedAt.UTC().Format(time.RFC3339Nano)
		payload[i] = row
	}

	body, err := json.Marshal(map[string]any{"records": payload})
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}

	url := c.serviceURL + fmt.Sprintf(upsertEndpoint, c.table)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Authorization", "Bearer "+c.authKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(respBody))
	}

	c.logger.Debug("batch upserted",
		ports.String("request_id", requestID),
		ports.Int("records", len(records)),
	)
	return nil
}

// Validate checks one candidate cell value against the remote business
// rules. Transport and server failures come back wrapped in
// ErrValidationUnavailable: the caller must treat the cell as unknown, not
// invalid.
func (c *Client) Validate(ctx context.Context, entityID, field string, value float64) (domain.ValidationResult, error) {
	body, err := json.Marshal(map[string]any{
		"entity_id":       entityID,
		"field":           field,
		"candidate_value": value,
	})
	if err != nil {
		return domain.ValidationResult{}, fmt.Errorf("marshal validation request: %w", err)
	}

	url := c.serviceURL + fmt.Sprintf(validateEndpoint, c.table)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return domain.ValidationResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.authKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ValidationResult{}, fmt.Errorf("%w: %v", domain.ErrValidationUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(resp.Body)
		return domain.ValidationResult{}, fmt.Errorf("%w: server returned %d: %s",
			domain.ErrValidationUnavailable, resp.StatusCode, string(respBody))
	}

	var result domain.ValidationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return domain.ValidationResult{}, fmt.Errorf("%w: decode response: %v",
			domain.ErrValidationUnavailable, err)
	}
	return result, nil
}
