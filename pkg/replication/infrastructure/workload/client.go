// Package workload talks to the remote workload service that tracks replications
// executed outside this process.
package workload

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

	"github.com/tigerroll/syncwave/pkg/replication/core/application/port"
	"github.com/tigerroll/syncwave/pkg/replication/core/config"
	"github.com/tigerroll/syncwave/pkg/replication/core/domain/model"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/exception"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/logger"
)

const moduleName = "WorkloadAPIClient"

// maxErrorBody caps how much of an error response is kept in the returned error.
const maxErrorBody = 512

// Client is a port.WorkloadAPI speaking JSON over HTTP.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

var _ port.WorkloadAPI = (*Client)(nil)

// NewClient creates a Client for baseURL. A nil httpClient uses one with timeout.
func NewClient(baseURL, authToken string, timeout time.Duration, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		authToken:  authToken,
		httpClient: httpClient,
	}
}

// NewClientFromConfig creates a Client from the `workload_api` section.
func NewClientFromConfig(cfg *config.Config) (*Client, error) {
	wc := cfg.Syncwave.WorkloadAPI
	if wc.BaseURL == "" {
		if cfg.Syncwave.Replication.WorkloadEnabled {
			return nil, exception.NewConfigError(moduleName, "workload_api.base_url is required when replication.workload_enabled is set", nil)
		}
		logger.Debugf("%s: no base_url configured; remote workloads are unavailable.", moduleName)
	}
	return NewClient(wc.BaseURL, wc.AuthToken, time.Duration(wc.TimeoutSeconds)*time.Second, nil), nil
}

type workloadResponse struct {
	ID     string               `json:"id"`
	Status model.WorkloadStatus `json:"status"`
}

type statusUpdateRequest struct {
	WorkloadID string `json:"workloadId"`
	Reason     string `json:"reason,omitempty"`
}

// Create registers a workload. Creating a workload that already exists succeeds.
func (c *Client) Create(ctx context.Context, req port.WorkloadCreateRequest) error {
	const op = "WorkloadAPIClient.Create"

	status, err := c.do(ctx, http.MethodPost, "/api/v1/workload/create", req, nil)
	if status == http.StatusConflict {
		logger.Infof("%s: workload %s already exists.", op, req.WorkloadID)
		return nil
	}
	if err != nil {
		return exception.New(exception.InternalError, op, fmt.Sprintf("failed to create workload %s", req.WorkloadID), err)
	}
	return nil
}

// GetStatus returns the status the service tracks for workloadID.
func (c *Client) GetStatus(ctx context.Context, workloadID string) (model.WorkloadStatus, error) {
	const op = "WorkloadAPIClient.GetStatus"

	var resp workloadResponse
	status, err := c.do(ctx, http.MethodGet, "/api/v1/workload/"+url.PathEscape(workloadID), nil, &resp)
	if status == http.StatusNotFound {
		return "", exception.NewNotFoundError(op, fmt.Sprintf("workload %s not found", workloadID), err)
	}
	if err != nil {
		return "", exception.New(exception.InternalError, op, fmt.Sprintf("failed to fetch workload %s", workloadID), err)
	}
	return resp.Status, nil
}

// ReportStatus records a terminal status for workloadID. Only SUCCESS, FAILURE and
// CANCELLED can be reported.
func (c *Client) ReportStatus(ctx context.Context, workloadID string, status model.WorkloadStatus, reason string) error {
	const op = "WorkloadAPIClient.ReportStatus"

	var endpoint string
	switch status {
	case model.WorkloadStatusSuccess:
		endpoint = "success"
	case model.WorkloadStatusFailure:
		endpoint = "failure"
	case model.WorkloadStatusCancelled:
		endpoint = "cancel"
	default:
		return exception.New(exception.InternalError, op, fmt.Sprintf("status %s cannot be reported", status), nil)
	}
	if _, err := c.do(ctx, http.MethodPut, "/api/v1/workload/"+endpoint, statusUpdateRequest{WorkloadID: workloadID, Reason: reason}, nil); err != nil {
		return exception.New(exception.InternalError, op, fmt.Sprintf("failed to report %s for workload %s", status, workloadID), err)
	}
	logger.Debugf("%s: reported %s for workload %s.", op, status, workloadID)
	return nil
}

// Cancel asks the service to stop workloadID.
func (c *Client) Cancel(ctx context.Context, workloadID, reason string) error {
	return c.ReportStatus(ctx, workloadID, model.WorkloadStatusCancelled, reason)
}

// do sends one request and decodes a JSON response into out when out is non-nil.
// The HTTP status is returned even when err is set; it is zero on transport errors.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) (int, error) {
	if c.baseURL == "" {
		return 0, fmt.Errorf("workload api base url is not configured")
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return resp.StatusCode, fmt.Errorf("%s %s returned %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response of %s %s: %w", method, path, err)
		}
	}
	return resp.StatusCode, nil
}
