package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/notemedia/models"
)

const (
	defaultTimeout = 120 * time.Second
	batchTimeout   = 600 * time.Second
	pollInterval   = 2 * time.Second
)

// apiClient calls the notemedia HTTP API.
type apiClient struct {
	http   *http.Client
	base   string
	apiKey string
}

func newAPIClient(base, apiKey string, timeout time.Duration) *apiClient {
	return &apiClient{
		http:   &http.Client{Timeout: timeout},
		base:   strings.TrimRight(base, "/"),
		apiKey: apiKey,
	}
}

func (c *apiClient) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse response (status %d): %w", resp.StatusCode, err)
	}
	return nil
}

// pollBatch polls until the job leaves the processing state.
func (c *apiClient) pollBatch(ctx context.Context, id string, every time.Duration) (*models.BatchStatusResponse, error) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			var st models.BatchStatusResponse
			if err := c.do(ctx, http.MethodGet, "/api/v1/batch/"+id, nil, &st); err != nil {
				return nil, err
			}
			if st.Status != models.BatchProcessing {
				return &st, nil
			}
		}
	}
}

func handleExtractMedia(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		req := models.MediaRequest{
			URL:            request.GetString("url", ""),
			ShareText:      request.GetString("share_text", ""),
			Mode:           request.GetString("mode", ""),
			OriginalImages: request.GetBool("original_images", false),
		}
		if req.URL == "" && req.ShareText == "" {
			return mcp.NewToolResultError("url or share_text is required"), nil
		}

		var resp models.MediaResponse
		if err := c.do(ctx, http.MethodPost, "/api/v1/media", req, &resp); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !resp.Success {
			return mcp.NewToolResultError(describeError(resp.Error)), nil
		}
		return mcp.NewToolResultText(formatMedia(&resp)), nil
	}
}

func handleBatchExtract(c *apiClient, every time.Duration) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		urls, err := request.RequireStringSlice("urls")
		if err != nil {
			return mcp.NewToolResultError("urls is required and must be an array of strings"), nil
		}

		payload := models.BatchRequest{
			URLs: urls,
			Options: models.BatchOptions{
				Mode:           request.GetString("mode", ""),
				OriginalImages: request.GetBool("original_images", false),
			},
		}
		var created models.BatchResponse
		if err := c.do(ctx, http.MethodPost, "/api/v1/batch/media", payload, &created); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("batch request failed: %v", err)), nil
		}
		if created.ID == "" {
			return mcp.NewToolResultError("batch job creation failed"), nil
		}

		st, err := c.pollBatch(ctx, created.ID, every)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("polling batch job failed: %v", err)), nil
		}
		return mcp.NewToolResultText(formatBatch(st)), nil
	}
}

func describeError(e *models.ErrorDetail) string {
	if e == nil {
		return "extraction failed"
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func formatMedia(resp *models.MediaResponse) string {
	var sb strings.Builder
	if resp.Title != "" {
		fmt.Fprintf(&sb, "Title: %s\n", resp.Title)
	}
	fmt.Fprintf(&sb, "Note: %s\nSource: %s\nFound %d media URLs:\n", resp.NoteID, resp.FinalURL, resp.Total)
	for _, u := range resp.URLs {
		sb.WriteString(u)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func formatBatch(st *models.BatchStatusResponse) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Batch %s: %s (%d/%d completed)\n\n", st.ID, st.Status, st.Completed, st.Total)
	for i, r := range st.Results {
		switch {
		case r == nil:
			fmt.Fprintf(&sb, "--- [%d] pending ---\n\n", i+1)
		case r.Success:
			fmt.Fprintf(&sb, "--- [%d] ---\n%s\n", i+1, formatMedia(r))
		default:
			fmt.Fprintf(&sb, "--- [%d] FAILED: %s ---\n\n", i+1, describeError(r.Error))
		}
	}
	return sb.String()
}
