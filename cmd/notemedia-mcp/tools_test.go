package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/use-agent/notemedia/models"
)

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content type %T", res.Content[0])
	}
	return tc.Text
}

func TestExtractMedia(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/media" || r.Header.Get("X-API-Key") != "key" {
			t.Errorf("unexpected request %s key=%q", r.URL.Path, r.Header.Get("X-API-Key"))
		}
		var req models.MediaRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Mode != "strict" || !req.OriginalImages {
			t.Errorf("request = %+v", req)
		}
		_ = json.NewEncoder(w).Encode(models.MediaResponse{
			Success:  true,
			NoteID:   "abc123",
			URLs:     []string{"https://ci.xiaohongshu.com/a", "https://sns-video-bd.xhscdn.com/K"},
			Total:    2,
			FinalURL: "https://www.xiaohongshu.com/explore/abc123",
		})
	}))
	defer srv.Close()

	h := handleExtractMedia(newAPIClient(srv.URL+"/", "key", time.Second))
	res, err := h(context.Background(), callRequest(map[string]any{
		"url":             "https://www.xiaohongshu.com/explore/abc123",
		"mode":            "strict",
		"original_images": true,
	}))
	if err != nil {
		t.Fatal(err)
	}
	text := resultText(t, res)
	if res.IsError || !strings.Contains(text, "Found 2 media URLs") || !strings.Contains(text, "https://sns-video-bd.xhscdn.com/K") {
		t.Errorf("result = %q", text)
	}
}

func TestExtractMedia_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(models.MediaResponse{
			Error: &models.ErrorDetail{Code: models.ErrCodeNoteNotFound, Message: "page is not a note"},
		})
	}))
	defer srv.Close()

	h := handleExtractMedia(newAPIClient(srv.URL, "key", time.Second))

	res, _ := h(context.Background(), callRequest(map[string]any{}))
	if !res.IsError {
		t.Error("missing input should be a tool error")
	}

	res, _ = h(context.Background(), callRequest(map[string]any{"share_text": "xhslink.com/a/x"}))
	if !res.IsError || !strings.Contains(resultText(t, res), models.ErrCodeNoteNotFound) {
		t.Errorf("result = %+v", res)
	}
}

func TestBatchExtract(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/batch/media":
			_ = json.NewEncoder(w).Encode(models.BatchResponse{ID: "batch-1", Status: models.BatchProcessing, Total: 2})
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/batch/batch-1":
			if polls.Add(1) < 2 {
				_ = json.NewEncoder(w).Encode(models.BatchStatusResponse{ID: "batch-1", Status: models.BatchProcessing, Total: 2})
				return
			}
			_ = json.NewEncoder(w).Encode(models.BatchStatusResponse{
				ID: "batch-1", Status: models.BatchPartial, Completed: 2, Total: 2,
				Results: []*models.MediaResponse{
					{Success: true, NoteID: "a", URLs: []string{"https://x/1.jpg"}, Total: 1},
					{Error: &models.ErrorDetail{Code: models.ErrCodeTimeout, Message: "slow"}},
				},
			})
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	h := handleBatchExtract(newAPIClient(srv.URL, "key", time.Second), time.Millisecond)
	res, err := h(context.Background(), callRequest(map[string]any{
		"urls": []any{"https://www.xiaohongshu.com/explore/a", "https://www.xiaohongshu.com/explore/b"},
	}))
	if err != nil {
		t.Fatal(err)
	}
	text := resultText(t, res)
	for _, want := range []string{"Batch batch-1: partial (2/2 completed)", "https://x/1.jpg", "FAILED: [SCRAPE_TIMEOUT] slow"} {
		if !strings.Contains(text, want) {
			t.Errorf("result missing %q:\n%s", want, text)
		}
	}
}
