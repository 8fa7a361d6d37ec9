package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/use-agent/notemedia/models"
	"github.com/use-agent/notemedia/webhook"
)

// batchJob guards a models.BatchJob; workers write results while status
// requests read them.
type batchJob struct {
	mu  sync.Mutex
	job models.BatchJob
}

func (b *batchJob) snapshot() models.BatchStatusResponse {
	b.mu.Lock()
	defer b.mu.Unlock()
	results := make([]*models.MediaResponse, len(b.job.Results))
	copy(results, b.job.Results)
	return models.BatchStatusResponse{
		ID:        b.job.ID,
		Status:    b.job.Status,
		Completed: b.job.Completed,
		Total:     b.job.Total,
		Results:   results,
	}
}

// Batches runs batch jobs and keeps them queryable until they expire.
type Batches struct {
	media       *Media
	sender      *webhook.Sender
	concurrency int
	ttl         time.Duration
	store       sync.Map // id -> *batchJob
}

// NewBatches creates a job store. sender may be nil to disable webhooks.
func NewBatches(media *Media, sender *webhook.Sender, concurrency int, ttl time.Duration) *Batches {
	if concurrency <= 0 {
		concurrency = 5
	}
	return &Batches{media: media, sender: sender, concurrency: concurrency, ttl: ttl}
}

// Prune drops jobs created before now-ttl.
func (b *Batches) Prune(now time.Time) {
	cutoff := now.Add(-b.ttl).Unix()
	b.store.Range(func(key, value any) bool {
		bj := value.(*batchJob)
		bj.mu.Lock()
		expired := bj.job.CreatedAt < cutoff && bj.job.Status != models.BatchProcessing
		bj.mu.Unlock()
		if expired {
			b.store.Delete(key)
		}
		return true
	})
}

// PruneLoop calls Prune every interval until ctx is done.
func (b *Batches) PruneLoop(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			b.Prune(now)
		}
	}
}

// PostBatch returns a handler for POST /api/v1/batch/media.
func (b *Batches) PostBatch() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.BatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"status": models.BatchFailed,
				"error":  models.ErrorDetail{Code: models.ErrCodeInvalidInput, Message: err.Error()},
			})
			return
		}

		id := b.start(req)
		c.JSON(http.StatusAccepted, models.BatchResponse{
			ID:     id,
			Status: models.BatchProcessing,
			Total:  len(req.URLs),
		})
	}
}

// GetBatch returns a handler for GET /api/v1/batch/:id.
func (b *Batches) GetBatch() gin.HandlerFunc {
	return func(c *gin.Context) {
		val, ok := b.store.Load(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{
				"error": models.ErrorDetail{Code: models.ErrCodeInvalidInput, Message: "batch job not found"},
			})
			return
		}
		c.JSON(http.StatusOK, val.(*batchJob).snapshot())
	}
}

func (b *Batches) start(req models.BatchRequest) string {
	bj := &batchJob{job: models.BatchJob{
		ID:            "batch-" + uuid.NewString(),
		Status:        models.BatchProcessing,
		Total:         len(req.URLs),
		Results:       make([]*models.MediaResponse, len(req.URLs)),
		CreatedAt:     time.Now().Unix(),
		WebhookURL:    req.WebhookURL,
		WebhookSecret: req.WebhookSecret,
	}}
	id := bj.job.ID
	b.store.Store(id, bj)
	go b.run(bj, req)
	return id
}

// run extracts every URL with bounded concurrency and settles the job.
func (b *Batches) run(bj *batchJob, req models.BatchRequest) {
	sem := make(chan struct{}, b.concurrency)
	var wg sync.WaitGroup
	failedCount := 0

	for i, rawURL := range req.URLs {
		wg.Add(1)
		go func(idx int, target string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			resp := b.extractOne(req.Options.Request(target))

			bj.mu.Lock()
			bj.job.Results[idx] = resp
			bj.job.Completed++
			if !resp.Success {
				failedCount++
			}
			bj.mu.Unlock()
		}(i, rawURL)
	}
	wg.Wait()

	bj.mu.Lock()
	switch {
	case failedCount == bj.job.Total:
		bj.job.Status = models.BatchFailed
	case failedCount > 0:
		bj.job.Status = models.BatchPartial
	default:
		bj.job.Status = models.BatchCompleted
	}
	job := bj.job
	bj.mu.Unlock()

	slog.Info("batch job finished",
		"id", job.ID,
		"status", job.Status,
		"failed", failedCount,
		"total", job.Total,
	)

	if job.WebhookURL != "" && b.sender != nil {
		b.sender.DeliverAsync(job.WebhookURL, job.WebhookSecret, &webhook.Event{
			Type:      webhook.EventBatchCompleted,
			JobID:     job.ID,
			Timestamp: time.Now().Unix(),
			Data: models.BatchStatusResponse{
				ID:        job.ID,
				Status:    job.Status,
				Completed: job.Completed,
				Total:     job.Total,
				Results:   job.Results,
			},
		})
	}
}

func (b *Batches) extractOne(req *models.MediaRequest) *models.MediaResponse {
	start := time.Now()
	resp, err := b.media.Extract(context.Background(), req)
	if err != nil {
		me := asMediaError(err)
		out := failed(me.Code, me.Message)
		out.FinalURL = req.URL
		out.Timing = models.TimingInfo{TotalMs: time.Since(start).Milliseconds()}
		return &out
	}
	return resp
}
