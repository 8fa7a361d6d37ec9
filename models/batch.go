package models

// BatchRequest is the payload for POST /api/v1/batch/media.
type BatchRequest struct {
	// URLs are the note pages to extract. Required.
	URLs []string `json:"urls" binding:"required,min=1,max=100"`

	Options BatchOptions `json:"options"`

	// WebhookURL receives a signed batch.completed event when the job ends.
	WebhookURL    string `json:"webhook_url,omitempty" binding:"omitempty,url"`
	WebhookSecret string `json:"webhook_secret,omitempty"`
}

// BatchOptions are applied to every URL in a batch.
type BatchOptions struct {
	Mode           string `json:"mode,omitempty" binding:"omitempty,oneof=strict lenient"`
	Timeout        int    `json:"timeout,omitempty" binding:"omitempty,min=1,max=120"`
	Stealth        bool   `json:"stealth,omitempty"`
	FetchMode      string `json:"fetch_mode,omitempty" binding:"omitempty,oneof=auto browser http"`
	OriginalImages bool   `json:"original_images,omitempty"`
}

// Request builds the per-URL request for a batch item.
func (o BatchOptions) Request(url string) *MediaRequest {
	req := &MediaRequest{
		URL:            url,
		Mode:           o.Mode,
		Timeout:        o.Timeout,
		Stealth:        o.Stealth,
		FetchMode:      o.FetchMode,
		OriginalImages: o.OriginalImages,
	}
	req.Defaults()
	return req
}

// BatchResponse is the immediate response for POST /api/v1/batch/media.
type BatchResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Total  int    `json:"total"`
}

// BatchStatusResponse is the response for GET /api/v1/batch/:id.
type BatchStatusResponse struct {
	ID        string           `json:"id"`
	Status    string           `json:"status"`
	Completed int              `json:"completed"`
	Total     int              `json:"total"`
	Results   []*MediaResponse `json:"results,omitempty"`
}

// Batch job states.
const (
	BatchProcessing = "processing"
	BatchCompleted  = "completed"
	BatchPartial    = "partial"
	BatchFailed     = "failed"
)

// BatchJob tracks an in-progress batch.
type BatchJob struct {
	ID            string
	Status        string
	Total         int
	Completed     int
	Results       []*MediaResponse
	CreatedAt     int64 // unix timestamp
	WebhookURL    string
	WebhookSecret string
}
