package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/lanternhealth/enforcement-cli/internal/model"
)

// webhookPayload is the JSON body posted to the webhook URL.
type webhookPayload struct {
	Count     int             `json:"count"`
	Digest    string          `json:"digest,omitempty"`
	Records   []recordSummary `json:"records"`
	Timestamp time.Time       `json:"timestamp"`
}

// recordSummary is the notification-facing slice of a record. Raw text and
// provenance stay out of the payload.
type recordSummary struct {
	DocID           string     `json:"doc_id"`
	FacilityName    string     `json:"facility_name"`
	ActionType      string     `json:"action_type,omitempty"`
	Severity        string     `json:"severity_level"`
	PriorityScore   int        `json:"priority_score"`
	PenaltyAmount   string     `json:"penalty_amount,omitempty"`
	EnforcementDate *time.Time `json:"enforcement_date,omitempty"`
	PDFURL          string     `json:"pdf_url,omitempty"`
	Valid           bool       `json:"valid"`
}

// WebhookSink posts batches as JSON to a single webhook URL.
type WebhookSink struct {
	url    string
	client *http.Client
}

// NewWebhookSink creates a webhook sink for the given URL.
func NewWebhookSink(url string) *WebhookSink {
	return &WebhookSink{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *WebhookSink) Name() string { return "webhook" }

// Deliver posts the batch. Any status >= 400 counts as failure.
func (s *WebhookSink) Deliver(ctx context.Context, batch Batch) error {
	payload, err := json.Marshal(webhookPayload{
		Count:     len(batch.Records),
		Digest:    batch.Digest,
		Records:   summarize(batch.Records),
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return eris.Wrap(err, "notify: marshal webhook payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "notify: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "notify: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("notify: webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func summarize(recs []model.EnforcementRecord) []recordSummary {
	out := make([]recordSummary, len(recs))
	for i, rec := range recs {
		out[i] = recordSummary{
			DocID:           rec.DocID,
			FacilityName:    rec.FacilityName,
			ActionType:      rec.ActionType,
			Severity:        string(rec.Severity),
			PriorityScore:   rec.PriorityScore,
			PenaltyAmount:   rec.PenaltyAmount,
			EnforcementDate: rec.EnforcementDate,
			PDFURL:          rec.PDFURL,
			Valid:           rec.Validation.Valid,
		}
	}
	return out
}
