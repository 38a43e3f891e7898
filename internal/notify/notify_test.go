package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanternhealth/enforcement-cli/internal/config"
	"github.com/lanternhealth/enforcement-cli/internal/model"
	"github.com/lanternhealth/enforcement-cli/pkg/anthropic"
)

func testRecord(docID, facility string, score int) model.EnforcementRecord {
	date := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	return model.EnforcementRecord{
		DocID:           docID,
		FacilityName:    facility,
		ActionType:      "Curtailment",
		PenaltyAmount:   "5,000",
		EnforcementDate: &date,
		PDFURL:          "https://www.nj.gov/health/documents/" + docID + ".pdf",
		Severity:        model.SeverityHigh,
		PriorityScore:   score,
		Validation:      model.Validation{Valid: true},
	}
}

func TestWebhookSinkDeliver(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink := NewWebhookSink(srv.URL)
	batch := Batch{
		Records: []model.EnforcementRecord{testRecord("doc-1", "Sunrise Care Center", 85)},
		Digest:  "one new high priority action",
	}
	require.NoError(t, sink.Deliver(context.Background(), batch))

	assert.Equal(t, 1, got.Count)
	assert.Equal(t, "one new high priority action", got.Digest)
	require.Len(t, got.Records, 1)
	assert.Equal(t, "doc-1", got.Records[0].DocID)
	assert.Equal(t, "Sunrise Care Center", got.Records[0].FacilityName)
	assert.Equal(t, "HIGH", got.Records[0].Severity)
	assert.Equal(t, 85, got.Records[0].PriorityScore)
	assert.True(t, got.Records[0].Valid)
}

func TestWebhookSinkErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	sink := NewWebhookSink(srv.URL)
	err := sink.Deliver(context.Background(), Batch{Records: []model.EnforcementRecord{testRecord("doc-1", "A", 10)}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

// fakeNotion records created pages and serves canned query results.
type fakeNotion struct {
	existing  map[string]bool
	created   []*notionapi.PageCreateRequest
	createErr error
}

func (f *fakeNotion) QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	filter, ok := req.Filter.(notionapi.PropertyFilter)
	if !ok || filter.RichText == nil {
		return nil, eris.New("unexpected filter shape")
	}
	resp := &notionapi.DatabaseQueryResponse{}
	if f.existing[filter.RichText.Equals] {
		resp.Results = []notionapi.Page{{}}
	}
	return resp, nil
}

func (f *fakeNotion) CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, req)
	return &notionapi.Page{}, nil
}

func TestNotionSinkCreatesMissingPagesOnly(t *testing.T) {
	fake := &fakeNotion{existing: map[string]bool{"doc-old": true}}
	sink := NewNotionSink(fake, "db-1")

	batch := Batch{Records: []model.EnforcementRecord{
		testRecord("doc-old", "Seen Before", 40),
		testRecord("doc-new", "Sunrise Care Center", 85),
	}}
	require.NoError(t, sink.Deliver(context.Background(), batch))

	require.Len(t, fake.created, 1)
	props := fake.created[0].Properties

	title, ok := props["Facility"].(notionapi.TitleProperty)
	require.True(t, ok)
	require.NotEmpty(t, title.Title)
	assert.Equal(t, "Sunrise Care Center", title.Title[0].Text.Content)

	num, ok := props["Priority"].(notionapi.NumberProperty)
	require.True(t, ok)
	assert.Equal(t, float64(85), num.Number)

	sel, ok := props["Severity"].(notionapi.SelectProperty)
	require.True(t, ok)
	assert.Equal(t, "HIGH", sel.Select.Name)
}

func TestNotionSinkOmitsEmptyProperties(t *testing.T) {
	fake := &fakeNotion{}
	sink := NewNotionSink(fake, "db-1")

	rec := model.EnforcementRecord{DocID: "doc-bare", Severity: model.SeverityLow}
	require.NoError(t, sink.Deliver(context.Background(), Batch{Records: []model.EnforcementRecord{rec}}))

	require.Len(t, fake.created, 1)
	props := fake.created[0].Properties
	assert.NotContains(t, props, "Action")
	assert.NotContains(t, props, "Penalty")
	assert.NotContains(t, props, "Date")
	assert.NotContains(t, props, "PDF")
}

func TestNotionSinkReportsFailures(t *testing.T) {
	fake := &fakeNotion{createErr: eris.New("notion down")}
	sink := NewNotionSink(fake, "db-1")

	err := sink.Deliver(context.Background(), Batch{Records: []model.EnforcementRecord{
		testRecord("doc-1", "A", 10),
		testRecord("doc-2", "B", 20),
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 2")
}

// fakeAnthropic returns a canned message and captures the request.
type fakeAnthropic struct {
	text string
	err  error
	req  anthropic.MessageRequest
}

func (f *fakeAnthropic) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: f.text}},
	}, nil
}

func TestDrafterDraft(t *testing.T) {
	fake := &fakeAnthropic{text: "Digest: one new HIGH action at Sunrise Care Center."}
	d := NewDrafter(fake, config.NotifyConfig{DraftModel: "claude-haiku-4-5-20251001"})

	digest, err := d.Draft(context.Background(), []model.EnforcementRecord{
		testRecord("doc-1", "Sunrise Care Center", 85),
	})
	require.NoError(t, err)
	assert.Equal(t, "Digest: one new HIGH action at Sunrise Care Center.", digest)

	assert.Equal(t, "claude-haiku-4-5-20251001", fake.req.Model)
	require.Len(t, fake.req.Messages, 1)
	assert.Contains(t, fake.req.Messages[0].Content, "Sunrise Care Center")
	assert.Contains(t, fake.req.Messages[0].Content, "Curtailment")
}

func TestDrafterEmptyBatch(t *testing.T) {
	fake := &fakeAnthropic{text: "should not be called"}
	d := NewDrafter(fake, config.NotifyConfig{DraftModel: "claude-haiku-4-5-20251001"})

	digest, err := d.Draft(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, digest)
	assert.Empty(t, fake.req.Model)
}

func TestDrafterEmptyResponse(t *testing.T) {
	fake := &fakeAnthropic{text: "   "}
	d := NewDrafter(fake, config.NotifyConfig{DraftModel: "claude-haiku-4-5-20251001"})

	_, err := d.Draft(context.Background(), []model.EnforcementRecord{testRecord("doc-1", "A", 10)})
	require.Error(t, err)
}

// countingSink records deliveries.
type countingSink struct {
	name    string
	batches []Batch
	err     error
}

func (c *countingSink) Name() string { return c.name }

func (c *countingSink) Deliver(ctx context.Context, batch Batch) error {
	c.batches = append(c.batches, batch)
	return c.err
}

func TestNotifierSendFansOut(t *testing.T) {
	ok := &countingSink{name: "ok"}
	bad := &countingSink{name: "bad", err: eris.New("down")}
	n := &Notifier{sinks: []Sink{ok, bad}}

	sent := n.Send(context.Background(), []model.EnforcementRecord{testRecord("doc-1", "A", 10)})
	assert.Equal(t, 1, sent)
	require.Len(t, ok.batches, 1)
	require.Len(t, bad.batches, 1)
}

func TestNotifierDigestFailureDegrades(t *testing.T) {
	sink := &countingSink{name: "ok"}
	n := &Notifier{
		sinks:   []Sink{sink},
		drafter: NewDrafter(&fakeAnthropic{err: eris.New("api down")}, config.NotifyConfig{DraftModel: "m"}),
	}

	sent := n.Send(context.Background(), []model.EnforcementRecord{testRecord("doc-1", "A", 10)})
	assert.Equal(t, 1, sent)
	require.Len(t, sink.batches, 1)
	assert.Empty(t, sink.batches[0].Digest)
}

func TestNotifierEmptyBatchIsNoop(t *testing.T) {
	sink := &countingSink{name: "ok"}
	n := &Notifier{sinks: []Sink{sink}}

	assert.Zero(t, n.Send(context.Background(), nil))
	assert.Empty(t, sink.batches)
}

func TestNewSinkSelection(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.NotifyConfig
		wantSinks int
		wantDraft bool
	}{
		{"empty config", config.NotifyConfig{}, 0, false},
		{"webhook only", config.NotifyConfig{WebhookURL: "https://hooks.example.com/x"}, 1, false},
		{"notion needs token and db", config.NotifyConfig{NotionToken: "secret"}, 0, false},
		{
			"all configured",
			config.NotifyConfig{
				WebhookURL:   "https://hooks.example.com/x",
				NotionToken:  "secret",
				NotionDB:     "db-1",
				AnthropicKey: "key",
				DraftModel:   "claude-haiku-4-5-20251001",
			},
			2, true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := New(tt.cfg)
			assert.Len(t, n.sinks, tt.wantSinks)
			assert.Equal(t, tt.wantDraft, n.drafter != nil)
		})
	}
}
