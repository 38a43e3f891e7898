package notify

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/lanternhealth/enforcement-cli/internal/model"
	"github.com/lanternhealth/enforcement-cli/pkg/notion"
)

// NotionSink creates one database page per record. Pages are keyed by the
// Doc ID property so re-notifying a record never produces a duplicate page.
type NotionSink struct {
	client notion.Client
	dbID   string
}

// NewNotionSink creates a Notion sink writing to the given database.
func NewNotionSink(client notion.Client, dbID string) *NotionSink {
	return &NotionSink{client: client, dbID: dbID}
}

func (s *NotionSink) Name() string { return "notion" }

// Deliver creates a page for each record not already in the database.
// Per-record failures are logged and skipped; the error reports only how
// many records failed.
func (s *NotionSink) Deliver(ctx context.Context, batch Batch) error {
	failed := 0
	for _, rec := range batch.Records {
		exists, err := s.pageExists(ctx, rec.DocID)
		if err != nil {
			zap.L().Warn("notify: notion lookup failed",
				zap.String("doc_id", rec.DocID),
				zap.Error(err),
			)
			failed++
			continue
		}
		if exists {
			continue
		}

		req := &notionapi.PageCreateRequest{
			Parent: notionapi.Parent{
				Type:       notionapi.ParentTypeDatabaseID,
				DatabaseID: notionapi.DatabaseID(s.dbID),
			},
			Properties: pageProperties(rec),
		}
		if _, err := s.client.CreatePage(ctx, req); err != nil {
			zap.L().Warn("notify: notion page create failed",
				zap.String("doc_id", rec.DocID),
				zap.Error(err),
			)
			failed++
		}
	}

	if failed > 0 {
		return eris.Errorf("notify: %d of %d notion pages failed", failed, len(batch.Records))
	}
	return nil
}

// pageExists checks for an existing page with the given Doc ID.
func (s *NotionSink) pageExists(ctx context.Context, docID string) (bool, error) {
	resp, err := s.client.QueryDatabase(ctx, s.dbID, &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: "Doc ID",
			RichText: &notionapi.TextFilterCondition{
				Equals: docID,
			},
		},
	})
	if err != nil {
		return false, err
	}
	return len(resp.Results) > 0, nil
}

// pageProperties maps a record onto the enforcement database schema.
// Empty fields are left off so Notion keeps them unset rather than blank.
func pageProperties(rec model.EnforcementRecord) notionapi.Properties {
	props := notionapi.Properties{
		"Facility": notionapi.TitleProperty{
			Type: notionapi.PropertyTypeTitle,
			Title: []notionapi.RichText{
				{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: rec.FacilityName}},
			},
		},
		"Doc ID": richText(rec.DocID),
		"Severity": notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(rec.Severity)},
		},
		"Priority": notionapi.NumberProperty{
			Number: float64(rec.PriorityScore),
		},
		"Valid": notionapi.CheckboxProperty{
			Checkbox: rec.Validation.Valid,
		},
	}

	if rec.ActionType != "" {
		props["Action"] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: rec.ActionType},
		}
	}
	if rec.PenaltyAmount != "" {
		props["Penalty"] = richText(rec.PenaltyAmount)
	}
	if rec.EnforcementDate != nil {
		date := notionapi.Date(*rec.EnforcementDate)
		props["Date"] = notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &date},
		}
	}
	if rec.PDFURL != "" {
		props["PDF"] = notionapi.URLProperty{
			Type: notionapi.PropertyTypeURL,
			URL:  rec.PDFURL,
		}
	}
	if rec.ViolationSummary != "" {
		props["Violations"] = richText(truncate(rec.ViolationSummary, 2000))
	}

	return props
}

func richText(s string) notionapi.RichTextProperty {
	return notionapi.RichTextProperty{
		Type: notionapi.PropertyTypeRichText,
		RichText: []notionapi.RichText{
			{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: s}},
		},
	}
}

// truncate limits a value to Notion's rich text size cap.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
