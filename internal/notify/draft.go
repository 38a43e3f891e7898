package notify

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/lanternhealth/enforcement-cli/internal/config"
	"github.com/lanternhealth/enforcement-cli/internal/model"
	"github.com/lanternhealth/enforcement-cli/pkg/anthropic"
)

const defaultDraftSystem = "You summarize state health department enforcement actions " +
	"for an operations team. Write a short plain-text digest of the new actions below: " +
	"lead with the highest-priority items, one line per facility, and note penalties " +
	"and license actions. Do not invent details not present in the input."

const draftMaxTokens = 1024

// Drafter turns a batch of new records into a short human-readable digest.
type Drafter struct {
	client anthropic.Client
	model  string
	system string
}

// NewDrafter creates a Drafter. A configured prompt file overrides the
// built-in system prompt; an unreadable file falls back with a warning at
// draft time, not construction time.
func NewDrafter(client anthropic.Client, cfg config.NotifyConfig) *Drafter {
	system := defaultDraftSystem
	if cfg.DraftPrompt != "" {
		if data, err := os.ReadFile(cfg.DraftPrompt); err == nil {
			system = strings.TrimSpace(string(data))
		}
	}
	return &Drafter{
		client: client,
		model:  cfg.DraftModel,
		system: system,
	}
}

// Draft produces the digest text for the given records.
func (d *Drafter) Draft(ctx context.Context, recs []model.EnforcementRecord) (string, error) {
	if len(recs) == 0 {
		return "", nil
	}

	resp, err := d.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     d.model,
		MaxTokens: draftMaxTokens,
		System:    d.system,
		Messages: []anthropic.Message{
			{Role: "user", Content: draftInput(recs)},
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "notify: draft digest")
	}
	resp.Usage.LogCost(d.model, "digest")

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", eris.New("notify: empty digest response")
	}
	return text, nil
}

// draftInput renders the records as the compact listing the model sees.
func draftInput(recs []model.EnforcementRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d new enforcement action(s):\n", len(recs))
	for _, rec := range recs {
		fmt.Fprintf(&b, "\n- Facility: %s\n  Severity: %s (priority %d)\n",
			orUnknown(rec.FacilityName), rec.Severity, rec.PriorityScore)
		if rec.ActionType != "" {
			fmt.Fprintf(&b, "  Action: %s\n", rec.ActionType)
		}
		if rec.PenaltyAmount != "" {
			fmt.Fprintf(&b, "  Penalty: $%s\n", rec.PenaltyAmount)
		}
		if rec.EnforcementDate != nil {
			fmt.Fprintf(&b, "  Date: %s\n", rec.EnforcementDate.Format("2006-01-02"))
		}
		for _, v := range rec.KeyViolations {
			fmt.Fprintf(&b, "  Violation: %s\n", v)
		}
		if !rec.Validation.Valid {
			b.WriteString("  Note: record failed validation, details may be incomplete\n")
		}
	}
	return b.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "(unknown facility)"
	}
	return s
}
