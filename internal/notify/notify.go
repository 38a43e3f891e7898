// Package notify delivers newly discovered enforcement records to the
// configured sinks. Delivery is best effort: a sink failure is logged and
// never affects what the pipeline stored.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/lanternhealth/enforcement-cli/internal/config"
	"github.com/lanternhealth/enforcement-cli/internal/model"
	"github.com/lanternhealth/enforcement-cli/pkg/anthropic"
	"github.com/lanternhealth/enforcement-cli/pkg/notion"
)

// Batch is one notification delivery: the new records plus an optional
// drafted digest summarizing them.
type Batch struct {
	Records []model.EnforcementRecord
	Digest  string
}

// Sink delivers one batch to a destination.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, batch Batch) error
}

// Notifier fans a batch of new records out to every configured sink.
type Notifier struct {
	sinks   []Sink
	drafter *Drafter
}

// New builds a Notifier from config. Sinks without the credentials they
// need are left out; an empty config yields a Notifier that does nothing.
func New(cfg config.NotifyConfig) *Notifier {
	n := &Notifier{}

	if cfg.WebhookURL != "" {
		n.sinks = append(n.sinks, NewWebhookSink(cfg.WebhookURL))
	}
	if cfg.NotionToken != "" && cfg.NotionDB != "" {
		n.sinks = append(n.sinks, NewNotionSink(notion.NewClient(cfg.NotionToken), cfg.NotionDB))
	}
	if cfg.AnthropicKey != "" {
		n.drafter = NewDrafter(anthropic.NewClient(cfg.AnthropicKey), cfg)
	}

	return n
}

// Send delivers the records to every sink and returns how many sinks
// succeeded. Digest drafting failure degrades to an undigested batch.
func (n *Notifier) Send(ctx context.Context, recs []model.EnforcementRecord) int {
	if len(recs) == 0 || len(n.sinks) == 0 {
		return 0
	}

	batch := Batch{Records: recs}
	if n.drafter != nil {
		digest, err := n.drafter.Draft(ctx, recs)
		if err != nil {
			zap.L().Warn("notify: digest drafting failed", zap.Error(err))
		} else {
			batch.Digest = digest
		}
	}

	sent := 0
	for _, sink := range n.sinks {
		if err := sink.Deliver(ctx, batch); err != nil {
			zap.L().Error("notify: delivery failed",
				zap.String("sink", sink.Name()),
				zap.Int("records", len(recs)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("notify: batch delivered",
			zap.String("sink", sink.Name()),
			zap.Int("records", len(recs)),
		)
		sent++
	}
	return sent
}
