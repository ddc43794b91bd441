package tipstrr

import (
	"context"
	"log/slog"
	"time"

	"github.com/Vodeneev/tipstrr-export/internal/pkg/config"
	"github.com/Vodeneev/tipstrr-export/internal/pkg/models"
)

// Parser drives the scrape: listing -> per-tip detail and fixture fetch ->
// normalized records. Everything runs sequentially with a fixed delay between
// requests to stay polite against the site.
type Parser struct {
	cfg    *config.Config
	client *Client
}

func NewParser(cfg *config.Config) *Parser {
	return &Parser{
		cfg:    cfg,
		client: NewClient(&cfg.Tipstrr),
	}
}

func (p *Parser) Login(ctx context.Context) error {
	return p.client.Login(ctx, p.cfg.Tipstrr.Username, p.cfg.Tipstrr.Password)
}

// Run fetches up to target completed tips (target <= 0 means all) and returns
// the normalized records in listing order plus the number of tips that could
// not be processed. A single bad tip never aborts the run.
func (p *Parser) Run(ctx context.Context, target int) ([]models.Record, int, error) {
	start := time.Now()

	tips, err := p.client.FetchTips(ctx, target)
	if err != nil {
		return nil, 0, err
	}
	slog.Info("tipstrr: tips collected", "count", len(tips))

	var records []models.Record
	failed := 0
	for i, stub := range tips {
		select {
		case <-ctx.Done():
			return records, failed, ctx.Err()
		default:
		}

		if stub.Reference == "" {
			slog.Warn("tipstrr: tip without reference, skipping", "index", i)
			failed++
			continue
		}

		slog.Info("tipstrr: processing tip", "n", i+1, "total", len(tips), "reference", stub.Reference)
		record, err := p.fetchOne(ctx, stub.Reference)
		if err != nil {
			slog.Warn("tipstrr: tip failed", "reference", stub.Reference, "error", err)
			failed++
		} else {
			records = append(records, record)
			slog.Debug("tipstrr: tip processed",
				"match", record.Match,
				"bet", record.Bet,
				"odds", record.Odds,
				"result", record.Result,
				"profit", record.Profit,
				"original_profit", record.OriginalProfit)
		}

		time.Sleep(p.cfg.Tipstrr.TipDelay)
	}

	slog.Info("tipstrr: run finished",
		"records", len(records), "failed", failed, "duration", time.Since(start))
	return records, failed, nil
}

// fetchOne resolves a single reference into a record. A missing fixture
// reference or a failed fixture fetch is not an error, the record is produced
// without match context.
func (p *Parser) fetchOne(ctx context.Context, reference string) (models.Record, error) {
	detail, err := p.client.GetTip(ctx, reference)
	if err != nil {
		return models.Record{}, err
	}

	var fixture *FixtureDetail
	if len(detail.TipBetItem) > 0 && detail.TipBetItem[0].FixtureReference != "" {
		fixture, err = p.client.GetFixture(ctx, detail.TipBetItem[0].FixtureReference)
		if err != nil {
			slog.Debug("tipstrr: fixture fetch failed, continuing without match context",
				"reference", reference, "error", err)
			fixture = nil
		}
	}

	return extractRecord(detail, fixture, reference), nil
}
