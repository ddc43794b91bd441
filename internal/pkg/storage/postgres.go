package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/Vodeneev/tipstrr-export/internal/pkg/config"
	"github.com/Vodeneev/tipstrr-export/internal/pkg/models"
)

// TipStorage persists normalized tip records in PostgreSQL, keyed by the tip
// reference. Re-running an export upserts rather than duplicating.
type TipStorage struct {
	db *sql.DB
}

// NewTipStorage opens the connection and ensures the schema exists.
func NewTipStorage(cfg *config.PostgresConfig) (*TipStorage, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	storage := &TipStorage{db: db}
	if err := storage.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Info("postgres tip storage initialized")
	return storage, nil
}

func (s *TipStorage) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS tips (
		id SERIAL PRIMARY KEY,
		reference VARCHAR(200) NOT NULL UNIQUE,
		event_date VARCHAR(20) NOT NULL DEFAULT '',
		event_time VARCHAR(10) NOT NULL DEFAULT '',
		home_team VARCHAR(300) NOT NULL DEFAULT '',
		away_team VARCHAR(300) NOT NULL DEFAULT '',
		match VARCHAR(600) NOT NULL DEFAULT '',
		sport VARCHAR(100) NOT NULL DEFAULT '',
		league VARCHAR(300) NOT NULL DEFAULT '',
		market VARCHAR(300) NOT NULL DEFAULT '',
		bet VARCHAR(300) NOT NULL DEFAULT '',
		odds VARCHAR(50) NOT NULL DEFAULT '',
		result VARCHAR(50) NOT NULL DEFAULT '',
		profit DECIMAL(10, 4) NOT NULL DEFAULT 0,
		original_profit VARCHAR(50) NOT NULL DEFAULT '',
		raw_result_code INTEGER NOT NULL DEFAULT 0,
		fetched_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_tips_event_date ON tips(event_date);
	CREATE INDEX IF NOT EXISTS idx_tips_result ON tips(result);
	`

	_, err := s.db.ExecContext(ctx, query)
	return err
}

// SaveRecords upserts the whole record sequence in one transaction.
func (s *TipStorage) SaveRecords(ctx context.Context, records []models.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tips (
			reference, event_date, event_time, home_team, away_team, match,
			sport, league, market, bet, odds, result, profit, original_profit,
			raw_result_code, fetched_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW())
		ON CONFLICT (reference) DO UPDATE SET
			event_date = EXCLUDED.event_date,
			event_time = EXCLUDED.event_time,
			home_team = EXCLUDED.home_team,
			away_team = EXCLUDED.away_team,
			match = EXCLUDED.match,
			sport = EXCLUDED.sport,
			league = EXCLUDED.league,
			market = EXCLUDED.market,
			bet = EXCLUDED.bet,
			odds = EXCLUDED.odds,
			result = EXCLUDED.result,
			profit = EXCLUDED.profit,
			original_profit = EXCLUDED.original_profit,
			raw_result_code = EXCLUDED.raw_result_code,
			fetched_at = NOW()
	`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.ExecContext(ctx,
			r.Reference, r.EventDate, r.EventTime, r.HomeTeam, r.AwayTeam,
			r.Match, r.Sport, r.League, r.Market, r.Bet, r.Odds, r.Result,
			r.Profit, r.OriginalProfit, r.RawResultCode)
		if err != nil {
			return fmt.Errorf("upsert tip %s: %w", r.Reference, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *TipStorage) Close() error {
	return s.db.Close()
}
