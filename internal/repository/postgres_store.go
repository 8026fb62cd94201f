package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"WhaleWatch/internal/domain/models"
	"WhaleWatch/pkg/postgres"
)

// Schema returns the bootstrap statements, applied idempotently on
// startup.
func Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS trades (
			transaction_hash TEXT PRIMARY KEY,
			condition_id     TEXT NOT NULL,
			slug             TEXT NOT NULL DEFAULT '',
			title            TEXT NOT NULL DEFAULT '',
			trader           TEXT NOT NULL,
			outcome          TEXT NOT NULL DEFAULT '',
			side             TEXT NOT NULL DEFAULT 'BUY',
			amount           DOUBLE PRECISION NOT NULL,
			price            DOUBLE PRECISION NOT NULL,
			ts               TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_condition ON trades (condition_id)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_ts ON trades (ts)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_trader ON trades (trader)`,
		`CREATE TABLE IF NOT EXISTS markets (
			condition_id    TEXT PRIMARY KEY,
			slug            TEXT NOT NULL DEFAULT '',
			question        TEXT NOT NULL DEFAULT '',
			resolved        BOOLEAN NOT NULL DEFAULT FALSE,
			winning_outcome TEXT,
			last_checked_at TIMESTAMPTZ,
			resolved_at     TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_markets_due ON markets (last_checked_at) WHERE NOT resolved`,
		`CREATE TABLE IF NOT EXISTS alerts (
			trade_hash TEXT PRIMARY KEY,
			alert_type TEXT NOT NULL,
			message    TEXT NOT NULL,
			sent       BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_created ON alerts (created_at)`,
		`CREATE TABLE IF NOT EXISTS trader_stats (
			address      TEXT PRIMARY KEY,
			rank         INTEGER NOT NULL,
			roi          DOUBLE PRECISION NOT NULL,
			realized_pnl DOUBLE PRECISION NOT NULL,
			median_bet   DOUBLE PRECISION NOT NULL,
			wins         INTEGER NOT NULL,
			losses       INTEGER NOT NULL,
			computed_at  TIMESTAMPTZ NOT NULL
		)`,
		`CREATE MATERIALIZED VIEW IF NOT EXISTS leaderboard AS
			SELECT address, rank, roi, realized_pnl, median_bet, wins, losses, computed_at
			FROM trader_stats
			ORDER BY rank
			LIMIT 100`,
	}
}

// PostgresStore implements the persisted store over a pgx pool.
type PostgresStore struct {
	client      *postgres.Client
	statsWindow time.Duration
}

func NewPostgresStore(client *postgres.Client, statsWindow time.Duration) *PostgresStore {
	return &PostgresStore{client: client, statsWindow: statsWindow}
}

// UpsertTrades inserts trades keyed by transaction hash, ignoring rows
// already present, and reports how many were actually new.
func (s *PostgresStore) UpsertTrades(ctx context.Context, trades []models.Trade) (int, error) {
	if len(trades) == 0 {
		return 0, nil
	}
	batch := &pgx.Batch{}
	for _, t := range trades {
		batch.Queue(`INSERT INTO trades
				(transaction_hash, condition_id, slug, title, trader, outcome, side, amount, price, ts)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (transaction_hash) DO NOTHING`,
			t.TransactionHash, t.ConditionID, t.Slug, t.Title, t.Trader,
			t.Outcome, t.Side, t.Amount, t.Price, t.Timestamp)
	}
	results := s.client.Pool().SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for range trades {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("upsert trade: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// EnsureMarkets guarantees a placeholder row per market so resolution
// verdicts always have somewhere to land.
func (s *PostgresStore) EnsureMarkets(ctx context.Context, refs []models.MarketRef, titles map[string]string) error {
	if len(refs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, ref := range refs {
		batch.Queue(`INSERT INTO markets (condition_id, slug, question)
			VALUES ($1, $2, $3)
			ON CONFLICT (condition_id) DO NOTHING`,
			ref.ConditionID, ref.Slug, titles[ref.ConditionID])
	}
	results := s.client.Pool().SendBatch(ctx, batch)
	defer results.Close()

	for range refs {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("ensure market: %w", err)
		}
	}
	return nil
}

// SaveResolution records a final outcome. It only ever upgrades a row;
// a resolved market is never written back to unresolved.
func (s *PostgresStore) SaveResolution(ctx context.Context, conditionID, winningOutcome, slug, question string, resolvedAt time.Time) error {
	_, err := s.client.Pool().Exec(ctx, `INSERT INTO markets
			(condition_id, slug, question, resolved, winning_outcome, last_checked_at, resolved_at)
		VALUES ($1, $2, $3, TRUE, $4, now(), $5)
		ON CONFLICT (condition_id) DO UPDATE SET
			resolved        = TRUE,
			winning_outcome = EXCLUDED.winning_outcome,
			slug            = COALESCE(NULLIF(EXCLUDED.slug, ''), markets.slug),
			question        = COALESCE(NULLIF(EXCLUDED.question, ''), markets.question),
			last_checked_at = now(),
			resolved_at     = COALESCE(markets.resolved_at, EXCLUDED.resolved_at)`,
		conditionID, slug, question, winningOutcome, resolvedAt)
	if err != nil {
		return fmt.Errorf("save resolution: %w", err)
	}
	return nil
}

// TouchMarketChecked rotates a market to the back of the due queue and
// refreshes its descriptive fields without touching resolution state.
func (s *PostgresStore) TouchMarketChecked(ctx context.Context, conditionID, slug, question string) error {
	_, err := s.client.Pool().Exec(ctx, `INSERT INTO markets (condition_id, slug, question, last_checked_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (condition_id) DO UPDATE SET
			slug            = COALESCE(NULLIF(EXCLUDED.slug, ''), markets.slug),
			question        = COALESCE(NULLIF(EXCLUDED.question, ''), markets.question),
			last_checked_at = now()`,
		conditionID, slug, question)
	if err != nil {
		return fmt.Errorf("touch market: %w", err)
	}
	return nil
}

// RecentTradeMarkets lists unresolved markets referenced by trades in
// the window.
func (s *PostgresStore) RecentTradeMarkets(ctx context.Context, since time.Time, limit int) ([]models.MarketRef, error) {
	rows, err := s.client.Pool().Query(ctx, `SELECT t.condition_id, max(t.slug)
		FROM trades t
		LEFT JOIN markets m ON m.condition_id = t.condition_id
		WHERE t.ts >= $1 AND (m.condition_id IS NULL OR NOT m.resolved)
		GROUP BY t.condition_id
		ORDER BY max(t.ts) DESC
		LIMIT $2`, since, limit)
	if err != nil {
		return nil, fmt.Errorf("recent trade markets: %w", err)
	}
	defer rows.Close()
	return scanRefs(rows)
}

// DueMarkets lists unresolved markets not checked since the cutoff,
// oldest check first so nothing starves.
func (s *PostgresStore) DueMarkets(ctx context.Context, checkedBefore time.Time, limit int) ([]models.MarketRef, error) {
	rows, err := s.client.Pool().Query(ctx, `SELECT condition_id, slug
		FROM markets
		WHERE NOT resolved AND (last_checked_at IS NULL OR last_checked_at < $1)
		ORDER BY last_checked_at ASC NULLS FIRST
		LIMIT $2`, checkedBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("due markets: %w", err)
	}
	defer rows.Close()
	return scanRefs(rows)
}

func (s *PostgresStore) AllMarkets(ctx context.Context, limit int) ([]models.MarketRef, error) {
	rows, err := s.client.Pool().Query(ctx, `SELECT condition_id, slug
		FROM markets
		WHERE NOT resolved
		ORDER BY last_checked_at ASC NULLS FIRST
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("all markets: %w", err)
	}
	defer rows.Close()
	return scanRefs(rows)
}

func (s *PostgresStore) RecentMarketSlugs(ctx context.Context, since time.Time, limit int) ([]string, error) {
	rows, err := s.client.Pool().Query(ctx, `SELECT slug
		FROM trades
		WHERE ts >= $1 AND slug <> ''
		GROUP BY slug
		ORDER BY max(ts) DESC
		LIMIT $2`, since, limit)
	if err != nil {
		return nil, fmt.Errorf("recent market slugs: %w", err)
	}
	defer rows.Close()

	var slugs []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, fmt.Errorf("scan slug: %w", err)
		}
		slugs = append(slugs, slug)
	}
	return slugs, rows.Err()
}

// InsertAlerts writes alerts keyed by trade hash and returns only the
// rows that did not exist before. Callers treat the returned set as
// the definitive list of alerts to act on.
func (s *PostgresStore) InsertAlerts(ctx context.Context, alerts []models.Alert) ([]models.Alert, error) {
	if len(alerts) == 0 {
		return nil, nil
	}
	batch := &pgx.Batch{}
	for _, a := range alerts {
		batch.Queue(`INSERT INTO alerts (trade_hash, alert_type, message, sent, created_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (trade_hash) DO NOTHING
			RETURNING trade_hash, alert_type, message, sent, created_at`,
			a.TradeHash, a.Type, a.Message, a.Sent, a.CreatedAt)
	}
	results := s.client.Pool().SendBatch(ctx, batch)
	defer results.Close()

	var inserted []models.Alert
	for range alerts {
		var a models.Alert
		err := results.QueryRow().Scan(&a.TradeHash, &a.Type, &a.Message, &a.Sent, &a.CreatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return inserted, fmt.Errorf("insert alert: %w", err)
		}
		inserted = append(inserted, a)
	}
	return inserted, nil
}

func (s *PostgresStore) MarkAlertSent(ctx context.Context, tradeHash string) error {
	_, err := s.client.Pool().Exec(ctx, `UPDATE alerts SET sent = TRUE WHERE trade_hash = $1`, tradeHash)
	if err != nil {
		return fmt.Errorf("mark alert sent: %w", err)
	}
	return nil
}

func (s *PostgresStore) CountRecentAlerts(ctx context.Context, window time.Duration) (int, error) {
	var count int
	err := s.client.Pool().QueryRow(ctx, `SELECT count(*) FROM alerts WHERE created_at > $1`,
		time.Now().Add(-window)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count recent alerts: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) TraderStats(ctx context.Context, addresses []string) (map[string]models.TraderStats, error) {
	if len(addresses) == 0 {
		return map[string]models.TraderStats{}, nil
	}
	rows, err := s.client.Pool().Query(ctx, `SELECT address, rank, roi, realized_pnl, median_bet, wins, losses, computed_at
		FROM trader_stats
		WHERE address = ANY($1)`, addresses)
	if err != nil {
		return nil, fmt.Errorf("trader stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]models.TraderStats, len(addresses))
	for rows.Next() {
		var st models.TraderStats
		if err := rows.Scan(&st.Address, &st.Rank, &st.ROI, &st.RealizedPnL,
			&st.MedianBet, &st.Wins, &st.Losses, &st.ComputedAt); err != nil {
			return nil, fmt.Errorf("scan trader stats: %w", err)
		}
		stats[st.Address] = st
	}
	return stats, rows.Err()
}

// Isolated eligibility bounds: the trader must be near-unknown, the
// market thin, and the fill a clear multiple of what the market
// usually sees.
const (
	isolatedMaxTraderTrades = 3
	isolatedMaxMarketTrades = 5
	isolatedAvgMultiple     = 3
)

// FilterIsolated confirms, in one round trip, which candidates are a
// rare trader taking an outsized position in a thin market. The
// candidate's own row is already upserted, so counts exclude it by
// hash.
func (s *PostgresStore) FilterIsolated(ctx context.Context, candidates []models.IsolatedCandidate) (map[string]bool, error) {
	if len(candidates) == 0 {
		return map[string]bool{}, nil
	}
	hashes := make([]string, len(candidates))
	traders := make([]string, len(candidates))
	markets := make([]string, len(candidates))
	amounts := make([]float64, len(candidates))
	for i, c := range candidates {
		hashes[i] = c.TradeHash
		traders[i] = c.Trader
		markets[i] = c.ConditionID
		amounts[i] = c.Amount
	}

	rows, err := s.client.Pool().Query(ctx, `SELECT c.trade_hash
		FROM unnest($1::text[], $2::text[], $3::text[], $4::float8[]) AS c(trade_hash, trader, condition_id, amount)
		WHERE (SELECT count(*) FROM trades t
			WHERE t.trader = c.trader AND t.transaction_hash <> c.trade_hash) <= $5
		AND (SELECT count(*) FROM trades t
			WHERE t.condition_id = c.condition_id AND t.transaction_hash <> c.trade_hash) <= $6
		AND c.amount >= $7 * COALESCE((SELECT avg(t.amount) FROM trades t
			WHERE t.condition_id = c.condition_id AND t.transaction_hash <> c.trade_hash), 0)`,
		hashes, traders, markets, amounts,
		isolatedMaxTraderTrades, isolatedMaxMarketTrades, isolatedAvgMultiple)
	if err != nil {
		return nil, fmt.Errorf("filter isolated: %w", err)
	}
	defer rows.Close()

	isolated := make(map[string]bool, len(candidates))
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, fmt.Errorf("scan isolated hash: %w", err)
		}
		isolated[hash] = true
	}
	return isolated, rows.Err()
}

// RecomputeTraderStats rebuilds the ranking snapshot from settled
// trades inside the stats window. PnL settles per side: winning buys
// pay out the complement of the entry price, losing buys forfeit the
// stake, sells mirror that.
func (s *PostgresStore) RecomputeTraderStats(ctx context.Context) error {
	_, err := s.client.Pool().Exec(ctx, `WITH settled AS (
			SELECT t.trader,
				t.amount,
				((t.side = 'BUY') = (t.outcome = m.winning_outcome)) AS won,
				CASE
					WHEN t.side = 'BUY' AND t.outcome = m.winning_outcome
						THEN t.amount * (1 - t.price) / NULLIF(t.price, 0)
					WHEN t.side = 'BUY'
						THEN -t.amount
					WHEN t.outcome = m.winning_outcome
						THEN -t.amount * (1 - t.price) / NULLIF(t.price, 0)
					ELSE t.amount
				END AS pnl
			FROM trades t
			JOIN markets m ON m.condition_id = t.condition_id
			WHERE m.resolved AND m.winning_outcome IS NOT NULL
				AND t.ts > now() - $1::interval
		),
		aggregated AS (
			SELECT trader,
				sum(pnl) AS realized_pnl,
				sum(pnl) / NULLIF(sum(amount), 0) AS roi,
				percentile_cont(0.5) WITHIN GROUP (ORDER BY amount) AS median_bet,
				count(*) FILTER (WHERE won) AS wins,
				count(*) FILTER (WHERE NOT won) AS losses
			FROM settled
			GROUP BY trader
		)
		INSERT INTO trader_stats (address, rank, roi, realized_pnl, median_bet, wins, losses, computed_at)
		SELECT trader,
			rank() OVER (ORDER BY realized_pnl DESC),
			COALESCE(roi, 0),
			realized_pnl,
			median_bet,
			wins,
			losses,
			now()
		FROM aggregated
		ON CONFLICT (address) DO UPDATE SET
			rank         = EXCLUDED.rank,
			roi          = EXCLUDED.roi,
			realized_pnl = EXCLUDED.realized_pnl,
			median_bet   = EXCLUDED.median_bet,
			wins         = EXCLUDED.wins,
			losses       = EXCLUDED.losses,
			computed_at  = EXCLUDED.computed_at`,
		s.statsWindow)
	if err != nil {
		return fmt.Errorf("recompute trader stats: %w", err)
	}
	return nil
}

func (s *PostgresStore) RefreshLeaderboard(ctx context.Context) error {
	if _, err := s.client.Pool().Exec(ctx, `REFRESH MATERIALIZED VIEW leaderboard`); err != nil {
		return fmt.Errorf("refresh leaderboard: %w", err)
	}
	return nil
}

func (s *PostgresStore) Health(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.client.Close()
	return nil
}

func scanRefs(rows pgx.Rows) ([]models.MarketRef, error) {
	var refs []models.MarketRef
	for rows.Next() {
		var ref models.MarketRef
		if err := rows.Scan(&ref.ConditionID, &ref.Slug); err != nil {
			return nil, fmt.Errorf("scan market ref: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
