package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/cruisectl/truthmarket/internal/market"
	"github.com/cruisectl/truthmarket/pkg/fixedpoint"
	"github.com/cruisectl/truthmarket/pkg/types"
)

// Schema is the DDL the postgres store expects. Amounts are stored as
// decimal strings; they exceed BIGINT range by design.
const Schema = `
CREATE TABLE IF NOT EXISTS markets (
	id         TEXT PRIMARY KEY,
	address    TEXT NOT NULL,
	config     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS market_states (
	market_id          TEXT PRIMARY KEY REFERENCES markets(id),
	phase              TEXT NOT NULL,
	winner_option      TEXT NOT NULL DEFAULT '',
	total_value_denom  TEXT NOT NULL,
	total_value_amount TEXT NOT NULL,
	num_bettors        BIGINT NOT NULL,
	total_stake_a      TEXT NOT NULL,
	total_stake_b      TEXT NOT NULL,
	volume             TEXT NOT NULL,
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS market_shares (
	market_id TEXT NOT NULL REFERENCES markets(id),
	account   TEXT NOT NULL,
	option    TEXT NOT NULL,
	amount    TEXT NOT NULL,
	withdrawn BOOLEAN NOT NULL,
	PRIMARY KEY (market_id, account, option)
);
`

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStore connects to PostgreSQL and ensures the schema exists.
func NewPostgresStore(cfg *PostgresConfig) (*PostgresStore, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	_, err = db.Exec(Schema)
	if err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	cfg.Logger.Info("postgres-store-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &PostgresStore{
		db:     db,
		logger: cfg.Logger,
	}, nil
}

// CreateMarket writes the config row and the zeroed state row in one
// transaction.
func (p *PostgresStore) CreateMarket(ctx context.Context, cfg market.Config, address string, st market.State) error {
	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO markets (id, address, config) VALUES ($1, $2, $3)`,
		cfg.ID, address, configJSON,
	)
	if err != nil {
		return fmt.Errorf("insert market: %w", err)
	}

	err = writeState(ctx, tx, cfg.ID, st, true)
	if err != nil {
		return err
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	p.logger.Debug("market-created", zap.String("market_id", cfg.ID))
	return nil
}

// LoadMarket loads the config, state and all share rows of one market.
func (p *PostgresStore) LoadMarket(ctx context.Context, id string) (*Record, error) {
	var (
		address    string
		configJSON []byte
	)
	err := p.db.QueryRowContext(ctx,
		`SELECT address, config FROM markets WHERE id = $1`, id,
	).Scan(&address, &configJSON)
	if err == sql.ErrNoRows {
		return nil, types.ErrNotFound("market %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("select market: %w", err)
	}

	var cfg market.Config
	err = json.Unmarshal(configJSON, &cfg)
	if err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	st, err := p.loadState(ctx, &cfg)
	if err != nil {
		return nil, err
	}

	shares, err := p.loadShares(ctx, id)
	if err != nil {
		return nil, err
	}

	return &Record{Config: cfg, Address: address, State: st, Shares: shares}, nil
}

func (p *PostgresStore) loadState(ctx context.Context, cfg *market.Config) (market.State, error) {
	var (
		phase, winnerOption string
		st                  market.State
		totalValue          string
		stakeA, stakeB      string
		volume              string
	)
	err := p.db.QueryRowContext(ctx,
		`SELECT phase, winner_option, total_value_denom, total_value_amount,
			num_bettors, total_stake_a, total_stake_b, volume
		 FROM market_states WHERE market_id = $1`, cfg.ID,
	).Scan(&phase, &winnerOption, &st.TotalValue.Denom, &totalValue,
		&st.NumBettors, &stakeA, &stakeB, &volume)
	if err != nil {
		return market.State{}, fmt.Errorf("select state: %w", err)
	}

	st.Status, err = statusFromColumns(cfg, phase, winnerOption)
	if err != nil {
		return market.State{}, err
	}

	st.TotalValue.Amount, err = fixedpoint.AmountFromString(totalValue)
	if err != nil {
		return market.State{}, fmt.Errorf("parse total value: %w", err)
	}
	st.TotalStakeA, err = fixedpoint.AmountFromString(stakeA)
	if err != nil {
		return market.State{}, fmt.Errorf("parse stake a: %w", err)
	}
	st.TotalStakeB, err = fixedpoint.AmountFromString(stakeB)
	if err != nil {
		return market.State{}, fmt.Errorf("parse stake b: %w", err)
	}
	st.Volume, err = fixedpoint.AmountFromString(volume)
	if err != nil {
		return market.State{}, fmt.Errorf("parse volume: %w", err)
	}
	return st, nil
}

func (p *PostgresStore) loadShares(ctx context.Context, id string) (map[market.ShareKey]market.Share, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT account, option, amount, withdrawn FROM market_shares WHERE market_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("select shares: %w", err)
	}
	defer rows.Close()

	shares := make(map[market.ShareKey]market.Share)
	for rows.Next() {
		var (
			key    market.ShareKey
			amount string
			share  market.Share
		)
		err = rows.Scan(&key.User, &key.Option, &amount, &share.Withdrawn)
		if err != nil {
			return nil, fmt.Errorf("scan share: %w", err)
		}
		share.Amount, err = fixedpoint.AmountFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse share amount: %w", err)
		}
		shares[key] = share
	}
	return shares, rows.Err()
}

// ListMarketIDs returns all stored market ids ordered by id.
func (p *PostgresStore) ListMarketIDs(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id FROM markets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select market ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan market id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Commit writes the state row and upserts the touched share rows in one
// transaction.
func (p *PostgresStore) Commit(ctx context.Context, id string, st market.State, dirty []market.ShareEntry) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	err = writeState(ctx, tx, id, st, false)
	if err != nil {
		return err
	}

	for _, e := range dirty {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO market_shares (market_id, account, option, amount, withdrawn)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (market_id, account, option)
			 DO UPDATE SET amount = $4, withdrawn = $5`,
			id, e.Key.User, e.Key.Option, e.Share.Amount.String(), e.Share.Withdrawn,
		)
		if err != nil {
			return fmt.Errorf("upsert share %s/%s: %w", e.Key.User, e.Key.Option, err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	p.logger.Debug("market-committed",
		zap.String("market_id", id),
		zap.Int("dirty_shares", len(dirty)))
	return nil
}

func writeState(ctx context.Context, tx *sql.Tx, id string, st market.State, insert bool) error {
	winner := ""
	if w, ok := st.Status.Winner(); ok {
		winner = w.Text
	}

	var err error
	if insert {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO market_states (market_id, phase, winner_option,
				total_value_denom, total_value_amount, num_bettors,
				total_stake_a, total_stake_b, volume)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			id, st.Status.Phase().String(), winner,
			st.TotalValue.Denom, st.TotalValue.Amount.String(), st.NumBettors,
			st.TotalStakeA.String(), st.TotalStakeB.String(), st.Volume.String(),
		)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE market_states SET phase = $2, winner_option = $3,
				total_value_denom = $4, total_value_amount = $5, num_bettors = $6,
				total_stake_a = $7, total_stake_b = $8, volume = $9,
				updated_at = now()
			 WHERE market_id = $1`,
			id, st.Status.Phase().String(), winner,
			st.TotalValue.Denom, st.TotalValue.Amount.String(), st.NumBettors,
			st.TotalStakeA.String(), st.TotalStakeB.String(), st.Volume.String(),
		)
	}
	if err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

// statusFromColumns rebuilds the tagged status from its two stored columns.
// The winner column names an option of the market's own config.
func statusFromColumns(cfg *market.Config, phase, winnerOption string) (market.Status, error) {
	p, err := market.PhaseFromString(phase)
	if err != nil {
		return market.Status{}, err
	}
	if p != market.PhaseResolved {
		return market.StatusPending(), nil
	}
	opt, _, ok := cfg.OptionByText(winnerOption)
	if !ok {
		return market.Status{}, fmt.Errorf("stored winner %q is not an option of market %s", winnerOption, cfg.ID)
	}
	return market.StatusResolved(opt), nil
}

// Close closes the database connection.
func (p *PostgresStore) Close() error {
	p.logger.Info("closing-postgres-store")
	return p.db.Close()
}
