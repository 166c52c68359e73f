package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"wealthpilot-market/src/models"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// -----------------------------------------------------------------------------

type PostgresDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *zap.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresDB(cfg *models.MConfig, log *zap.Logger) (*PostgresDB, error) {
	return &PostgresDB{Config: cfg, Logger: log}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize() error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	if err := d.createTables(); err != nil {
		return err
	}

	d.Logger.Info("PostgresDB initialized")
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS alerts (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			symbol TEXT NOT NULL,
			rule TEXT NOT NULL,
			threshold DOUBLE PRECISION NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			triggered BOOLEAN NOT NULL DEFAULT FALSE,
			last_triggered_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_active ON alerts (active, triggered);`,
		`CREATE TABLE IF NOT EXISTS holdings (
			user_id TEXT NOT NULL,
			symbol TEXT NOT NULL,
			quantity DOUBLE PRECISION NOT NULL DEFAULT 0,
			current_price DOUBLE PRECISION,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, symbol)
		);`,
	}

	for _, q := range queries {
		if _, err := d.DB.Exec(q); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) ActiveConditions(ctx context.Context) ([]models.MAlertCondition, error) {
	rows, err := d.DB.QueryContext(ctx, `
		SELECT id, user_id, symbol, rule, threshold, active, triggered, last_triggered_at, created_at
		FROM alerts
		WHERE active = TRUE AND triggered = FALSE
		ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanConditions(rows)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) MarkTriggered(ctx context.Context, id int64, at time.Time) error {
	_, err := d.DB.ExecContext(ctx,
		`UPDATE alerts SET triggered = TRUE, last_triggered_at = $2 WHERE id = $1`,
		id, at.UTC())
	return err
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) ResetCondition(ctx context.Context, id int64) error {
	_, err := d.DB.ExecContext(ctx,
		`UPDATE alerts SET triggered = FALSE WHERE id = $1`, id)
	return err
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) InsertCondition(ctx context.Context, c *models.MAlertCondition) (int64, error) {
	var id int64
	err := d.DB.QueryRowContext(ctx, `
		INSERT INTO alerts (user_id, symbol, rule, threshold, active, triggered, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		c.UserID, c.Symbol, c.Rule, c.Threshold, c.Active, c.Triggered, time.Now().UTC()).Scan(&id)
	return id, err
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) SymbolsForUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := d.DB.QueryContext(ctx,
		`SELECT DISTINCT symbol FROM holdings WHERE user_id = $1 ORDER BY symbol`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanStrings(rows)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) AllHeldSymbols(ctx context.Context) ([]string, error) {
	rows, err := d.DB.QueryContext(ctx,
		`SELECT DISTINCT symbol FROM holdings ORDER BY symbol`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanStrings(rows)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) UpdateHoldingPrice(ctx context.Context, symbol string, price float64) error {
	_, err := d.DB.ExecContext(ctx,
		`UPDATE holdings SET current_price = $2, updated_at = $3 WHERE symbol = $1`,
		symbol, price, time.Now().UTC())
	return err
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
