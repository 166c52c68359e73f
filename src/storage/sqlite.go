package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"wealthpilot-market/src/models"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

// SQLiteDB keeps the whole store in a single file. The default backend for
// single-node deployments with no database server to manage.
type SQLiteDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *zap.Logger
}

// -----------------------------------------------------------------------------

func NewSQLiteDB(cfg *models.MConfig, log *zap.Logger) (*SQLiteDB, error) {
	return &SQLiteDB{Config: cfg, Logger: log}, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Initialize() error {
	db, err := sql.Open("sqlite", d.Config.Storage.DBPath)
	if err != nil {
		return err
	}

	// modernc sqlite serializes writes; one connection avoids lock churn.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	if err := d.createTables(); err != nil {
		return err
	}

	d.Logger.Info("SQLiteDB initialized", zap.String("path", d.Config.Storage.DBPath))
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS alerts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			symbol TEXT NOT NULL,
			rule TEXT NOT NULL,
			threshold REAL NOT NULL,
			active INTEGER NOT NULL DEFAULT 1,
			triggered INTEGER NOT NULL DEFAULT 0,
			last_triggered_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_active ON alerts (active, triggered);`,
		`CREATE TABLE IF NOT EXISTS holdings (
			user_id TEXT NOT NULL,
			symbol TEXT NOT NULL,
			quantity REAL NOT NULL DEFAULT 0,
			current_price REAL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
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

func (d *SQLiteDB) ActiveConditions(ctx context.Context) ([]models.MAlertCondition, error) {
	rows, err := d.DB.QueryContext(ctx, `
		SELECT id, user_id, symbol, rule, threshold, active, triggered, last_triggered_at, created_at
		FROM alerts
		WHERE active = 1 AND triggered = 0
		ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanConditions(rows)
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) MarkTriggered(ctx context.Context, id int64, at time.Time) error {
	_, err := d.DB.ExecContext(ctx,
		`UPDATE alerts SET triggered = 1, last_triggered_at = ? WHERE id = ?`,
		at.UTC(), id)
	return err
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) ResetCondition(ctx context.Context, id int64) error {
	_, err := d.DB.ExecContext(ctx,
		`UPDATE alerts SET triggered = 0 WHERE id = ?`, id)
	return err
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) InsertCondition(ctx context.Context, c *models.MAlertCondition) (int64, error) {
	res, err := d.DB.ExecContext(ctx, `
		INSERT INTO alerts (user_id, symbol, rule, threshold, active, triggered, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.UserID, c.Symbol, c.Rule, c.Threshold, c.Active, c.Triggered, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) SymbolsForUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := d.DB.QueryContext(ctx,
		`SELECT DISTINCT symbol FROM holdings WHERE user_id = ? ORDER BY symbol`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanStrings(rows)
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) AllHeldSymbols(ctx context.Context) ([]string, error) {
	rows, err := d.DB.QueryContext(ctx,
		`SELECT DISTINCT symbol FROM holdings ORDER BY symbol`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanStrings(rows)
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) UpdateHoldingPrice(ctx context.Context, symbol string, price float64) error {
	_, err := d.DB.ExecContext(ctx,
		`UPDATE holdings SET current_price = ?, updated_at = ? WHERE symbol = ?`,
		price, time.Now().UTC(), symbol)
	return err
}

// -----------------------------------------------------------------------------

// UpsertHolding inserts or replaces a holding row. Only exercised by tests
// and seeding; the business CRUD API owns holdings in production.
func (d *SQLiteDB) UpsertHolding(ctx context.Context, userID, symbol string, quantity float64) error {
	_, err := d.DB.ExecContext(ctx, `
		INSERT INTO holdings (user_id, symbol, quantity, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, symbol) DO UPDATE SET quantity = excluded.quantity, updated_at = excluded.updated_at`,
		userID, symbol, quantity, time.Now().UTC())
	return err
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
