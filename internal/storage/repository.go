package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"constrfin/internal/core"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate entry")
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// mapConstraint converts sqlite unique-violation errors to ErrDuplicate so
// handlers can answer with a form error instead of a 500.
func mapConstraint(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "constraint failed") {
		return ErrDuplicate
	}
	return err
}

// --- constructions ---

func (r *SQLiteRepository) CreateConstruction(ctx context.Context, c core.Construction) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO constructions (user_id, name) VALUES (?, ?)`,
		c.UserID, c.Name)
	if err != nil {
		return 0, fmt.Errorf("create construction: %w", mapConstraint(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("construction id: %w", err)
	}
	slog.InfoContext(ctx, "Construction saved", "id", id, "user_id", c.UserID, "name", c.Name)
	return id, nil
}

func (r *SQLiteRepository) GetConstruction(ctx context.Context, userID, id int64) (core.Construction, error) {
	var c core.Construction
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name FROM constructions WHERE id = ? AND user_id = ?`,
		id, userID).Scan(&c.ID, &c.UserID, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Construction{}, ErrNotFound
	}
	if err != nil {
		return core.Construction{}, fmt.Errorf("get construction: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) ListConstructions(ctx context.Context, userID int64) ([]core.Construction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name FROM constructions WHERE user_id = ? ORDER BY id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list constructions: %w", err)
	}
	defer rows.Close()

	var out []core.Construction
	for rows.Next() {
		var c core.Construction
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan construction: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateConstruction(ctx context.Context, c core.Construction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE constructions SET name = ? WHERE id = ? AND user_id = ?`,
		c.Name, c.ID, c.UserID)
	if err != nil {
		return fmt.Errorf("update construction: %w", mapConstraint(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update construction: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteConstruction(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM constructions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete construction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete construction: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	slog.InfoContext(ctx, "Construction deleted", "id", id, "user_id", userID)
	return nil
}

// --- positions ---

func (r *SQLiteRepository) CreatePosition(ctx context.Context, p core.Position) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO positions
		     (user_id, construction_id, position_order, name, other_name, start_date, end_date, cost)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.UserID, p.ConstructionID, p.Order, p.Name, p.OtherName,
		p.StartDate.Format(dateLayout), p.EndDate.Format(dateLayout), p.Cost.String())
	if err != nil {
		return 0, fmt.Errorf("create position: %w", mapConstraint(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("position id: %w", err)
	}
	slog.InfoContext(ctx, "Position saved",
		"id", id,
		"construction_id", p.ConstructionID,
		"name", p.Name,
		"order", p.Order,
		"cost", p.Cost.String())
	return id, nil
}

func (r *SQLiteRepository) GetPosition(ctx context.Context, userID, id int64) (core.Position, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, construction_id, position_order, name, other_name, start_date, end_date, cost
		 FROM positions WHERE id = ? AND user_id = ?`, id, userID)
	p, err := scanPosition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Position{}, ErrNotFound
	}
	if err != nil {
		return core.Position{}, fmt.Errorf("get position: %w", err)
	}
	return p, nil
}

// ListPositions returns a construction's positions in schedule order.
func (r *SQLiteRepository) ListPositions(ctx context.Context, userID, constructionID int64) ([]core.Position, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, construction_id, position_order, name, other_name, start_date, end_date, cost
		 FROM positions
		 WHERE construction_id = ? AND user_id = ?
		 ORDER BY position_order`, constructionID, userID)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	defer rows.Close()

	var out []core.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdatePosition(ctx context.Context, p core.Position) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE positions
		 SET position_order = ?, name = ?, other_name = ?, start_date = ?, end_date = ?, cost = ?
		 WHERE id = ? AND user_id = ?`,
		p.Order, p.Name, p.OtherName,
		p.StartDate.Format(dateLayout), p.EndDate.Format(dateLayout), p.Cost.String(),
		p.ID, p.UserID)
	if err != nil {
		return fmt.Errorf("update position: %w", mapConstraint(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update position: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeletePosition(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM positions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete position: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete position: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	slog.InfoContext(ctx, "Position deleted", "id", id, "user_id", userID)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPosition(row rowScanner) (core.Position, error) {
	var (
		p          core.Position
		start, end string
		cost       string
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.ConstructionID, &p.Order,
		&p.Name, &p.OtherName, &start, &end, &cost); err != nil {
		return core.Position{}, err
	}

	var err error
	if p.StartDate, err = time.ParseInLocation(dateLayout, start, time.UTC); err != nil {
		return core.Position{}, fmt.Errorf("parse start date %q: %w", start, err)
	}
	if p.EndDate, err = time.ParseInLocation(dateLayout, end, time.UTC); err != nil {
		return core.Position{}, fmt.Errorf("parse end date %q: %w", end, err)
	}
	if p.Cost, err = decimal.NewFromString(cost); err != nil {
		return core.Position{}, fmt.Errorf("parse cost %q: %w", cost, err)
	}
	return p, nil
}
