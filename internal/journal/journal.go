// Package journal records executed trades to a DuckDB file so the operator
// can audit what the bots did after the fact.
package journal

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/astra-quant/recallbot/internal/logger"
	"github.com/astra-quant/recallbot/pkg/errors"
	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
)

// Side labels whether the entry opened or closed a position.
type Side string

const (
	SideOpen  Side = "open"
	SideClose Side = "close"
)

// Entry is one journal row.
type Entry struct {
	ID         string
	PositionID string
	Strategy   string
	Symbol     string
	Side       Side
	AmountUSD  float64
	Quantity   float64
	Price      float64
	// PnL is the fractional return realized at close, zero for opens.
	PnL        float64
	Reason     string
	ExecutedAt time.Time
}

// Filter narrows History queries. Zero values match everything.
type Filter struct {
	Strategy string
	Symbol   string
	Limit    int
}

// Journal is a DuckDB-backed trade log. Safe for concurrent use.
type Journal struct {
	db  *sql.DB
	sq  squirrel.StatementBuilderType
	log *logger.Logger
	mu  sync.Mutex
}

// Open creates or opens the journal database at path.
func Open(path string, log *logger.Logger) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeJournalOpenFailed, "failed to create journal directory", err)
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeJournalOpenFailed, "failed to open journal database", err)
	}

	j := &Journal{
		db:  db,
		sq:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		log: log.Named("journal"),
	}

	if err := j.initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return j, nil
}

func (j *Journal) initialize() error {
	_, err := j.db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			id TEXT,
			position_id TEXT,
			strategy TEXT,
			symbol TEXT,
			side TEXT,
			amount_usd DOUBLE,
			quantity DOUBLE,
			price DOUBLE,
			pnl DOUBLE,
			reason TEXT,
			executed_at TIMESTAMP
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeJournalOpenFailed, "failed to create trades table", err)
	}

	return nil
}

// Record appends one entry. A missing ID or timestamp is filled in.
func (j *Journal) Record(entry Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.db == nil {
		return errors.New(errors.ErrCodeJournalWriteFailed, "journal is closed")
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	if entry.ExecutedAt.IsZero() {
		entry.ExecutedAt = time.Now().UTC()
	}

	insertQuery := j.sq.
		Insert("trades").
		Columns(
			"id", "position_id", "strategy", "symbol", "side",
			"amount_usd", "quantity", "price", "pnl", "reason", "executed_at",
		).
		Values(
			entry.ID, entry.PositionID, entry.Strategy, entry.Symbol, string(entry.Side),
			entry.AmountUSD, entry.Quantity, entry.Price, entry.PnL, entry.Reason, entry.ExecutedAt,
		).
		RunWith(j.db)

	if _, err := insertQuery.Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeJournalWriteFailed, "failed to insert trade", err)
	}

	return nil
}

// History returns entries matching the filter, newest first.
func (j *Journal) History(filter Filter) ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.db == nil {
		return nil, errors.New(errors.ErrCodeJournalQueryFailed, "journal is closed")
	}

	selectQuery := j.sq.
		Select(
			"id", "position_id", "strategy", "symbol", "side",
			"amount_usd", "quantity", "price", "pnl", "reason", "executed_at",
		).
		From("trades").
		OrderBy("executed_at DESC")

	if filter.Strategy != "" {
		selectQuery = selectQuery.Where(squirrel.Eq{"strategy": filter.Strategy})
	}

	if filter.Symbol != "" {
		selectQuery = selectQuery.Where(squirrel.Eq{"symbol": filter.Symbol})
	}

	if filter.Limit > 0 {
		selectQuery = selectQuery.Limit(uint64(filter.Limit))
	}

	rows, err := selectQuery.RunWith(j.db).Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeJournalQueryFailed, "failed to query trades", err)
	}
	defer rows.Close()

	var entries []Entry

	for rows.Next() {
		var entry Entry

		var side string

		err := rows.Scan(
			&entry.ID,
			&entry.PositionID,
			&entry.Strategy,
			&entry.Symbol,
			&side,
			&entry.AmountUSD,
			&entry.Quantity,
			&entry.Price,
			&entry.PnL,
			&entry.Reason,
			&entry.ExecutedAt,
		)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeJournalQueryFailed, "failed to scan trade", err)
		}

		entry.Side = Side(side)
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeJournalQueryFailed, "failed to iterate trades", err)
	}

	return entries, nil
}

// Close releases the database handle.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.db == nil {
		return nil
	}

	err := j.db.Close()
	j.db = nil

	if err != nil {
		return errors.Wrap(errors.ErrCodeJournalOpenFailed, "failed to close journal database", err)
	}

	return nil
}
