package storage

// sqlite.go — persistencia de corridas de análisis.
//
// Estrategia:
//   - `runs`: una fila por corrida con el resumen y los contadores de
//     auditoría. El id es un UUID generado por el engine.
//   - `window_results`: una fila por ventana reproducida (solo modo edge).
//   - `ladders`: una fila por ladder inferido (solo modo L2), con los niveles
//     serializados como JSON — se consultan enteros, nunca por nivel.
// Los detalles por fill no se persisten: pesan cientos de MB por sesión y el
// reporte agregado ya captura la señal.

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alejandrodnm/fillscope/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
-- Resumen y contadores por corrida de análisis
CREATE TABLE IF NOT EXISTS runs (
    id                TEXT PRIMARY KEY,
    mode              TEXT     NOT NULL,
    generated_at      DATETIME NOT NULL,
    fills_total       INTEGER  NOT NULL DEFAULT 0,
    fills_invalid     INTEGER  NOT NULL DEFAULT 0,
    fills_no_book     INTEGER  NOT NULL DEFAULT 0,
    fills_no_price    INTEGER  NOT NULL DEFAULT 0,
    windows_malformed INTEGER  NOT NULL DEFAULT 0,
    windows_no_series INTEGER  NOT NULL DEFAULT 0,
    windows_short     INTEGER  NOT NULL DEFAULT 0,
    windows_unsettled INTEGER  NOT NULL DEFAULT 0,
    makers            INTEGER  NOT NULL DEFAULT 0,
    takers            INTEGER  NOT NULL DEFAULT 0,
    unresolved        INTEGER  NOT NULL DEFAULT 0,
    windows           INTEGER  NOT NULL DEFAULT 0,
    wins              INTEGER  NOT NULL DEFAULT 0,
    losses            INTEGER  NOT NULL DEFAULT 0,
    total_pnl         REAL     NOT NULL DEFAULT 0
);

-- Una fila por ventana reproducida (modo edge)
CREATE TABLE IF NOT EXISTS window_results (
    run_id          TEXT    NOT NULL REFERENCES runs(id),
    slug            TEXT    NOT NULL,
    window_start    INTEGER NOT NULL,
    outcome         TEXT    NOT NULL DEFAULT '',
    n_fills         INTEGER NOT NULL DEFAULT 0,
    aggressive      INTEGER NOT NULL DEFAULT 0,
    agg_pct         REAL    NOT NULL DEFAULT 0,
    first_side      TEXT    NOT NULL DEFAULT '',
    first_fill_secs REAL    NOT NULL DEFAULT 0,
    entry_pct       REAL    NOT NULL DEFAULT 0,
    exit_pct        REAL    NOT NULL DEFAULT 0,
    alternations    INTEGER NOT NULL DEFAULT 0,
    mean_interval   REAL    NOT NULL DEFAULT 0,
    up_shares       REAL    NOT NULL DEFAULT 0,
    down_shares     REAL    NOT NULL DEFAULT 0,
    up_avg          REAL    NOT NULL DEFAULT 0,
    down_avg        REAL    NOT NULL DEFAULT 0,
    balance         REAL    NOT NULL DEFAULT 0,
    combined        REAL,
    secs_sub_dollar REAL    NOT NULL DEFAULT -1,
    total_cost      REAL    NOT NULL DEFAULT 0,
    payout          REAL    NOT NULL DEFAULT 0,
    pnl             REAL    NOT NULL DEFAULT 0,
    win             INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (run_id, slug)
);

-- Un ladder inferido por (corrida, ventana, asset) (modo L2)
CREATE TABLE IF NOT EXISTS ladders (
    run_id       TEXT NOT NULL REFERENCES runs(id),
    slug         TEXT NOT NULL,
    asset        TEXT NOT NULL,
    levels       TEXT NOT NULL, -- JSON array de precios ascendentes
    mean_spacing REAL NOT NULL DEFAULT 0,
    fills        INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (run_id, slug, asset)
);

CREATE INDEX IF NOT EXISTS idx_runs_at       ON runs(generated_at DESC);
CREATE INDEX IF NOT EXISTS idx_results_pnl   ON window_results(pnl DESC);
CREATE INDEX IF NOT EXISTS idx_ladders_slug  ON ladders(slug);
`

// SQLiteStorage implementa ports.Storage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada y aplica
// el schema.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// SaveRun persiste el resumen de la corrida, sus resultados por ventana y
// sus ladders en una sola transacción.
func (s *SQLiteStorage) SaveRun(ctx context.Context, report domain.Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: begin tx: %w", err)
	}
	defer tx.Rollback()

	c := report.Counters
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs
			(id, mode, generated_at, fills_total, fills_invalid, fills_no_book,
			 fills_no_price, windows_malformed, windows_no_series, windows_short,
			 windows_unsettled, makers, takers, unresolved, windows, wins, losses,
			 total_pnl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID, report.Mode, report.GeneratedAt.UTC(),
		c.FillsTotal, c.FillsInvalid, c.FillsNoBook, c.FillsNoPrice,
		c.WindowsMalformed, c.WindowsNoSeries, c.WindowsShort, c.WindowsUnsettled,
		report.Flow.Makers, report.Flow.Takers, report.Flow.Unresolved,
		report.WinLoss.Windows, report.WinLoss.Wins, report.WinLoss.Losses,
		report.WinLoss.TotalPnL,
	); err != nil {
		return fmt.Errorf("storage.SaveRun: insert run: %w", err)
	}

	if err := s.saveResults(ctx, tx, report); err != nil {
		return err
	}
	if err := s.saveLadders(ctx, tx, report); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveRun: commit: %w", err)
	}
	return nil
}

// saveResults inserta los resultados por ventana de la corrida.
func (s *SQLiteStorage) saveResults(ctx context.Context, tx *sql.Tx, report domain.Report) error {
	if len(report.Results) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO window_results
			(run_id, slug, window_start, outcome, n_fills, aggressive, agg_pct,
			 first_side, first_fill_secs, entry_pct, exit_pct, alternations,
			 mean_interval, up_shares, down_shares, up_avg, down_avg, balance,
			 combined, secs_sub_dollar, total_cost, payout, pnl, win)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: prepare results: %w", err)
	}
	defer stmt.Close()

	for _, r := range report.Results {
		var combined *float64
		if r.HasCombine {
			combined = &r.Combined
		}
		win := 0
		if r.Win {
			win = 1
		}
		if _, err := stmt.ExecContext(ctx,
			report.RunID, r.Slug, r.WindowStart, r.Outcome, r.NFills,
			r.Aggressive, r.AggPct, r.FirstSide, r.FirstFillSecs, r.EntryPct,
			r.ExitPct, r.Alternations, r.MeanInterval, r.UpShares, r.DownShares,
			r.UpAvg, r.DownAvg, r.Balance, combined, r.SecsToSubDollar,
			r.TotalCost, r.Payout, r.PnL, win,
		); err != nil {
			return fmt.Errorf("storage.SaveRun: insert result %s: %w", r.Slug, err)
		}
	}
	return nil
}

// saveLadders inserta los ladders inferidos de la corrida.
func (s *SQLiteStorage) saveLadders(ctx context.Context, tx *sql.Tx, report domain.Report) error {
	if len(report.Ladders) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ladders (run_id, slug, asset, levels, mean_spacing, fills)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: prepare ladders: %w", err)
	}
	defer stmt.Close()

	for _, l := range report.Ladders {
		levels, err := json.Marshal(l.Levels)
		if err != nil {
			return fmt.Errorf("storage.SaveRun: marshal levels %s/%s: %w", l.Slug, l.Asset, err)
		}
		fills := 0
		for _, n := range l.FillsAt {
			fills += n
		}
		if _, err := stmt.ExecContext(ctx,
			report.RunID, l.Slug, l.Asset, string(levels), l.MeanSpacing, fills,
		); err != nil {
			return fmt.Errorf("storage.SaveRun: insert ladder %s/%s: %w", l.Slug, l.Asset, err)
		}
	}
	return nil
}

// GetRuns devuelve los resúmenes de corrida del rango dado, más recientes
// primero. No carga los detalles por ventana ni los ladders.
func (s *SQLiteStorage) GetRuns(ctx context.Context, from, to time.Time) ([]domain.Report, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mode, generated_at, fills_total, fills_invalid, fills_no_book,
		       fills_no_price, windows_malformed, windows_no_series, windows_short,
		       windows_unsettled, makers, takers, unresolved, windows, wins,
		       losses, total_pnl
		FROM runs
		WHERE generated_at BETWEEN ? AND ?
		ORDER BY generated_at DESC
	`, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("storage.GetRuns: query: %w", err)
	}
	defer rows.Close()

	var reports []domain.Report
	for rows.Next() {
		var r domain.Report
		var generatedAt string
		if err := rows.Scan(
			&r.RunID, &r.Mode, &generatedAt,
			&r.Counters.FillsTotal, &r.Counters.FillsInvalid,
			&r.Counters.FillsNoBook, &r.Counters.FillsNoPrice,
			&r.Counters.WindowsMalformed, &r.Counters.WindowsNoSeries,
			&r.Counters.WindowsShort, &r.Counters.WindowsUnsettled,
			&r.Flow.Makers, &r.Flow.Takers, &r.Flow.Unresolved,
			&r.WinLoss.Windows, &r.WinLoss.Wins, &r.WinLoss.Losses,
			&r.WinLoss.TotalPnL,
		); err != nil {
			return nil, fmt.Errorf("storage.GetRuns: scan row: %w", err)
		}
		r.GeneratedAt, _ = time.Parse(time.RFC3339, generatedAt)
		reports = append(reports, r)
	}

	return reports, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
