// Package sqlite stores boards in a SQLite database.
//
// The database holds one row per board, section, block and freeform
// position. A [DB] implements [persist.Store] for incremental syncs and can
// also save and load whole boards.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/matzehuels/refboard/pkg/board"
	"github.com/matzehuels/refboard/pkg/boardio"
	"github.com/matzehuels/refboard/pkg/errors"
	"github.com/matzehuels/refboard/pkg/persist"
)

var _ persist.Store = (*DB)(nil)

// DB wraps the SQLite database connection.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite file at path and migrates its schema.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	conn, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time, or SQLite reports SQLITE_BUSY.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS boards (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS sections (
			id TEXT PRIMARY KEY,
			board_id TEXT NOT NULL REFERENCES boards(id),
			name TEXT NOT NULL DEFAULT '',
			sort_order INTEGER NOT NULL DEFAULT 0,
			columns INTEGER NOT NULL DEFAULT 1,
			camera_x REAL NOT NULL DEFAULT 0,
			camera_y REAL NOT NULL DEFAULT 0,
			camera_scale REAL NOT NULL DEFAULT 1,
			z_counter INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS blocks (
			id TEXT PRIMARY KEY,
			section_id TEXT NOT NULL REFERENCES sections(id),
			type TEXT NOT NULL DEFAULT 'image',
			width REAL NOT NULL DEFAULT 0,
			height REAL NOT NULL DEFAULT 0,
			caption TEXT NOT NULL DEFAULT '',
			deleted INTEGER NOT NULL DEFAULT 0,
			col_index INTEGER NOT NULL DEFAULT 0,
			row_index INTEGER NOT NULL DEFAULT 0,
			order_index INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS positions (
			block_id TEXT PRIMARY KEY REFERENCES blocks(id),
			section_id TEXT NOT NULL REFERENCES sections(id),
			x REAL NOT NULL DEFAULT 0,
			y REAL NOT NULL DEFAULT 0,
			z INTEGER NOT NULL DEFAULT 0,
			scale REAL NOT NULL DEFAULT 1
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sections_board ON sections(board_id)`,
		`CREATE INDEX IF NOT EXISTS idx_blocks_section ON blocks(section_id)`,
		`CREATE INDEX IF NOT EXISTS idx_positions_section ON positions(section_id)`,
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			// ALTER TABLE fails if the column already exists.
			if strings.Contains(m, "ALTER TABLE") && strings.Contains(err.Error(), "duplicate column") {
				continue
			}
			return fmt.Errorf("migration failed: %s: %w", m[:40], err)
		}
	}
	return nil
}

// =============================================================================
// Whole boards
// =============================================================================

// SaveBoard replaces the stored copy of a board.
func (db *DB) SaveBoard(ctx context.Context, b *board.Board) error {
	doc := boardio.FromBoard(b)

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodePersistence, err, "begin save of board %s", b.ID)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO boards (id, name, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, updated_at = excluded.updated_at`,
		doc.ID, doc.Name); err != nil {
		return errors.Wrap(errors.ErrCodePersistence, err, "save board %s", b.ID)
	}
	for _, stmt := range []string{
		`DELETE FROM positions WHERE section_id IN (SELECT id FROM sections WHERE board_id = ?)`,
		`DELETE FROM blocks WHERE section_id IN (SELECT id FROM sections WHERE board_id = ?)`,
		`DELETE FROM sections WHERE board_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, doc.ID); err != nil {
			return errors.Wrap(errors.ErrCodePersistence, err, "clear board %s", b.ID)
		}
	}

	for i, s := range doc.Sections {
		cv := board.Canvas{Camera: board.DefaultCamera}
		if s.Canvas != nil {
			cv = *s.Canvas
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sections (id, board_id, name, sort_order, columns, camera_x, camera_y, camera_scale, z_counter)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.ID, doc.ID, s.Name, i, s.Columns, cv.Camera.X, cv.Camera.Y, cv.Camera.Scale, cv.ZCounter); err != nil {
			return errors.Wrap(errors.ErrCodePersistence, err, "save section %s", s.ID)
		}
		for _, blk := range s.Blocks {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO blocks (id, section_id, type, width, height, caption, deleted, col_index, row_index, order_index)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				blk.ID, s.ID, string(blk.Type), blk.Width, blk.Height, blk.Caption, blk.Deleted,
				blk.ColIndex, blk.RowIndex, blk.OrderIndex); err != nil {
				return errors.Wrap(errors.ErrCodePersistence, err, "save block %s", blk.ID)
			}
		}
		if err := insertPositions(ctx, tx, s.ID, cv.Positions); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodePersistence, err, "commit board %s", b.ID)
	}
	return nil
}

// LoadBoard reads a stored board.
func (db *DB) LoadBoard(ctx context.Context, id string) (*board.Board, error) {
	doc, err := db.LoadDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	return doc.Board()
}

// LoadDocument reads a stored board as a board document.
func (db *DB) LoadDocument(ctx context.Context, id string) (*boardio.Document, error) {
	doc := &boardio.Document{Version: boardio.Version, ID: id}
	err := db.conn.QueryRowContext(ctx, `SELECT name FROM boards WHERE id = ?`, id).Scan(&doc.Name)
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.ErrCodeNotFound, "board %q not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodePersistence, err, "load board %s", id)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, columns, camera_x, camera_y, camera_scale, z_counter
		 FROM sections WHERE board_id = ? ORDER BY sort_order ASC`, id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodePersistence, err, "load sections of %s", id)
	}
	for rows.Next() {
		var s boardio.Section
		cv := &board.Canvas{Positions: make(map[string]board.FreeformPosition)}
		if err := rows.Scan(&s.ID, &s.Name, &s.Columns, &cv.Camera.X, &cv.Camera.Y, &cv.Camera.Scale, &cv.ZCounter); err != nil {
			rows.Close()
			return nil, errors.Wrap(errors.ErrCodePersistence, err, "scan section")
		}
		s.Canvas = cv
		doc.Sections = append(doc.Sections, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodePersistence, err, "load sections of %s", id)
	}

	for i := range doc.Sections {
		s := &doc.Sections[i]
		if err := db.loadBlocks(ctx, s); err != nil {
			return nil, err
		}
		if err := db.loadPositions(ctx, s); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func (db *DB) loadBlocks(ctx context.Context, s *boardio.Section) error {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, type, width, height, caption, deleted, col_index, row_index, order_index
		 FROM blocks WHERE section_id = ? ORDER BY col_index ASC, row_index ASC, id ASC`, s.ID)
	if err != nil {
		return errors.Wrap(errors.ErrCodePersistence, err, "load blocks of %s", s.ID)
	}
	defer rows.Close()

	s.Blocks = []board.Block{}
	for rows.Next() {
		var blk board.Block
		var typ string
		if err := rows.Scan(&blk.ID, &typ, &blk.Width, &blk.Height, &blk.Caption, &blk.Deleted,
			&blk.ColIndex, &blk.RowIndex, &blk.OrderIndex); err != nil {
			return errors.Wrap(errors.ErrCodePersistence, err, "scan block")
		}
		blk.Type = board.BlockType(typ)
		blk.SectionID = s.ID
		s.Blocks = append(s.Blocks, blk)
	}
	return rows.Err()
}

func (db *DB) loadPositions(ctx context.Context, s *boardio.Section) error {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT block_id, x, y, z, scale FROM positions WHERE section_id = ?`, s.ID)
	if err != nil {
		return errors.Wrap(errors.ErrCodePersistence, err, "load positions of %s", s.ID)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var p board.FreeformPosition
		if err := rows.Scan(&id, &p.X, &p.Y, &p.Z, &p.Scale); err != nil {
			return errors.Wrap(errors.ErrCodePersistence, err, "scan position")
		}
		s.Canvas.Positions[id] = p
	}
	return rows.Err()
}

// =============================================================================
// persist.Store
// =============================================================================

// SyncColumnOrder writes the slots of every block in the snapshot. Blocks
// moved in from another section take the snapshot's section.
func (db *DB) SyncColumnOrder(ctx context.Context, order persist.SectionOrder) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE sections SET columns = ? WHERE id = ?`, order.Columns, order.SectionID); err != nil {
		return fmt.Errorf("update section %s: %w", order.SectionID, err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`UPDATE blocks SET section_id = ?, col_index = ?, row_index = ?, order_index = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, bo := range order.Blocks {
		if _, err := stmt.ExecContext(ctx, order.SectionID, bo.Col, bo.Row, bo.Order, bo.ID); err != nil {
			return fmt.Errorf("update block %s: %w", bo.ID, err)
		}
	}
	return tx.Commit()
}

// SyncFreeformPositions replaces the stored positions of a section.
func (db *DB) SyncFreeformPositions(ctx context.Context, sectionID string, positions map[string]board.FreeformPosition) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM positions WHERE section_id = ?`, sectionID); err != nil {
		return fmt.Errorf("clear positions of %s: %w", sectionID, err)
	}
	if err := insertPositions(ctx, tx, sectionID, positions); err != nil {
		return err
	}
	z := 0
	for _, p := range positions {
		z = max(z, p.Z)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE sections SET z_counter = MAX(z_counter, ?) WHERE id = ?`, z, sectionID); err != nil {
		return fmt.Errorf("update z counter of %s: %w", sectionID, err)
	}
	return tx.Commit()
}

// SetDeleted sets the soft-delete flag of the given blocks.
func (db *DB) SetDeleted(ctx context.Context, ids []string, deleted bool) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, 0, len(ids)+1)
	args = append(args, deleted)
	for _, id := range ids {
		args = append(args, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	_, err := db.conn.ExecContext(ctx,
		`UPDATE blocks SET deleted = ?, updated_at = CURRENT_TIMESTAMP WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return fmt.Errorf("set deleted: %w", err)
	}
	return nil
}

func insertPositions(ctx context.Context, tx *sql.Tx, sectionID string, positions map[string]board.FreeformPosition) error {
	for id, p := range positions {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO positions (block_id, section_id, x, y, z, scale) VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(block_id) DO UPDATE SET section_id = excluded.section_id, x = excluded.x, y = excluded.y, z = excluded.z, scale = excluded.scale`,
			id, sectionID, p.X, p.Y, p.Z, p.Scale); err != nil {
			return errors.Wrap(errors.ErrCodePersistence, err, "save position of %s", id)
		}
	}
	return nil
}
