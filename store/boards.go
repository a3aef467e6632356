package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"agiletrack/apperr"
	"agiletrack/models"
)

// execer covers both *sql.DB and *sql.Tx for board inserts.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertBoard(ctx context.Context, e execer, board models.Board) (int64, error) {
	columns, err := json.Marshal(board.Columns)
	if err != nil {
		return 0, fmt.Errorf("marshal columns: %w", err)
	}
	tasks, err := json.Marshal(board.Tasks)
	if err != nil {
		return 0, fmt.Errorf("marshal tasks: %w", err)
	}
	res, err := e.ExecContext(ctx, "INSERT INTO boards (columns, tasks, title) VALUES (?, ?, ?)",
		string(columns), string(tasks), board.Title)
	if err != nil {
		return 0, fmt.Errorf("insert board: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("board id: %w", err)
	}
	return id, nil
}

// CreateBoard inserts a default-template board and its ownership row in one
// transaction.
func (s *Store) CreateBoard(ctx context.Context, ownerID int) (models.Board, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Board{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	board := models.DefaultBoard()
	boardID, err := insertBoard(ctx, tx, board)
	if err != nil {
		return models.Board{}, err
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO board_owners (board_id, owner_id) VALUES (?, ?)", boardID, ownerID); err != nil {
		return models.Board{}, fmt.Errorf("insert ownership: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return models.Board{}, fmt.Errorf("commit board: %w", err)
	}

	board.ID = int(boardID)
	return board, nil
}

func (s *Store) BoardByID(ctx context.Context, id int) (models.Board, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, columns, tasks, title FROM boards WHERE id = ?", id)
	board, err := scanBoard(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Board{}, apperr.ErrBoardNotFound
	}
	return board, err
}

// UpdateBoard replaces columns and tasks wholesale; the title changes only when
// one is supplied. There is no concurrency check: concurrent updates race and
// the last write wins.
func (s *Store) UpdateBoard(ctx context.Context, id int, columns []models.Column, tasks []models.Task, title *string) error {
	var exists int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM boards WHERE id = ?", id).Scan(&exists); err != nil {
		return fmt.Errorf("check board: %w", err)
	}
	if exists == 0 {
		return apperr.ErrBoardNotFound
	}

	columnsJSON, err := json.Marshal(columns)
	if err != nil {
		return fmt.Errorf("marshal columns: %w", err)
	}
	tasksJSON, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("marshal tasks: %w", err)
	}

	if title == nil {
		_, err = s.db.ExecContext(ctx, "UPDATE boards SET columns = ?, tasks = ? WHERE id = ?",
			string(columnsJSON), string(tasksJSON), id)
	} else {
		_, err = s.db.ExecContext(ctx, "UPDATE boards SET columns = ?, tasks = ?, title = ? WHERE id = ?",
			string(columnsJSON), string(tasksJSON), *title, id)
	}
	if err != nil {
		return fmt.Errorf("update board: %w", err)
	}
	return nil
}

// BoardsForUser returns the boards the user owns and the boards shared with
// them. A board the user owns is never listed as shared, even if a stray
// sharing row exists for it.
func (s *Store) BoardsForUser(ctx context.Context, userID int) (owned, shared []models.Board, err error) {
	owned, err = s.queryBoards(ctx,
		`SELECT id, columns, tasks, title FROM boards
		 WHERE id IN (SELECT board_id FROM board_owners WHERE owner_id = ?)`, userID)
	if err != nil {
		return nil, nil, err
	}
	shared, err = s.queryBoards(ctx,
		`SELECT id, columns, tasks, title FROM boards
		 WHERE id IN (SELECT board_id FROM user_boards WHERE user_id = ?)
		   AND id NOT IN (SELECT board_id FROM board_owners WHERE owner_id = ?)`, userID, userID)
	if err != nil {
		return nil, nil, err
	}
	return owned, shared, nil
}

// Membership reports the user's relation to a board in both tables.
func (s *Store) Membership(ctx context.Context, userID, boardID int) (owner, shared bool, err error) {
	var n int
	if err = s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM board_owners WHERE board_id = ? AND owner_id = ?", boardID, userID).Scan(&n); err != nil {
		return false, false, fmt.Errorf("check ownership: %w", err)
	}
	owner = n > 0
	if err = s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM user_boards WHERE board_id = ? AND user_id = ?", boardID, userID).Scan(&n); err != nil {
		return false, false, fmt.Errorf("check sharing: %w", err)
	}
	shared = n > 0
	return owner, shared, nil
}

// ShareBoard inserts the sharing row for (boardID, userID). The ownership and
// sharing relations are kept mutually exclusive: a pair already present in
// either one is rejected with ErrAlreadyShared. The check and the insert run in
// one transaction, with the unique constraint as a backstop.
func (s *Store) ShareBoard(ctx context.Context, boardID, userID int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM board_owners WHERE board_id = ? AND owner_id = ?", boardID, userID).Scan(&n); err != nil {
		return fmt.Errorf("check ownership: %w", err)
	}
	if n > 0 {
		return apperr.ErrAlreadyShared
	}
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM user_boards WHERE board_id = ? AND user_id = ?", boardID, userID).Scan(&n); err != nil {
		return fmt.Errorf("check sharing: %w", err)
	}
	if n > 0 {
		return apperr.ErrAlreadyShared
	}

	if _, err := tx.ExecContext(ctx, "INSERT INTO user_boards (board_id, user_id) VALUES (?, ?)", boardID, userID); err != nil {
		if isUniqueViolation(err) {
			return apperr.ErrAlreadyShared
		}
		return fmt.Errorf("insert sharing: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit share: %w", err)
	}
	return nil
}

func scanBoard(scan func(dest ...any) error) (models.Board, error) {
	var b models.Board
	var columnsJSON, tasksJSON string
	if err := scan(&b.ID, &columnsJSON, &tasksJSON, &b.Title); err != nil {
		return models.Board{}, err
	}
	if err := json.Unmarshal([]byte(columnsJSON), &b.Columns); err != nil {
		return models.Board{}, fmt.Errorf("unmarshal columns: %w", err)
	}
	if err := json.Unmarshal([]byte(tasksJSON), &b.Tasks); err != nil {
		return models.Board{}, fmt.Errorf("unmarshal tasks: %w", err)
	}
	return b, nil
}

func (s *Store) queryBoards(ctx context.Context, query string, args ...any) ([]models.Board, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query boards: %w", err)
	}
	defer rows.Close()

	boards := []models.Board{}
	for rows.Next() {
		b, err := scanBoard(rows.Scan)
		if err != nil {
			return nil, err
		}
		boards = append(boards, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate boards: %w", err)
	}
	return boards, nil
}
