package db

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// Open connects to the configured database and verifies the connection.
// Production runs on mysql; tests and local development can use the sqlite driver
// with the same store code.
func Open(driver, dsn string) (*sql.DB, error) {
	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite" {
		// in-memory sqlite databases are per-connection
		conn.SetMaxOpenConns(1)
	}
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return conn, nil
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) UNIQUE NOT NULL,
		password_hash VARCHAR(255) NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS boards (
		id INT AUTO_INCREMENT PRIMARY KEY,
		columns TEXT NOT NULL,
		tasks TEXT NOT NULL,
		title VARCHAR(255) NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS user_boards (
		id INT AUTO_INCREMENT PRIMARY KEY,
		user_id INT NOT NULL,
		board_id INT NOT NULL,
		UNIQUE KEY uq_user_board (user_id, board_id),
		FOREIGN KEY (user_id) REFERENCES users(id),
		FOREIGN KEY (board_id) REFERENCES boards(id)
	);`,
	`CREATE TABLE IF NOT EXISTS board_owners (
		id INT AUTO_INCREMENT PRIMARY KEY,
		board_id INT NOT NULL,
		owner_id INT NOT NULL,
		UNIQUE KEY uq_board_owner (board_id, owner_id),
		FOREIGN KEY (board_id) REFERENCES boards(id),
		FOREIGN KEY (owner_id) REFERENCES users(id)
	);`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS boards (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		columns TEXT NOT NULL,
		tasks TEXT NOT NULL,
		title TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS user_boards (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		board_id INTEGER NOT NULL,
		UNIQUE (user_id, board_id),
		FOREIGN KEY (user_id) REFERENCES users(id),
		FOREIGN KEY (board_id) REFERENCES boards(id)
	);`,
	`CREATE TABLE IF NOT EXISTS board_owners (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		board_id INTEGER NOT NULL,
		owner_id INTEGER NOT NULL,
		UNIQUE (board_id, owner_id),
		FOREIGN KEY (board_id) REFERENCES boards(id),
		FOREIGN KEY (owner_id) REFERENCES users(id)
	);`,
}

// Migrate creates the four tables if they do not exist. The unique constraints on
// user_boards and board_owners back the idempotent-share and single-ownership checks.
func Migrate(conn *sql.DB, driver string) error {
	schema := mysqlSchema
	if driver == "sqlite" {
		schema = sqliteSchema
	}
	for _, stmt := range schema {
		if _, err := conn.Exec(stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}
