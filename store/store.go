// Package store is the persistence layer: user credentials, board documents and
// the ownership/sharing relations, all over database/sql.
package store

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
)

type Store struct {
	db  *sql.DB
	log *logrus.Logger
}

func New(db *sql.DB, log *logrus.Logger) *Store {
	return &Store{db: db, log: log}
}

// isUniqueViolation recognizes duplicate-key errors from both supported drivers.
func isUniqueViolation(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
