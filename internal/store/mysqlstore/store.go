// Package mysqlstore implements store.Store against MySQL using
// database/sql. Ownership scoping is enforced in the SQL itself:
// every owner-scoped statement carries `user_id = ?` in its WHERE
// clause, so a record owned by someone else behaves exactly like a
// missing record.
package mysqlstore

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/crittertrack/crittertrack-server/internal/store"
)

const mysqlDupEntry = 1062 // ER_DUP_ENTRY, raised by the unique email index

// Store holds the connection pool. Construct it with New after
// database.Open has verified the connection.
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// New wraps an open connection pool.
func New(db *sql.DB) *Store { return &Store{db: db} }

// wrap converts driver-level failures into store.ErrUnavailable
// while keeping the cause in the chain for logging. sql.ErrNoRows
// is mapped to store.ErrNotFound.
func wrap(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
}

// isDupEntry reports whether err is a unique-constraint violation.
func isDupEntry(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDupEntry
}
