package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"
)

// Sentinel errors for database operations.
var (
	// ErrUnsupportedCollection means the collection has no backing table.
	ErrUnsupportedCollection = errors.New("collection not stored in database")

	// ErrPermission indicates the configured user may not read the table.
	ErrPermission = errors.New("permission denied")
)

// wrapQueryError tags known SurrealDB query failures with a sentinel.
func wrapQueryError(err error) error {
	if err == nil {
		return nil
	}

	var queryErr *surrealdb.QueryError
	if errors.As(err, &queryErr) {
		msg := queryErr.Message
		if strings.Contains(msg, "Not enough permissions") || strings.Contains(msg, "not allowed") {
			return fmt.Errorf("%w: %s", ErrPermission, msg)
		}
	}
	return err
}
