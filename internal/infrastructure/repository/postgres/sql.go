package postgres

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

// Batches above this size are split before hitting the placeholder
// limit of the wire protocol.
const defaultBatchSize = 500

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// isUniqueViolation reports whether err is the driver's unique
// constraint error (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

func batchSizeOrDefault(size int) int {
	if size <= 0 {
		return defaultBatchSize
	}
	return size
}

func nullableString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func stringFromNullable(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
