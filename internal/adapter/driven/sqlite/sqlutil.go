package sqlite

import (
	"errors"
	"fmt"
	"strings"
	"time"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// timeLayout is fixed-width so stored timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime parses a timestamp column. It accepts the layouts written by this
// package as well as SQLite's own CURRENT_TIMESTAMP and strftime output.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.000",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure on
// the given table.column (e.g. "users.email").
func isUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return false
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed: "+column)
}

// likePattern builds a LIKE operand matching term anywhere in the column.
// Wildcards in term are escaped; pair it with ESCAPE '\'.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// timeNow is the clock used for expiry comparisons; tests replace it.
var timeNow = func() time.Time { return time.Now().UTC() }
