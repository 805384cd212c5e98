package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	"github.com/relvacode/iso8601"
	_ "modernc.org/sqlite"
)

// ErrUnknownDriver is returned for drivers without a dialect.
var ErrUnknownDriver = errors.New("sqlstore: unknown driver")

// Dialect renders the handful of statements the sync engine needs for one
// database/sql driver. Identifiers must already be validated.
type Dialect struct {
	driver string
	mysql  bool
}

// DialectFor returns the dialect for a registered driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "mysql":
		return Dialect{driver: driver, mysql: true}, nil
	case "postgres", "pgx", "sqlite":
		return Dialect{driver: driver}, nil
	default:
		return Dialect{}, fmt.Errorf("%w %q", ErrUnknownDriver, driver)
	}
}

func (d Dialect) Driver() string { return d.driver }

func (d Dialect) Placeholder(n int) string {
	if d.mysql {
		return "?"
	}
	return fmt.Sprintf("$%d", n)
}

func (d Dialect) Quote(ident string) string {
	if d.mysql {
		return "`" + ident + "`"
	}
	return `"` + ident + `"`
}

// SelectSince reads rows strictly newer than the bound watermark.
func (d Dialect) SelectSince(table, column string) string {
	return fmt.Sprintf("SELECT %s, %s, %s FROM %s WHERE %s > %s ORDER BY %s, %s",
		d.Quote("timestamp"), d.Quote("id"), d.Quote(column),
		d.Quote(table),
		d.Quote("timestamp"), d.Placeholder(1),
		d.Quote("timestamp"), d.Quote("id"))
}

func (d Dialect) MaxTimestamp(table string) string {
	return fmt.Sprintf("SELECT MAX(%s) FROM %s", d.Quote("timestamp"), d.Quote(table))
}

// Upsert inserts one point keyed on its bucket timestamp and overwrites id and
// value when the bucket is already present.
func (d Dialect) Upsert(table, column string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s, %s, %s) VALUES (%s, %s, %s)",
		d.Quote(table),
		d.Quote("timestamp"), d.Quote("id"), d.Quote(column),
		d.Placeholder(1), d.Placeholder(2), d.Placeholder(3))

	if d.mysql {
		fmt.Fprintf(&b, " ON DUPLICATE KEY UPDATE %[1]s = VALUES(%[1]s), %[2]s = VALUES(%[2]s), %[3]s = VALUES(%[3]s)",
			d.Quote("id"), d.Quote(column), d.Quote("timestamp"))
		return b.String()
	}
	fmt.Fprintf(&b, " ON CONFLICT (%s) DO UPDATE SET %[2]s = EXCLUDED.%[2]s, %[3]s = EXCLUDED.%[3]s",
		d.Quote("timestamp"), d.Quote("id"), d.Quote(column))
	return b.String()
}

// Open opens a handle for driver and checks the dialect is supported. It does
// not contact the database.
func Open(driver, dsn string) (*sql.DB, Dialect, error) {
	d, err := DialectFor(driver)
	if err != nil {
		return nil, Dialect{}, err
	}
	if driver == "sqlite" {
		dsn = SQLiteDSN(dsn)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, Dialect{}, fmt.Errorf("open %s: %w", driver, err)
	}
	return db, d, nil
}

// SQLiteDSN makes modernc.org/sqlite write time.Time values as
// "2006-01-02 15:04:05.999999999-07:00" text. Without it the driver stores
// time.String() output, which sorts and compares badly against bound
// watermarks. An explicit _time_format in dsn is kept.
func SQLiteDSN(dsn string) string {
	if strings.Contains(dsn, "_time_format=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_time_format=sqlite"
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999 -0700 MST",
}

// ParseTime converts a scanned timestamp column into UTC. Drivers disagree on
// what they hand back for DATETIME columns and aggregates: time.Time, []byte
// or string. ok is false for NULL.
func ParseTime(v any) (t time.Time, ok bool, err error) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, false, nil
	case time.Time:
		return x.UTC(), true, nil
	case []byte:
		return parseTimeString(string(x))
	case string:
		return parseTimeString(x)
	default:
		return time.Time{}, false, fmt.Errorf("unsupported timestamp type %T", v)
	}
}

func parseTimeString(s string) (time.Time, bool, error) {
	s = strings.TrimSpace(s)
	// time.String() appends the monotonic clock reading
	if i := strings.Index(s, " m="); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return time.Time{}, false, nil
	}
	if t, err := iso8601.ParseString(s); err == nil {
		return t.UTC(), true, nil
	}
	// sqlite and mysql text values use a space separator
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("unparsable timestamp %q", s)
}
