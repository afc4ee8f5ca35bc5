package lookup

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/elphick/df-eval/ecode"
)

// sqlBatchSize bounds the number of bind parameters per query
const sqlBatchSize = 500

var sqlIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// SQLResolver resolves keys with `SELECT key, value FROM table WHERE key IN (...)`
type SQLResolver struct {
	db          *sql.DB
	driver      string
	table       string
	keyColumn   string
	valueColumn string
}

// NewSQLResolver creates a resolver over db. driver selects the bind
// parameter style: "postgres" uses $n, anything else uses ?.
func NewSQLResolver(db *sql.DB, driver, tableName, keyColumn, valueColumn string) (*SQLResolver, error) {
	for field, name := range map[string]string{"table": tableName, "key_column": keyColumn, "value_column": valueColumn} {
		if !sqlIdentifier.MatchString(name) {
			return nil, &ecode.ConfigurationError{Field: field, Message: fmt.Sprintf("%s: %q", ecode.FieldIsInvalid("sql identifier"), name)}
		}
	}
	return &SQLResolver{db: db, driver: driver, table: tableName, keyColumn: keyColumn, valueColumn: valueColumn}, nil
}

func (r *SQLResolver) query(n int) string {
	placeholders := make([]string, n)
	for i := range placeholders {
		if r.driver == "postgres" {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
		} else {
			placeholders[i] = "?"
		}
	}
	return fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s IN (%s)",
		r.keyColumn, r.valueColumn, r.table, r.keyColumn, strings.Join(placeholders, ", "))
}

// Resolve queries the keys in batches. Duplicate rows for one key keep the
// first value returned.
func (r *SQLResolver) Resolve(ctx context.Context, keys []any) ([]any, error) {
	found := make(map[string]any, len(keys))
	for start := 0; start < len(keys); start += sqlBatchSize {
		end := min(start+sqlBatchSize, len(keys))
		if err := r.resolveBatch(ctx, keys[start:end], found); err != nil {
			return nil, err
		}
	}

	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = found[KeyID(k)]
	}
	return out, nil
}

func (r *SQLResolver) resolveBatch(ctx context.Context, keys []any, found map[string]any) error {
	rows, err := r.db.QueryContext(ctx, r.query(len(keys)), keys...)
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", r.table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var k, v any
		if err := rows.Scan(&k, &v); err != nil {
			return fmt.Errorf("failed to scan %s: %w", r.table, err)
		}
		id := KeyID(fromDriver(k))
		if _, ok := found[id]; !ok {
			found[id] = fromDriver(v)
		}
	}
	return rows.Err()
}

// fromDriver converts raw driver values to table values
func fromDriver(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case int32:
		return int64(x)
	case float32:
		return float64(x)
	}
	return v
}
