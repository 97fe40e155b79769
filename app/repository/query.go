package repository

import (
	"context"
	"sort"
	"strings"
)

// QueryRepository runs read-only SELECTs against caller-named tables. Identifiers
// are quoted here but must be validated by the caller.
type QueryRepository struct {
	db DBTX
}

func NewQueryRepository(db DBTX) *QueryRepository {
	return &QueryRepository{db: db}
}

// Select returns every matching row as a column-name keyed map. An empty
// columns slice selects all columns. Filters are equality conditions joined by AND.
func (r *QueryRepository) Select(ctx context.Context, table string, columns []string, filters map[string]interface{}) ([]map[string]interface{}, error) {
	selectList := "*"
	if len(columns) > 0 {
		quoted := make([]string, 0, len(columns))
		for _, column := range columns {
			quoted = append(quoted, QuoteIdentifier(column))
		}
		selectList = strings.Join(quoted, ", ")
	}

	query := "SELECT " + selectList + " FROM " + QuoteIdentifier(table)

	keys := make([]string, 0, len(filters))
	for key := range filters {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	args := make([]interface{}, 0, len(keys))
	if len(keys) > 0 {
		conditions := make([]string, 0, len(keys))
		for _, key := range keys {
			conditions = append(conditions, QuoteIdentifier(key)+" = ?")
			args = append(args, filters[key])
		}
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := make([]map[string]interface{}, 0)
	for rows.Next() {
		values := make([]interface{}, len(names))
		pointers := make([]interface{}, len(names))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err = rows.Scan(pointers...); err != nil {
			return nil, err
		}

		record := make(map[string]interface{}, len(names))
		for i, name := range names {
			if b, ok := values[i].([]byte); ok {
				record[name] = string(b)
				continue
			}
			record[name] = values[i]
		}
		result = append(result, record)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// QuoteIdentifier backtick-quotes a possibly schema-qualified identifier.
func QuoteIdentifier(identifier string) string {
	parts := strings.Split(identifier, ".")
	for i, part := range parts {
		parts[i] = "`" + strings.ReplaceAll(part, "`", "``") + "`"
	}
	return strings.Join(parts, ".")
}
