package sqlstore

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/asaidimu/go-roster/core/schema"
	"go.uber.org/zap"
)

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// readRows reads all rows into documents keyed by column name, converting
// values with the field each column reads from, if known.
func readRows(logger *zap.Logger, types map[string]*schema.FieldDefinition, rows *sql.Rows) ([]schema.Document, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	results := make([]schema.Document, 0)
	for rows.Next() {
		row := make(schema.Document, len(columns))
		values := make([]any, len(columns))
		scanArgs := make([]any, len(columns))
		for i := range values {
			scanArgs[i] = &values[i]
		}

		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		for i, col := range columns {
			val := values[i]
			if val == nil {
				row[col] = nil
				continue
			}
			fieldDef, ok := types[col]
			if !ok {
				logger.Debug("Column has no field definition, using raw value", zap.String("column", col))
				if b, isBytes := val.([]byte); isBytes {
					val = string(b)
				}
				row[col] = val
				continue
			}
			row[col] = convertValue(fieldDef.Type, val)
		}
		results = append(results, row)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after scanning rows: %w", err)
	}
	return results, nil
}

func convertValue(fieldType schema.FieldType, val any) any {
	if b, ok := val.([]byte); ok {
		val = string(b)
	}
	switch fieldType {
	case schema.FieldTypeBoolean:
		switch v := val.(type) {
		case int64:
			return v != 0
		case bool:
			return v
		}
	case schema.FieldTypeInteger:
		if f, ok := val.(float64); ok {
			return int64(f)
		}
	case schema.FieldTypeNumber:
		if i, ok := val.(int64); ok {
			return float64(i)
		}
	case schema.FieldTypeDateTime:
		if s, ok := val.(string); ok {
			for _, layout := range timeLayouts {
				if t, err := time.Parse(layout, s); err == nil {
					return t
				}
			}
		}
	}
	return val
}
