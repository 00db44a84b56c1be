package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/training-crm-api/internal/application/export"
	"github.com/jhoicas/training-crm-api/internal/application/importer"
)

var (
	_ importer.RecordWriter = (*RecordStore)(nil)
	_ export.RecordSource   = (*RecordStore)(nil)
)

// Columnas administradas por la tabla, nunca por el archivo.
var systemColumns = map[string]bool{"id": true, "created_at": true, "updated_at": true, "extra": true}

// RecordStore escribe y lee filas genéricas de importación/exportación.
// Cada campo conocido del tipo de datos es una columna homónima; las claves desconocidas
// y los valores que no pudieron convertirse van a la columna jsonb extra.
type RecordStore struct {
	pool *pgxpool.Pool
	tx   *TxRunner
}

// NewRecordStore construye el adaptador.
func NewRecordStore(pool *pgxpool.Pool) *RecordStore {
	return &RecordStore{pool: pool, tx: NewTxRunner(pool)}
}

// WriteRecords inserta todas las filas en un solo batch transaccional.
func (s *RecordStore) WriteRecords(ctx context.Context, dt importer.DataType, records []importer.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	table := dt.Table()
	if table == "" {
		return 0, fmt.Errorf("record store: tipo de datos %q sin tabla", dt)
	}
	query := insertStatement(table, dt.Fields())

	batch := &pgx.Batch{}
	for _, rec := range records {
		args, err := insertArgs(dt.Fields(), rec)
		if err != nil {
			return 0, err
		}
		batch.Queue(query, args...)
	}
	err := s.tx.RunTx(ctx, func(tx pgx.Tx) error {
		br := tx.SendBatch(ctx, batch)
		for i := range records {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return fmt.Errorf("insert %s fila %d: %w", table, i+1, err)
			}
		}
		return br.Close()
	})
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// ListRecords últimas filas del tipo, más recientes primero, con las claves de extra fusionadas.
func (s *RecordStore) ListRecords(ctx context.Context, dt importer.DataType, limit int) ([]importer.Record, error) {
	table := dt.Table()
	if table == "" {
		return nil, fmt.Errorf("record store: tipo de datos %q sin tabla", dt)
	}
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT to_jsonb(t) FROM %s t ORDER BY created_at DESC LIMIT $1`, pgx.Identifier{table}.Sanitize()),
		limit)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	var out []importer.Record
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		rec, err := decodeRow(raw)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", table, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func insertStatement(table string, fields []importer.Field) string {
	cols := make([]string, 0, len(fields)+2)
	vals := make([]string, 0, len(fields)+2)
	cols = append(cols, "id")
	vals = append(vals, "$1")
	for i, f := range fields {
		cols = append(cols, pgx.Identifier{f.Key}.Sanitize())
		p := fmt.Sprintf("$%d", i+2)
		if f.Type == importer.FieldDate {
			p += "::text::date"
		}
		vals = append(vals, p)
	}
	cols = append(cols, "extra")
	vals = append(vals, fmt.Sprintf("$%d::jsonb", len(fields)+2))
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pgx.Identifier{table}.Sanitize(), strings.Join(cols, ", "), strings.Join(vals, ", "))
}

// insertArgs valores en el orden de insertStatement. Un valor cuyo tipo no coincide con la
// columna (p. ej. texto en una columna numérica) se guarda como NULL y su texto va a extra.
func insertArgs(fields []importer.Field, rec importer.Record) ([]any, error) {
	args := make([]any, 0, len(fields)+2)
	args = append(args, uuid.NewString())
	extra := map[string]any{}
	known := make(map[string]bool, len(fields))
	for _, f := range fields {
		known[f.Key] = true
		v := rec[f.Key]
		if v != nil && !columnAccepts(f.Type, v) {
			extra[f.Key] = v
			v = nil
		}
		args = append(args, v)
	}
	keys := make([]string, 0, len(rec))
	for k := range rec {
		if !known[k] && !systemColumns[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if rec[k] != nil {
			extra[k] = rec[k]
		}
	}
	raw, err := json.Marshal(extra)
	if err != nil {
		return nil, fmt.Errorf("marshal extra: %w", err)
	}
	return append(args, string(raw)), nil
}

func columnAccepts(t importer.FieldType, v any) bool {
	switch t {
	case importer.FieldNumber:
		_, ok := v.(float64)
		return ok
	case importer.FieldBool:
		_, ok := v.(bool)
		return ok
	case importer.FieldList:
		_, ok := v.([]string)
		return ok
	case importer.FieldDate:
		s, ok := v.(string)
		return ok && importer.IsNormalizedDate(s)
	case importer.FieldTime:
		s, ok := v.(string)
		return ok && importer.IsNormalizedTime(s)
	default:
		_, ok := v.(string)
		return ok
	}
}

func decodeRow(raw []byte) (importer.Record, error) {
	var row map[string]any
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, err
	}
	rec := make(importer.Record, len(row))
	for k, v := range row {
		if !systemColumns[k] {
			rec[k] = v
		}
	}
	if extra, ok := row["extra"].(map[string]any); ok {
		for k, v := range extra {
			if cur, exists := rec[k]; !exists || cur == nil {
				rec[k] = v
			}
		}
	}
	return rec, nil
}
