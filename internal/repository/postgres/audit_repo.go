package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Драйвер Postgres

	"github.com/xela07ax/workshop-oversight-console/internal/audit"
)

const auditSchema = `
CREATE TABLE IF NOT EXISTS operator_audit (
	id          UUID PRIMARY KEY,
	trace_id    TEXT NOT NULL DEFAULT '',
	actor       TEXT NOT NULL DEFAULT '',
	action      TEXT NOT NULL,
	target      TEXT NOT NULL DEFAULT '',
	payload     JSONB,
	status      TEXT NOT NULL,
	error       TEXT NOT NULL DEFAULT '',
	duration_ms BIGINT NOT NULL DEFAULT 0,
	timestamp   TIMESTAMPTZ NOT NULL
)`

// Количество колонок в таблице operator_audit
const auditFields = 10

// maxInsertRows — сколько записей влезает в один INSERT при лимите 65535 параметров.
const maxInsertRows = 65535 / auditFields

type AuditRepo struct {
	db *sql.DB
}

type PoolConfig struct {
	MaxConns int32
	MinConns int32
}

func NewAuditRepo(connString string, pool PoolConfig) (*AuditRepo, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	if pool.MaxConns > 0 {
		db.SetMaxOpenConns(int(pool.MaxConns))
	}
	if pool.MinConns > 0 {
		db.SetMaxIdleConns(int(pool.MinConns))
	}
	db.SetConnMaxLifetime(5 * time.Minute)
	return &AuditRepo{db: db}, nil
}

func (r *AuditRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// EnsureSchema создает таблицу журнала, если ее еще нет.
func (r *AuditRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, auditSchema); err != nil {
		return fmt.Errorf("postgres: ensure audit schema: %w", err)
	}
	return nil
}

func (r *AuditRepo) Close() error {
	return r.db.Close()
}

func (r *AuditRepo) WriteBatch(ctx context.Context, events []audit.OperatorAction) error {
	if len(events) == 0 {
		return nil
	}
	for len(events) > 0 {
		n := min(len(events), maxInsertRows)
		query, vals := buildAuditInsert(events[:n])
		if _, err := r.db.ExecContext(ctx, query, vals...); err != nil {
			return fmt.Errorf("postgres: write audit batch: %w", err)
		}
		events = events[n:]
	}
	return nil
}

// buildAuditInsert динамически строит запрос для пакетной вставки
func buildAuditInsert(events []audit.OperatorAction) (string, []interface{}) {
	var sb strings.Builder
	vals := make([]interface{}, 0, len(events)*auditFields)

	for i, e := range events {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for f := 1; f <= auditFields; f++ {
			if f > 1 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", i*auditFields+f)
		}
		sb.WriteString(")")

		var payload []byte
		if e.Payload != nil {
			payload, _ = json.Marshal(e.Payload)
		}
		vals = append(vals,
			e.ID, e.TraceID, e.Actor, e.Action, e.Target,
			payload, e.Status, e.Error, e.DurationMs, e.Timestamp,
		)
	}

	query := "INSERT INTO operator_audit (id, trace_id, actor, action, target, payload, status, error, duration_ms, timestamp) VALUES " +
		sb.String() + " ON CONFLICT (id) DO NOTHING"
	return query, vals
}
