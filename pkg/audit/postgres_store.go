package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CyberSecurityUP/GroomSafe/pkg/model"
)

const auditSchema = `
CREATE TABLE IF NOT EXISTS audit_entries (
	log_id             UUID PRIMARY KEY,
	ts                 TIMESTAMPTZ NOT NULL,
	conversation_id    UUID NOT NULL,
	assessment_id      UUID,
	action_type        TEXT NOT NULL,
	actor              TEXT NOT NULL,
	risk_score         DOUBLE PRECISION NOT NULL DEFAULT 0,
	risk_level         TEXT NOT NULL DEFAULT '',
	stage              TEXT NOT NULL DEFAULT '',
	decision_rationale TEXT NOT NULL DEFAULT '',
	model_version      TEXT NOT NULL DEFAULT '',
	metadata           JSONB
);
CREATE INDEX IF NOT EXISTS audit_entries_conversation_idx ON audit_entries (conversation_id, ts);
CREATE INDEX IF NOT EXISTS audit_entries_ts_idx ON audit_entries (ts);
`

// PostgresStore persists audit entries in PostgreSQL. Intended for
// deployments where the audit trail must outlive the process and be
// queryable by external compliance tooling.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore connects to dsn and ensures the audit schema exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	store, err := NewPostgresStoreWithPool(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// NewPostgresStoreWithPool wraps an existing pool. The caller keeps
// ownership of the pool unless the store was built via NewPostgresStore.
func NewPostgresStoreWithPool(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, auditSchema); err != nil {
		return nil, fmt.Errorf("create audit schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Append inserts one entry.
func (s *PostgresStore) Append(ctx context.Context, entry *model.AuditEntry) error {
	var metadata []byte
	if entry.Metadata != nil {
		var err error
		metadata, err = json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("marshal audit metadata: %w", err)
		}
	}

	var assessmentID *uuid.UUID
	if entry.AssessmentID != uuid.Nil {
		assessmentID = &entry.AssessmentID
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO audit_entries
			(log_id, ts, conversation_id, assessment_id, action_type, actor,
			 risk_score, risk_level, stage, decision_rationale, model_version, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		entry.LogID, entry.Timestamp, entry.ConversationID, assessmentID,
		entry.ActionType, entry.Actor, entry.RiskScore, string(entry.RiskLevel),
		string(entry.Stage), entry.DecisionRationale, entry.ModelVersion, metadata)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// Query returns matching entries ordered by timestamp ascending.
func (s *PostgresStore) Query(ctx context.Context, filter Filter) ([]model.AuditEntry, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.ConversationID != uuid.Nil {
		conds = append(conds, "conversation_id = "+arg(filter.ConversationID))
	}
	if filter.AssessmentID != uuid.Nil {
		conds = append(conds, "assessment_id = "+arg(filter.AssessmentID))
	}
	if filter.ActionType != "" {
		conds = append(conds, "action_type = "+arg(filter.ActionType))
	}
	if !filter.StartTime.IsZero() {
		conds = append(conds, "ts >= "+arg(filter.StartTime))
	}
	if !filter.EndTime.IsZero() {
		conds = append(conds, "ts <= "+arg(filter.EndTime))
	}
	if filter.RiskLevel != "" {
		conds = append(conds, "risk_level = "+arg(string(filter.RiskLevel)))
	}

	query := `SELECT log_id, ts, conversation_id, assessment_id, action_type, actor,
		risk_score, risk_level, stage, decision_rationale, model_version, metadata
		FROM audit_entries`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY ts ASC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []model.AuditEntry
	for rows.Next() {
		var (
			e            model.AuditEntry
			assessmentID *uuid.UUID
			ts           time.Time
			level, stage string
			metadata     []byte
		)
		if err := rows.Scan(&e.LogID, &ts, &e.ConversationID, &assessmentID,
			&e.ActionType, &e.Actor, &e.RiskScore, &level, &stage,
			&e.DecisionRationale, &e.ModelVersion, &metadata); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Timestamp = ts
		e.RiskLevel = model.RiskLevel(level)
		e.Stage = model.GroomingStage(stage)
		if assessmentID != nil {
			e.AssessmentID = *assessmentID
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal audit metadata: %w", err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read audit entries: %w", err)
	}
	return entries, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}
