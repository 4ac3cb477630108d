package analysis

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type auditRepoPG struct{ pool *pgxpool.Pool }

// NewAuditRepoPG returns a postgres-backed audit store.
func NewAuditRepoPG(pool *pgxpool.Pool) AuditStore {
	return &auditRepoPG{pool: pool}
}

func (r *auditRepoPG) InsertRequest(ctx context.Context, rec *AuditRecord) (uuid.UUID, error) {
	rec.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO analysis_request (id, request_name, language, requester_id, input_source,
			rxcui, canonical_name, method, sources_cited, aborted, analyzed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		rec.ID, rec.RequestName, rec.Language, rec.RequesterID, rec.InputSource,
		rec.RxCUI, rec.CanonicalName, rec.Method, rec.SourcesCited, rec.Aborted, rec.AnalyzedAt)
	if err != nil {
		return uuid.Nil, err
	}
	return rec.ID, nil
}

func (r *auditRepoPG) InsertLogs(ctx context.Context, requestID uuid.UUID, entries []WorkflowLogEntry) error {
	batch := &pgx.Batch{}
	for i, e := range entries {
		batch.Queue(`
			INSERT INTO analysis_log (request_id, seq, stage, status, message, ts, meta)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			requestID, i, e.Stage, e.Status, e.Message, e.Timestamp, e.Meta)
	}
	return r.pool.SendBatch(ctx, batch).Close()
}

const auditCols = `id, request_name, language, requester_id, input_source,
	rxcui, canonical_name, method, sources_cited, aborted, analyzed_at`

func (r *auditRepoPG) GetRequest(ctx context.Context, id uuid.UUID) (*AuditRecord, error) {
	var rec AuditRecord
	err := r.pool.QueryRow(ctx, `SELECT `+auditCols+` FROM analysis_request WHERE id = $1`, id).
		Scan(&rec.ID, &rec.RequestName, &rec.Language, &rec.RequesterID, &rec.InputSource,
			&rec.RxCUI, &rec.CanonicalName, &rec.Method, &rec.SourcesCited, &rec.Aborted, &rec.AnalyzedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *auditRepoPG) GetLogs(ctx context.Context, requestID uuid.UUID) ([]WorkflowLogEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT stage, status, message, ts, meta
		FROM analysis_log WHERE request_id = $1 ORDER BY seq`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []WorkflowLogEntry
	for rows.Next() {
		var e WorkflowLogEntry
		if err := rows.Scan(&e.Stage, &e.Status, &e.Message, &e.Timestamp, &e.Meta); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
