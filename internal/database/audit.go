package database

import (
	"context"
	"fmt"
	"time"

	"creator-ledger-go/internal/models"

	"github.com/google/uuid"
)

func insertAuditLog(ctx context.Context, q dbtx, entry models.AuditLogEntry) error {
	if entry.Id == "" {
		entry.Id = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if len(entry.Payload) == 0 {
		entry.Payload = []byte(`{}`)
	}
	if entry.Actor == "" {
		entry.Actor = "system"
	}

	_, err := q.ExecContext(ctx, queryInsertAuditLog,
		entry.Id, entry.Actor, entry.Action, entry.TargetTable, entry.TargetId, string(entry.Payload), entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert audit log entry %s: %w", entry.Action, err)
	}
	return nil
}

// audit builds and inserts an entry, encoding payload as JSON.
func audit(ctx context.Context, q dbtx, actor, action, table, targetId string, payload any) error {
	raw, err := models.MarshalMetadata(payload)
	if err != nil {
		return err
	}
	return insertAuditLog(ctx, q, models.AuditLogEntry{
		Actor:       actor,
		Action:      action,
		TargetTable: table,
		TargetId:    targetId,
		Payload:     raw,
	})
}

func (s *Service) InsertAuditLog(ctx context.Context, entry models.AuditLogEntry) error {
	return insertAuditLog(ctx, s.db, entry)
}

func (s *Service) ListAuditLog(ctx context.Context, targetTable, targetId string) ([]models.AuditLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, queryListAuditLog, targetTable, targetId)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit log: %w", err)
	}
	defer closeRows(rows)

	var entries []models.AuditLogEntry
	for rows.Next() {
		var e models.AuditLogEntry
		var payload string
		if err := rows.Scan(&e.Id, &e.Actor, &e.Action, &e.TargetTable, &e.TargetId, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit log entry: %w", err)
		}
		e.Payload = []byte(payload)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
