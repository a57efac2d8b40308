// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vaultiq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/vaultiq/internal/platform/apperr"
	"github.com/taibuivan/vaultiq/internal/platform/database/schema"
	"github.com/taibuivan/vaultiq/internal/platform/dberr"
)

// PostgresSessionRepository implements SessionRepository against the
// vaultiq.session table.
type PostgresSessionRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresSessionRepository constructs a PostgresSessionRepository.
func NewPostgresSessionRepository(pool *pgxpool.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{pool: pool}
}

func (r *PostgresSessionRepository) Insert(ctx context.Context, s *Session) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (
			%s, %s, %s, %s, %s, %s, %s, %s, %s
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		schema.VaultiqSession.Table,
		schema.VaultiqSession.SessionID, schema.VaultiqSession.UserID, schema.VaultiqSession.DeviceFingerprint,
		schema.VaultiqSession.DeviceName, schema.VaultiqSession.DeviceOS, schema.VaultiqSession.DeviceType,
		schema.VaultiqSession.IsRevoked, schema.VaultiqSession.RevokedAt, schema.VaultiqSession.CreatedAt,
	)

	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}

	_, err := r.pool.Exec(ctx, query,
		s.SessionID, s.UserID, s.DeviceFingerprint, s.DeviceName, s.DeviceOS, s.DeviceType,
		s.IsRevoked, s.RevokedAt, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres_session_repo_insert_failed: %w", err)
	}
	return nil
}

func (r *PostgresSessionRepository) scanOne(row pgx.Row) (*Session, error) {
	s := &Session{}
	err := row.Scan(
		&s.SessionID, &s.UserID, &s.DeviceFingerprint, &s.DeviceName, &s.DeviceOS, &s.DeviceType,
		&s.IsRevoked, &s.RevokedAt, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Session")
		}
		return nil, dberr.Wrap(err, "scan_session")
	}
	return s, nil
}

func (r *PostgresSessionRepository) FindByID(ctx context.Context, sessionID string) (*Session, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s
		FROM %s WHERE %s = $1`,
		schema.VaultiqSession.SessionID, schema.VaultiqSession.UserID, schema.VaultiqSession.DeviceFingerprint,
		schema.VaultiqSession.DeviceName, schema.VaultiqSession.DeviceOS, schema.VaultiqSession.DeviceType,
		schema.VaultiqSession.IsRevoked, schema.VaultiqSession.RevokedAt, schema.VaultiqSession.CreatedAt,
		schema.VaultiqSession.Table, schema.VaultiqSession.SessionID,
	)

	s, err := r.scanOne(r.pool.QueryRow(ctx, query, sessionID))
	if err != nil {
		if apperr.As(err) != nil {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres_session_repo_find_by_id_failed: %w", err)
	}
	return s, nil
}

func (r *PostgresSessionRepository) queryMany(ctx context.Context, query string, args ...any) ([]*Session, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]*Session, 0)
	for rows.Next() {
		s, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r *PostgresSessionRepository) FindByUser(ctx context.Context, userID string) ([]*Session, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s
		FROM %s WHERE %s = $1 ORDER BY %s DESC`,
		schema.VaultiqSession.SessionID, schema.VaultiqSession.UserID, schema.VaultiqSession.DeviceFingerprint,
		schema.VaultiqSession.DeviceName, schema.VaultiqSession.DeviceOS, schema.VaultiqSession.DeviceType,
		schema.VaultiqSession.IsRevoked, schema.VaultiqSession.RevokedAt, schema.VaultiqSession.CreatedAt,
		schema.VaultiqSession.Table, schema.VaultiqSession.UserID, schema.VaultiqSession.CreatedAt,
	)
	sessions, err := r.queryMany(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres_session_repo_find_by_user_failed: %w", err)
	}
	return sessions, nil
}

func (r *PostgresSessionRepository) FindActiveByUser(ctx context.Context, userID string) ([]*Session, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s
		FROM %s WHERE %s = $1 AND %s = FALSE ORDER BY %s DESC`,
		schema.VaultiqSession.SessionID, schema.VaultiqSession.UserID, schema.VaultiqSession.DeviceFingerprint,
		schema.VaultiqSession.DeviceName, schema.VaultiqSession.DeviceOS, schema.VaultiqSession.DeviceType,
		schema.VaultiqSession.IsRevoked, schema.VaultiqSession.RevokedAt, schema.VaultiqSession.CreatedAt,
		schema.VaultiqSession.Table, schema.VaultiqSession.UserID, schema.VaultiqSession.IsRevoked, schema.VaultiqSession.CreatedAt,
	)
	sessions, err := r.queryMany(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres_session_repo_find_active_by_user_failed: %w", err)
	}
	return sessions, nil
}

func (r *PostgresSessionRepository) FindActiveByUserExcluding(ctx context.Context, userID string, excluded []string) ([]*Session, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s
		FROM %s WHERE %s = $1 AND %s = FALSE AND NOT (%s = ANY($2)) ORDER BY %s DESC`,
		schema.VaultiqSession.SessionID, schema.VaultiqSession.UserID, schema.VaultiqSession.DeviceFingerprint,
		schema.VaultiqSession.DeviceName, schema.VaultiqSession.DeviceOS, schema.VaultiqSession.DeviceType,
		schema.VaultiqSession.IsRevoked, schema.VaultiqSession.RevokedAt, schema.VaultiqSession.CreatedAt,
		schema.VaultiqSession.Table, schema.VaultiqSession.UserID, schema.VaultiqSession.IsRevoked,
		schema.VaultiqSession.SessionID, schema.VaultiqSession.CreatedAt,
	)
	sessions, err := r.queryMany(ctx, query, userID, excluded)
	if err != nil {
		return nil, fmt.Errorf("postgres_session_repo_find_active_excluding_failed: %w", err)
	}
	return sessions, nil
}

func (r *PostgresSessionRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = $1`,
		schema.VaultiqSession.Table, schema.VaultiqSession.UserID)

	var count int
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres_session_repo_count_by_user_failed: %w", err)
	}
	return count, nil
}

func (r *PostgresSessionRepository) Delete(ctx context.Context, sessionID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.VaultiqSession.Table, schema.VaultiqSession.SessionID)
	if _, err := r.pool.Exec(ctx, query, sessionID); err != nil {
		return fmt.Errorf("postgres_session_repo_delete_failed: %w", err)
	}
	return nil
}

func (r *PostgresSessionRepository) DeleteMany(ctx context.Context, sessionIDs []string) error {
	if len(sessionIDs) == 0 {
		return nil
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = ANY($1)`, schema.VaultiqSession.Table, schema.VaultiqSession.SessionID)
	if _, err := r.pool.Exec(ctx, query, sessionIDs); err != nil {
		return fmt.Errorf("postgres_session_repo_delete_many_failed: %w", err)
	}
	return nil
}

func (r *PostgresSessionRepository) MarkRevoked(ctx context.Context, sessionID string, revokedAt int64) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = TRUE, %s = $2 WHERE %s = $1`,
		schema.VaultiqSession.Table, schema.VaultiqSession.IsRevoked, schema.VaultiqSession.RevokedAt, schema.VaultiqSession.SessionID)
	if _, err := r.pool.Exec(ctx, query, sessionID, time.UnixMilli(revokedAt)); err != nil {
		return fmt.Errorf("postgres_session_repo_mark_revoked_failed: %w", err)
	}
	return nil
}

// PostgresRevocationRepository implements RevocationRepository against the
// vaultiq.revocation table.
type PostgresRevocationRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRevocationRepository constructs a PostgresRevocationRepository.
func NewPostgresRevocationRepository(pool *pgxpool.Pool) *PostgresRevocationRepository {
	return &PostgresRevocationRepository{pool: pool}
}

func (r *PostgresRevocationRepository) Insert(ctx context.Context, rec *RevocationRecord) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (%s) DO NOTHING`,
		schema.VaultiqRevocation.Table,
		schema.VaultiqRevocation.SessionID, schema.VaultiqRevocation.UserID, schema.VaultiqRevocation.Kind,
		schema.VaultiqRevocation.Note, schema.VaultiqRevocation.TriggeredBy, schema.VaultiqRevocation.RevokedAt,
		schema.VaultiqRevocation.SessionID,
	)

	if rec.RevokedAt.IsZero() {
		rec.RevokedAt = time.Now()
	}

	_, err := r.pool.Exec(ctx, query, rec.SessionID, rec.UserID, rec.Kind, rec.Note, rec.TriggeredBy, rec.RevokedAt)
	if err != nil {
		return fmt.Errorf("postgres_revocation_repo_insert_failed: %w", err)
	}
	return nil
}

func (r *PostgresRevocationRepository) scanOne(row pgx.Row) (*RevocationRecord, error) {
	rec := &RevocationRecord{}
	err := row.Scan(&rec.SessionID, &rec.UserID, &rec.Kind, &rec.Note, &rec.TriggeredBy, &rec.RevokedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Revocation record")
		}
		return nil, dberr.Wrap(err, "scan_revocation")
	}
	return rec, nil
}

func (r *PostgresRevocationRepository) FindBySessionID(ctx context.Context, sessionID string) (*RevocationRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s
		FROM %s WHERE %s = $1`,
		schema.VaultiqRevocation.SessionID, schema.VaultiqRevocation.UserID, schema.VaultiqRevocation.Kind,
		schema.VaultiqRevocation.Note, schema.VaultiqRevocation.TriggeredBy, schema.VaultiqRevocation.RevokedAt,
		schema.VaultiqRevocation.Table, schema.VaultiqRevocation.SessionID,
	)
	rec, err := r.scanOne(r.pool.QueryRow(ctx, query, sessionID))
	if err != nil {
		if apperr.As(err) != nil {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres_revocation_repo_find_by_session_failed: %w", err)
	}
	return rec, nil
}

func (r *PostgresRevocationRepository) FindByUser(ctx context.Context, userID string) ([]*RevocationRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s
		FROM %s WHERE %s = $1 ORDER BY %s DESC`,
		schema.VaultiqRevocation.SessionID, schema.VaultiqRevocation.UserID, schema.VaultiqRevocation.Kind,
		schema.VaultiqRevocation.Note, schema.VaultiqRevocation.TriggeredBy, schema.VaultiqRevocation.RevokedAt,
		schema.VaultiqRevocation.Table, schema.VaultiqRevocation.UserID, schema.VaultiqRevocation.RevokedAt,
	)

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres_revocation_repo_find_by_user_failed: %w", err)
	}
	defer rows.Close()

	records := make([]*RevocationRecord, 0)
	for rows.Next() {
		rec, err := r.scanOne(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres_revocation_repo_find_by_user_failed: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *PostgresRevocationRepository) Delete(ctx context.Context, sessionID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.VaultiqRevocation.Table, schema.VaultiqRevocation.SessionID)
	if _, err := r.pool.Exec(ctx, query, sessionID); err != nil {
		return fmt.Errorf("postgres_revocation_repo_delete_failed: %w", err)
	}
	return nil
}

func (r *PostgresRevocationRepository) DeleteOlderThan(ctx context.Context, cutoffUnixMilli int64, limit int) (int, error) {
	query := fmt.Sprintf(`
		DELETE FROM %s WHERE ctid IN (
			SELECT ctid FROM %s WHERE %s < $1 LIMIT $2
		)`,
		schema.VaultiqRevocation.Table, schema.VaultiqRevocation.Table, schema.VaultiqRevocation.RevokedAt,
	)
	tag, err := r.pool.Exec(ctx, query, time.UnixMilli(cutoffUnixMilli), limit)
	if err != nil {
		return 0, fmt.Errorf("postgres_revocation_repo_delete_older_than_failed: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
