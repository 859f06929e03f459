package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// QuotaRecord returns the stored record for (subject, period), or a zeroed
// record when none exists yet.
func (s *Store) QuotaRecord(ctx context.Context, subject, period string) (*QuotaRecord, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT subject, period, consumed, reserved, updated_at
         FROM quota_records WHERE subject = ? AND period = ?`,
		subject,
		period,
	)

	record := &QuotaRecord{Subject: subject, Period: period}
	var updatedRaw string
	err := row.Scan(&record.Subject, &record.Period, &record.Consumed, &record.Reserved, &updatedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return record, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get quota record: %w", err)
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		record.UpdatedAt = updated
	}
	return record, nil
}

// PutQuotaRecord upserts the counters for (subject, period).
func (s *Store) PutQuotaRecord(ctx context.Context, record *QuotaRecord) error {
	if record == nil {
		return errors.New("quota record is nil")
	}
	record.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO quota_records (subject, period, consumed, reserved, updated_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(subject, period) DO UPDATE SET
             consumed = excluded.consumed,
             reserved = excluded.reserved,
             updated_at = excluded.updated_at`,
		record.Subject,
		record.Period,
		record.Consumed,
		record.Reserved,
		record.UpdatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("put quota record: %w", err)
	}
	return nil
}

// PruneQuotaRecords removes records from periods other than current. Old
// periods are dead weight once the ledger has rolled over.
func (s *Store) PruneQuotaRecords(ctx context.Context, subject, currentPeriod string) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`DELETE FROM quota_records WHERE subject = ? AND period != ?`,
		subject,
		currentPeriod,
	)
	if err != nil {
		return 0, fmt.Errorf("prune quota records: %w", err)
	}
	return res.RowsAffected()
}
