package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// NIC records a guest virtual NIC and the vswitch it is coupled to.
// Switch is empty while the NIC is uncoupled.
type NIC struct {
	UserID    string
	Interface string
	Switch    string
	Port      string
	Comments  string
}

const (
	sqlInsertNIC = `INSERT INTO nics (id, userid, interface, port, comments) VALUES (?, ?, ?, ?, ?)`

	sqlSelectNIC = `SELECT userid, interface, COALESCE(switch, ''), port, comments
		FROM nics WHERE deleted = 0`

	sqlUpdateNIC = `UPDATE nics SET switch = ?
		WHERE userid = ? AND interface = ? AND deleted = 0`

	sqlSoftDeleteNIC = `UPDATE nics SET deleted = 1, deleted_at = ?
		WHERE userid = ? AND interface = ? AND deleted = 0`

	sqlSoftDeleteNICsForUser = `UPDATE nics SET deleted = 1, deleted_at = ?
		WHERE userid = ? AND deleted = 0`
)

// AddNIC records a new, uncoupled NIC for a guest.
func (s *Store) AddNIC(ctx context.Context, userID, iface, port, comments string) error {
	userID = normalizeUserID(userID)
	if userID == "" || iface == "" {
		return fmt.Errorf("%w: nic requires userid and interface", ErrInvalid)
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		var exists int

		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM nics WHERE userid = ? AND interface = ? AND deleted = 0`, userID, iface).Scan(&exists)
		if err == nil {
			return fmt.Errorf("%w: nic %s of %s", ErrAlreadyExists, iface, userID)
		}

		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("store: reading nic: %w", err)
		}

		if _, err := tx.ExecContext(ctx, sqlInsertNIC, s.newID(), userID, iface, port, comments); err != nil {
			return fmt.Errorf("store: inserting nic %s of %s: %w", iface, userID, err)
		}

		return nil
	})
}

// SetNICSwitch couples the NIC to vswitch, or uncouples it when vswitch is
// empty.
func (s *Store) SetNICSwitch(ctx context.Context, userID, iface, vswitch string) error {
	userID = normalizeUserID(userID)

	var value any
	if vswitch != "" {
		value = vswitch
	}

	res, err := s.db.ExecContext(ctx, sqlUpdateNIC, value, userID, iface)
	if err != nil {
		return fmt.Errorf("store: updating nic %s of %s: %w", iface, userID, err)
	}

	return requireAffected(res, "nic "+iface+" of "+userID)
}

// DeleteNIC soft-deletes one NIC record. Deleting an unknown NIC is not an
// error.
func (s *Store) DeleteNIC(ctx context.Context, userID, iface string) error {
	userID = normalizeUserID(userID)

	if _, err := s.db.ExecContext(ctx, sqlSoftDeleteNIC, s.nowFunc().UnixNano(), userID, iface); err != nil {
		return fmt.Errorf("store: deleting nic %s of %s: %w", iface, userID, err)
	}

	return nil
}

// DeleteNICsForUser soft-deletes every NIC record of a guest.
func (s *Store) DeleteNICsForUser(ctx context.Context, userID string) error {
	userID = normalizeUserID(userID)

	if _, err := s.db.ExecContext(ctx, sqlSoftDeleteNICsForUser, s.nowFunc().UnixNano(), userID); err != nil {
		return fmt.Errorf("store: deleting nics of %s: %w", userID, err)
	}

	return nil
}

// ListNICs returns every active NIC record.
func (s *Store) ListNICs(ctx context.Context) ([]NIC, error) {
	return s.queryNICs(ctx, sqlSelectNIC+` ORDER BY userid, interface`)
}

// NICsForUser returns the NIC records of one guest.
func (s *Store) NICsForUser(ctx context.Context, userID string) ([]NIC, error) {
	return s.queryNICs(ctx, sqlSelectNIC+` AND userid = ? ORDER BY interface`, normalizeUserID(userID))
}

func (s *Store) queryNICs(ctx context.Context, query string, args ...any) ([]NIC, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: listing nics: %w", err)
	}
	defer rows.Close()

	var nics []NIC

	for rows.Next() {
		var n NIC
		if err := rows.Scan(&n.UserID, &n.Interface, &n.Switch, &n.Port, &n.Comments); err != nil {
			return nil, fmt.Errorf("store: scanning nic: %w", err)
		}

		nics = append(nics, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterating nics: %w", err)
	}

	return nics, nil
}

// requireAffected maps a zero-row mutation to ErrNotFound.
func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: %s: %w", what, err)
	}

	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}

	return nil
}
