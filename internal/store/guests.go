package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Guest is the local record of a guest virtual machine. Deleted guests stay
// in the table but are invisible to every lookup.
type Guest struct {
	ID       string
	UserID   string
	Metadata string
	Comments string
}

// GuestUpdate names the fields to change; nil fields are left alone.
type GuestUpdate struct {
	UserID   *string
	Metadata *string
	Comments *string
}

func (u GuestUpdate) empty() bool {
	return u.UserID == nil && u.Metadata == nil && u.Comments == nil
}

const (
	sqlInsertGuest     = `INSERT INTO guests (id, userid, metadata, comments) VALUES (?, ?, ?, ?)`
	sqlSelectGuest     = `SELECT id, userid, metadata, comments FROM guests WHERE deleted = 0`
	sqlSoftDeleteGuest = `UPDATE guests SET deleted = 1, deleted_at = ? WHERE id = ?`
)

// normalizeUserID upper-cases guest user IDs the way z/VM reports them.
func normalizeUserID(userID string) string {
	return strings.ToUpper(strings.TrimSpace(userID))
}

// AddGuest records a new guest and returns it with its generated ID.
func (s *Store) AddGuest(ctx context.Context, userID, metadata, comments string) (*Guest, error) {
	g := &Guest{
		ID:       s.newID(),
		UserID:   normalizeUserID(userID),
		Metadata: metadata,
		Comments: comments,
	}

	if g.UserID == "" {
		return nil, fmt.Errorf("%w: guest userid is empty", ErrInvalid)
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := guestBy(ctx, tx, "userid", g.UserID); err == nil {
			return fmt.Errorf("%w: guest %s", ErrAlreadyExists, g.UserID)
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}

		if _, err := tx.ExecContext(ctx, sqlInsertGuest, g.ID, g.UserID, g.Metadata, g.Comments); err != nil {
			return fmt.Errorf("store: inserting guest %s: %w", g.UserID, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return g, nil
}

// GuestByID returns the guest with the given record ID.
func (s *Store) GuestByID(ctx context.Context, id string) (*Guest, error) {
	return guestBy(ctx, s.db, "id", id)
}

// GuestByUserID returns the guest with the given user ID (case-insensitive).
func (s *Store) GuestByUserID(ctx context.Context, userID string) (*Guest, error) {
	return guestBy(ctx, s.db, "userid", normalizeUserID(userID))
}

// ListGuests returns every active guest ordered by user ID.
func (s *Store) ListGuests(ctx context.Context) ([]Guest, error) {
	rows, err := s.db.QueryContext(ctx, sqlSelectGuest+` ORDER BY userid`)
	if err != nil {
		return nil, fmt.Errorf("store: listing guests: %w", err)
	}
	defer rows.Close()

	var guests []Guest

	for rows.Next() {
		var g Guest
		if err := rows.Scan(&g.ID, &g.UserID, &g.Metadata, &g.Comments); err != nil {
			return nil, fmt.Errorf("store: scanning guest: %w", err)
		}

		guests = append(guests, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterating guests: %w", err)
	}

	return guests, nil
}

// UpdateGuestByID changes the named fields of the guest with record ID id.
func (s *Store) UpdateGuestByID(ctx context.Context, id string, u GuestUpdate) error {
	return s.updateGuest(ctx, "id", id, u)
}

// UpdateGuestByUserID changes the named fields of the guest with userID.
func (s *Store) UpdateGuestByUserID(ctx context.Context, userID string, u GuestUpdate) error {
	return s.updateGuest(ctx, "userid", normalizeUserID(userID), u)
}

func (s *Store) updateGuest(ctx context.Context, column, key string, u GuestUpdate) error {
	if u.empty() {
		return ErrNoFields
	}

	var (
		sets []string
		args []any
	)

	if u.UserID != nil {
		userID := normalizeUserID(*u.UserID)
		if userID == "" {
			return fmt.Errorf("%w: guest userid is empty", ErrInvalid)
		}

		sets = append(sets, "userid = ?")
		args = append(args, userID)
	}

	if u.Metadata != nil {
		sets = append(sets, "metadata = ?")
		args = append(args, *u.Metadata)
	}

	if u.Comments != nil {
		sets = append(sets, "comments = ?")
		args = append(args, *u.Comments)
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		g, err := guestBy(ctx, tx, column, key)
		if err != nil {
			return err
		}

		if u.UserID != nil && normalizeUserID(*u.UserID) != g.UserID {
			if _, err := guestBy(ctx, tx, "userid", normalizeUserID(*u.UserID)); err == nil {
				return fmt.Errorf("%w: guest %s", ErrAlreadyExists, normalizeUserID(*u.UserID))
			} else if !errors.Is(err, ErrNotFound) {
				return err
			}
		}

		query := `UPDATE guests SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
		if _, err := tx.ExecContext(ctx, query, append(args, g.ID)...); err != nil {
			return fmt.Errorf("store: updating guest %s: %w", g.UserID, err)
		}

		return nil
	})
}

// DeleteGuestByID soft-deletes the guest with record ID id.
func (s *Store) DeleteGuestByID(ctx context.Context, id string) error {
	return s.deleteGuest(ctx, "id", id)
}

// DeleteGuestByUserID soft-deletes the guest with the given user ID.
func (s *Store) DeleteGuestByUserID(ctx context.Context, userID string) error {
	return s.deleteGuest(ctx, "userid", normalizeUserID(userID))
}

func (s *Store) deleteGuest(ctx context.Context, column, key string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		g, err := guestBy(ctx, tx, column, key)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, sqlSoftDeleteGuest, s.nowFunc().UnixNano(), g.ID); err != nil {
			return fmt.Errorf("store: deleting guest %s: %w", g.UserID, err)
		}

		return nil
	})
}

// guestBy looks an active guest up by an internal column name (never user
// input).
func guestBy(ctx context.Context, q querier, column, key string) (*Guest, error) {
	var g Guest

	err := q.QueryRowContext(ctx, sqlSelectGuest+` AND `+column+` = ?`, key).
		Scan(&g.ID, &g.UserID, &g.Metadata, &g.Comments)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: guest %s=%s", ErrNotFound, column, key)
	}

	if err != nil {
		return nil, fmt.Errorf("store: reading guest: %w", err)
	}

	return &g, nil
}
