package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Volume statuses.
const (
	VolumeStatusFree  = "free"
	VolumeStatusInUse = "in-use"
)

// Volume is the local record of a persistent volume. Deleted volumes stay in
// the table with Deleted set.
type Volume struct {
	ID           string
	ProtocolType string
	Size         string
	Status       string
	ImageID      string
	SnapshotID   string
	Deleted      bool
	DeletedAt    time.Time
	Comment      string
}

// NewVolume carries the caller-supplied fields of a volume to insert.
type NewVolume struct {
	ProtocolType string
	Size         string
	ImageID      string
	SnapshotID   string
	Comment      string
}

// VolumeUpdate names the fields to change; nil fields are left alone.
type VolumeUpdate struct {
	Size       *string
	Status     *string
	ImageID    *string
	SnapshotID *string
	Comment    *string
}

// Attachment links a volume to a guest instance.
type Attachment struct {
	ID             string
	VolumeID       string
	InstanceID     string
	ConnectionInfo string
	Mountpoint     string
	Deleted        bool
	DeletedAt      time.Time
	Comment        string
}

// NewAttachment carries the caller-supplied fields of an attachment.
type NewAttachment struct {
	VolumeID       string
	InstanceID     string
	ConnectionInfo string
	Mountpoint     string
	Comment        string
}

const (
	sqlInsertVolume = `INSERT INTO volumes
		(id, protocol_type, size, status, image_id, snapshot_id, comment)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	sqlSelectVolume = `SELECT id, protocol_type, size, status, image_id, snapshot_id,
		deleted, deleted_at, comment FROM volumes`

	sqlSoftDeleteVolume = `UPDATE volumes SET deleted = 1, deleted_at = ? WHERE id = ? AND deleted = 0`

	sqlInsertAttachment = `INSERT INTO volume_attachments
		(id, volume_id, instance_id, connection_info, mountpoint, comment)
		VALUES (?, ?, ?, ?, ?, ?)`

	sqlSelectAttachment = `SELECT id, volume_id, instance_id, connection_info, mountpoint,
		deleted, deleted_at, comment FROM volume_attachments`

	sqlSoftDeleteAttachment = `UPDATE volume_attachments SET deleted = 1, deleted_at = ? WHERE id = ?`
)

// InsertVolume records a new free volume and returns its generated ID.
func (s *Store) InsertVolume(ctx context.Context, v NewVolume) (string, error) {
	if v.ProtocolType == "" || v.Size == "" {
		return "", fmt.Errorf("%w: volume requires protocol type and size", ErrInvalid)
	}

	id := s.newID()

	_, err := s.db.ExecContext(ctx, sqlInsertVolume,
		id, v.ProtocolType, v.Size, VolumeStatusFree, v.ImageID, v.SnapshotID, v.Comment)
	if err != nil {
		return "", fmt.Errorf("store: inserting volume: %w", err)
	}

	return id, nil
}

// VolumeByID returns an active volume.
func (s *Store) VolumeByID(ctx context.Context, id string) (*Volume, error) {
	return volumeByID(ctx, s.db, id)
}

// ListVolumes returns recorded volumes, including soft-deleted ones when
// includeDeleted is set.
func (s *Store) ListVolumes(ctx context.Context, includeDeleted bool) ([]Volume, error) {
	query := sqlSelectVolume
	if !includeDeleted {
		query += ` WHERE deleted = 0`
	}

	rows, err := s.db.QueryContext(ctx, query+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store: listing volumes: %w", err)
	}
	defer rows.Close()

	var out []Volume

	for rows.Next() {
		v, err := scanVolume(rows)
		if err != nil {
			return nil, err
		}

		out = append(out, *v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterating volumes: %w", err)
	}

	return out, nil
}

// UpdateVolume changes the named fields of an active volume.
func (s *Store) UpdateVolume(ctx context.Context, id string, u VolumeUpdate) error {
	var (
		sets []string
		args []any
	)

	for _, f := range []struct {
		column string
		value  *string
	}{
		{"size", u.Size},
		{"status", u.Status},
		{"image_id", u.ImageID},
		{"snapshot_id", u.SnapshotID},
		{"comment", u.Comment},
	} {
		if f.value != nil {
			sets = append(sets, f.column+" = ?")
			args = append(args, *f.value)
		}
	}

	if len(sets) == 0 {
		return ErrNoFields
	}

	query := `UPDATE volumes SET ` + strings.Join(sets, ", ") + ` WHERE id = ? AND deleted = 0`

	res, err := s.db.ExecContext(ctx, query, append(args, id)...)
	if err != nil {
		return fmt.Errorf("store: updating volume %s: %w", id, err)
	}

	return requireAffected(res, "volume "+id)
}

// DeleteVolume soft-deletes an active volume.
func (s *Store) DeleteVolume(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, sqlSoftDeleteVolume, s.nowFunc().UnixNano(), id)
	if err != nil {
		return fmt.Errorf("store: deleting volume %s: %w", id, err)
	}

	return requireAffected(res, "volume "+id)
}

// InsertAttachment records that a volume is attached to an instance. The
// volume must exist and must not already be attached there.
func (s *Store) InsertAttachment(ctx context.Context, a NewAttachment) (string, error) {
	if a.VolumeID == "" || a.InstanceID == "" {
		return "", fmt.Errorf("%w: attachment requires volume and instance", ErrInvalid)
	}

	id := s.newID()

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := volumeByID(ctx, tx, a.VolumeID); err != nil {
			return err
		}

		active, err := activeAttachments(ctx, tx, a.VolumeID, a.InstanceID)
		if err != nil {
			return err
		}

		if len(active) > 0 {
			return fmt.Errorf("%w: volume %s already attached to %s",
				ErrAlreadyExists, a.VolumeID, a.InstanceID)
		}

		_, err = tx.ExecContext(ctx, sqlInsertAttachment,
			id, a.VolumeID, a.InstanceID, a.ConnectionInfo, a.Mountpoint, a.Comment)
		if err != nil {
			return fmt.Errorf("store: inserting attachment: %w", err)
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	return id, nil
}

// AttachmentsByVolume returns the active attachments of a volume.
func (s *Store) AttachmentsByVolume(ctx context.Context, volumeID string) ([]Attachment, error) {
	return s.queryAttachments(ctx, sqlSelectAttachment+` WHERE volume_id = ? AND deleted = 0`, volumeID)
}

// AttachmentsByInstance returns the active attachments of an instance.
func (s *Store) AttachmentsByInstance(ctx context.Context, instanceID string) ([]Attachment, error) {
	return s.queryAttachments(ctx, sqlSelectAttachment+` WHERE instance_id = ? AND deleted = 0`, instanceID)
}

// DeleteAttachment soft-deletes the single active attachment of volumeID to
// instanceID. More than one active row means the records are corrupt.
func (s *Store) DeleteAttachment(ctx context.Context, volumeID, instanceID string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		active, err := activeAttachments(ctx, tx, volumeID, instanceID)
		if err != nil {
			return err
		}

		switch len(active) {
		case 0:
			return fmt.Errorf("%w: volume %s is not attached to %s", ErrNotFound, volumeID, instanceID)
		case 1:
		default:
			return fmt.Errorf("%w: volume %s has %d active attachments to %s",
				ErrInvalid, volumeID, len(active), instanceID)
		}

		if _, err := tx.ExecContext(ctx, sqlSoftDeleteAttachment, s.nowFunc().UnixNano(), active[0]); err != nil {
			return fmt.Errorf("store: deleting attachment %s: %w", active[0], err)
		}

		return nil
	})
}

func (s *Store) queryAttachments(ctx context.Context, query string, args ...any) ([]Attachment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: listing attachments: %w", err)
	}
	defer rows.Close()

	var out []Attachment

	for rows.Next() {
		var (
			a         Attachment
			deletedAt sql.NullInt64
		)

		if err := rows.Scan(&a.ID, &a.VolumeID, &a.InstanceID, &a.ConnectionInfo,
			&a.Mountpoint, &a.Deleted, &deletedAt, &a.Comment); err != nil {
			return nil, fmt.Errorf("store: scanning attachment: %w", err)
		}

		a.DeletedAt = nullableUnix(deletedAt)
		out = append(out, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterating attachments: %w", err)
	}

	return out, nil
}

func activeAttachments(ctx context.Context, tx *sql.Tx, volumeID, instanceID string) ([]string, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM volume_attachments WHERE volume_id = ? AND instance_id = ? AND deleted = 0`,
		volumeID, instanceID)
	if err != nil {
		return nil, fmt.Errorf("store: reading attachments: %w", err)
	}
	defer rows.Close()

	var ids []string

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: scanning attachment id: %w", err)
		}

		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterating attachments: %w", err)
	}

	return ids, nil
}

func volumeByID(ctx context.Context, q querier, id string) (*Volume, error) {
	v, err := scanVolume(q.QueryRowContext(ctx, sqlSelectVolume+` WHERE id = ? AND deleted = 0`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: volume %s", ErrNotFound, id)
	}

	return v, err
}

func scanVolume(row scanner) (*Volume, error) {
	var (
		v         Volume
		deletedAt sql.NullInt64
	)

	err := row.Scan(&v.ID, &v.ProtocolType, &v.Size, &v.Status, &v.ImageID, &v.SnapshotID,
		&v.Deleted, &deletedAt, &v.Comment)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	if err != nil {
		return nil, fmt.Errorf("store: scanning volume: %w", err)
	}

	v.DeletedAt = nullableUnix(deletedAt)

	return &v, nil
}
