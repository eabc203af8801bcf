package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Image is the local record of an image imported through the connector.
type Image struct {
	ID            string
	Name          string
	OSDistro      string
	MD5Sum        string
	DiskSizeUnits string
	SizeBytes     int64
	Type          string
	Comments      string
}

const (
	sqlInsertImage = `INSERT INTO images
		(id, name, os_distro, md5sum, disk_size_units, image_size_in_bytes, type, comments)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	sqlSelectImage = `SELECT id, name, os_distro, md5sum, disk_size_units,
		image_size_in_bytes, type, comments FROM images WHERE deleted = 0`

	sqlSoftDeleteImage = `UPDATE images SET deleted = 1, deleted_at = ? WHERE name = ? AND deleted = 0`
)

// normalizeImageName trims and NFC-normalizes an image name.
func normalizeImageName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// AddImage records an image and returns its generated ID. The name must not
// belong to another active image.
func (s *Store) AddImage(ctx context.Context, img Image) (string, error) {
	img.Name = normalizeImageName(img.Name)
	if err := validateImage(img); err != nil {
		return "", err
	}

	img.ID = s.newID()

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := imageByName(ctx, tx, img.Name); err == nil {
			return fmt.Errorf("%w: image %s", ErrAlreadyExists, img.Name)
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}

		return insertImage(ctx, tx, img)
	})
	if err != nil {
		return "", err
	}

	return img.ID, nil
}

// PutImage records an image, soft-deleting any active record of the same
// name first. It returns the new record's ID.
func (s *Store) PutImage(ctx context.Context, img Image) (string, error) {
	img.Name = normalizeImageName(img.Name)
	if err := validateImage(img); err != nil {
		return "", err
	}

	img.ID = s.newID()

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, sqlSoftDeleteImage, s.nowFunc().UnixNano(), img.Name); err != nil {
			return fmt.Errorf("store: replacing image %s: %w", img.Name, err)
		}

		return insertImage(ctx, tx, img)
	})
	if err != nil {
		return "", err
	}

	return img.ID, nil
}

// ImageByID returns an active image by record ID.
func (s *Store) ImageByID(ctx context.Context, id string) (*Image, error) {
	return scanImageRow(s.db.QueryRowContext(ctx, sqlSelectImage+` AND id = ?`, id), "id "+id)
}

// ImageByName returns the active image with the given name.
func (s *Store) ImageByName(ctx context.Context, name string) (*Image, error) {
	return imageByName(ctx, s.db, normalizeImageName(name))
}

// ListImages returns every active image ordered by name.
func (s *Store) ListImages(ctx context.Context) ([]Image, error) {
	rows, err := s.db.QueryContext(ctx, sqlSelectImage+` ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("store: listing images: %w", err)
	}
	defer rows.Close()

	var images []Image

	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}

		images = append(images, *img)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterating images: %w", err)
	}

	return images, nil
}

// ImageDiskSizeUnits returns the recorded root disk size of an image, or the
// empty string when the image is not recorded.
func (s *Store) ImageDiskSizeUnits(ctx context.Context, name string) (string, error) {
	img, err := s.ImageByName(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}

	if err != nil {
		return "", err
	}

	return img.DiskSizeUnits, nil
}

// DeleteImage soft-deletes the active image with the given name.
func (s *Store) DeleteImage(ctx context.Context, name string) error {
	name = normalizeImageName(name)

	res, err := s.db.ExecContext(ctx, sqlSoftDeleteImage, s.nowFunc().UnixNano(), name)
	if err != nil {
		return fmt.Errorf("store: deleting image %s: %w", name, err)
	}

	return requireAffected(res, "image "+name)
}

func validateImage(img Image) error {
	if img.Name == "" {
		return fmt.Errorf("%w: image name is empty", ErrInvalid)
	}

	if img.SizeBytes < 0 {
		return fmt.Errorf("%w: image %s has negative size", ErrInvalid, img.Name)
	}

	return nil
}

func insertImage(ctx context.Context, tx *sql.Tx, img Image) error {
	_, err := tx.ExecContext(ctx, sqlInsertImage,
		img.ID, img.Name, img.OSDistro, img.MD5Sum, img.DiskSizeUnits, img.SizeBytes, img.Type, img.Comments)
	if err != nil {
		return fmt.Errorf("store: inserting image %s: %w", img.Name, err)
	}

	return nil
}

func imageByName(ctx context.Context, q querier, name string) (*Image, error) {
	return scanImageRow(q.QueryRowContext(ctx, sqlSelectImage+` AND name = ?`, name), name)
}

func scanImageRow(row *sql.Row, what string) (*Image, error) {
	img, err := scanImage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: image %s", ErrNotFound, what)
	}

	return img, err
}

func scanImage(row scanner) (*Image, error) {
	var img Image

	err := row.Scan(&img.ID, &img.Name, &img.OSDistro, &img.MD5Sum, &img.DiskSizeUnits,
		&img.SizeBytes, &img.Type, &img.Comments)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	if err != nil {
		return nil, fmt.Errorf("store: scanning image: %w", err)
	}

	return &img, nil
}
