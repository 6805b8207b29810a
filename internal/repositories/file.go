package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/seethroughlab/familliar-sub003/internal/models"
	"github.com/seethroughlab/familliar-sub003/internal/shared"
)

// FileRepository implements models.Repository[*models.LocalFile] for the
// offline library's file ledger.
//
// A live (not soft-deleted) row means the track's audio is on disk. The
// scheduler's availability check is a single query over this table.
type FileRepository struct {
	db *sql.DB
}

// NewFileRepository creates a new FileRepository with the given database connection
func NewFileRepository(db *sql.DB) *FileRepository {
	return &FileRepository{db: db}
}

// Create inserts a new [models.LocalFile] into the database with generated ID and sequence
func (r *FileRepository) Create(file *models.LocalFile) error {
	sequence, err := NextSequence(r.db, "files")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	file.SetID(id)

	if err := file.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO files (id, sequence, track_id, path, bytes, downloaded_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		file.TrackID(),
		file.Path(),
		file.Bytes(),
		file.DownloadedAt(),
		file.CreatedAt(),
		file.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert file: %w", err)
	}

	return nil
}

// Get retrieves a file record by ID, excluding soft-deleted rows
func (r *FileRepository) Get(id string) (*models.LocalFile, error) {
	query := `
		SELECT id, sequence, track_id, path, bytes, downloaded_at, created_at, updated_at, deleted_at
		FROM files
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByTrackID retrieves a file record by the proxy's track id
func (r *FileRepository) GetByTrackID(trackID string) (*models.LocalFile, error) {
	query := `
		SELECT id, sequence, track_id, path, bytes, downloaded_at, created_at, updated_at, deleted_at
		FROM files
		WHERE track_id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, trackID))
}

// Update modifies an existing file record in the database
func (r *FileRepository) Update(file *models.LocalFile) error {
	if err := file.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	file.SetUpdatedAt(now)

	query := `
		UPDATE files
		SET path = ?, bytes = ?, downloaded_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		file.Path(),
		file.Bytes(),
		file.DownloadedAt(),
		now,
		file.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update file: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("file not found or already deleted: %s", file.ID())
	}

	return nil
}

// Delete soft-deletes a file record by ID. The track immediately stops
// counting as cached.
func (r *FileRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE files
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("file not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all file records matching the given criteria, excluding soft-deleted rows
func (r *FileRepository) List(criteria map[string]any) ([]*models.LocalFile, error) {
	query := `
		SELECT id, sequence, track_id, path, bytes, downloaded_at, created_at, updated_at, deleted_at
		FROM files
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if trackID, ok := criteria["track_id"].(string); ok && trackID != "" {
		query += " AND track_id = ?"
		args = append(args, trackID)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer rows.Close()

	var files []*models.LocalFile
	for rows.Next() {
		file, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return files, nil
}

// CachedTrackIDs returns the proxy track ids of every live file, in
// download order. This is the availability set the scheduler diffs
// collections against.
func (r *FileRepository) CachedTrackIDs() ([]string, error) {
	query := `
		SELECT track_id
		FROM files
		WHERE deleted_at IS NULL
		ORDER BY sequence ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query cached tracks: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan track id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return ids, nil
}

// scanOne scans a single [sql.Row] into a [models.LocalFile]
func (r *FileRepository) scanOne(row *sql.Row) (*models.LocalFile, error) {
	var (
		id           string
		sequence     int
		trackID      string
		path         string
		bytes        int64
		downloadedAt time.Time
		createdAt    time.Time
		updatedAt    time.Time
		deletedAt    sql.NullTime
	)

	err := row.Scan(&id, &sequence, &trackID, &path, &bytes, &downloadedAt, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("file not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan file: %w", err)
	}

	file := models.NewLocalFile(sequence, trackID, path, bytes)
	file.SetID(id)
	file.SetDownloadedAt(downloadedAt)
	file.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		file.SetDeletedAt(&deletedAt.Time)
	}

	return file, nil
}

// scanRow scans a row from [sql.Rows] into a [models.LocalFile]
func (r *FileRepository) scanRow(rows *sql.Rows) (*models.LocalFile, error) {
	var (
		id           string
		sequence     int
		trackID      string
		path         string
		bytes        int64
		downloadedAt time.Time
		createdAt    time.Time
		updatedAt    time.Time
		deletedAt    sql.NullTime
	)

	err := rows.Scan(&id, &sequence, &trackID, &path, &bytes, &downloadedAt, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan file: %w", err)
	}

	file := models.NewLocalFile(sequence, trackID, path, bytes)
	file.SetID(id)
	file.SetDownloadedAt(downloadedAt)
	file.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		file.SetDeletedAt(&deletedAt.Time)
	}

	return file, nil
}
