package repositories

import (
	"database/sql"
	"fmt"

	"github.com/pnavk/gMusic/internal/models"
)

// ApiRepository persists [models.ApiRecord] rows, one per configured account.
type ApiRepository struct {
	db *sql.DB
}

// NewApiRepository creates a new ApiRepository with the given database connection.
func NewApiRepository(db *sql.DB) *ApiRepository {
	return &ApiRepository{db: db}
}

// Save upserts a config record keyed by its id.
func (r *ApiRepository) Save(record models.ApiRecord) error {
	query := `
		INSERT INTO api_records (id, service, device_id, extra_data) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET service = excluded.service, device_id = excluded.device_id, extra_data = excluded.extra_data
	`

	if _, err := r.db.Exec(query, record.ID, int(record.Service), record.DeviceID, record.ExtraData); err != nil {
		return fmt.Errorf("failed to save api record: %w", err)
	}
	return nil
}

// Get retrieves a config record by id.
func (r *ApiRepository) Get(id int) (models.ApiRecord, error) {
	query := `SELECT id, service, device_id, extra_data FROM api_records WHERE id = ?`

	var record models.ApiRecord
	var service int
	err := r.db.QueryRow(query, id).Scan(&record.ID, &service, &record.DeviceID, &record.ExtraData)
	if err == sql.ErrNoRows {
		return models.ApiRecord{}, fmt.Errorf("api record not found: %d", id)
	}
	if err != nil {
		return models.ApiRecord{}, fmt.Errorf("failed to query api record: %w", err)
	}

	record.Service = models.ServiceType(service)
	return record, nil
}

// Delete removes a config record by id.
func (r *ApiRepository) Delete(id int) error {
	if _, err := r.db.Exec("DELETE FROM api_records WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete api record: %w", err)
	}
	return nil
}

// List retrieves all config records ordered by id.
func (r *ApiRepository) List() ([]models.ApiRecord, error) {
	rows, err := r.db.Query("SELECT id, service, device_id, extra_data FROM api_records ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query api records: %w", err)
	}
	defer rows.Close()

	var records []models.ApiRecord
	for rows.Next() {
		var record models.ApiRecord
		var service int
		if err := rows.Scan(&record.ID, &service, &record.DeviceID, &record.ExtraData); err != nil {
			return nil, fmt.Errorf("failed to scan api record: %w", err)
		}
		record.Service = models.ServiceType(service)
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// NextID allocates the next config record id.
func (r *ApiRepository) NextID() (int, error) {
	return NextSequence(r.db, "api_records")
}
