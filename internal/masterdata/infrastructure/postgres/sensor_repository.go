package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	masterdata "aircombine/internal/masterdata/domain"
)

const defaultSensorsTable = "sensors"

// DBTX is the subset of *sql.DB and *sql.Tx the repository needs.
type DBTX interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// SensorRepository is a Postgres implementation of masterdata.SensorSource.
type SensorRepository struct {
	db    DBTX
	table string
}

// NewSensorRepository constructs a repository.
func NewSensorRepository(db DBTX, opts ...SensorOption) *SensorRepository {
	repo := &SensorRepository{db: db, table: defaultSensorsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// SensorOption configures the repository.
type SensorOption func(*SensorRepository)

// WithSensorTable overrides the default table name.
func WithSensorTable(table string) SensorOption {
	return func(repo *SensorRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// ListSensors loads every sensor ordered by id.
func (r *SensorRepository) ListSensors(ctx context.Context) ([]masterdata.Sensor, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("sensor repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT sensor_id, COALESCE(display_name, ''), latitude, longitude
FROM %s
ORDER BY sensor_id`, r.table)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sensors []masterdata.Sensor
	for rows.Next() {
		var sensor masterdata.Sensor
		if err := rows.Scan(&sensor.ID, &sensor.DisplayName, &sensor.Lat, &sensor.Lon); err != nil {
			return nil, err
		}
		sensors = append(sensors, sensor)
	}
	return sensors, rows.Err()
}
