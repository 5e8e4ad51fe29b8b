package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	masterdata "aircombine/internal/masterdata/domain"
)

func TestSensorRepositoryRoundTrip(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	table := fmt.Sprintf("sensors_it_%d", time.Now().UnixNano())
	if _, err := db.ExecContext(ctx, fmt.Sprintf(`
CREATE TABLE %s (
	sensor_id TEXT PRIMARY KEY,
	display_name TEXT,
	latitude DOUBLE PRECISION NOT NULL,
	longitude DOUBLE PRECISION NOT NULL
)`, table)); err != nil {
		t.Fatalf("create table: %v", err)
	}
	defer func() {
		_, _ = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table)
	}()

	if _, err := db.ExecContext(ctx, fmt.Sprintf(`
INSERT INTO %s (sensor_id, display_name, latitude, longitude) VALUES
	('MRV_02', NULL, 33.8, -117.4),
	('LKE_01', 'Lake 1', 33.67, -117.33)`, table)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	repo := NewSensorRepository(db, WithSensorTable(table))

	sensors, err := repo.ListSensors(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sensors) != 2 || sensors[0].ID != "LKE_01" {
		t.Fatalf("unexpected sensors %+v", sensors)
	}
	if sensors[0].Lat != 33.67 || sensors[1].DisplayName != "" {
		t.Fatalf("unexpected sensor values %+v", sensors)
	}

	catalog, err := masterdata.NewSensorCatalog(sensors)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if _, ok := catalog.LookupSensor("lke 01"); !ok {
		t.Fatalf("expected catalog lookup to match")
	}
}
