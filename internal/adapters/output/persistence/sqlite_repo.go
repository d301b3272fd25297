package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"floodlight-bridge/internal/domain/model"
	"floodlight-bridge/internal/infrastructure/database"
	"floodlight-bridge/internal/ports"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS devices (
	native_id  TEXT PRIMARY KEY,
	hue_id     TEXT NOT NULL DEFAULT '',
	name       TEXT NOT NULL,
	type       TEXT NOT NULL,
	interfaces TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS device_settings (
	native_id TEXT NOT NULL REFERENCES devices(native_id) ON DELETE CASCADE,
	key       TEXT NOT NULL,
	value     TEXT NOT NULL,
	PRIMARY KEY (native_id, key)
);`

// SQLiteRepository keeps registered devices and their settings in SQLite.
type SQLiteRepository struct {
	db *database.DB
}

// NewSQLiteRepository creates the schema if it does not exist yet.
func NewSQLiteRepository(ctx context.Context, db *database.DB) (*SQLiteRepository, error) {
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) OnDeviceDiscovered(ctx context.Context, device model.DiscoveredDevice) error {
	interfaces, err := json.Marshal(device.Interfaces)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO devices (native_id, hue_id, name, type, interfaces, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(native_id) DO UPDATE SET
			hue_id = excluded.hue_id,
			name = excluded.name,
			type = excluded.type,
			interfaces = excluded.interfaces`,
		device.NativeID, device.HueID, device.Name, string(device.Type), string(interfaces),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("registering %s: %w", device.NativeID, err)
	}
	return nil
}

func (r *SQLiteRepository) NativeIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT native_id FROM devices ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *SQLiteRepository) Device(ctx context.Context, nativeID string) (*model.DiscoveredDevice, error) {
	var (
		dev        model.DiscoveredDevice
		devType    string
		interfaces string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT native_id, hue_id, name, type, interfaces FROM devices WHERE native_id = ?`, nativeID,
	).Scan(&dev.NativeID, &dev.HueID, &dev.Name, &devType, &interfaces)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", model.ErrDeviceNotFound, nativeID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", nativeID, err)
	}

	dev.Type = model.DeviceType(devType)
	if err := json.Unmarshal([]byte(interfaces), &dev.Interfaces); err != nil {
		return nil, fmt.Errorf("decoding interfaces of %s: %w", nativeID, err)
	}
	return &dev, nil
}

func (r *SQLiteRepository) GetItem(ctx context.Context, nativeID, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM device_settings WHERE native_id = ? AND key = ?`, nativeID, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ports.ErrSettingNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading setting %s: %w", key, err)
	}
	return value, nil
}

func (r *SQLiteRepository) SetItem(ctx context.Context, nativeID, key, value string) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO device_settings (native_id, key, value)
		SELECT native_id, ?, ? FROM devices WHERE native_id = ?
		ON CONFLICT(native_id, key) DO UPDATE SET value = excluded.value`,
		key, value, nativeID,
	)
	if err != nil {
		return fmt.Errorf("writing setting %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", model.ErrDeviceNotFound, nativeID)
	}
	return nil
}
