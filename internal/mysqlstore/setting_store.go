package mysqlstore

import (
	"context"
	"database/sql"

	"fieldvisit-backend/internal/models"
	"fieldvisit-backend/internal/timeutil"
)

type SettingStore struct {
	DB *sql.DB
}

func NewSettingStore(db *sql.DB) *SettingStore {
	return &SettingStore{DB: db}
}

func (s *SettingStore) Get(ctx context.Context, key string) (*models.SystemSetting, error) {
	var setting models.SystemSetting
	err := s.DB.QueryRowContext(ctx,
		`SELECT setting_key, setting_value, updated_at FROM system_settings WHERE setting_key = ?`, key,
	).Scan(&setting.SettingKey, &setting.SettingValue, &setting.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	setting.UpdatedAt = setting.UpdatedAt.In(timeutil.IST)
	return &setting, nil
}

func (s *SettingStore) List(ctx context.Context) ([]*models.SystemSetting, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT setting_key, setting_value, updated_at FROM system_settings ORDER BY setting_key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := []*models.SystemSetting{}
	for rows.Next() {
		var setting models.SystemSetting
		if err := rows.Scan(&setting.SettingKey, &setting.SettingValue, &setting.UpdatedAt); err != nil {
			return nil, err
		}
		setting.UpdatedAt = setting.UpdatedAt.In(timeutil.IST)
		settings = append(settings, &setting)
	}
	return settings, rows.Err()
}

func (s *SettingStore) Upsert(ctx context.Context, key string, value string) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO system_settings (setting_key, setting_value) VALUES (?, ?)
		 ON DUPLICATE KEY UPDATE setting_value = VALUES(setting_value)`, key, value)
	return err
}
