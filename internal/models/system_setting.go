package models

import "time"

type SystemSetting struct {
	SettingKey   string    `json:"key"`
	SettingValue string    `json:"value"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type UpdateSettingRequest struct {
	SettingValue string `json:"value"`
}
