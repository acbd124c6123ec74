package models

import "time"

// OverlayEntry is one namespaced key/value row used by the mysql storage driver.
type OverlayEntry struct {
	Key       string    `gorm:"column:entry_key;primaryKey;size:191" json:"key"`
	Value     []byte    `gorm:"type:longblob;not null" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName pins the table name regardless of naming strategy.
func (OverlayEntry) TableName() string {
	return "overlay_entries"
}
