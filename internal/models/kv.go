package models

import "time"

// KVEntry is one row of the key-value table the journal persists into.
// Values are JSON documents.
type KVEntry struct {
	Key       string `gorm:"column:entry_key;primaryKey"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

// TableName pins the table name so renaming the struct never orphans data.
func (KVEntry) TableName() string {
	return "kv_entries"
}
