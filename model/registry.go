package model

import "time"

// RegistryVersion is the current registry schema version.
const RegistryVersion = 1

// RegistryID is the primary key of the singleton registry row.
// Exclusive creation of this fixed key is what makes the registry a
// process-wide singleton.
const RegistryID int64 = 1

// Registry is the singleton that anchors the quest catalog: it records
// the authority allowed to manage catalogs and validate submissions,
// and counts the locations that have been published.
type Registry struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	AuthorityID    int64     `gorm:"not null" json:"authority_id"`
	TotalLocations int64     `gorm:"default:0" json:"total_locations"`
	Version        int       `gorm:"not null" json:"version"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
