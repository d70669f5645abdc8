package models

import "time"

// Mall is a physical retail location discovered by one of the gather
// sources. Name is the identity key for upserts; Slug/Source record
// where the row came from.
type Mall struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug,omitempty"`
	Source      string    `json:"source,omitempty"`
	Address     string    `json:"address,omitempty"`
	Region      string    `json:"region,omitempty"`
	Website     string    `json:"website,omitempty"`
	LastUpdated time.Time `json:"last_updated"`
}

// MallDetail is a Mall plus its store directory, as returned by
// GET /api/malls/:id.
type MallDetail struct {
	Mall
	Stores []MallStoreEntry `json:"stores"`
}

// MallStoreEntry is one row of a mall's directory: the store plus the
// attributes that belong to the link (floor, unit) rather than the store.
type MallStoreEntry struct {
	StoreID    string `json:"store_id"`
	StoreName  string `json:"store_name"`
	Category   string `json:"category,omitempty"`
	Floor      string `json:"floor,omitempty"`
	UnitNumber string `json:"unit_number,omitempty"`
}
