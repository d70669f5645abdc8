package models

// Store is a retail brand, deduplicated across malls and sources by
// NormalizedName. Name keeps the display form the store was first seen
// with; later variants of the same brand do not overwrite it.
type Store struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	NormalizedName string `json:"normalized_name"`
	Category       string `json:"category,omitempty"`
}

// MallStore links a Store to a Mall. The (MallID, StoreID) pair is
// unique; re-scraping a directory updates floor/unit in place.
type MallStore struct {
	ID         string `json:"id"`
	MallID     string `json:"mall_id"`
	StoreID    string `json:"store_id"`
	Floor      string `json:"floor,omitempty"`
	UnitNumber string `json:"unit_number,omitempty"`
	Category   string `json:"category,omitempty"`
}
