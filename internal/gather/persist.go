package gather

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Persister merges normalized records into the malls/stores/mall_stores
// tables. Every method is an insert-or-update keyed on the entity's
// dedup key, so re-running a gather over the same data is a no-op and
// overlapping sources never create duplicates.
type Persister struct {
	DB *sql.DB
}

func NewPersister(db *sql.DB) *Persister {
	return &Persister{DB: db}
}

// UpsertMall inserts or refreshes a mall row keyed by display name.
// Incoming empty fields never erase values a previous run filled in.
func (p *Persister) UpsertMall(ctx context.Context, source string, raw RawMall, region string) (string, error) {
	name := strings.TrimSpace(raw.Name)
	if name == "" {
		return "", fmt.Errorf("upsert mall: empty name")
	}

	_, err := p.DB.ExecContext(ctx, `
		INSERT INTO malls (id, name, slug, source, address, region, website, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET
			slug = excluded.slug,
			source = excluded.source,
			address = CASE WHEN excluded.address != '' THEN excluded.address ELSE malls.address END,
			region = CASE WHEN excluded.region != '' THEN excluded.region ELSE malls.region END,
			website = CASE WHEN excluded.website != '' THEN excluded.website ELSE malls.website END,
			last_updated = CURRENT_TIMESTAMP
	`, uuid.NewString(), name, raw.Slug, source, raw.Address, region, raw.Website)
	if err != nil {
		return "", fmt.Errorf("upsert mall %q: %w", name, err)
	}

	var id string
	err = p.DB.QueryRowContext(ctx, `SELECT id FROM malls WHERE name = ?`, name).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("lookup mall %q: %w", name, err)
	}
	return id, nil
}

// UpsertStore inserts a store keyed by normalized name. If the key
// already exists nothing changes: the first-seen display name and
// category stick.
func (p *Persister) UpsertStore(ctx context.Context, name, category string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("upsert store: empty name")
	}
	norm := Normalize(name)

	_, err := p.DB.ExecContext(ctx, `
		INSERT INTO stores (id, name, normalized_name, category)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(normalized_name) DO NOTHING
	`, uuid.NewString(), name, norm, category)
	if err != nil {
		return "", fmt.Errorf("upsert store %q: %w", name, err)
	}

	var id string
	err = p.DB.QueryRowContext(ctx, `SELECT id FROM stores WHERE normalized_name = ?`, norm).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("lookup store %q: %w", name, err)
	}
	return id, nil
}

// UpsertMallStore inserts or updates the mall<->store link. The pair is
// unique; a re-scrape updates floor/unit/category in place.
func (p *Persister) UpsertMallStore(ctx context.Context, mallID, storeID, floor, unit, category string) error {
	_, err := p.DB.ExecContext(ctx, `
		INSERT INTO mall_stores (id, mall_id, store_id, floor, unit_number, category)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(mall_id, store_id) DO UPDATE SET
			floor = excluded.floor,
			unit_number = excluded.unit_number,
			category = excluded.category
	`, uuid.NewString(), mallID, storeID, floor, unit, category)
	if err != nil {
		return fmt.Errorf("upsert mall_store %s/%s: %w", mallID, storeID, err)
	}
	return nil
}

// SaveDirectory upserts one mall's scraped store directory. Returns the
// number of records written.
func (p *Persister) SaveDirectory(ctx context.Context, mallID string, stores []RawStore) (int, error) {
	saved := 0
	for _, s := range stores {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			continue
		}

		storeID, err := p.UpsertStore(ctx, name, s.Category)
		if err != nil {
			return saved, err
		}
		err = p.UpsertMallStore(ctx, mallID, storeID, FloorFromUnit(s.Unit), s.Unit, s.Category)
		if err != nil {
			return saved, err
		}
		saved++
	}
	return saved, nil
}

var unitFloorRe = regexp.MustCompile(`^#?(\d+)-`)

// FloorFromUnit extracts the floor from a unit string: "#03-24A" -> "3".
func FloorFromUnit(unit string) string {
	m := unitFloorRe.FindStringSubmatch(unit)
	if m == nil {
		return ""
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return ""
	}
	return strconv.Itoa(n)
}
