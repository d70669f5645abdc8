package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"mallfinder/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// AllStores loads the full catalog for matching.
func (r *Repo) AllStores(ctx context.Context) ([]models.Store, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, name, normalized_name, category
		FROM stores
	`)
	if err != nil {
		return nil, fmt.Errorf("query stores: %w", err)
	}
	defer rows.Close()

	var out []models.Store
	for rows.Next() {
		var s models.Store
		var category sql.NullString
		if err := rows.Scan(&s.ID, &s.Name, &s.NormalizedName, &category); err != nil {
			return nil, fmt.Errorf("scan store: %w", err)
		}
		s.Category = category.String
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// LinksForStores returns the mall<->store edges touching any of the
// given store ids.
func (r *Repo) LinksForStores(ctx context.Context, storeIDs []string) ([]Link, error) {
	if len(storeIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(storeIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(storeIDs))
	for i, id := range storeIDs {
		args[i] = id
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT mall_id, store_id
		FROM mall_stores
		WHERE store_id IN (`+placeholders+`)
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query links: %w", err)
	}
	defer rows.Close()

	var out []Link
	for rows.Next() {
		var l Link
		if err := rows.Scan(&l.MallID, &l.StoreID); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// MallsByID loads the malls referenced by ranked links.
func (r *Repo) MallsByID(ctx context.Context, mallIDs []string) (map[string]models.Mall, error) {
	if len(mallIDs) == 0 {
		return map[string]models.Mall{}, nil
	}

	placeholders := strings.Repeat("?,", len(mallIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(mallIDs))
	for i, id := range mallIDs {
		args[i] = id
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, name, slug, source, address, region, website, last_updated
		FROM malls
		WHERE id IN (`+placeholders+`)
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query malls: %w", err)
	}
	defer rows.Close()

	out := make(map[string]models.Mall, len(mallIDs))
	for rows.Next() {
		m, err := scanMall(rows)
		if err != nil {
			return nil, err
		}
		out[m.ID] = m
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func scanMall(rows *sql.Rows) (models.Mall, error) {
	var m models.Mall
	var slug, source, address, region, website sql.NullString
	var lastUpdated sql.NullTime

	err := rows.Scan(&m.ID, &m.Name, &slug, &source, &address, &region, &website, &lastUpdated)
	if err != nil {
		return models.Mall{}, fmt.Errorf("scan mall: %w", err)
	}
	m.Slug = slug.String
	m.Source = source.String
	m.Address = address.String
	m.Region = region.String
	m.Website = website.String
	if lastUpdated.Valid {
		m.LastUpdated = lastUpdated.Time
	} else {
		m.LastUpdated = time.Time{}
	}
	return m, nil
}
