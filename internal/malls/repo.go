package malls

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"mallfinder/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) List(ctx context.Context) ([]models.Mall, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, name, slug, source, address, region, website, last_updated
		FROM malls
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list malls: %w", err)
	}
	defer rows.Close()

	out := make([]models.Mall, 0)
	for rows.Next() {
		m, err := scanMall(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// GetByID returns the mall with its store directory, or nil when the
// id is unknown.
func (r *Repo) GetByID(ctx context.Context, id string) (*models.MallDetail, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, name, slug, source, address, region, website, last_updated
		FROM malls
		WHERE id = ?
	`, id)

	var m models.Mall
	var slug, source, address, region, website sql.NullString
	var lastUpdated sql.NullTime

	err := row.Scan(&m.ID, &m.Name, &slug, &source, &address, &region, &website, &lastUpdated)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan mall: %w", err)
	}
	m.Slug = slug.String
	m.Source = source.String
	m.Address = address.String
	m.Region = region.String
	m.Website = website.String
	if lastUpdated.Valid {
		m.LastUpdated = lastUpdated.Time
	}

	stores, err := r.storesForMall(ctx, id)
	if err != nil {
		return nil, err
	}

	return &models.MallDetail{Mall: m, Stores: stores}, nil
}

func (r *Repo) storesForMall(ctx context.Context, mallID string) ([]models.MallStoreEntry, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT s.id, s.name, ms.category, ms.floor, ms.unit_number
		FROM mall_stores ms
		JOIN stores s ON s.id = ms.store_id
		WHERE ms.mall_id = ?
		ORDER BY s.name
	`, mallID)
	if err != nil {
		return nil, fmt.Errorf("query mall stores: %w", err)
	}
	defer rows.Close()

	out := make([]models.MallStoreEntry, 0)
	for rows.Next() {
		var e models.MallStoreEntry
		var category, floor, unit sql.NullString
		if err := rows.Scan(&e.StoreID, &e.StoreName, &category, &floor, &unit); err != nil {
			return nil, fmt.Errorf("scan mall store: %w", err)
		}
		e.Category = category.String
		e.Floor = floor.String
		e.UnitNumber = unit.String
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func (r *Repo) ListStores(ctx context.Context) ([]models.Store, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, name, normalized_name, category
		FROM stores
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	defer rows.Close()

	out := make([]models.Store, 0)
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
