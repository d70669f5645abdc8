package malls

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"mallfinder/pkg/database"
)

func testRepo(t *testing.T) *Repo {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))
	return NewRepo(db)
}

func seedMalls(t *testing.T, db *sql.DB) {
	t.Helper()

	exec := func(q string, args ...any) {
		_, err := db.Exec(q, args...)
		require.NoError(t, err)
	}

	exec(`INSERT INTO malls (id, name, slug, source, region) VALUES
		('m1', 'Westgate', 'westgate', 'capitaland', 'West'),
		('m2', 'Bedok Mall', 'bedok-mall', 'singmalls', 'East')`)
	exec(`INSERT INTO stores (id, name, normalized_name, category) VALUES
		('s1', 'Uniqlo', 'uniqlo', 'Fashion'),
		('s2', 'BreadTalk', 'breadtalk', 'Food & Beverage')`)
	exec(`INSERT INTO mall_stores (id, mall_id, store_id, floor, unit_number, category) VALUES
		('l1', 'm1', 's1', '3', '#03-24A', 'Fashion'),
		('l2', 'm1', 's2', '1', '#01-02', 'Food & Beverage')`)
}

func TestListOrdersByName(t *testing.T) {
	repo := testRepo(t)
	seedMalls(t, repo.DB)

	malls, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, malls, 2)
	require.Equal(t, "Bedok Mall", malls[0].Name)
	require.Equal(t, "Westgate", malls[1].Name)
	require.Equal(t, "East", malls[0].Region)
	require.Equal(t, "singmalls", malls[0].Source)
}

func TestListEmpty(t *testing.T) {
	repo := testRepo(t)

	malls, err := repo.List(context.Background())
	require.NoError(t, err)
	require.NotNil(t, malls)
	require.Empty(t, malls)
}

func TestGetByIDWithDirectory(t *testing.T) {
	repo := testRepo(t)
	seedMalls(t, repo.DB)

	detail, err := repo.GetByID(context.Background(), "m1")
	require.NoError(t, err)
	require.NotNil(t, detail)
	require.Equal(t, "Westgate", detail.Name)

	require.Len(t, detail.Stores, 2)
	// directory ordered by store name
	require.Equal(t, "BreadTalk", detail.Stores[0].StoreName)
	require.Equal(t, "Uniqlo", detail.Stores[1].StoreName)
	require.Equal(t, "3", detail.Stores[1].Floor)
	require.Equal(t, "#03-24A", detail.Stores[1].UnitNumber)
	require.Equal(t, "Fashion", detail.Stores[1].Category)
}

func TestGetByIDNoStores(t *testing.T) {
	repo := testRepo(t)
	seedMalls(t, repo.DB)

	detail, err := repo.GetByID(context.Background(), "m2")
	require.NoError(t, err)
	require.NotNil(t, detail)
	require.Empty(t, detail.Stores)
}

func TestGetByIDUnknown(t *testing.T) {
	repo := testRepo(t)

	detail, err := repo.GetByID(context.Background(), "nope")
	require.NoError(t, err)
	require.Nil(t, detail)
}

func TestListStores(t *testing.T) {
	repo := testRepo(t)
	seedMalls(t, repo.DB)

	stores, err := repo.ListStores(context.Background())
	require.NoError(t, err)
	require.Len(t, stores, 2)
	require.Equal(t, "BreadTalk", stores[0].Name)
	require.Equal(t, "breadtalk", stores[0].NormalizedName)
	require.Equal(t, "Uniqlo", stores[1].Name)
}

func TestMallRoutes(t *testing.T) {
	repo := testRepo(t)
	seedMalls(t, repo.DB)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(repo).RegisterRoutes(r.Group("/api"))

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	require.Equal(t, http.StatusOK, get("/api/malls").Code)
	require.Equal(t, http.StatusOK, get("/api/malls/m1").Code)
	require.Equal(t, http.StatusNotFound, get("/api/malls/ghost").Code)
	require.Equal(t, http.StatusOK, get("/api/stores").Code)
}
