package gather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

const singmallsListHTML = `<!DOCTYPE html>
<html><head><title>Malls</title></head>
<body>
<div id="__next">rendered page</div>
<script id="__NEXT_DATA__" type="application/json">
{"props":{"pageProps":{"sites":[
  {"id":"junction-8","name":"Junction 8","formattedAddress":"9 Bishan Place, Singapore 579837"},
  {"id":"nex","name":"NEX","address":"23 Serangoon Central"},
  {"id":"","name":"No Slug Mall"},
  {"id":"no-name","name":""}
]}}}
</script>
</body></html>`

const singmallsDirectoryHTML = `<!DOCTYPE html>
<html><body>
<script id="__NEXT_DATA__" type="application/json">
{"props":{"pageProps":{"merchants":[
  {"name":"Uniqlo","formattedCategories":"Fashion","formattedLots":"#03-24A"},
  {"name":"BreadTalk","category":"Food","unit":"#B1-12"},
  {"name":""}
]}}}
</script>
</body></html>`

func newSingMallsTest(t *testing.T, handler http.HandlerFunc) *SingMalls {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &SingMalls{http: resty.New(), base: srv.URL}
}

func TestSingMallsMalls(t *testing.T) {
	src := newSingMallsTest(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/en/malls", r.URL.Path)
		_, _ = w.Write([]byte(singmallsListHTML))
	})

	malls, err := src.Malls(context.Background())
	require.NoError(t, err)
	require.Len(t, malls, 2)

	require.Equal(t, "Junction 8", malls[0].Name)
	require.Equal(t, "junction-8", malls[0].Slug)
	require.Equal(t, "9 Bishan Place, Singapore 579837", malls[0].Address)
	require.Contains(t, malls[0].Website, "/en/malls/junction-8")

	require.Equal(t, "NEX", malls[1].Name)
	require.Equal(t, "23 Serangoon Central", malls[1].Address)
}

func TestSingMallsStores(t *testing.T) {
	src := newSingMallsTest(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/en/malls/junction-8/directory", r.URL.Path)
		_, _ = w.Write([]byte(singmallsDirectoryHTML))
	})

	stores, err := src.Stores(context.Background(), RawMall{Slug: "junction-8"})
	require.NoError(t, err)
	require.Len(t, stores, 2)

	require.Equal(t, RawStore{Name: "Uniqlo", Category: "Fashion", Unit: "#03-24A"}, stores[0])
	require.Equal(t, RawStore{Name: "BreadTalk", Category: "Food", Unit: "#B1-12"}, stores[1])
}

func TestSingMallsMissingMarker(t *testing.T) {
	src := newSingMallsTest(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><p>redesigned page</p></body></html>`))
	})

	_, err := src.Malls(context.Background())
	require.ErrorIs(t, err, ErrParse)
}

func TestSingMallsBadJSON(t *testing.T) {
	src := newSingMallsTest(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><script id="__NEXT_DATA__">{not json</script></body></html>`))
	})

	_, err := src.Malls(context.Background())
	require.ErrorIs(t, err, ErrParse)
}

func TestSingMallsUnexpectedShape(t *testing.T) {
	src := newSingMallsTest(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><script id="__NEXT_DATA__">{"props":{"pageProps":{}}}</script></body></html>`))
	})

	_, err := src.Malls(context.Background())
	require.ErrorIs(t, err, ErrParse)
}

func TestSingMallsServerError(t *testing.T) {
	src := newSingMallsTest(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := src.Malls(context.Background())
	require.ErrorIs(t, err, ErrSourceUnavailable)
}
