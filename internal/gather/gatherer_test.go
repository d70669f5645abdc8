package gather

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"mallfinder/pkg/utils"
)

type fakeSource struct {
	name       string
	malls      []RawMall
	mallsErr   error
	stores     map[string][]RawStore
	storesErr  map[string]error
	startErr   error
	started    int
	stopped    int
	releaseRun chan struct{}
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Malls(ctx context.Context) ([]RawMall, error) {
	if f.releaseRun != nil {
		<-f.releaseRun
	}
	return f.malls, f.mallsErr
}

func (f *fakeSource) Stores(ctx context.Context, mall RawMall) ([]RawStore, error) {
	if err := f.storesErr[mall.Slug]; err != nil {
		return nil, err
	}
	return f.stores[mall.Slug], nil
}

type fakeSessionSource struct {
	fakeSource
}

func (f *fakeSessionSource) Start(ctx context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.started++
	return nil
}

func (f *fakeSessionSource) Stop() { f.stopped++ }

func emptyRegions(ctx context.Context) (*RegionLookup, error) {
	return NewRegionLookup(nil), nil
}

func newTestGatherer(db *sql.DB, sources ...MallSource) *Gatherer {
	return &Gatherer{
		persist: NewPersister(db),
		cfg:     utils.GatherConfig{},
		sources: sources,
		regions: emptyRegions,
		state:   newJobState(),
	}
}

func rawMalls(n int) []RawMall {
	out := make([]RawMall, n)
	for i := range out {
		out[i] = RawMall{
			Name: fmt.Sprintf("Mall %02d", i+1),
			Slug: fmt.Sprintf("mall-%02d", i+1),
		}
	}
	return out
}

func TestGathererHappyRun(t *testing.T) {
	db := testDB(t)

	src := &fakeSource{
		name:  "singmalls",
		malls: rawMalls(2),
		stores: map[string][]RawStore{
			"mall-01": {{Name: "Uniqlo", Unit: "#03-24A"}, {Name: "BreadTalk"}},
			"mall-02": {{Name: "Uniqlo", Unit: "#01-01"}},
		},
	}

	g := newTestGatherer(db, src)
	g.run(context.Background())

	snap := g.Status()
	require.Equal(t, StatusDone, snap.Status)
	require.Equal(t, 2, snap.TotalMalls)
	require.Equal(t, 2, snap.CompletedMalls)
	require.Empty(t, snap.CurrentMall)
	require.Empty(t, snap.Error)

	require.Equal(t, 2, countRows(t, db, "malls"))
	// Uniqlo dedups to one store linked to both malls
	require.Equal(t, 2, countRows(t, db, "stores"))
	require.Equal(t, 3, countRows(t, db, "mall_stores"))
}

func TestGathererPartialFailureIsolated(t *testing.T) {
	db := testDB(t)

	malls := rawMalls(10)
	stores := make(map[string][]RawStore)
	for _, m := range malls {
		stores[m.Slug] = []RawStore{{Name: "Store of " + m.Name}}
	}

	src := &fakeSource{
		name:   "singmalls",
		malls:  malls,
		stores: stores,
		storesErr: map[string]error{
			"mall-07": ErrSourceUnavailable,
		},
	}

	g := newTestGatherer(db, src)
	g.run(context.Background())

	snap := g.Status()
	require.Equal(t, StatusDone, snap.Status)
	require.Equal(t, 10, snap.CompletedMalls)

	// every mall row exists, only #7's directory is missing
	require.Equal(t, 10, countRows(t, db, "malls"))
	require.Equal(t, 9, countRows(t, db, "mall_stores"))
}

func TestGathererFatalWhenPrimaryListingFails(t *testing.T) {
	db := testDB(t)

	g := newTestGatherer(db,
		&fakeSource{name: "singmalls", mallsErr: ErrSourceUnavailable},
		&fakeSource{name: "capitaland", malls: rawMalls(3)},
	)
	g.run(context.Background())

	snap := g.Status()
	require.Equal(t, StatusError, snap.Status)
	require.Contains(t, snap.Error, "singmalls")
	require.Equal(t, 0, countRows(t, db, "malls"))
}

func TestGathererSecondarySourceFailureTolerated(t *testing.T) {
	db := testDB(t)

	g := newTestGatherer(db,
		&fakeSource{name: "singmalls", malls: rawMalls(2)},
		&fakeSource{name: "capitaland", mallsErr: ErrSourceUnavailable},
	)
	g.run(context.Background())

	snap := g.Status()
	require.Equal(t, StatusDone, snap.Status)
	require.Equal(t, 2, snap.TotalMalls)
	require.Equal(t, 2, snap.CompletedMalls)
}

func TestGathererSessionLifecycle(t *testing.T) {
	db := testDB(t)

	src := &fakeSessionSource{fakeSource: fakeSource{
		name:  "capitaland",
		malls: rawMalls(2),
		stores: map[string][]RawStore{
			"mall-01": {{Name: "Uniqlo"}},
			"mall-02": {{Name: "Nike"}},
		},
	}}

	g := newTestGatherer(db, src)
	g.run(context.Background())

	require.Equal(t, 1, src.started)
	require.Equal(t, 1, src.stopped)
	require.Equal(t, StatusDone, g.Status().Status)
}

func TestGathererBrowserUnavailableSkipsDirectories(t *testing.T) {
	db := testDB(t)

	src := &fakeSessionSource{fakeSource: fakeSource{
		name:     "capitaland",
		malls:    rawMalls(3),
		startErr: ErrBrowserUnavailable,
	}}

	g := newTestGatherer(db, src)
	g.run(context.Background())

	snap := g.Status()
	require.Equal(t, StatusDone, snap.Status)
	require.Equal(t, 3, snap.CompletedMalls)
	require.Equal(t, 0, src.stopped)

	// mall rows still land from the index data
	require.Equal(t, 3, countRows(t, db, "malls"))
	require.Equal(t, 0, countRows(t, db, "mall_stores"))
}

func TestGathererSingleRunGuard(t *testing.T) {
	db := testDB(t)

	release := make(chan struct{})
	src := &fakeSource{
		name:       "singmalls",
		malls:      rawMalls(1),
		releaseRun: release,
	}

	g := newTestGatherer(db, src)

	first, accepted := g.Trigger()
	require.True(t, accepted)
	require.Equal(t, StatusRunning, first.Status)

	// second trigger while running: rejected, counters untouched
	second, accepted := g.Trigger()
	require.False(t, accepted)
	require.Equal(t, first.JobID, second.JobID)
	require.Equal(t, 0, second.CompletedMalls)
	require.Equal(t, 0, second.TotalMalls)

	close(release)
	require.Eventually(t, func() bool {
		return g.Status().Status == StatusDone
	}, 2*time.Second, 10*time.Millisecond)

	// a finished run can be re-triggered
	_, accepted = g.Trigger()
	require.True(t, accepted)
	require.Eventually(t, func() bool {
		return g.Status().Status == StatusDone
	}, 2*time.Second, 10*time.Millisecond)
}

func TestGathererRegionLookupFailureTolerated(t *testing.T) {
	db := testDB(t)

	src := &fakeSource{name: "singmalls", malls: rawMalls(1)}
	g := newTestGatherer(db, src)
	g.regions = func(ctx context.Context) (*RegionLookup, error) {
		return nil, ErrSourceUnavailable
	}

	g.run(context.Background())
	require.Equal(t, StatusDone, g.Status().Status)
}
