package gather

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"mallfinder/pkg/utils"
)

// Notifier receives a progress event after every state change. The
// websocket hub implements this; tests pass nil.
type Notifier interface {
	BroadcastJSON(v interface{})
}

// Gatherer runs the scrape-normalize-upsert pipeline across all
// configured sources. One run at a time; malls are processed strictly
// sequentially so the politeness delay and the shared browser session
// stay simple.
type Gatherer struct {
	persist *Persister
	cfg     utils.GatherConfig
	sources []MallSource
	regions func(ctx context.Context) (*RegionLookup, error)
	state   *jobState
}

func New(db *sql.DB, cfg utils.GatherConfig) *Gatherer {
	client := NewHTTPClient(cfg)
	return &Gatherer{
		persist: NewPersister(db),
		cfg:     cfg,
		sources: []MallSource{
			NewSingMalls(client),
			NewCapitaLand(client, cfg),
		},
		regions: func(ctx context.Context) (*RegionLookup, error) {
			return FetchRegionLookup(ctx, client)
		},
		state: newJobState(),
	}
}

// SetNotifier wires progress broadcasting (optional).
func (g *Gatherer) SetNotifier(n Notifier) {
	g.state.notify = func(snap Snapshot) {
		n.BroadcastJSON(gatherEvent{Type: "gather.progress", Snapshot: snap})
	}
}

type gatherEvent struct {
	Type string `json:"type"`
	Snapshot
}

// Status returns the live job state for polling.
func (g *Gatherer) Status() Snapshot {
	return g.state.Snapshot()
}

// Trigger starts a background run. If a run is already active it is a
// no-op: the current state comes back unchanged and accepted is false.
func (g *Gatherer) Trigger() (snap Snapshot, accepted bool) {
	jobID := uuid.NewString()
	if !g.state.begin(jobID) {
		return g.state.Snapshot(), false
	}

	go g.run(context.Background())
	return g.state.Snapshot(), true
}

// Run executes a gather synchronously. Used by the CLI; the HTTP
// trigger goes through Trigger instead.
func (g *Gatherer) Run(ctx context.Context) error {
	if !g.state.begin(uuid.NewString()) {
		return errors.New("gather already running")
	}
	g.run(ctx)

	if snap := g.state.Snapshot(); snap.Status == StatusError {
		return errors.New(snap.Error)
	}
	return nil
}

func (g *Gatherer) run(ctx context.Context) {
	// phase 1: enumerate malls across sources
	g.state.update(func(s *Snapshot) { s.CurrentMall = "Fetching mall lists..." })

	perSource := make([][]RawMall, len(g.sources))
	total := 0
	for i, src := range g.sources {
		malls, err := src.Malls(ctx)
		if err != nil || len(malls) == 0 {
			// the first configured source is the primary listing;
			// without it the run has nothing meaningful to do
			if i == 0 {
				g.fail("failed to enumerate malls from " + src.Name())
				log.Printf("[gather] fatal: %s mall list: %v", src.Name(), err)
				return
			}
			log.Printf("[gather] skipping source %s: %v", src.Name(), err)
			continue
		}
		log.Printf("[gather] %s: found %d malls", src.Name(), len(malls))
		perSource[i] = malls
		total += len(malls)
	}

	g.state.update(func(s *Snapshot) {
		s.TotalMalls = total
		s.CurrentMall = "Fetching region data..."
	})

	regions, err := g.regions(ctx)
	if err != nil {
		// region data only enriches malls, a run works without it
		log.Printf("[gather] region lookup unavailable: %v", err)
	} else {
		log.Printf("[gather] region lookup: %d malls mapped", regions.Len())
	}

	// phase 2+: walk each source's malls sequentially
	for i, src := range g.sources {
		malls := perSource[i]
		if len(malls) == 0 {
			continue
		}

		storesAvailable := true
		if ss, ok := src.(SessionSource); ok {
			if err := ss.Start(ctx); err != nil {
				// mall rows still get upserted from the index data,
				// only their directories are skipped
				log.Printf("[gather] %s: session unavailable, skipping store directories: %v",
					src.Name(), err)
				storesAvailable = false
			} else {
				defer ss.Stop()
			}
		}

		for j, mall := range malls {
			g.state.update(func(s *Snapshot) { s.CurrentMall = mall.Name })
			log.Printf("[gather] [%s %d/%d] %s", src.Name(), j+1, len(malls), mall.Name)

			g.processMall(ctx, src, mall, regions, storesAvailable)

			g.state.update(func(s *Snapshot) { s.CompletedMalls++ })
			time.Sleep(g.cfg.RequestDelay)
		}
	}

	g.state.update(func(s *Snapshot) {
		s.Status = StatusDone
		s.CurrentMall = ""
	})
	log.Printf("[gather] run complete")
}

// processMall upserts one mall and its store directory. Every failure
// here is local to the mall: logged and absorbed so the run moves on.
func (g *Gatherer) processMall(ctx context.Context, src MallSource, mall RawMall, regions *RegionLookup, storesAvailable bool) {
	region := ResolveRegion(regions, mall.Name, mall.Address)

	mallID, err := g.persist.UpsertMall(ctx, src.Name(), mall, region)
	if err != nil {
		log.Printf("[gather] upsert mall %q failed: %v", mall.Name, err)
		return
	}

	if !storesAvailable {
		return
	}

	stores, err := src.Stores(ctx, mall)
	if err != nil {
		log.Printf("[gather] fetch stores for %q failed: %v", mall.Name, err)
		return
	}

	saved, err := g.persist.SaveDirectory(ctx, mallID, stores)
	if err != nil {
		log.Printf("[gather] save stores for %q failed: %v", mall.Name, err)
		return
	}
	log.Printf("[gather]   saved %d stores for %s", saved, mall.Name)
}

func (g *Gatherer) fail(msg string) {
	g.state.update(func(s *Snapshot) {
		s.Status = StatusError
		s.Error = msg
		s.CurrentMall = ""
	})
}
