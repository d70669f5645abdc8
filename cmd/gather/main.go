package main

import (
	"context"
	"log"

	"mallfinder/internal/gather"
	"mallfinder/pkg/database"
	"mallfinder/pkg/utils"
)

// One-shot gather run for manual refreshes, without the HTTP server.
func main() {
	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	g := gather.New(db, utils.LoadGatherConfig())
	if err := g.Run(context.Background()); err != nil {
		log.Fatalf("gather failed: %v", err)
	}

	snap := g.Status()
	log.Printf("gather done: %d/%d malls processed", snap.CompletedMalls, snap.TotalMalls)
}
