package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/pflag"

	"github.com/KonghaYao/text2location/internal/regions"
)

// Converts a region CSV into a SQL table or a MongoDB collection so the
// service can load regions from a database.
//
//	go run ./scripts/convert_data.go --in data/areas.csv --to sqlite --dsn data/regions.db
func main() {
	in := pflag.String("in", "data/areas.csv", "region CSV")
	to := pflag.String("to", "sqlite", "target: sqlite, postgres or mongo")
	dsn := pflag.String("dsn", "data/regions.db", "sqlite file, postgres DSN or mongo URI")
	table := pflag.String("table", "regions", "SQL table or mongo collection")
	database := pflag.String("database", "text2location", "mongo database")
	pflag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	fmt.Printf("Reading %s...\n", *in)
	list, err := (&regions.CSVSource{Path: *in}).Load(ctx)
	if err != nil {
		log.Fatal("read csv:", err)
	}
	if _, err := regions.BuildRegionMap(list); err != nil {
		log.Fatal("validate regions:", err)
	}
	fmt.Printf("Loaded %d regions\n", len(list))

	switch *to {
	case "sqlite", "postgres":
		db, err := regions.OpenSQL(*to, *dsn)
		if err != nil {
			log.Fatal(err)
		}
		defer db.Close()
		src := &regions.SQLSource{DB: db, Table: *table, Driver: *to}
		if err := src.Import(ctx, list); err != nil {
			log.Fatal("import:", err)
		}
	case "mongo":
		src, err := regions.NewMongoSource(ctx, *dsn, *database, *table)
		if err != nil {
			log.Fatal(err)
		}
		defer src.Close()
		if err := src.Import(ctx, list); err != nil {
			log.Fatal("import:", err)
		}
	default:
		log.Fatalf("unknown target %q", *to)
	}

	fmt.Printf("Wrote %d regions to %s (%s)\n", len(list), *to, *table)
}
