// ruca-import bulk-loads the USDA RUCA reference table from a CSV file with
// zip,ruca_code rows. Rerunning the import upserts, so refreshed USDA data
// can be loaded in place.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"io"
	"os"
	"strconv"
	"strings"

	"medleads_backend/internal/rural/repository"
	"medleads_backend/platform/config"
	"medleads_backend/platform/db"
	"medleads_backend/platform/logger"
)

const batchSize = 1000

func main() {
	path := flag.String("file", "", "path to the RUCA CSV (zip,ruca_code)")
	skipHeader := flag.Bool("skip-header", true, "skip the first CSV row")
	flag.Parse()

	if *path == "" {
		panic("usage: ruca-import -file <ruca.csv>")
	}

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	file, err := os.Open(*path)
	if err != nil {
		log.Error("failed to open csv", "path", *path, "error", err)
		panic("failed to open csv: " + err.Error())
	}
	defer file.Close()

	repo := repository.New(pool)
	reader := csv.NewReader(file)

	total := 0
	skipped := 0
	batch := make([]repository.ZipCode, 0, batchSize)
	first := true

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Error("csv read failed", "error", err)
			panic("csv read failed: " + err.Error())
		}

		if first {
			first = false
			if *skipHeader {
				continue
			}
		}

		if len(record) < 2 {
			skipped++
			continue
		}

		zip := strings.TrimSpace(record[0])
		code, err := strconv.Atoi(strings.TrimSpace(record[1]))
		if len(zip) != 5 || err != nil || code < 1 || code > 10 {
			skipped++
			continue
		}

		batch = append(batch, repository.ZipCode{Zip: zip, RUCACode: code})
		if len(batch) >= batchSize {
			if _, err := repo.UpsertCodes(ctx, batch); err != nil {
				log.Error("upsert batch failed", "error", err)
				panic("upsert batch failed: " + err.Error())
			}
			total += len(batch)
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if _, err := repo.UpsertCodes(ctx, batch); err != nil {
			log.Error("upsert batch failed", "error", err)
			panic("upsert batch failed: " + err.Error())
		}
		total += len(batch)
	}

	log.Info("ruca import complete", "imported", total, "skipped", skipped)
}
