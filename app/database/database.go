// Package database holds the example schema and seed data.
package database

import (
	"context"

	"github.com/km-arc/galanthus/framework/db/tablegateway"
)

// Schema creates the tables the example controllers read.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS cities (
		id INTEGER PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		population INTEGER NOT NULL DEFAULT 0
	)`,
}

// Cities is the seed data for the cities table.
var Cities = []tablegateway.Row{
	{"name": "Sofia", "population": 1248452},
	{"name": "Plovdiv", "population": 346893},
	{"name": "Varna", "population": 336505},
	{"name": "Burgas", "population": 202766},
	{"name": "Ruse", "population": 142902},
}

// Seed fills an empty cities table. It returns the number of inserted rows.
func Seed(ctx context.Context, gw *tablegateway.TableGateway) (int, error) {
	n, err := gw.Count(ctx)
	if err != nil || n > 0 {
		return 0, err
	}
	for _, row := range Cities {
		if _, err := gw.Insert(ctx, row); err != nil {
			return 0, err
		}
	}
	return len(Cities), nil
}
