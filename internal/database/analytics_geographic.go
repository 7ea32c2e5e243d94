// Revenuescope - Clickstream Revenue Analytics and Prediction
// Copyright 2026 Revenuescope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/revenuescope/revenuescope

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/revenuescope/revenuescope/internal/models"
)

// Placeholder labels the clickstream export uses for unresolved geography.
const geoUnknownFilter = `('Unknown', '(not set)', 'not available in demo dataset')`

// GetGeographicAnalytics computes the geography query family: revenue per
// continent and sub-continent, the per-country breakdown and the top
// cities.
func (db *DB) GetGeographicAnalytics(ctx context.Context) (*models.GeographicAnalytics, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()

	out := &models.GeographicAnalytics{}

	var err error
	if out.RevenueByContinent, err = db.regionRevenue(ctx, "continent", 0); err != nil {
		db.instrument("geographic_analytics", start, err)
		return nil, err
	}
	if out.RevenueBySubContinent, err = db.regionRevenue(ctx, "sub_continent", 10); err != nil {
		db.instrument("geographic_analytics", start, err)
		return nil, err
	}
	if out.Countries, err = db.countryRevenue(ctx); err != nil {
		db.instrument("geographic_analytics", start, err)
		return nil, err
	}
	if out.TopCities, err = db.topCities(ctx); err != nil {
		db.instrument("geographic_analytics", start, err)
		return nil, err
	}

	db.instrument("geographic_analytics", start, nil)
	return out, nil
}

// regionRevenue aggregates revenue by a region column (continent or
// sub_continent). limit 0 means no limit. The column name is fixed by the
// caller, never user input.
func (db *DB) regionRevenue(ctx context.Context, column string, limit int) ([]models.RegionRevenue, error) {
	limitSQL := ""
	if limit > 0 {
		limitSQL = fmt.Sprintf(" LIMIT %d", limit)
	}
	query := fmt.Sprintf(`
	SELECT
		COALESCE(%s, 'Unknown')               AS region,
		COUNT(*)                              AS visits,
		COALESCE(SUM(transaction_revenue), 0) AS total_revenue
	FROM visits
	GROUP BY region
	ORDER BY total_revenue DESC, visits DESC%s`, column, limitSQL)

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query revenue by %s: %w", column, err)
	}

	var out []models.RegionRevenue
	err = collectRows(rows, column, func(r *sql.Rows) error {
		var rr models.RegionRevenue
		if err := r.Scan(&rr.Region, &rr.Visits, &rr.TotalRevenue); err != nil {
			return err
		}
		out = append(out, rr)
		return nil
	})
	return out, err
}

func (db *DB) countryRevenue(ctx context.Context) ([]models.CountryRevenue, error) {
	query := fmt.Sprintf(`
	SELECT
		country                               AS country,
		COUNT(*)                              AS visits,
		COALESCE(SUM(transaction_revenue), 0) AS total_revenue,
		AVG(COALESCE(transaction_revenue, 0)) AS avg_revenue
	FROM visits
	WHERE country IS NOT NULL AND country NOT IN %s
	GROUP BY country
	ORDER BY total_revenue DESC, visits DESC
	LIMIT 20`, geoUnknownFilter)

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query country revenue: %w", err)
	}

	var out []models.CountryRevenue
	err = collectRows(rows, "country_revenue", func(r *sql.Rows) error {
		var cr models.CountryRevenue
		if err := r.Scan(&cr.Country, &cr.Visits, &cr.TotalRevenue, &cr.AvgRevenue); err != nil {
			return err
		}
		out = append(out, cr)
		return nil
	})
	return out, err
}

func (db *DB) topCities(ctx context.Context) ([]models.CityRevenue, error) {
	query := fmt.Sprintf(`
	SELECT
		city                                  AS city,
		COALESCE(SUM(transaction_revenue), 0) AS total_revenue
	FROM visits
	WHERE city IS NOT NULL AND city NOT IN %s
	GROUP BY city
	ORDER BY total_revenue DESC
	LIMIT 10`, geoUnknownFilter)

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query top cities: %w", err)
	}

	var out []models.CityRevenue
	err = collectRows(rows, "top_cities", func(r *sql.Rows) error {
		var cr models.CityRevenue
		if err := r.Scan(&cr.City, &cr.TotalRevenue); err != nil {
			return err
		}
		out = append(out, cr)
		return nil
	})
	return out, err
}
