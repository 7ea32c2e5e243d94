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

// GetTrafficAnalytics computes the traffic query family: revenue per
// channel grouping, the top source/medium pairs and the top campaigns.
func (db *DB) GetTrafficAnalytics(ctx context.Context) (*models.TrafficAnalytics, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()

	out := &models.TrafficAnalytics{}

	var err error
	if out.ChannelRevenue, err = db.channelRevenue(ctx); err != nil {
		db.instrument("traffic_analytics", start, err)
		return nil, err
	}
	if out.TopSourceMedium, err = db.topSourceMedium(ctx); err != nil {
		db.instrument("traffic_analytics", start, err)
		return nil, err
	}
	if out.TopCampaigns, err = db.topCampaigns(ctx); err != nil {
		db.instrument("traffic_analytics", start, err)
		return nil, err
	}

	db.instrument("traffic_analytics", start, nil)
	return out, nil
}

func (db *DB) channelRevenue(ctx context.Context) ([]models.ChannelRevenue, error) {
	const query = `
	SELECT
		COALESCE(channel_grouping, 'Unknown')    AS channel,
		COUNT(*)                                 AS visits,
		COALESCE(SUM(transaction_revenue), 0)    AS total_revenue,
		AVG(COALESCE(transaction_revenue, 0))    AS avg_revenue
	FROM visits
	GROUP BY channel
	ORDER BY total_revenue DESC`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query channel revenue: %w", err)
	}

	var out []models.ChannelRevenue
	err = collectRows(rows, "channel_revenue", func(r *sql.Rows) error {
		var cr models.ChannelRevenue
		if err := r.Scan(&cr.Channel, &cr.Visits, &cr.TotalRevenue, &cr.AvgRevenue); err != nil {
			return err
		}
		out = append(out, cr)
		return nil
	})
	return out, err
}

func (db *DB) topSourceMedium(ctx context.Context) ([]models.SourceMediumRevenue, error) {
	const query = `
	SELECT
		COALESCE(source, 'Unknown')           AS source,
		COALESCE(medium, 'Unknown')           AS medium,
		COUNT(*)                              AS visits,
		COALESCE(SUM(transaction_revenue), 0) AS total_revenue
	FROM visits
	GROUP BY source, medium
	ORDER BY total_revenue DESC, visits DESC
	LIMIT 10`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query source/medium revenue: %w", err)
	}

	var out []models.SourceMediumRevenue
	err = collectRows(rows, "top_source_medium", func(r *sql.Rows) error {
		var sm models.SourceMediumRevenue
		if err := r.Scan(&sm.Source, &sm.Medium, &sm.Visits, &sm.TotalRevenue); err != nil {
			return err
		}
		out = append(out, sm)
		return nil
	})
	return out, err
}

func (db *DB) topCampaigns(ctx context.Context) ([]models.CampaignStats, error) {
	// "(not set)" dominates the campaign column and would crowd out every
	// real campaign, so it is excluded from the ranking.
	const query = `
	SELECT
		campaign                              AS campaign,
		COUNT(*)                              AS visits,
		COALESCE(SUM(transaction_revenue), 0) AS total_revenue,
		CAST(COALESCE(SUM(pageviews), 0) AS BIGINT) AS pageviews,
		CAST(COALESCE(SUM(bounces), 0) AS BIGINT)   AS bounces
	FROM visits
	WHERE campaign IS NOT NULL AND campaign <> '(not set)'
	GROUP BY campaign
	ORDER BY total_revenue DESC, visits DESC
	LIMIT 10`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query campaigns: %w", err)
	}

	var out []models.CampaignStats
	err = collectRows(rows, "top_campaigns", func(r *sql.Rows) error {
		var cs models.CampaignStats
		if err := r.Scan(&cs.Campaign, &cs.Visits, &cs.TotalRevenue, &cs.Pageviews, &cs.Bounces); err != nil {
			return err
		}
		out = append(out, cs)
		return nil
	})
	return out, err
}
