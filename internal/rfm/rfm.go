// Revenuescope - Clickstream Revenue Analytics and Prediction
// Copyright 2026 Revenuescope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/revenuescope/revenuescope

// Package rfm implements recency/frequency/monetary customer segmentation
// over the raw visit frame: per-customer aggregation, quartile scoring with
// a degenerate-distribution fallback, a fixed 7-way segment mapping, and a
// display-only completeness step that never touches the summary statistics.
package rfm

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/revenuescope/revenuescope/internal/dataset"
	"github.com/revenuescope/revenuescope/internal/logging"
)

// Segment labels, from best to worst.
const (
	SegmentChampions     = "Champions"
	SegmentLoyal         = "Loyal Customers"
	SegmentRecent        = "Recent Customers"
	SegmentPromising     = "Promising"
	SegmentNeedAttention = "Need Attention"
	SegmentAtRisk        = "At Risk"
	SegmentDormant       = "Dormant"
)

// AllSegments enumerates every segment label in display order.
var AllSegments = []string{
	SegmentChampions,
	SegmentLoyal,
	SegmentRecent,
	SegmentPromising,
	SegmentNeedAttention,
	SegmentAtRisk,
	SegmentDormant,
}

// Customer is one scored row of the RFM table.
type Customer struct {
	Key       string  `json:"customer_id"`
	Recency   float64 `json:"recency"` // days since last visit
	Frequency float64 `json:"frequency"`
	Monetary  float64 `json:"monetary"`

	// Quartile ranks 0-3; recency is inverted so higher is always better.
	RQuartile int `json:"r_quartile"`
	FQuartile int `json:"f_quartile"`
	MQuartile int `json:"m_quartile"`

	Score   int    `json:"rfm_score"` // 0-9
	Segment string `json:"segment"`

	// Synthetic marks display-completeness placeholder rows. They exist
	// only in WithAllSegments output and never feed SummarizeSegments.
	Synthetic bool `json:"synthetic,omitempty"`
}

// SegmentStats is the per-segment summary.
type SegmentStats struct {
	Segment      string  `json:"segment"`
	Count        int     `json:"count"`
	TotalRevenue float64 `json:"total_revenue"`
	AvgRevenue   float64 `json:"avg_revenue"`
	AvgFrequency float64 `json:"avg_frequency"`
	AvgRecency   float64 `json:"avg_recency"`
	RevenuePct   float64 `json:"revenue_pct"`
}

// Options configures an analysis run.
type Options struct {
	// CustomerKey is the grouping column. The historical default,
	// visitNumber, groups by visit rank rather than by customer; supply a
	// stable identifier when the dataset has one.
	CustomerKey string

	// DateColumn is the parsed visit date column. Default "date".
	DateColumn string

	// RevenueColumn holds per-visit transaction revenue.
	// Default "totals.transactionRevenue".
	RevenueColumn string

	// ReferenceTime anchors recency. Zero means time.Now().
	ReferenceTime time.Time
}

func (o *Options) applyDefaults() {
	if o.CustomerKey == "" {
		o.CustomerKey = "visitNumber"
	}
	if o.DateColumn == "" {
		o.DateColumn = "date"
	}
	if o.RevenueColumn == "" {
		o.RevenueColumn = "totals.transactionRevenue"
	}
	if o.ReferenceTime.IsZero() {
		o.ReferenceTime = time.Now()
	}
}

// Result holds the scored customer table and its segment summary.
type Result struct {
	Customers []Customer     `json:"customers"`
	Summary   []SegmentStats `json:"summary"`
}

// Analyze groups the visit frame by customer key and scores each customer.
// Missing revenue counts as zero. The summary is computed on real rows
// only; use WithAllSegments for a display table covering all 7 segments.
func Analyze(f *dataset.Frame, opts Options) (*Result, error) {
	opts.applyDefaults()

	keyCol := f.Column(opts.CustomerKey)
	if keyCol == nil {
		return nil, fmt.Errorf("customer key column %q not found", opts.CustomerKey)
	}
	dateCol := f.Column(opts.DateColumn)
	if dateCol == nil || dateCol.Kind != dataset.KindTime {
		return nil, fmt.Errorf("date column %q not found or not a timestamp column", opts.DateColumn)
	}
	revCol := f.Column(opts.RevenueColumn)
	if revCol == nil {
		return nil, fmt.Errorf("revenue column %q not found", opts.RevenueColumn)
	}

	customers := aggregate(f, keyCol, dateCol, revCol, opts.ReferenceTime)
	if len(customers) == 0 {
		return &Result{Customers: nil, Summary: nil}, nil
	}

	score(customers)

	result := &Result{
		Customers: customers,
		Summary:   SummarizeSegments(customers),
	}

	logging.Debug().
		Int("customers", len(customers)).
		Str("key", opts.CustomerKey).
		Msg("RFM analysis complete")

	return result, nil
}

// aggregate builds one Customer per distinct key with recency, frequency
// and monetary raw values.
func aggregate(f *dataset.Frame, keyCol, dateCol, revCol *dataset.Column, ref time.Time) []Customer {
	type group struct {
		lastVisit time.Time
		count     int
		revenue   float64
	}

	groups := make(map[string]*group)
	var order []string

	for i := 0; i < f.NumRows(); i++ {
		key := cellString(keyCol, i)
		g, ok := groups[key]
		if !ok {
			g = &group{}
			groups[key] = g
			order = append(order, key)
		}
		g.count++
		if t := dateCol.Times[i]; t.After(g.lastVisit) {
			g.lastVisit = t
		}
		g.revenue += cellRevenue(revCol, i)
	}

	customers := make([]Customer, 0, len(groups))
	for _, key := range order {
		g := groups[key]
		recency := ref.Sub(g.lastVisit).Hours() / 24
		if recency < 0 {
			recency = 0
		}
		customers = append(customers, Customer{
			Key:       key,
			Recency:   float64(int(recency)),
			Frequency: float64(g.count),
			Monetary:  g.revenue,
		})
	}
	return customers
}

// score assigns quartiles, composite score and segment in place. The +1
// offsets keep zero-heavy distributions bucketable.
func score(customers []Customer) {
	n := len(customers)
	rec := make([]float64, n)
	freq := make([]float64, n)
	mon := make([]float64, n)
	for i, c := range customers {
		rec[i] = c.Recency + 1
		freq[i] = c.Frequency + 1
		mon[i] = c.Monetary + 1
	}

	rBuckets := QuartileBuckets(rec)
	fBuckets := QuartileBuckets(freq)
	mBuckets := QuartileBuckets(mon)

	for i := range customers {
		// Lower recency is better, so invert the bucket.
		customers[i].RQuartile = 3 - rBuckets[i]
		customers[i].FQuartile = fBuckets[i]
		customers[i].MQuartile = mBuckets[i]
		customers[i].Score = customers[i].RQuartile + customers[i].FQuartile + customers[i].MQuartile
		customers[i].Segment = segmentFor(customers[i].Score, customers[i].RQuartile)
	}
}

// segmentFor maps a composite score and inverted recency quartile to a
// segment label. First match wins.
func segmentFor(score, rQuartile int) string {
	switch {
	case score >= 8:
		return SegmentChampions
	case score >= 6:
		return SegmentLoyal
	case score >= 5 && rQuartile >= 3:
		return SegmentRecent
	case score >= 5:
		return SegmentPromising
	case score >= 4 && rQuartile >= 2:
		return SegmentNeedAttention
	case score >= 4:
		return SegmentAtRisk
	default:
		return SegmentDormant
	}
}

// WithAllSegments returns a display copy of the customer table in which
// every one of the 7 segments has at least one row. Absent segments get a
// placeholder copied from the first real row, marked Synthetic. This is a
// display-completeness convenience only: the placeholders carry fabricated
// segment labels and must never feed statistics.
func WithAllSegments(customers []Customer) []Customer {
	if len(customers) == 0 {
		return customers
	}

	present := make(map[string]bool, len(AllSegments))
	for _, c := range customers {
		present[c.Segment] = true
	}

	out := append([]Customer(nil), customers...)
	for _, segment := range AllSegments {
		if present[segment] {
			continue
		}
		placeholder := customers[0]
		placeholder.Segment = segment
		placeholder.Synthetic = true
		out = append(out, placeholder)
	}
	return out
}

// SummarizeSegments computes per-segment statistics over real rows only.
// Synthetic placeholder rows are skipped so display completeness never
// distorts the numbers.
func SummarizeSegments(customers []Customer) []SegmentStats {
	bysegment := make(map[string]*SegmentStats)
	var total float64

	for _, c := range customers {
		if c.Synthetic {
			continue
		}
		s, ok := bysegment[c.Segment]
		if !ok {
			s = &SegmentStats{Segment: c.Segment}
			bysegment[c.Segment] = s
		}
		s.Count++
		s.TotalRevenue += c.Monetary
		s.AvgFrequency += c.Frequency
		s.AvgRecency += c.Recency
		total += c.Monetary
	}

	var summary []SegmentStats
	for _, segment := range AllSegments {
		s, ok := bysegment[segment]
		if !ok {
			continue
		}
		n := float64(s.Count)
		s.AvgRevenue = s.TotalRevenue / n
		s.AvgFrequency /= n
		s.AvgRecency /= n
		if total > 0 {
			s.RevenuePct = s.TotalRevenue / total * 100
		}
		summary = append(summary, *s)
	}

	sort.SliceStable(summary, func(i, j int) bool {
		return summary[i].TotalRevenue > summary[j].TotalRevenue
	})
	return summary
}

// cellString renders the key cell as a stable string.
func cellString(c *dataset.Column, i int) string {
	switch c.Kind {
	case dataset.KindNumeric:
		if c.Null[i] {
			return ""
		}
		return strconv.FormatFloat(c.Num[i], 'g', -1, 64)
	case dataset.KindTime:
		return c.Times[i].Format(time.RFC3339)
	default:
		if c.Null[i] {
			return ""
		}
		return c.Str[i]
	}
}

// cellRevenue parses the revenue cell, treating nulls and unparseable
// values as zero.
func cellRevenue(c *dataset.Column, i int) float64 {
	switch c.Kind {
	case dataset.KindNumeric:
		if v, ok := c.Float(i); ok {
			return v
		}
		return 0
	default:
		if c.Null[i] {
			return 0
		}
		v, err := strconv.ParseFloat(c.Str[i], 64)
		if err != nil {
			return 0
		}
		return v
	}
}
