// Revenuescope - Clickstream Revenue Analytics and Prediction
// Copyright 2026 Revenuescope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/revenuescope/revenuescope

package models

// DatasetStats is the dataset overview served by /api/v1/stats.
type DatasetStats struct {
	TotalVisits     int64        `json:"total_visits"`
	FirstDate       string       `json:"first_date"`
	LastDate        string       `json:"last_date"`
	TotalRevenue    float64      `json:"total_revenue"`
	AvgRevenue      float64      `json:"avg_revenue"`
	Transactions    int64        `json:"transactions"`
	UniqueCountries int64        `json:"unique_countries"`
	BounceRate      float64      `json:"bounce_rate"`
	DailyRevenue    []DayRevenue `json:"daily_revenue"`
}

// DayRevenue is one point of the daily revenue trend.
type DayRevenue struct {
	Date    string  `json:"date"`
	Revenue float64 `json:"revenue"`
}

// NameCount is a generic label/count pair.
type NameCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// CategoryShare is a device-category slice of the overall distribution.
type CategoryShare struct {
	Category string  `json:"category"`
	Count    int64   `json:"count"`
	Share    float64 `json:"share"`
}

// CategoryRevenue aggregates engagement per device category.
type CategoryRevenue struct {
	Category     string  `json:"category"`
	AvgRevenue   float64 `json:"avg_revenue"`
	AvgPageviews float64 `json:"avg_pageviews"`
}

// DeviceAnalytics is the device query family response.
type DeviceAnalytics struct {
	TopBrowsers          []NameCount       `json:"top_browsers"`
	TopOperatingSystems  []NameCount       `json:"top_operating_systems"`
	CategoryDistribution []CategoryShare   `json:"category_distribution"`
	MobileShare          float64           `json:"mobile_share"`
	CategoryRevenue      []CategoryRevenue `json:"category_revenue"`
}

// ChannelRevenue aggregates revenue per channel grouping.
type ChannelRevenue struct {
	Channel      string  `json:"channel"`
	Visits       int64   `json:"visits"`
	TotalRevenue float64 `json:"total_revenue"`
	AvgRevenue   float64 `json:"avg_revenue"`
}

// SourceMediumRevenue aggregates revenue per source/medium pair.
type SourceMediumRevenue struct {
	Source       string  `json:"source"`
	Medium       string  `json:"medium"`
	Visits       int64   `json:"visits"`
	TotalRevenue float64 `json:"total_revenue"`
}

// CampaignStats aggregates engagement per campaign.
type CampaignStats struct {
	Campaign     string  `json:"campaign"`
	Visits       int64   `json:"visits"`
	TotalRevenue float64 `json:"total_revenue"`
	Pageviews    int64   `json:"pageviews"`
	Bounces      int64   `json:"bounces"`
}

// TrafficAnalytics is the traffic query family response.
type TrafficAnalytics struct {
	ChannelRevenue  []ChannelRevenue      `json:"channel_revenue"`
	TopSourceMedium []SourceMediumRevenue `json:"top_source_medium"`
	TopCampaigns    []CampaignStats       `json:"top_campaigns"`
}

// HourVisits counts visits per UTC hour of day.
type HourVisits struct {
	Hour   int   `json:"hour"`
	Visits int64 `json:"visits"`
}

// WeekdayRevenue is average revenue per weekday, Monday = 0.
type WeekdayRevenue struct {
	Weekday    int     `json:"weekday"`
	AvgRevenue float64 `json:"avg_revenue"`
}

// VisitNumberStats aggregates engagement per visit rank.
type VisitNumberStats struct {
	VisitNumber  int     `json:"visit_number"`
	Visits       int64   `json:"visits"`
	AvgRevenue   float64 `json:"avg_revenue"`
	AvgPageviews float64 `json:"avg_pageviews"`
}

// VisitAnalytics is the visit-timing query family response.
type VisitAnalytics struct {
	VisitsByHour     []HourVisits       `json:"visits_by_hour"`
	RevenueByWeekday []WeekdayRevenue   `json:"revenue_by_weekday"`
	ByVisitNumber    []VisitNumberStats `json:"by_visit_number"`
}

// RegionRevenue aggregates revenue per continent or sub-continent.
type RegionRevenue struct {
	Region       string  `json:"region"`
	Visits       int64   `json:"visits"`
	TotalRevenue float64 `json:"total_revenue"`
}

// CountryRevenue aggregates revenue per country.
type CountryRevenue struct {
	Country      string  `json:"country"`
	Visits       int64   `json:"visits"`
	TotalRevenue float64 `json:"total_revenue"`
	AvgRevenue   float64 `json:"avg_revenue"`
}

// CityRevenue aggregates revenue per city.
type CityRevenue struct {
	City         string  `json:"city"`
	TotalRevenue float64 `json:"total_revenue"`
}

// GeographicAnalytics is the geography query family response.
type GeographicAnalytics struct {
	RevenueByContinent    []RegionRevenue  `json:"revenue_by_continent"`
	RevenueBySubContinent []RegionRevenue  `json:"revenue_by_sub_continent"`
	Countries             []CountryRevenue `json:"countries"`
	TopCities             []CityRevenue    `json:"top_cities"`
}
