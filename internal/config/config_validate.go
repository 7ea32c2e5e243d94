// Revenuescope - Clickstream Revenue Analytics and Prediction
// Copyright 2026 Revenuescope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/revenuescope/revenuescope

package config

import (
	"fmt"

	"github.com/revenuescope/revenuescope/internal/validation"
)

// Validate checks the configuration for invalid or contradictory settings.
// Struct tags cover range and format checks; cross-field rules live here.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}

	if c.Data.CSVPath == "" && c.Data.ArchivePath == "" {
		return fmt.Errorf("data: either csv_path or archive_path must be set")
	}
	if c.Data.ArchivePath != "" && c.Data.ExtractDir == "" && c.Data.CSVPath == "" {
		return fmt.Errorf("data: extract_dir is required when loading from an archive")
	}

	if c.Model.TopFeatures > 0 && c.Model.Dir == "" {
		return fmt.Errorf("model: dir is required for artifact persistence")
	}

	return nil
}

// UsesLegacyCustomerKey reports whether RFM analysis will group by the
// historical visitNumber key rather than a stable customer identifier.
func (c *Config) UsesLegacyCustomerKey() bool {
	return c.Analytics.CustomerKey == "visitNumber"
}
