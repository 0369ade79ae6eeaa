// Package parser provides utilities for parsing and transforming input data.
// It handles data normalization, validation, and conversion between formats.
package parser

import (
	"encoding/json"
	"fmt"

	"github.com/cindral/core/internal/models"
)

// ParseDataset decodes a SystemMapData document. Dangling references are left
// for the cascade to drop; only structurally broken entities are rejected.
func ParseDataset(data []byte) (*models.SystemMapData, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty dataset")
	}

	var dataset models.SystemMapData
	if err := json.Unmarshal(data, &dataset); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dataset: %w", err)
	}

	if err := ValidateDataset(&dataset); err != nil {
		return nil, err
	}

	return &dataset, nil
}

func ValidateDataset(d *models.SystemMapData) error {
	for i, reg := range d.Regulations {
		if reg.ID == "" {
			return fmt.Errorf("invalid dataset: regulation %d has no id", i)
		}
	}

	for i, art := range d.Articles {
		if art.ID == "" {
			return fmt.Errorf("invalid dataset: article %d has no id", i)
		}
	}

	for i, sys := range d.Systems {
		if sys.ID == "" {
			return fmt.Errorf("invalid dataset: system %d has no id", i)
		}
	}

	for i, imp := range d.Impacts {
		if imp.ArticleID == "" || imp.SystemID == "" {
			return fmt.Errorf("invalid dataset: impact %d is missing articleId or systemId", i)
		}
		if !imp.ImpactLevel.Valid() {
			return fmt.Errorf("invalid dataset: impact %d has impact level %q", i, imp.ImpactLevel)
		}
	}

	return nil
}
