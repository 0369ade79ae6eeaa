package parser

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/cindral/core/internal/models"
)

// ParseFilters reads filter state from query parameters. List parameters may
// be repeated or comma separated: ?regulations=a,b&regulations=c.
func ParseFilters(q url.Values) (models.Filters, error) {
	f := models.Filters{
		Regulations:      splitList(q["regulations"]),
		SystemCategories: splitList(q["categories"]),
		SearchQuery:      strings.TrimSpace(q.Get("q")),
	}

	for _, raw := range splitList(q["impactLevels"]) {
		level, err := models.ParseImpactLevel(raw)
		if err != nil {
			return models.Filters{}, err
		}
		f.ImpactLevels = append(f.ImpactLevels, level)
	}

	return f, nil
}

// ImpactInput is the body of an impact create or update request.
type ImpactInput struct {
	ArticleID   string             `json:"articleId"`
	SystemID    string             `json:"systemId"`
	ImpactLevel models.ImpactLevel `json:"impactLevel"`
	Notes       *string            `json:"notes,omitempty"`
}

func ParseImpactInput(data []byte) (*ImpactInput, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty request body")
	}

	var in ImpactInput
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("failed to unmarshal impact: %w", err)
	}

	level, err := models.ParseImpactLevel(string(in.ImpactLevel))
	if err != nil {
		return nil, err
	}
	in.ImpactLevel = level

	return &in, nil
}

// PositionInput is the body of a drag-release request.
type PositionInput struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

func ParsePositionInput(data []byte) (float64, float64, error) {
	var in PositionInput
	if err := json.Unmarshal(data, &in); err != nil {
		return 0, 0, fmt.Errorf("failed to unmarshal position: %w", err)
	}

	if in.X == nil || in.Y == nil {
		return 0, 0, fmt.Errorf("position requires x and y")
	}

	return *in.X, *in.Y, nil
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
