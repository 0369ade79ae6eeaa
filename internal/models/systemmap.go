// Package models defines the core data structures shared across the service.
// It includes the compliance entities, filter state, and the graph projection types.
package models

import (
	"fmt"
	"strings"
)

type RegulationStatus string

const (
	RegulationActive     RegulationStatus = "active"
	RegulationSuperseded RegulationStatus = "superseded"
	RegulationDraft      RegulationStatus = "draft"
)

type ImpactLevel string

const (
	ImpactCritical ImpactLevel = "critical"
	ImpactHigh     ImpactLevel = "high"
	ImpactMedium   ImpactLevel = "medium"
	ImpactLow      ImpactLevel = "low"
)

// ImpactLevels lists every level from most to least severe.
var ImpactLevels = []ImpactLevel{ImpactCritical, ImpactHigh, ImpactMedium, ImpactLow}

func (l ImpactLevel) Valid() bool {
	switch l {
	case ImpactCritical, ImpactHigh, ImpactMedium, ImpactLow:
		return true
	}
	return false
}

func ParseImpactLevel(s string) (ImpactLevel, error) {
	level := ImpactLevel(strings.ToLower(strings.TrimSpace(s)))
	if !level.Valid() {
		return "", fmt.Errorf("invalid impact level %q", s)
	}
	return level, nil
}

type Regulation struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Framework    string           `json:"framework"`
	Status       RegulationStatus `json:"status,omitempty"`
	ArticleCount int              `json:"articleCount"`
}

type Article struct {
	ID                   string  `json:"id"`
	ArticleNumber        string  `json:"articleNumber"`
	Title                *string `json:"title,omitempty"`
	RegulationID         string  `json:"regulationId"`
	RegulationName       string  `json:"regulationName"`
	ImpactedSystemsCount int     `json:"impactedSystemsCount"`
}

type System struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    *string `json:"category,omitempty"`
	Criticality *string `json:"criticality,omitempty"`
}

type Impact struct {
	ArticleID   string      `json:"articleId"`
	SystemID    string      `json:"systemId"`
	ImpactLevel ImpactLevel `json:"impactLevel"`
	Notes       *string     `json:"notes,omitempty"`
}

// SystemMapData is the flat dataset read from the compliance backend.
type SystemMapData struct {
	Regulations []Regulation `json:"regulations"`
	Articles    []Article    `json:"articles"`
	Systems     []System     `json:"systems"`
	Impacts     []Impact     `json:"impacts"`
}

// Filters is transient view state; it is never persisted server-side.
type Filters struct {
	Regulations      []string      `json:"regulations"`
	ImpactLevels     []ImpactLevel `json:"impactLevels"`
	SystemCategories []string      `json:"systemCategories"`
	SearchQuery      string        `json:"searchQuery"`
}

type NodePosition struct {
	NodeID string  `json:"nodeId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// Deref returns the pointed-to string or "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Ptr returns a pointer to s, or nil when s is empty.
func Ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
