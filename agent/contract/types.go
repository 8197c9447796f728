package contract

import (
	"fmt"
	"strings"
	"time"
)

type Category string

const (
	CategoryWeather       Category = "WEATHER"
	CategoryDocumentQA    Category = "DOC_QA"
	CategoryScheduling    Category = "MEETING_SCHEDULE"
	CategoryDatabaseQuery Category = "DB_QUERY"
)

// Categories lists every routable category in prompt order.
var Categories = []Category{
	CategoryWeather,
	CategoryDocumentQA,
	CategoryScheduling,
	CategoryDatabaseQuery,
}

func (c Category) Valid() bool {
	switch c {
	case CategoryWeather, CategoryDocumentQA, CategoryScheduling, CategoryDatabaseQuery:
		return true
	default:
		return false
	}
}

func (c Category) String() string {
	return string(c)
}

const labelCutset = " \t\r\n\"'`*.!:;,"

// ParseCategory normalizes a raw classifier label and maps it to exactly one
// category. Anything that is not one of the four labels is ErrClassification.
func ParseCategory(label string) (Category, error) {
	normalized := strings.Trim(label, labelCutset)
	normalized = strings.ToUpper(normalized)
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)

	c := Category(normalized)
	if !c.Valid() {
		return "", fmt.Errorf("%w: unknown label=%q", ErrClassification, label)
	}
	return c, nil
}

type RouteStatus string

const (
	RouteSucceeded RouteStatus = "succeeded"
	RouteFallback  RouteStatus = "fallback"
)

// RouteResult is the single terminal outcome of one routed query. Category is
// empty when classification failed.
type RouteResult struct {
	Category Category      `json:"category,omitempty"`
	Status   RouteStatus   `json:"status"`
	Text     string        `json:"text"`
	Reason   string        `json:"-"`
	Duration time.Duration `json:"-"`
}

func (r RouteResult) Succeeded() bool {
	return r.Status == RouteSucceeded
}
