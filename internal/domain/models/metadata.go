package models

import (
	"math"
	"slices"
	"strings"

	"github.com/hpyride/hpyride/pkg/validator"
)

// Filters carries pagination and a sort key checked against a safelist.
type Filters struct {
	Page         int
	PageSize     int
	Sort         string
	SortSafelist []string
}

// DefaultFilters returns page 1 of 20 sorted by the first safelisted key.
func DefaultFilters(sortSafelist ...string) Filters {
	f := Filters{Page: 1, PageSize: 20, SortSafelist: sortSafelist}
	if len(sortSafelist) > 0 {
		f.Sort = sortSafelist[0]
	}
	return f
}

func (f Filters) Validate(v *validator.Validator) {
	v.Check(f.Page > 0, "page", "must be greater than zero")
	v.Check(f.Page <= 10_000_000, "page", "must be a maximum of 10 million")
	v.Check(f.PageSize > 0, "page_size", "must be greater than zero")
	v.Check(f.PageSize <= 100, "page_size", "must be a maximum of 100")
	v.Check(validator.PermittedValue(f.Sort, f.SortSafelist...), "sort", "invalid sort value")
}

// SortColumn strips the leading "-" of a safelisted sort key.
// Falls back to "created_at" when Sort is not safelisted.
func (f Filters) SortColumn() string {
	if slices.Contains(f.SortSafelist, f.Sort) {
		return strings.TrimPrefix(f.Sort, "-")
	}
	return "created_at"
}

func (f Filters) SortDirection() string {
	if strings.HasPrefix(f.Sort, "-") {
		return "DESC"
	}
	return "ASC"
}

func (f Filters) Limit() int {
	return f.PageSize
}

func (f Filters) Offset() int {
	return (f.Page - 1) * f.PageSize
}

type Metadata struct {
	CurrentPage  int `json:"current_page"`
	PageSize     int `json:"page_size"`
	FirstPage    int `json:"first_page"`
	LastPage     int `json:"last_page"`
	TotalRecords int `json:"total_records"`
}

// CalculateMetadata returns an empty Metadata when there are no records.
func CalculateMetadata(totalRecords, page, pageSize int) Metadata {
	if totalRecords == 0 {
		return Metadata{CurrentPage: page, PageSize: pageSize}
	}
	return Metadata{
		CurrentPage:  page,
		PageSize:     pageSize,
		FirstPage:    1,
		LastPage:     int(math.Ceil(float64(totalRecords) / float64(pageSize))),
		TotalRecords: totalRecords,
	}
}
