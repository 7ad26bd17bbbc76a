package domain

import "time"

// Testimonial is a short user-authored text owned by exactly one user.
type Testimonial struct {
	ID        string
	Content   string
	OwnerID   string
	OwnerName string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ListScope selects which testimonials a listing covers.
type ListScope string

const (
	ScopeAll     ListScope = "all"
	ScopeByOwner ListScope = "owner"
)

// SortField enumerates sortable testimonial columns.
type SortField string

const (
	SortByCreatedAt SortField = "createdAt"
	SortByName      SortField = "name"
	SortByContent   SortField = "content"
)

// SortOrder is ascending or descending.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)
