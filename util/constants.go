package util

// Row status constants shared by every model embedding models.BaseModel
const (
	StatusActive  = "active"
	StatusDeleted = "deleted"
)

// Environment names
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Pagination defaults used when the client sends nothing usable
const (
	DefaultPage     = 1
	DefaultPageSize = 100
)

// ReservedQueryParams are query keys that drive listing and are never treated as filters
var ReservedQueryParams = []string{"page", "page_size", "order_by", "reverse", "level"}
