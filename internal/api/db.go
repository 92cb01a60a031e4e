package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/pkg/errors"

	"github.com/joeblew999/plat-quake/internal/service"
)

// DBHandler serves read-only SQL over the feature snapshot.
type DBHandler struct {
	snapshot *service.Snapshot
}

// NewDBHandler creates a new database handler. A nil snapshot makes every
// route answer 503.
func NewDBHandler(snapshot *service.Snapshot) *DBHandler {
	return &DBHandler{snapshot: snapshot}
}

// RegisterRoutes registers database routes with Huma.
func (h *DBHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/tables", h.ListTables, huma.OperationTags("snapshot"))
	huma.Post(api, "/api/v1/query", h.Query, huma.OperationTags("snapshot"))
}

// TablesBody lists the snapshot tables.
type TablesBody struct {
	Tables []string `json:"tables" doc:"List of table names"`
}

// ListTables returns all snapshot tables.
func (h *DBHandler) ListTables(ctx context.Context, input *struct{}) (*struct{ Body TablesBody }, error) {
	if h.snapshot == nil {
		return nil, huma.Error503ServiceUnavailable("Database not available")
	}
	tables, err := h.snapshot.Tables(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list tables", err)
	}
	return &struct{ Body TablesBody }{Body: TablesBody{Tables: tables}}, nil
}

// QueryInput is the input for SQL queries.
type QueryInput struct {
	Body struct {
		Query string `json:"query" required:"true" minLength:"1" doc:"Read-only SQL query" example:"SELECT place, mag FROM quakes ORDER BY mag DESC LIMIT 5"`
	}
}

// QueryBody is the response for SQL queries.
type QueryBody struct {
	Columns []string         `json:"columns" doc:"Column names"`
	Rows    []map[string]any `json:"rows" doc:"Query results"`
	Count   int              `json:"count" doc:"Number of rows returned"`
}

// Query executes a read-only SQL query against the snapshot.
func (h *DBHandler) Query(ctx context.Context, input *QueryInput) (*struct{ Body QueryBody }, error) {
	if h.snapshot == nil {
		return nil, huma.Error503ServiceUnavailable("Database not available")
	}

	res, err := h.snapshot.Query(ctx, input.Body.Query)
	if errors.Is(err, service.ErrNotReadOnly) {
		return nil, huma.Error400BadRequest(err.Error())
	}
	if err != nil {
		return nil, huma.Error400BadRequest("Query failed: " + err.Error())
	}
	return &struct{ Body QueryBody }{Body: QueryBody{
		Columns: res.Columns,
		Rows:    res.Rows,
		Count:   len(res.Rows),
	}}, nil
}
