// internal/api/handler/api/intervals.go
package api

import (
	"net/http"

	"github.com/newthinker/finadict/internal/api/response"
	"github.com/newthinker/finadict/internal/interval"
)

// IntervalHandler lists the supported sampling intervals.
type IntervalHandler struct {
	table *interval.Table
}

// NewIntervalHandler creates a new interval handler.
func NewIntervalHandler(table *interval.Table) *IntervalHandler {
	return &IntervalHandler{table: table}
}

// List returns every policy from finest to coarsest.
func (h *IntervalHandler) List(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.table.All())
}
