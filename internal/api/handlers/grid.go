package handlers

import (
	"net/http"

	"github.com/ramonehamilton/deck-binder/internal/grid"
)

// GridDefaults are used when a request does not pick columns or a size.
type GridDefaults struct {
	Columns int
	Size    grid.SizeToken
}

// fromRequest applies the columns and size query parameters.
func (d GridDefaults) fromRequest(r *http.Request) (int, grid.SizeToken) {
	columns := queryInt(r, "columns", d.Columns)
	if columns < 1 {
		columns = d.Columns
	}
	columns = grid.ClampColumns(columns)

	size := d.Size
	if raw := r.URL.Query().Get("size"); raw != "" {
		size = grid.ParseSize(raw)
	}
	return columns, grid.ParseSize(string(size))
}

// gridResponse is a rendered grid with the cell geometry the client lays it out with.
type gridResponse struct {
	Size       grid.SizeToken  `json:"size"`
	Dimensions grid.Dimensions `json:"dimensions"`
	Matrix     grid.Matrix     `json:"matrix"`
}
