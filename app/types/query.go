package types

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
)

type QueryRequest struct {
	Table   string                 `json:"table"`
	Select  string                 `json:"select,omitempty"`
	Filters map[string]interface{} `json:"filters,omitempty"`
}

func NewQueryRequestFromContext(ctx echo.Context) (*QueryRequest, error) {
	var body QueryRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *QueryRequest) Validate() error {
	if strings.TrimSpace(r.Table) == "" {
		return errors.New("Table name is required")
	}

	return nil
}

// Columns splits the select list; nil means every column.
func (r *QueryRequest) Columns() []string {
	trimmed := strings.TrimSpace(r.Select)
	if trimmed == "" || trimmed == "*" {
		return nil
	}

	var columns []string
	for _, part := range strings.Split(trimmed, ",") {
		if part = strings.TrimSpace(part); part != "" {
			columns = append(columns, part)
		}
	}
	return columns
}
