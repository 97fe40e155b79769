package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/worckyky/sport-booking-backend/app/dto"
	"github.com/worckyky/sport-booking-backend/app/entity"
	"github.com/worckyky/sport-booking-backend/app/types"
)

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)?$`)

type queryRepository interface {
	Select(ctx context.Context, table string, columns []string, filters map[string]interface{}) ([]map[string]interface{}, error)
}

type QueryService interface {
	Select(ctx context.Context, access *dto.InternalAccessResult, req *types.QueryRequest) ([]map[string]interface{}, error)
}

type queryService struct {
	queryRepo queryRepository
}

func NewQueryService(queryRepo queryRepository) QueryService {
	return &queryService{queryRepo: queryRepo}
}

// Select runs a read-only equality query on behalf of an internal service.
// Every identifier is checked before it reaches SQL; values are always bound.
func (s *queryService) Select(ctx context.Context, access *dto.InternalAccessResult, req *types.QueryRequest) ([]map[string]interface{}, error) {
	table := strings.TrimSpace(req.Table)
	if !identifierPattern.MatchString(table) {
		return nil, &IdentifierError{Kind: "table"}
	}

	columns := req.Columns()
	for _, column := range columns {
		if !identifierPattern.MatchString(column) {
			return nil, &IdentifierError{Kind: "select column"}
		}
	}
	for column, value := range req.Filters {
		if !identifierPattern.MatchString(column) {
			return nil, &IdentifierError{Kind: "filter column"}
		}
		if !isScalar(value) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidFilterValue, column)
		}
	}

	if access == nil || !canRead(access.AllowedTables, table) {
		return nil, ErrTableNotAllowed
	}

	return s.queryRepo.Select(ctx, table, columns, req.Filters)
}

// isScalar reports whether a decoded JSON value can be bound as a single
// SQL parameter.
func isScalar(value interface{}) bool {
	switch value.(type) {
	case nil, string, bool, float64, json.Number:
		return true
	default:
		return false
	}
}

func canRead(allowed []string, table string) bool {
	key := entity.InternalAPIKey{AllowedTables: allowed}
	return key.CanRead(table)
}
