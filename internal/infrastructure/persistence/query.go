package persistence

import (
	"context"
	"errors"
	"slices"
	"strings"

	"gorm.io/gorm"

	"github.com/erp/inventory/internal/domain/shared"
)

// fetchOne loads a single row matching cond, mapping gorm's not-found
// to shared.ErrNotFound.
func fetchOne[T any](ctx context.Context, db *gorm.DB, cond string, args ...interface{}) (*T, error) {
	var entity T
	conds := append([]interface{}{cond}, args...)
	if err := db.WithContext(ctx).First(&entity, conds...).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &entity, nil
}

// newestFirst is the default list order for timestamped aggregates.
const newestFirst = "created_at DESC"

// sortable lists the columns callers may order a listing by. Requests for
// any other column fall back to the default order, which also keeps raw
// filter input out of the ORDER BY clause.
type sortable []string

// Per-table sortable columns.
var (
	warehouseSortable   = sortable{"created_at", "updated_at", "code", "name", "active"}
	productSortable     = sortable{"created_at", "updated_at", "code", "name", "unit", "reorder_point", "purchase_price", "sale_price", "active"}
	lotSortable         = sortable{"created_at", "updated_at", "lot_number", "ingress_date", "expiry_date", "current_quantity", "unit_cost", "quality"}
	stockRecordSortable = sortable{"created_at", "updated_at", "quantity", "reserved", "avg_cost"}
	movementSortable    = sortable{"created_at", "updated_at", "number", "type", "status", "quantity", "total_cost", "executed_at"}
)

// pageAndSort applies the filter's pagination and ordering. The requested
// column must be in cols, otherwise defaultOrder wins.
func pageAndSort(query *gorm.DB, filter shared.Filter, cols sortable, defaultOrder string) *gorm.DB {
	if limit := filter.Limit(); limit > 0 && filter.Page > 0 {
		query = query.Offset(filter.Offset()).Limit(limit)
	}
	if col := strings.TrimSpace(filter.OrderBy); col != "" && slices.Contains(cols, col) {
		return query.Order(col + " " + filter.SortDirection())
	}
	return query.Order(defaultOrder)
}

// searchPattern wraps a term for ILIKE matching.
func searchPattern(term string) string {
	return "%" + term + "%"
}
