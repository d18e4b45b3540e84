package persistence

import (
	"strings"

	"github.com/erp/stockengine/internal/domain/shared"
	"gorm.io/gorm"
)

// paginate applies whitelisted ordering plus offset and limit.
// An unknown sort field falls back to created_at.
func paginate(query *gorm.DB, filter shared.Filter, allowed map[string]bool) *gorm.DB {
	f := filter.Normalized()
	sortField := ValidateSortField(f.OrderBy, allowed, "created_at")
	return query.
		Order(sortField + " " + ValidateSortOrder(f.OrderDir)).
		Order("id " + ValidateSortOrder(f.OrderDir)).
		Offset(f.Offset()).
		Limit(f.PageSize)
}

// searchLike matches search case-insensitively against any of columns.
// LOWER(..) LIKE works on both postgres and sqlite.
func searchLike(query *gorm.DB, search string, columns ...string) *gorm.DB {
	search = strings.TrimSpace(search)
	if search == "" || len(columns) == 0 {
		return query
	}
	pattern := "%" + strings.ToLower(search) + "%"
	clauses := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, col := range columns {
		clauses[i] = "LOWER(" + col + ") LIKE ?"
		args[i] = pattern
	}
	return query.Where("("+strings.Join(clauses, " OR ")+")", args...)
}

// orderLines orders document lines for display
func orderLines(db *gorm.DB) *gorm.DB {
	return db.Order("material_name, id")
}
