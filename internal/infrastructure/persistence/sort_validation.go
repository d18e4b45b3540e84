package persistence

import (
	"strings"
)

// ValidateSortOrder normalizes a requested direction to ASC or DESC.
// Anything other than "asc" sorts newest first.
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when it is whitelisted, else defaultField.
// Field names are matched exactly so the result is safe to splice into ORDER BY.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	if field := strings.TrimSpace(sortField); allowedFields[field] {
		return field
	}
	return defaultField
}

// sortable builds a whitelist holding the timestamp columns every table has
// plus fields.
func sortable(fields ...string) map[string]bool {
	allowed := map[string]bool{"id": true, "created_at": true, "updated_at": true}
	for _, f := range fields {
		allowed[f] = true
	}
	return allowed
}

// Sort whitelists per listing
var (
	MaterialAccountSortFields = sortable("code", "name", "item_id", "category", "kind", "balance", "reorder_threshold")
	ProductSortFields         = sortable("sku", "name")
	PartnerSortFields         = sortable("name", "type")
	ProductionOrderSortFields = sortable("order_number", "product_name", "status", "quantity", "released_at", "completed_at")
	PurchaseOrderSortFields   = sortable("order_number", "order_date", "vendor_name", "status", "received_at")
)
