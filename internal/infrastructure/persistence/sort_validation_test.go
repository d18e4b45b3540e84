package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	for input, want := range map[string]string{
		"":            "DESC",
		"asc":         "ASC",
		" ASC ":       "ASC",
		"desc":        "DESC",
		"ascending":   "DESC",
		"ASC; DROP":   "DESC",
		"asc nulls 1": "DESC",
	} {
		assert.Equal(t, want, ValidateSortOrder(input), "input %q", input)
	}
}

func TestValidateSortField(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "created_at"},
		{"balance", "balance"},
		{"  reorder_threshold ", "reorder_threshold"},
		{"BALANCE", "created_at"},
		{"colour_code", "created_at"},
		{"balance DESC", "created_at"},
		{"balance; DELETE FROM ledger_entries", "created_at"},
		{"(SELECT balance FROM material_accounts)", "created_at"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidateSortField(tt.input, MaterialAccountSortFields, "created_at"), "input %q", tt.input)
	}
}

func TestSortWhitelists(t *testing.T) {
	whitelists := map[string]struct {
		allowed map[string]bool
		domain  []string
	}{
		"accounts":          {MaterialAccountSortFields, []string{"code", "balance", "reorder_threshold"}},
		"products":          {ProductSortFields, []string{"sku", "name"}},
		"partners":          {PartnerSortFields, []string{"name", "type"}},
		"production orders": {ProductionOrderSortFields, []string{"order_number", "status", "completed_at"}},
		"purchase orders":   {PurchaseOrderSortFields, []string{"order_number", "order_date", "vendor_name"}},
	}

	for name, wl := range whitelists {
		t.Run(name, func(t *testing.T) {
			for _, f := range append([]string{"id", "created_at", "updated_at"}, wl.domain...) {
				assert.True(t, wl.allowed[f], "%s should sort by %s", name, f)
			}
		})
	}

	t.Run("whitelists do not share state", func(t *testing.T) {
		assert.False(t, ProductSortFields["balance"])
		assert.False(t, PartnerSortFields["sku"])
	})
}
