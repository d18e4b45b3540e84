package partner

import (
	"testing"

	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPartner(t *testing.T) {
	tests := []struct {
		name        string
		partnerName string
		partnerType PartnerType
		wantErr     bool
	}{
		{"supplier", "Acme Fibres", PartnerTypeSupplier, false},
		{"both", "Dual Trade", PartnerTypeBoth, false},
		{"buyer", "Retail Co", PartnerTypeBuyer, false},
		{"empty name", "  ", PartnerTypeSupplier, true},
		{"bad type", "Acme", PartnerType("VENDOR"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPartner(tt.partnerName, tt.partnerType)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, shared.KindValidation, shared.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.partnerType, p.Type)
		})
	}
}

func TestPartner_CanSupply(t *testing.T) {
	supplier, _ := NewPartner("A", PartnerTypeSupplier)
	both, _ := NewPartner("B", PartnerTypeBoth)
	buyer, _ := NewPartner("C", PartnerTypeBuyer)

	assert.True(t, supplier.CanSupply())
	assert.True(t, both.CanSupply())
	assert.False(t, buyer.CanSupply())

	assert.NoError(t, both.EnsureSupplier())
	err := buyer.EnsureSupplier()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a supplier")
}

func TestParsePartnerType(t *testing.T) {
	pt, err := ParsePartnerType(" both ")
	require.NoError(t, err)
	assert.Equal(t, PartnerTypeBoth, pt)

	_, err = ParsePartnerType("carrier")
	assert.Error(t, err)
}
