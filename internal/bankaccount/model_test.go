package bankaccount

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidRoutingNumber(t *testing.T) {
	tests := []struct {
		name    string
		routing string
		valid   bool
	}{
		{"JPMorgan Chase NY", "021000021", true},
		{"Bank of America", "026009593", true},
		{"Wells Fargo", "121000248", true},
		{"checksum off by one", "021000022", false},
		{"too short", "0210000", false},
		{"too long", "0210000210", false},
		{"non-digit characters", "02100002a", false},
		{"empty", "", false},
		{"all zeros passes checksum", "000000000", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidRoutingNumber(tt.routing))
		})
	}
}

func TestMask_HidesAccountNumber(t *testing.T) {
	account := BankAccount{
		ID:               1,
		CoachID:          2,
		AccountHolder:    "Coach Smith",
		BankName:         "Test Bank",
		RoutingNumber:    "021000021",
		AccountNumberEnc: "opaque-ciphertext",
		AccountLast4:     "6789",
		IsVerified:       true,
	}

	masked := account.Mask()
	assert.Equal(t, "****6789", masked.AccountNumber)
	assert.NotContains(t, masked.AccountNumber, "opaque")
}
