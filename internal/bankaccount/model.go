package bankaccount

import "time"

type BankAccount struct {
	ID               int64     `db:"id" json:"id"`
	CoachID          int64     `db:"coach_id" json:"coach_id"`
	AccountHolder    string    `db:"account_holder" json:"account_holder"`
	BankName         string    `db:"bank_name" json:"bank_name"`
	RoutingNumber    string    `db:"routing_number" json:"routing_number"`
	AccountNumberEnc string    `db:"account_number_enc" json:"-"`
	AccountLast4     string    `db:"account_last4" json:"-"`
	IsVerified       bool      `db:"is_verified" json:"is_verified"`
	IsDefault        bool      `db:"is_default" json:"is_default"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// Masked is the external representation; the account number never leaves the
// service unencrypted.
type Masked struct {
	ID            int64     `json:"id"`
	CoachID       int64     `json:"coach_id"`
	AccountHolder string    `json:"account_holder"`
	BankName      string    `json:"bank_name"`
	RoutingNumber string    `json:"routing_number"`
	AccountNumber string    `json:"account_number"`
	IsVerified    bool      `json:"is_verified"`
	IsDefault     bool      `json:"is_default"`
	CreatedAt     time.Time `json:"created_at"`
}

func (a *BankAccount) Mask() Masked {
	return Masked{
		ID:            a.ID,
		CoachID:       a.CoachID,
		AccountHolder: a.AccountHolder,
		BankName:      a.BankName,
		RoutingNumber: a.RoutingNumber,
		AccountNumber: "****" + a.AccountLast4,
		IsVerified:    a.IsVerified,
		IsDefault:     a.IsDefault,
		CreatedAt:     a.CreatedAt,
	}
}

type CreateRequest struct {
	AccountHolder string `json:"account_holder" binding:"required"`
	BankName      string `json:"bank_name" binding:"required"`
	RoutingNumber string `json:"routing_number" binding:"required,len=9"`
	AccountNumber string `json:"account_number" binding:"required,min=4,max=17"`
	SetDefault    bool   `json:"set_default"`
}

// ValidRoutingNumber implements the ABA checksum: nine digits with
// (3(d0+d3+d6) + 7(d1+d4+d7) + (d2+d5+d8)) mod 10 == 0.
func ValidRoutingNumber(routing string) bool {
	if len(routing) != 9 {
		return false
	}

	var digits [9]int
	for i, ch := range routing {
		if ch < '0' || ch > '9' {
			return false
		}
		digits[i] = int(ch - '0')
	}

	sum := 3*(digits[0]+digits[3]+digits[6]) +
		7*(digits[1]+digits[4]+digits[7]) +
		(digits[2] + digits[5] + digits[8])

	return sum%10 == 0
}
