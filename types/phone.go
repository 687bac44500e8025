package types

import "fmt"

const (
	// MaxPhoneNumber is the largest accepted subscriber number.
	MaxPhoneNumber = 2147483647
	// MaxAreaCode is the largest accepted area code.
	MaxAreaCode = 32767
	// MaxCountryCodeLen is the maximum length of a country code such as "+55".
	MaxCountryCodeLen = 4
)

// Phone is a phone number owned by exactly one account.
type Phone struct {
	// ID is the unique identifier of the phone row.
	ID int `json:"-" db:"id"`

	// AccountID identifies the owning account.
	AccountID int `json:"-" db:"account_id"`

	// Number is the subscriber number.
	Number int64 `json:"number" db:"number"`

	// AreaCode is the regional prefix.
	AreaCode int `json:"area_code" db:"area_code"`

	// CountryCode is the international prefix, e.g. "+55".
	CountryCode string `json:"country_code" db:"country_code"`
}

func (p Phone) String() string {
	return fmt.Sprintf("%s %d %d", p.CountryCode, p.AreaCode, p.Number)
}
