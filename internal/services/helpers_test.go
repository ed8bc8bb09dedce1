package services

import (
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
)

// decimalArg matches a decimal query argument by value rather than representation.
type decimalArg struct {
	want decimal.Decimal
}

func (a decimalArg) Match(v interface{}) bool {
	d, ok := v.(decimal.Decimal)
	return ok && d.Equal(a.want)
}

func decEq(s string) decimalArg {
	return decimalArg{want: decimal.RequireFromString(s)}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr[T any](v T) *T {
	return &v
}

var fixedNow = time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)

func fixedClock() time.Time {
	return fixedNow
}

var anyArg = pgxmock.AnyArg
