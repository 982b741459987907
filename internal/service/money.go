package service

import (
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// qrisTolerance is the largest difference accepted between a QRIS amount
// paid and the amount due.
var qrisTolerance = decimal.New(1, -2)

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}

// NumericToDecimal converts a nullable NUMERIC column. NULL maps to zero.
func NumericToDecimal(n pgtype.Numeric) decimal.Decimal { return numericToDecimal(n) }

// DecimalToNumeric converts a decimal to a NUMERIC(12,2) parameter.
func DecimalToNumeric(d decimal.Decimal) pgtype.Numeric { return decimalToNumeric(d) }
