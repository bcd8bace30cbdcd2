package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrValidation marks input rejected before it reaches storage
var ErrValidation = errors.New("validation failed")

// Stored ledger numbers are NUMERIC(20, 4)
const ledgerScale = 4

var ledgerLimit = decimal.New(1, 16)

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// checkStored rejects values the ledger columns would round or overflow
func checkStored(field string, d decimal.Decimal) error {
	if !d.Equal(d.Round(ledgerScale)) {
		return invalid("%s allows at most %d decimal places", field, ledgerScale)
	}
	if d.Abs().GreaterThanOrEqual(ledgerLimit) {
		return invalid("%s is out of range", field)
	}
	return nil
}

// Validate checks the fields required to store an asset
func (a *Asset) Validate() error {
	a.CUSIP = strings.TrimSpace(a.CUSIP)
	if a.CUSIP == "" {
		return invalid("cusip is required")
	}
	if !a.Type.Valid() {
		return invalid("unknown asset type %q", a.Type)
	}
	if strings.TrimSpace(a.DisplayName) == "" {
		return invalid("display_name is required")
	}
	if a.Mark.Valid {
		if a.Mark.Decimal.IsNegative() {
			return invalid("mark must not be negative")
		}
		if err := checkStored("mark", a.Mark.Decimal); err != nil {
			return err
		}
	}
	if a.SpreadCoupon.Valid {
		if err := checkStored("spread_coupon", a.SpreadCoupon.Decimal); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the fields required to book a trade. With strictDirection
// unknown direction codes are rejected; otherwise they are stored as given.
func (t *Trade) Validate(strictDirection bool) error {
	if t.AssetID <= 0 {
		return invalid("asset_id is required")
	}
	if strings.TrimSpace(t.Direction) == "" {
		return invalid("direction is required")
	}
	if strictDirection && !KnownDirection(t.Direction) {
		return invalid("unknown direction %q", t.Direction)
	}
	if !t.Quantity.IsPositive() {
		return invalid("quantity must be positive")
	}
	if err := checkStored("quantity", t.Quantity); err != nil {
		return err
	}
	if t.Price.IsNegative() {
		return invalid("price must not be negative")
	}
	if err := checkStored("price", t.Price); err != nil {
		return err
	}
	if t.TradeDate.IsZero() {
		return invalid("trade_date is required")
	}
	if t.SettleDate.IsZero() {
		return invalid("settle_date is required")
	}
	if t.SettleDate.Before(t.TradeDate.Time) {
		return invalid("settle_date must not be before trade_date")
	}
	if t.AssetType != "" && !t.AssetType.Valid() {
		return invalid("unknown asset type %q", t.AssetType)
	}
	return nil
}

// Validate checks a watch list entry
func (w *WatchItem) Validate() error {
	w.CUSIP = strings.TrimSpace(w.CUSIP)
	if w.CUSIP == "" {
		return invalid("cusip is required")
	}
	if !w.AssetType.Valid() {
		return invalid("unknown asset type %q", w.AssetType)
	}
	return nil
}
