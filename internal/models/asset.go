package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetType is the instrument type of an asset
type AssetType string

// Asset type constants
const (
	AssetTypeBond                = AssetType("Bond")
	AssetTypeStock               = AssetType("Stock")
	AssetTypeOther               = AssetType("Other")
	AssetTypeCorporateBond       = AssetType("Corporate Bond")
	AssetTypeGovernmentBond      = AssetType("Government Bond")
	AssetTypeTermLoan            = AssetType("Term Loan")
	AssetTypeRevolver            = AssetType("Revolver")
	AssetTypeEquity              = AssetType("Equity")
	AssetTypeEquityOption        = AssetType("Equity Option")
	AssetTypeTradeClaim          = AssetType("Trade Claim")
	AssetTypeSingleNameCDS       = AssetType("Single Name CDS")
	AssetTypeIndexCDS            = AssetType("Index CDS")
	AssetTypeDelayedDrawTermLoan = AssetType("Delayed Draw Term Loan")
)

// AssetTypes lists every accepted asset type
var AssetTypes = []AssetType{
	AssetTypeBond,
	AssetTypeStock,
	AssetTypeOther,
	AssetTypeCorporateBond,
	AssetTypeGovernmentBond,
	AssetTypeTermLoan,
	AssetTypeRevolver,
	AssetTypeEquity,
	AssetTypeEquityOption,
	AssetTypeTradeClaim,
	AssetTypeSingleNameCDS,
	AssetTypeIndexCDS,
	AssetTypeDelayedDrawTermLoan,
}

// bondLike types are quoted per 100 of face value
var bondLike = map[AssetType]bool{
	AssetTypeCorporateBond:       true,
	AssetTypeGovernmentBond:      true,
	AssetTypeTermLoan:            true,
	AssetTypeRevolver:            true,
	AssetTypeDelayedDrawTermLoan: true,
}

// Valid reports whether t is one of the known asset types
func (t AssetType) Valid() bool {
	for _, known := range AssetTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IsBondLike reports whether prices for t are quoted per 100 face.
// Empty and unknown types are unit-quoted.
func (t AssetType) IsBondLike() bool {
	return bondLike[t]
}

// Asset is a security in the asset catalog
type Asset struct {
	ID                int                 `json:"id"`
	CUSIP             string              `json:"cusip"`
	Type              AssetType           `json:"type"`
	DisplayName       string              `json:"display_name"`
	Issuer            string              `json:"issuer,omitempty"`
	DealName          string              `json:"deal_name,omitempty"`
	SpreadCoupon      decimal.NullDecimal `json:"spread_coupon"`
	Maturity          Date                `json:"maturity"`
	PaymentRank       string              `json:"payment_rank,omitempty"`
	MoodysCFR         string              `json:"moodys_cfr,omitempty"`
	MoodysAsset       string              `json:"moodys_asset,omitempty"`
	SPCFR             string              `json:"sp_cfr,omitempty"`
	SPAsset           string              `json:"sp_asset,omitempty"`
	AmountOutstanding *int64              `json:"amount_outstanding,omitempty"`
	Mark              decimal.NullDecimal `json:"mark"`
	CreatedBy         *int                `json:"created_by,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}
