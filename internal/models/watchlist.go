package models

import "time"

// WatchItem is a CUSIP a user follows without holding it
type WatchItem struct {
	ID        int       `json:"id"`
	CUSIP     string    `json:"cusip"`
	AssetType AssetType `json:"asset_type"`
	CreatedBy int       `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// WatchItemWithData merges a watch item with live reference data. Values
// are display numbers; nil means the bridge returned nothing usable.
type WatchItemWithData struct {
	ID                    int       `json:"id"`
	CUSIP                 string    `json:"cusip"`
	AssetType             AssetType `json:"asset_type"`
	Issuer                *string   `json:"issuer"`
	DealName              *string   `json:"deal_name"`
	DisplayName           *string   `json:"display_name"`
	SpreadCoupon          *float64  `json:"spread_coupon"`
	Maturity              *string   `json:"maturity"`
	PxBid                 *float64  `json:"px_bid"`
	PxAsk                 *float64  `json:"px_ask"`
	YldCnvBid             *float64  `json:"yld_cnv_bid"`
	DMZSpread             *float64  `json:"dm_zspread"`
	ChgNet1D              *float64  `json:"chg_net_1d"`
	ChgNet5D              *float64  `json:"chg_net_5d"`
	ChgNet1M              *float64  `json:"chg_net_1m"`
	ChgNet6M              *float64  `json:"chg_net_6m"`
	ChgNetYTD             *float64  `json:"chg_net_ytd"`
	IntervalHigh          *float64  `json:"interval_high"`
	IntervalLow           *float64  `json:"interval_low"`
	PaymentRank           *string   `json:"payment_rank"`
	RtgMoodyLongTerm      *string   `json:"rtg_moody_long_term"`
	RtgMoody              *string   `json:"rtg_moody"`
	RtgSPLTLCIssuerCredit *string   `json:"rtg_sp_lt_lc_issuer_credit"`
	RtgSP                 *string   `json:"rtg_sp"`
	AmtOutstanding        *float64  `json:"amt_outstanding"`
	Error                 *string   `json:"error"`
}
