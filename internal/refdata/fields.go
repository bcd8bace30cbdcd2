package refdata

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/oms-service/internal/models"
)

// Bridge field mnemonics
const (
	fieldIssuer         = "ISSUER"
	fieldDealName       = "DEAL_NAME"
	fieldName           = "NAME"
	fieldSecurityDes    = "SECURITY_DES"
	fieldLoanMargin     = "LN_CURRENT_MARGIN"
	fieldCoupon         = "CPN"
	fieldMaturity       = "MATURITY"
	fieldPxBid          = "PX_BID"
	fieldPxAsk          = "PX_ASK"
	fieldYldCnvBid      = "YLD_CNV_BID"
	fieldDiscMarginBid  = "DISC_MRGN_BID"
	fieldZSpread        = "YAS_ZSPREAD"
	fieldChgNet1D       = "CHG_NET_1D"
	fieldChgNet5D       = "CHG_NET_5D"
	fieldChgNet1M       = "CHG_NET_1M"
	fieldChgNet6M       = "CHG_NET_6M"
	fieldChgNetYTD      = "CHG_NET_YTD"
	fieldIntervalHigh   = "INTERVAL_HIGH"
	fieldIntervalLow    = "INTERVAL_LOW"
	fieldPaymentRank    = "PAYMENT_RANK"
	fieldMoodyLongTerm  = "RTG_MOODY_LONG_TERM"
	fieldMoody          = "RTG_MOODY"
	fieldSPIssuerCredit = "RTG_SP_LT_LC_ISSUER_CREDIT"
	fieldSP             = "RTG_SP"
	fieldAmtOutstanding = "AMT_OUTSTANDING"
	fieldLastPrice      = "LAST_PRICE"
	fieldChgPct1D       = "CHG_PCT_1D"
	fieldChgPct5D       = "CHG_PCT_5D"
	fieldChgPct1M       = "CHG_PCT_1M"
	fieldChgPct6M       = "CHG_PCT_6M"
	fieldChgPctYTD      = "CHG_PCT_YTD"
)

var loanWatchFields = []string{
	fieldIssuer, fieldDealName, fieldLoanMargin, fieldMaturity,
	fieldPxBid, fieldPxAsk, fieldYldCnvBid, fieldDiscMarginBid,
	fieldChgNet1D, fieldChgNet5D, fieldChgNet1M, fieldChgNet6M, fieldChgNetYTD,
	fieldIntervalHigh, fieldIntervalLow, fieldPaymentRank,
	fieldMoodyLongTerm, fieldMoody, fieldSPIssuerCredit, fieldSP, fieldAmtOutstanding,
}

var bondWatchFields = []string{
	fieldIssuer, fieldName, fieldSecurityDes, fieldCoupon, fieldMaturity,
	fieldPxBid, fieldPxAsk, fieldYldCnvBid, fieldZSpread,
	fieldChgNet1D, fieldChgNet5D, fieldChgNet1M, fieldChgNet6M, fieldChgNetYTD,
	fieldIntervalHigh, fieldIntervalLow, fieldPaymentRank,
	fieldMoodyLongTerm, fieldMoody, fieldSPIssuerCredit, fieldSP, fieldAmtOutstanding,
}

// watchFieldMaps lists the fields requested for watch list enrichment
var watchFieldMaps = map[models.AssetType][]string{
	models.AssetTypeTermLoan:       loanWatchFields,
	models.AssetTypeCorporateBond:  bondWatchFields,
	models.AssetTypeGovernmentBond: bondWatchFields,
}

// assetDataFieldMaps lists the fields used to prefill a new asset
var assetDataFieldMaps = map[models.AssetType][]string{
	models.AssetTypeTermLoan: {
		fieldIssuer, fieldDealName, fieldLoanMargin, fieldMaturity,
		fieldPaymentRank, fieldMoodyLongTerm, fieldMoody,
		fieldSPIssuerCredit, fieldSP, fieldAmtOutstanding,
	},
	models.AssetTypeCorporateBond: {
		fieldIssuer, fieldName, fieldCoupon, fieldMaturity,
		fieldPaymentRank, fieldMoodyLongTerm, fieldMoody,
		fieldSPIssuerCredit, fieldSP, fieldAmtOutstanding,
	},
}

// MacroFields are requested for every macro ticker
var MacroFields = []string{
	fieldLastPrice,
	fieldChgNet1D,
	fieldChgPct1D,
	fieldChgPct5D,
	fieldChgPct1M,
	fieldChgPct6M,
	fieldChgPctYTD,
}

// MacroGroup is a labelled set of macro tickers
type MacroGroup struct {
	Name    string
	Tickers []string
}

// MacroGroups is the fixed macro panel layout, in display order
var MacroGroups = []MacroGroup{
	{Name: "Equities", Tickers: []string{"ESA Index", "NQA Index", "RTYA Index"}},
	{Name: "Volatility", Tickers: []string{"VIX Index", "MOVE Index"}},
	{Name: "Credit", Tickers: []string{"IG/Gen Corp", "HY/GEN SPRD Corp"}},
	{Name: "Rates", Tickers: []string{"GT2 Govt", "GT5 Govt", "GT10 Govt", "GT30 Govt"}},
	{Name: "Commodities", Tickers: []string{"CLA Comdty", "GCA Comdty"}},
	{Name: "Currencies", Tickers: []string{"DXY Curncy", "EUR Curncy", "GBP Curncy", "JPY Curncy", "BTC Curncy"}},
}

// SecurityKey is the bridge identifier for a CUSIP
func SecurityKey(cusip string) string {
	return cusip + " Corp"
}

// parseNumber reads a bridge value as a decimal. A trailing percent sign is
// dropped; anything unparseable is absent.
func parseNumber(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSuffix(strings.TrimSpace(raw), "%")
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

func number(raw string) *float64 {
	d, ok := parseNumber(raw)
	if !ok {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}

func rounded(raw string) *float64 {
	d, ok := parseNumber(raw)
	if !ok {
		return nil
	}
	f := d.Round(2).InexactFloat64()
	return &f
}

func text(raw string) *string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return &raw
}
