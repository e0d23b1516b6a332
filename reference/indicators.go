package reference

// Category groups indicators on the dashboard.
type Category string

const (
	CategoryMacro     Category = "Macro"
	CategoryMarket    Category = "Market"
	CategoryLiquidity Category = "Liquidity"
	CategoryMicro     Category = "Micro"
)

// Categories in display order.
var Categories = []Category{CategoryMacro, CategoryMarket, CategoryLiquidity, CategoryMicro}

// Impact is the usual direction an indicator pushes G-Sec yields when it rises.
type Impact int

const (
	ImpactMixed Impact = iota
	ImpactRaises
	ImpactLowers
)

func (i Impact) String() string {
	switch i {
	case ImpactRaises:
		return "Raises Yield"
	case ImpactLowers:
		return "Lowers Yield"
	default:
		return "Mixed Effect"
	}
}

// Symbol returns the arrow used in compact tables.
func (i Impact) Symbol() string {
	switch i {
	case ImpactRaises:
		return "↑"
	case ImpactLowers:
		return "↓"
	default:
		return "↕"
	}
}

type Indicator struct {
	Name     string
	Short    string
	Category Category
	Impact   Impact
	Summary  string
}

var indicators = []Indicator{
	{"GDP Growth Rate", "GDP", CategoryMacro, ImpactRaises, "Faster growth lowers safe-haven demand for bonds."},
	{"Inflation Rate (CPI)", "CPI", CategoryMacro, ImpactRaises, "Overshoots of the 4% target price in RBI tightening."},
	{"RBI Repo Rate", "Repo", CategoryMacro, ImpactRaises, "Policy rate anchoring the yield curve, fed in lagged."},
	{"Exchange Rate (USD/INR)", "FX", CategoryMacro, ImpactRaises, "Rupee weakness imports inflation and triggers FII outflows."},
	{"Fiscal Deficit (% GDP)", "FD", CategoryMacro, ImpactRaises, "Wider deficits mean more G-Sec supply."},
	{"Current Account Balance", "CAB", CategoryMacro, ImpactRaises, "A wide CAD raises the sovereign risk premium."},
	{"Trade Balance", "TB", CategoryMacro, ImpactRaises, "Monthly proxy for current account deterioration."},
	{"Money Supply (M3)", "M3", CategoryMacro, ImpactRaises, "Excess liquidity growth stokes inflation expectations."},
	{"Industrial Production (IIP)", "IIP", CategoryMacro, ImpactRaises, "Strong output reduces the case for rate cuts."},
	{"Foreign Exchange Reserves", "FXR", CategoryMacro, ImpactLowers, "Reserves buffer the rupee and compress risk premia."},
	{"Government Debt-to-GDP", "D/GDP", CategoryMacro, ImpactRaises, "Structural debt load weighs on long-end yields."},
	{"Net FDI Inflows", "FDI", CategoryMacro, ImpactLowers, "Stable inflows improve the balance of payments."},
	{"Capital Account Balance", "KAB", CategoryMacro, ImpactMixed, "Volatile flows dominated by FII debt positioning."},

	{"Crude Oil Price (Brent)", "OIL", CategoryMarket, ImpactRaises, "Oil drives the import bill, inflation and deficits."},
	{"Gold Prices (MCX)", "GOLD", CategoryMarket, ImpactLowers, "Co-safe-haven that rallies with bonds in risk-off."},
	{"Stock Market (NIFTY 50)", "EQ", CategoryMarket, ImpactRaises, "Equity rallies rotate money out of bonds."},
	{"Corporate Bond Spreads", "CS", CategoryMarket, ImpactLowers, "Credit stress sends flows into G-Secs."},
	{"Yield Curve Slope (10Y-1Y)", "YCS", CategoryMarket, ImpactMixed, "Steepness signals growth and policy expectations."},
	{"Net FII Debt Flows", "FII", CategoryMarket, ImpactMixed, "Foreign demand for Indian debt."},

	{"RBI Repo Rate", "RR", CategoryLiquidity, ImpactRaises, "Short-term lending rate of the RBI."},
	{"Reverse Repo / SDF Rate", "SDF", CategoryLiquidity, ImpactLowers, "Floor of the liquidity corridor."},
	{"Cash Reserve Ratio (CRR)", "CRR", CategoryLiquidity, ImpactRaises, "Hikes drain banking system liquidity."},
	{"Statutory Liquidity Ratio", "SLR", CategoryLiquidity, ImpactLowers, "Creates captive bank demand for G-Secs."},
	{"LAF Net Liquidity", "LAF", CategoryLiquidity, ImpactLowers, "Surplus liquidity compresses short-end yields."},
	{"RBI OMO Operations", "OMO", CategoryLiquidity, ImpactLowers, "Open market purchases lift G-Sec prices."},
	{"Money Market Rate (MIBOR)", "MIBOR", CategoryLiquidity, ImpactRaises, "Anchors the short end of the curve."},
	{"Bank Credit Growth", "BCG", CategoryLiquidity, ImpactRaises, "Credit demand competes with G-Sec investment."},

	{"WPI Inflation", "WPI", CategoryMicro, ImpactRaises, "Producer prices lead CPI by a few months."},
	{"PMI Composite", "PMI", CategoryMicro, ImpactRaises, "Activity survey, above 50 is expansion."},
	{"T-Bill Yield (91-day)", "T91", CategoryMicro, ImpactRaises, "Risk-free short rate benchmark."},
	{"OIS Rate (1Y)", "OIS", CategoryMicro, ImpactRaises, "Market estimate of future policy rates."},
	{"G-Sec Traded Volume", "VOL", CategoryMicro, ImpactMixed, "Depth of price discovery on NDS-OM."},
	{"SDL Spread (10Y)", "SDL", CategoryMicro, ImpactRaises, "State borrowing stress spills into central yields."},
}

// Indicators returns every indicator in catalog order.
func Indicators() []Indicator {
	out := make([]Indicator, len(indicators))
	copy(out, indicators)
	return out
}

// IndicatorsByCategory groups the catalog by category, keeping catalog order within each
// group.
func IndicatorsByCategory() map[Category][]Indicator {
	out := make(map[Category][]Indicator, len(Categories))
	for _, ind := range indicators {
		out[ind.Category] = append(out[ind.Category], ind)
	}
	return out
}

// LookupIndicator finds an indicator by its short code. Codes are unique across the catalog.
func LookupIndicator(short string) (Indicator, bool) {
	for _, ind := range indicators {
		if ind.Short == short {
			return ind, true
		}
	}
	return Indicator{}, false
}
