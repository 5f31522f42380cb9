package service

import "fund8r-engine/internal/entity"

// Breach reasons recorded on the challenge and surfaced to the user.
const (
	ReasonMaxDrawdown = "Maximum Drawdown Exceeded"
	ReasonDailyLoss   = "Daily Loss Limit Exceeded"
	ReasonLotSize     = "Lot Size Limit Exceeded"
)

// Human-readable rule labels used in warnings and notifications.
const (
	WarningTypeDrawdown  = "Maximum Drawdown"
	WarningTypeDailyLoss = "Daily Loss"
)

// warningThresholds are checked highest-first so a large move fires only the
// most severe crossed threshold.
var warningThresholds = []int{90, 75, 50}

// Fixed pip-value model: 4-decimal FX pricing, $10 per pip per standard lot.
const (
	pipMultiplier = 10000.0
	pipValue      = 10.0
)

// CalcProfitLoss computes a closed trade's P&L under the fixed pip-value
// model. Sell trades profit when price falls.
func CalcProfitLoss(orderType entity.OrderType, openPrice, closePrice, lotSize float64) float64 {
	pips := (closePrice - openPrice) * pipMultiplier
	if orderType == entity.OrderTypeSell {
		pips = -pips
	}
	return pips * pipValue * lotSize
}

// maxLotSizes caps position size per nominal account size.
var maxLotSizes = map[float64]float64{
	5000:   0.5,
	10000:  1.0,
	25000:  2.5,
	50000:  5.0,
	100000: 10.0,
	200000: 20.0,
}

// MaxLotSize returns the lot-size cap for an account size, defaulting to 1.0
// for sizes outside the product catalog.
func MaxLotSize(accountSize float64) float64 {
	if max, ok := maxLotSizes[accountSize]; ok {
		return max
	}
	return 1.0
}

// DrawdownReference returns the balance the drawdown breach point is computed
// from: the trailing high-water mark once funded, the fixed starting capital
// during evaluation phases.
func DrawdownReference(challenge *entity.Challenge) float64 {
	if challenge.Phase == entity.PhaseFunded {
		return challenge.HighestBalance
	}
	return challenge.AccountSize
}
