package tipstrr

import "fmt"

// Result codes as tipstrr reports them.
const (
	resultWin     = 1
	resultLose    = 2
	resultVoid    = 3
	resultUnknown = 4
	resultRefund  = 5
)

// ResultLabel maps a raw result code to the display label. Void (3) and
// unknown (4) are reported as "Lose" on purpose: both settle the bet at a
// full stake loss in our accounting, see Profit.
func ResultLabel(code int) string {
	switch code {
	case resultWin:
		return "Win"
	case resultLose, resultVoid, resultUnknown:
		return "Lose"
	case resultRefund:
		return "Unknown(5)"
	default:
		return fmt.Sprintf("Unknown (%d)", code)
	}
}

// Profit recomputes the per-unit profit from the odds and result code. The
// site's own profit figure is inconsistent and is never used here.
//
// Win pays odds-1 per unit staked (a recorded win with missing or zero odds
// yields 0, not a negative stake). Code 5 is a stake refund. Everything else,
// including unrecognized codes, is a full stake loss.
func Profit(odds FlexString, code int) float64 {
	o := odds.Float()
	switch code {
	case resultWin:
		if o > 0 {
			return o - 1
		}
		return 0
	case resultRefund:
		return 0.0
	default:
		return -1.0
	}
}
