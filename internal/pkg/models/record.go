package models

// Record is one completed tip, normalized from the tip detail and fixture
// responses. Profit is always recomputed from odds and result code; the
// site's own profit value is kept alongside as OriginalProfit for comparison.
type Record struct {
	EventDate      string  `json:"event_date"`
	EventTime      string  `json:"event_time"`
	HomeTeam       string  `json:"home_team"`
	AwayTeam       string  `json:"away_team"`
	Match          string  `json:"match"`
	Sport          string  `json:"sport"`
	League         string  `json:"league"`
	Market         string  `json:"market"`
	Bet            string  `json:"bet"`
	Odds           string  `json:"odds"`
	Result         string  `json:"result"`
	Profit         float64 `json:"profit"`
	OriginalProfit string  `json:"original_profit"`
	RawResultCode  int     `json:"raw_result_code"`
	Reference      string  `json:"reference"`
}
