package tipstrr

import (
	"encoding/json"
	"strconv"
	"strings"
)

// TipStub is one item of the completed-tips listing. The listing carries more
// fields but only the reference is needed to drive the detail fetch.
type TipStub struct {
	Reference string `json:"reference"`
}

// TipDetail is the response of /api/portfolio/{tipster}/tips/cached/{reference}.
type TipDetail struct {
	Title      string       `json:"title"`
	TipDate    string       `json:"tipDate"`
	Result     int          `json:"result"`
	Profit     FlexString   `json:"profit"`
	TipBet     []TipBet     `json:"tipBet"`
	TipBetItem []TipBetItem `json:"tipBetItem"`
}

type TipBet struct {
	Odds FlexString `json:"odds"`
}

type TipBetItem struct {
	MarketText       string `json:"marketText"`
	BetText          string `json:"betText"`
	FixtureReference string `json:"fixtureReference"`
}

// FixtureDetail is the response of /api/fixture/{fixtureReference}.
type FixtureDetail struct {
	HomeTeam    NamedEntity `json:"homeTeam"`
	AwayTeam    NamedEntity `json:"awayTeam"`
	Sport       NamedEntity `json:"sport"`
	Competition NamedEntity `json:"competition"`
}

type NamedEntity struct {
	Name string `json:"name"`
}

// FlexString tolerates the API's loose typing: odds and profit arrive as either
// a JSON string or a number, occasionally null. Decoding never fails, the raw
// token is kept as-is.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*f = ""
		return nil
	}
	*f = FlexString(raw)
	return nil
}

func (f FlexString) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(f))
}

// Float parses the value as a decimal number. Empty or non-numeric values
// coerce to 0.
func (f FlexString) Float() float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(string(f)), 64)
	if err != nil {
		return 0
	}
	return v
}
