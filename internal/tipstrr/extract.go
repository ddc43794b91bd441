package tipstrr

import (
	"strings"
	"time"

	"github.com/Vodeneev/tipstrr-export/internal/pkg/models"
)

// extractRecord builds a normalized Record from a decoded tip detail and an
// optional fixture. fixture may be nil (no linked fixture, or the fixture
// fetch failed); the team/sport/league fields stay empty in that case.
func extractRecord(detail *TipDetail, fixture *FixtureDetail, reference string) models.Record {
	eventDate, eventTime := splitTipDate(detail.TipDate)

	var odds FlexString
	if len(detail.TipBet) > 0 {
		odds = detail.TipBet[0].Odds
	}

	var market, bet string
	if len(detail.TipBetItem) > 0 {
		market = detail.TipBetItem[0].MarketText
		bet = detail.TipBetItem[0].BetText
	}

	var home, away, sport, league string
	if fixture != nil {
		home = fixture.HomeTeam.Name
		away = fixture.AwayTeam.Name
		sport = fixture.Sport.Name
		league = fixture.Competition.Name
	}

	// Tips without a linked fixture usually carry the matchup in the title.
	if home == "" {
		if parts := strings.Split(detail.Title, " v "); len(parts) == 2 {
			home = strings.TrimSpace(parts[0])
			away = strings.TrimSpace(parts[1])
		}
	}

	match := detail.Title
	if home != "" && away != "" {
		match = home + " vs " + away
	}

	return models.Record{
		EventDate:      eventDate,
		EventTime:      eventTime,
		HomeTeam:       home,
		AwayTeam:       away,
		Match:          match,
		Sport:          sport,
		League:         league,
		Market:         market,
		Bet:            bet,
		Odds:           string(odds),
		Result:         ResultLabel(detail.Result),
		Profit:         Profit(odds, detail.Result),
		OriginalProfit: string(detail.Profit),
		RawResultCode:  detail.Result,
		Reference:      reference,
	}
}

var tipDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// splitTipDate splits an ISO-8601-ish timestamp into date and HH:MM parts.
// Unparsable values degrade to the first 10 characters as the date with an
// empty time.
func splitTipDate(raw string) (date, clock string) {
	if raw == "" {
		return "", ""
	}
	for _, layout := range tipDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02"), t.Format("15:04")
		}
	}
	if len(raw) >= 10 {
		return raw[:10], ""
	}
	return raw, ""
}
