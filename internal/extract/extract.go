// Package extract turns raw scoreboard snapshots into structured game records.
//
// A shared base extraction pulls the fields common to every sport; per-sport
// parsers layer structured sub-scores on top. Parsers are selected from a
// registry keyed by sport name.
package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/sports-iot/scorewatch/internal/scoreboard"
)

// Matches a date with optional time, e.g. 10/12/2024 or 10/12/2024 7:05 PM.
var dateTimePattern = regexp.MustCompile(`(\d{2}/\d{2}/\d{4})(?:\s+(\d{1,2}:\d{2}\s+(?:AM|PM)))?`)

// Parser extracts one team's game record from its isolated scoreboard column.
type Parser interface {
	Parse(sel *goquery.Selection) (scoreboard.GameRecord, error)
}

// Registry maps sport names to their parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry builds a registry with the built-in sport parsers.
func NewRegistry(clock scoreboard.Clock) *Registry {
	b := base{clock: clock}
	return &Registry{parsers: map[string]Parser{
		"Volleyball (W)": volleyball{b},
		"Basketball (M)": basketball{b},
		"Basketball (W)": basketball{b},
		"Baseball":       baseball{b},
		"Football":       b,
		"Soccer (W)":     b,
		"Soccer (M)":     b,
	}}
}

// Register adds or replaces the parser for a sport.
func (r *Registry) Register(sport string, p Parser) {
	r.parsers[sport] = p
}

// Parse extracts a record for the sport, falling back to the base parser for
// sports without a dedicated one.
func (r *Registry) Parse(sport string, sel *goquery.Selection) (scoreboard.GameRecord, error) {
	p, ok := r.parsers[sport]
	if !ok {
		return scoreboard.GameRecord{}, fmt.Errorf("no parser registered for sport %q", sport)
	}
	rec, err := p.Parse(sel)
	if err != nil {
		return scoreboard.GameRecord{}, err
	}
	rec.Sport = sport
	return rec, nil
}

// base extracts the fields every sport shares.
type base struct {
	clock scoreboard.Clock
}

// Parse implements Parser for sports without structured sub-scores.
func (b base) Parse(sel *goquery.Selection) (scoreboard.GameRecord, error) {
	return b.extract(sel)
}

func (b base) extract(sel *goquery.Selection) (scoreboard.GameRecord, error) {
	if sel == nil || sel.Length() == 0 {
		return scoreboard.GameRecord{}, fmt.Errorf("empty team column")
	}

	rec := scoreboard.GameRecord{
		ScheduledAt: b.scheduledAt(sel),
		Attendance:  attendance(sel),
	}

	liveLink := sel.Find(`a[target="LIVE_BOX_SCORE"]`).First()
	period := sel.Find(`span[id^="period_"]`).First()
	clockEl := sel.Find(`span[id^="clock_"]`).First()

	teams, points, scoresRendered := teamRows(sel)
	if len(teams) > 0 {
		rec.AwayTeam = teams[0]
	}
	if len(teams) > 1 {
		rec.HomeTeam = teams[1]
	}
	if scoresRendered {
		rec.Score.Points = points
	}

	switch {
	case liveLink.Length() > 0 && !scoresRendered:
		// Live link but nothing on the board yet.
		rec.Status = scoreboard.StatusNotStarted
		rec.GameLink, _ = liveLink.Attr("href")
	case period.Length() > 0:
		phase := strings.TrimSpace(period.Text())
		if phase == "F" || phase == "Final" {
			rec.Status = scoreboard.StatusFinal
			rec.GameLink = boxScoreLink(sel)
		} else {
			rec.Status = scoreboard.StatusInProgress
			rec.CurrentPeriod = phase
			rec.CurrentClock = "Unknown"
			if c := strings.TrimSpace(clockEl.Text()); c != "" {
				rec.CurrentClock = c
			}
			rec.GameLink, _ = liveLink.Attr("href")
		}
	default:
		// No period indicator at all: treat as a completed game. This is a
		// heuristic carried over from the page layout; see DESIGN.md.
		rec.Status = scoreboard.StatusFinal
		rec.GameLink = boxScoreLink(sel)
	}

	if rec.Status == scoreboard.StatusFinal {
		rec.Winner = winner(teams, rec.Score)
	}
	return rec, nil
}

// scheduledAt parses the game's date/time, defaulting to today at midnight
// UTC when the page renders none.
func (b base) scheduledAt(sel *goquery.Selection) time.Time {
	m := dateTimePattern.FindStringSubmatch(sel.Text())
	if m == nil {
		now := b.clock.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	if m[2] != "" {
		if t, err := time.Parse("01/02/2006 3:04 PM", m[1]+" "+m[2]); err == nil {
			return t.UTC()
		}
	}
	t, err := time.Parse("01/02/2006", m[1])
	if err != nil {
		now := b.clock.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	return t.UTC()
}

// attendance returns the attendance count, or nil when absent or non-numeric.
func attendance(sel *goquery.Selection) *int {
	text := strings.TrimSpace(sel.Find("div.col.p-0.text-right").First().Text())
	text = strings.TrimPrefix(text, "Attend:")
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	n, err := strconv.Atoi(text)
	if err != nil {
		return nil
	}
	return &n
}

// teamRows collects team names and headline scores from the contest rows,
// away row first. scoresRendered is true when any score cell has content.
func teamRows(sel *goquery.Selection) (teams []string, points []int, scoresRendered bool) {
	sel.Find(`div[id^="score_"]`).EachWithBreak(func(_ int, cell *goquery.Selection) bool {
		if strings.TrimSpace(cell.Text()) != "" {
			scoresRendered = true
			return false
		}
		return true
	})

	sel.Find(`tr[id^="contest_"]`).Each(func(_ int, row *goquery.Selection) {
		if name := strings.TrimSpace(row.Find("td.opponents_min_width").First().Text()); name != "" {
			name, _, _ = strings.Cut(name, " (")
			teams = append(teams, name)
		}
		score := strings.TrimSpace(row.Find("div.p-1").First().Text())
		if n, err := strconv.Atoi(strings.ReplaceAll(score, ",", "")); err == nil {
			points = append(points, n)
		}
	})
	return teams, points, scoresRendered
}

func boxScoreLink(sel *goquery.Selection) string {
	href, _ := sel.Find(`a[target^="box_score_"]`).First().Attr("href")
	return href
}

// winner derives the winning team for a final game. Two numeric scores are
// required; anything else yields no winner.
func winner(teams []string, score scoreboard.Score) string {
	if len(teams) < 2 || len(score.Points) < 2 {
		return ""
	}
	switch {
	case score.Points[0] == score.Points[1]:
		return scoreboard.WinnerTie
	case score.Points[0] > score.Points[1]:
		return teams[0]
	default:
		return teams[1]
	}
}

// linescore parses the structured sub-score table. Missing or malformed
// tables produce nil, never an error; the base record stands on its own.
func linescore(sel *goquery.Selection) [][]int {
	table := sel.Find(`table[id^="linescore_"][id$="_table"]`).First()
	if table.Length() == 0 {
		return nil
	}
	var rows [][]int
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var row []int
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			if n, err := strconv.Atoi(strings.TrimSpace(td.Text())); err == nil {
				row = append(row, n)
			}
		})
		if len(row) > 0 {
			rows = append(rows, row)
		}
	})
	return rows
}
