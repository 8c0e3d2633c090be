package extract

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sports-iot/scorewatch/internal/scoreboard"
)

// volleyball adds per-set scores from the linescore table.
type volleyball struct {
	base
}

func (p volleyball) Parse(sel *goquery.Selection) (scoreboard.GameRecord, error) {
	rec, err := p.extract(sel)
	if err != nil {
		return scoreboard.GameRecord{}, err
	}
	rec.Score.Detail.SetScores = linescore(sel)
	return rec, nil
}

// basketball adds per-period scores (quarters plus any overtime columns).
type basketball struct {
	base
}

func (p basketball) Parse(sel *goquery.Selection) (scoreboard.GameRecord, error) {
	rec, err := p.extract(sel)
	if err != nil {
		return scoreboard.GameRecord{}, err
	}
	rec.Score.Detail.PeriodScores = linescore(sel)
	return rec, nil
}

// baseball adds per-team hits and errors from the dedicated columns.
type baseball struct {
	base
}

func (p baseball) Parse(sel *goquery.Selection) (scoreboard.GameRecord, error) {
	rec, err := p.extract(sel)
	if err != nil {
		return scoreboard.GameRecord{}, err
	}
	rec.Score.Detail.HitsErrors = hitsErrors(sel)
	return rec, nil
}

// hitsErrors reads the hits/errors columns per contest row. Rows missing
// either cell are skipped rather than failing the extraction.
func hitsErrors(sel *goquery.Selection) [][]int {
	var rows [][]int
	sel.Find(`tr[id^="contest_"]`).Each(func(_ int, tr *goquery.Selection) {
		hits, hitsErr := strconv.Atoi(strings.TrimSpace(tr.Find("td.hitscol div").First().Text()))
		errs, errsErr := strconv.Atoi(strings.TrimSpace(tr.Find("td.errorscol div").First().Text()))
		if hitsErr != nil || errsErr != nil {
			return
		}
		rows = append(rows, []int{hits, errs})
	})
	return rows
}
