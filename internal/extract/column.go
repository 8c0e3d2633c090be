package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]`)

// normalizeName lowercases and strips punctuation so that "Utah St." matches
// "utah st" or the image alt text variant.
func normalizeName(s string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(s), "")
}

// HasContestRows reports whether the snapshot rendered any contest rows yet.
// A page without them is a parse miss, not an error.
func HasContestRows(doc *goquery.Document) bool {
	return doc.Find(`tr[id^="contest_"]`).Length() > 0
}

// TeamColumn isolates the scoreboard column holding the given team's game.
// Team names are matched case- and punctuation-insensitively against the
// row's image alt text and link text. Returns nil when the team has no row
// this cycle.
func TeamColumn(doc *goquery.Document, team string) *goquery.Selection {
	target := normalizeName(team)
	if target == "" {
		return nil
	}

	var column *goquery.Selection
	doc.Find(`tr[id^="contest_"]`).EachWithBreak(func(_ int, row *goquery.Selection) bool {
		candidates := []string{}
		if alt, ok := row.Find("img[alt]").First().Attr("alt"); ok {
			candidates = append(candidates, alt)
		}
		candidates = append(candidates, strings.TrimSpace(row.Find("a").First().Text()))

		for _, c := range candidates {
			if c != "" && strings.Contains(normalizeName(c), target) {
				column = enclosingColumn(row)
				return false
			}
		}
		return true
	})
	return column
}

// enclosingColumn walks up to the column container for a contest row,
// falling back to the card wrapper.
func enclosingColumn(row *goquery.Selection) *goquery.Selection {
	column := row.ParentsFiltered("div.col-md-auto.p-0").First()
	if column.Length() > 0 {
		return column
	}
	card := row.ParentsFiltered("div.card").First()
	if card.Length() > 0 {
		return card
	}
	return nil
}
