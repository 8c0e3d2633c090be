package extract

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/sports-iot/scorewatch/internal/scoreboard"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func testClock() fixedClock {
	return fixedClock{now: time.Date(2024, 10, 12, 18, 30, 0, 0, time.UTC)}
}

func doc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return d
}

const notStartedColumn = `
<div class="col-md-auto p-0">
  <div class="card">
    <div class="card-header">10/12/2024 7:05 PM</div>
    <table>
      <tr id="contest_100">
        <td class="opponents_min_width"><a href="/teams/1">Utah St. (4-1)</a></td>
        <td><div id="score_100_away" class="p-1"></div></td>
      </tr>
      <tr id="contest_100_home">
        <td class="opponents_min_width"><a href="/teams/2">Nevada (3-2)</a></td>
        <td><div id="score_100_home" class="p-1"></div></td>
      </tr>
    </table>
    <a target="LIVE_BOX_SCORE" href="/live/100">Live</a>
  </div>
</div>`

const inProgressColumn = `
<div class="col-md-auto p-0">
  <div class="card">
    <div class="card-header">10/12/2024 7:05 PM</div>
    <table>
      <tr id="contest_101">
        <td class="opponents_min_width"><a href="/teams/1">Utah St. (4-1)</a></td>
        <td><div id="score_101_away" class="p-1">14</div></td>
      </tr>
      <tr id="contest_101_home">
        <td class="opponents_min_width"><a href="/teams/2">Nevada (3-2)</a></td>
        <td><div id="score_101_home" class="p-1">7</div></td>
      </tr>
    </table>
    <span id="period_101">2nd</span>
    <span id="clock_101">08:42</span>
    <a target="LIVE_BOX_SCORE" href="/live/101">Live</a>
  </div>
</div>`

const finalColumn = `
<div class="col-md-auto p-0">
  <div class="card">
    <div class="card-header">10/12/2024</div>
    <div class="col p-0 text-right">Attend: 21,455</div>
    <table>
      <tr id="contest_102">
        <td class="opponents_min_width"><a href="/teams/1">Utah St. (4-1)</a></td>
        <td><div id="score_102_away" class="p-1">31</div></td>
      </tr>
      <tr id="contest_102_home">
        <td class="opponents_min_width"><a href="/teams/2">Nevada (3-2)</a></td>
        <td><div id="score_102_home" class="p-1">24</div></td>
      </tr>
    </table>
    <span id="period_102">F</span>
    <a target="box_score_102" href="/box/102">Box Score</a>
  </div>
</div>`

func TestParseNotStartedGame(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(testClock())
	rec, err := reg.Parse("Football", doc(t, notStartedColumn).Selection)
	require.NoError(t, err)

	require.Equal(t, scoreboard.StatusNotStarted, rec.Status)
	require.Equal(t, "Football", rec.Sport)
	require.Equal(t, "Utah St.", rec.AwayTeam)
	require.Equal(t, "Nevada", rec.HomeTeam)
	require.False(t, rec.Score.HasPoints())
	require.Empty(t, rec.Winner)
	require.Equal(t, "/live/100", rec.GameLink)
	require.Equal(t, time.Date(2024, 10, 12, 19, 5, 0, 0, time.UTC), rec.ScheduledAt)
}

func TestParseInProgressGame(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(testClock())
	rec, err := reg.Parse("Football", doc(t, inProgressColumn).Selection)
	require.NoError(t, err)

	require.Equal(t, scoreboard.StatusInProgress, rec.Status)
	require.Equal(t, []int{14, 7}, rec.Score.Points)
	require.Equal(t, "2nd", rec.CurrentPeriod)
	require.Equal(t, "08:42", rec.CurrentClock)
	require.Empty(t, rec.Winner)
}

func TestParseInProgressGameWithoutClock(t *testing.T) {
	t.Parallel()

	html := strings.Replace(inProgressColumn, `<span id="clock_101">08:42</span>`, "", 1)
	reg := NewRegistry(testClock())
	rec, err := reg.Parse("Football", doc(t, html).Selection)
	require.NoError(t, err)

	require.Equal(t, scoreboard.StatusInProgress, rec.Status)
	require.Equal(t, "Unknown", rec.CurrentClock)
}

func TestParseFinalGame(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(testClock())
	rec, err := reg.Parse("Football", doc(t, finalColumn).Selection)
	require.NoError(t, err)

	require.Equal(t, scoreboard.StatusFinal, rec.Status)
	require.Equal(t, []int{31, 24}, rec.Score.Points)
	require.Equal(t, "Utah St.", rec.Winner)
	require.Equal(t, "/box/102", rec.GameLink)
	require.NotNil(t, rec.Attendance)
	require.Equal(t, 21455, *rec.Attendance)
}

func TestParseFinalGameHomeWinner(t *testing.T) {
	t.Parallel()

	html := strings.Replace(finalColumn, ">31<", ">17<", 1)
	reg := NewRegistry(testClock())
	rec, err := reg.Parse("Football", doc(t, html).Selection)
	require.NoError(t, err)
	require.Equal(t, "Nevada", rec.Winner)
}

func TestParseFinalGameTie(t *testing.T) {
	t.Parallel()

	html := strings.Replace(finalColumn, ">31<", ">24<", 1)
	reg := NewRegistry(testClock())
	rec, err := reg.Parse("Soccer (M)", doc(t, html).Selection)
	require.NoError(t, err)
	require.Equal(t, scoreboard.WinnerTie, rec.Winner)
}

func TestParseFinalGameMissingScoresHasNoWinner(t *testing.T) {
	t.Parallel()

	html := strings.NewReplacer(">31<", "><", ">24<", "><").Replace(finalColumn)
	reg := NewRegistry(testClock())
	rec, err := reg.Parse("Football", doc(t, html).Selection)
	require.NoError(t, err)

	require.Equal(t, scoreboard.StatusFinal, rec.Status)
	require.Empty(t, rec.Winner)
}

func TestParseNoPeriodIndicatorIsFinal(t *testing.T) {
	t.Parallel()

	html := strings.Replace(finalColumn, `<span id="period_102">F</span>`, "", 1)
	reg := NewRegistry(testClock())
	rec, err := reg.Parse("Football", doc(t, html).Selection)
	require.NoError(t, err)
	require.Equal(t, scoreboard.StatusFinal, rec.Status)
}

func TestScheduledAtDefaultsToMidnight(t *testing.T) {
	t.Parallel()

	html := strings.NewReplacer("10/12/2024 7:05 PM", "", "10/12/2024", "").Replace(finalColumn)
	reg := NewRegistry(testClock())
	rec, err := reg.Parse("Football", doc(t, html).Selection)
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 10, 12, 0, 0, 0, 0, time.UTC), rec.ScheduledAt)
}

func TestAttendanceMissingIsNil(t *testing.T) {
	t.Parallel()

	html := strings.Replace(finalColumn, "Attend: 21,455", "", 1)
	reg := NewRegistry(testClock())
	rec, err := reg.Parse("Football", doc(t, html).Selection)
	require.NoError(t, err)
	require.Nil(t, rec.Attendance)
}

func TestParseVolleyballSetScores(t *testing.T) {
	t.Parallel()

	html := strings.Replace(finalColumn, "</table>", `</table>
<table id="linescore_102_table">
  <tr><td>25</td><td>23</td><td>25</td></tr>
  <tr><td>20</td><td>25</td><td>19</td></tr>
</table>`, 1)
	reg := NewRegistry(testClock())
	rec, err := reg.Parse("Volleyball (W)", doc(t, html).Selection)
	require.NoError(t, err)

	require.Equal(t, [][]int{{25, 23, 25}, {20, 25, 19}}, rec.Score.Detail.SetScores)
	require.Nil(t, rec.Score.Detail.PeriodScores)
}

func TestParseBasketballMissingLinescoreIsNil(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(testClock())
	rec, err := reg.Parse("Basketball (M)", doc(t, finalColumn).Selection)
	require.NoError(t, err)
	require.Nil(t, rec.Score.Detail.PeriodScores)
}

func TestParseBaseballHitsErrors(t *testing.T) {
	t.Parallel()

	html := strings.NewReplacer(
		`<td><div id="score_102_away" class="p-1">31</div></td>`,
		`<td><div id="score_102_away" class="p-1">5</div></td><td class="hitscol"><div>9</div></td><td class="errorscol"><div>1</div></td>`,
		`<td><div id="score_102_home" class="p-1">24</div></td>`,
		`<td><div id="score_102_home" class="p-1">3</div></td><td class="hitscol"><div>6</div></td><td class="errorscol"><div>2</div></td>`,
	).Replace(finalColumn)

	reg := NewRegistry(testClock())
	rec, err := reg.Parse("Baseball", doc(t, html).Selection)
	require.NoError(t, err)

	require.Equal(t, []int{5, 3}, rec.Score.Points)
	require.Equal(t, [][]int{{9, 1}, {6, 2}}, rec.Score.Detail.HitsErrors)
}

func TestParseUnknownSport(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(testClock())
	_, err := reg.Parse("Curling", doc(t, finalColumn).Selection)
	require.Error(t, err)
}

func TestTeamColumnMatchesAnchorText(t *testing.T) {
	t.Parallel()

	page := "<html><body><div class='row'>" + finalColumn + notStartedColumn + "</div></body></html>"
	d := doc(t, page)

	require.True(t, HasContestRows(d))

	col := TeamColumn(d, "Utah St.")
	require.NotNil(t, col)
	require.Positive(t, col.Find(`tr[id^="contest_"]`).Length())

	require.Nil(t, TeamColumn(d, "Gonzaga"))
}

func TestTeamColumnMatchesImageAlt(t *testing.T) {
	t.Parallel()

	html := strings.Replace(finalColumn,
		`<a href="/teams/1">Utah St. (4-1)</a>`,
		`<img alt="Utah State Aggies" src="/logo.png"><a href="/teams/1">USU (4-1)</a>`, 1)
	d := doc(t, "<html><body>"+html+"</body></html>")

	col := TeamColumn(d, "Utah State")
	require.NotNil(t, col)
}

func TestHasContestRowsEmptyPage(t *testing.T) {
	t.Parallel()

	d := doc(t, "<html><body><p>No games today</p></body></html>")
	require.False(t, HasContestRows(d))
}
