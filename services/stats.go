package services

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"ipo-checker/models"
)

// allottedSelector is the cell the status page uses for the allotted share count.
const allottedSelector = ".alloted label"

var digits = regexp.MustCompile(`\d+`)

// allottedDigits returns the first run of digits in the allotted cell of
// html, or "" when the cell or the number is missing.
func allottedDigits(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return digits.FindString(doc.Find(allottedSelector).First().Text())
}

// AllottedShares returns the first number in the allotted cell of html, or
// 0 when the cell or the number is missing. Counts too large for an int
// come back as math.MaxInt.
func AllottedShares(html string) int {
	m := allottedDigits(html)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0
	}
	return n
}

// Classify reports whether the result markup shows at least one allotted
// share: any non-zero digit in the count.
func Classify(html string) bool {
	return strings.Trim(allottedDigits(html), "0") != ""
}

func TallyGroup(g models.CompanyResults) models.Tally {
	t := models.Tally{Company: g.Company}
	for _, r := range g.Results {
		if Classify(r.HTML) {
			t.Allotted++
		} else {
			t.NotAllotted++
		}
	}
	return t
}

func TallyAll(set models.ResultSet) []models.Tally {
	tallies := make([]models.Tally, 0, len(set))
	for _, g := range set {
		tallies = append(tallies, TallyGroup(g))
	}
	return tallies
}

// Bar draws the allotted share as filled cells out of width.
func Bar(t models.Tally, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(t.AllottedPercent()/100*float64(width) + 0.5)
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}

// ResultText flattens result markup to its visible cell text, one
// "label: value" pair per table row where the row has two cells.
func ResultText(html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var lines []string
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		var cells []string
		row.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			if text := strings.Join(strings.Fields(cell.Text()), " "); text != "" {
				cells = append(cells, text)
			}
		})
		switch len(cells) {
		case 0:
		case 2:
			lines = append(lines, cells[0]+": "+cells[1])
		default:
			lines = append(lines, strings.Join(cells, " | "))
		}
	})
	return lines
}
