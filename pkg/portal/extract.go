package portal

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

// balancePattern matches the numeric prefix of a balance cell. Anything
// after it, usually a currency suffix, is ignored.
var balancePattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?`)

var errNoBalanceElement = errors.New("balance element not found")

// ParseBalance extracts the leading decimal number from text such as
// "100.00 руб".
func ParseBalance(text string) (decimal.Decimal, error) {
	text = strings.TrimSpace(text)
	num := balancePattern.FindString(text)
	if num == "" {
		return decimal.Zero, fmt.Errorf("no number at start of %q", text)
	}
	v, err := decimal.NewFromString(num)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse %q: %w", num, err)
	}
	return v, nil
}

// ExtractBalance reads the balance out of an account page. The error marker
// is checked first: a rejected login fails with ErrAuthentication regardless
// of what else the page contains.
func ExtractBalance(doc *goquery.Document, p Profile) (decimal.Decimal, error) {
	if marker := doc.Find(p.ErrorSelector).First(); marker.Length() > 0 {
		return decimal.Zero, &Error{
			Kind:    ErrAuthentication,
			Op:      "check login",
			Snippet: snippet(marker.Text()),
		}
	}

	sel := doc.Find(p.BalanceSelector).First()
	if sel.Length() == 0 {
		return decimal.Zero, parseError("locate balance", documentHTML(doc), fmt.Errorf("%w: %s", errNoBalanceElement, p.BalanceSelector))
	}

	v, err := ParseBalance(sel.Text())
	if err != nil {
		return decimal.Zero, parseError("parse balance", documentHTML(doc), err)
	}
	return v, nil
}

// documentHTML renders doc for an error snippet, falling back to its text
// when the markup cannot be serialised.
func documentHTML(doc *goquery.Document) string {
	html, err := doc.Html()
	if err != nil {
		return doc.Text()
	}
	return html
}
