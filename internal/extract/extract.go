// Package extract finds course codes in saved course-selection pages or plain text.
package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// CartSelector matches the table listing the courses in the selection cart.
const CartSelector = "#cartTable"

// the '|' characters inside the classes are literal, the registration system
// accepts exactly these character sets.
var courseCodeRe = regexp.MustCompile(`[A-Z]{2}[G|1-9]{1}[AB|0-9]{3}[0|1|3|5|7]{1}[0-9]{2}`)

// CourseCodes returns every course code in document in order of occurrence,
// duplicates included. When the document contains the cart table only the
// table's inner HTML is searched.
func CourseCodes(document string) []string {
	return courseCodeRe.FindAllString(scope(document), -1)
}

func scope(document string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		return document
	}
	cart := doc.Find(CartSelector).First()
	if cart.Length() == 0 {
		return document
	}
	inner, err := cart.Html()
	if err != nil {
		return document
	}
	return inner
}
