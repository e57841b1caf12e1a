package recipe

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var spaceRun = regexp.MustCompile(`[ \t]+`)

// CleanHTML reduces the HTML fragments the nutrition provider returns in
// recipe summaries and instructions to plain text. List items become "- "
// lines; everything else collapses to whitespace-normalized text. Input that
// fails to parse comes back trimmed but otherwise untouched.
func CleanHTML(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}

	doc.Find("li").Each(func(_ int, sel *goquery.Selection) {
		sel.SetText("\n- " + strings.TrimSpace(sel.Text()))
	})
	doc.Find("p, br").Each(func(_ int, sel *goquery.Selection) {
		sel.AfterHtml("\n")
	})

	text := spaceRun.ReplaceAllString(doc.Text(), " ")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
