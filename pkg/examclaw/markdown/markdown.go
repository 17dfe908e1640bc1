// Package markdown converts the model's Markdown answer into the two forms the
// rest of the program consumes: HTML markup for display and plain text for
// clipboard and file export.
//
// Both conversions are ordered regular-expression pipelines, not a Markdown
// parser. Malformed input (unclosed emphasis, stray fences) passes through
// unchanged instead of failing.
package markdown

import (
	"regexp"
	"strconv"
	"strings"
)

// Rendered is the display and plain form of one answer.
type Rendered struct {
	HTML  string
	Plain string
}

// Transform renders raw into both forms.
func Transform(raw string) Rendered {
	return Rendered{
		HTML:  ToHTML(raw),
		Plain: ToPlain(raw),
	}
}

// ---------- Plain text ----------

var (
	boldStarRe      = regexp.MustCompile(`\*\*([^*\n]+)\*\*`)
	boldUnderRe     = regexp.MustCompile(`__([^_\n]+)__`)
	italicStarRe    = regexp.MustCompile(`\*([^\s*][^*\n]*)\*`)
	italicUnderRe   = regexp.MustCompile(`_([^\s_][^_\n]*)_`)
	headingMarkerRe = regexp.MustCompile(`(?m)^#{1,6}[ \t]*`)
	fencedCodeRe    = regexp.MustCompile("(?s)```.*?```")
	inlineCodeRe    = regexp.MustCompile("`([^`\n]+)`")
	bulletMarkerRe  = regexp.MustCompile(`(?m)^[ \t]*[-*][ \t]+`)
	wideSpaceRe     = regexp.MustCompile(`[ \t]{3,}`)
)

// ToPlain strips Markdown markup from text. Fenced code blocks are dropped
// entirely, inline code keeps its text, bullets become "• ".
// Text without markup passes through unchanged.
func ToPlain(text string) string {
	text = boldStarRe.ReplaceAllString(text, "$1")
	text = boldUnderRe.ReplaceAllString(text, "$1")
	text = italicStarRe.ReplaceAllString(text, "$1")
	text = italicUnderRe.ReplaceAllString(text, "$1")
	text = headingMarkerRe.ReplaceAllString(text, "")
	text = fencedCodeRe.ReplaceAllString(text, "")
	text = inlineCodeRe.ReplaceAllString(text, "$1")
	text = bulletMarkerRe.ReplaceAllString(text, "• ")
	text = wideSpaceRe.ReplaceAllString(text, "  ")
	return text
}

// ---------- HTML ----------

// headingStyles maps heading depth to inline style.
var headingStyles = map[int]string{
	1: "color: #c4b5fd; margin: 25px 0 15px 0;",
	2: "color: #a78bfa; margin: 25px 0 15px 0;",
	3: "color: #818cf8; margin: 20px 0 10px 0;",
	4: "color: #f472b6; margin: 15px 0 10px 0;",
}

const (
	bulletHTML = `<span style="color: #06b6d4;">•</span>`
	ruleHTML   = `<hr style="border: none; border-top: 1px solid rgba(255,255,255,0.2); margin: 20px 0;">`
)

var (
	htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

	headingRe      = regexp.MustCompile(`(?m)^(#{1,4}) (.+)$`)
	numberedBoldRe = regexp.MustCompile(`(?m)^(\d+)\. \*\*([^*\n]+?)\*\*:?(.*)$`)
	ruleRe         = regexp.MustCompile(`(?m)^---[ \t]*$`)
	starBulletRe   = regexp.MustCompile(`(?m)^([ \t]*)\* (.+)$`)
	dashBulletRe   = regexp.MustCompile(`(?m)^([ \t]*)- (.+)$`)
	ticketHeaderRe = regexp.MustCompile(`(?m)^(БИЛЕТ[ \t]*\d+.*)$`)
	sectionLabelRe = regexp.MustCompile(`(?m)^(ШАГ \d+|РЕШЕНИЕ|ИТОГ|ВАРИАНТ \d+|Дано:|Вывод:)`)
)

// ToHTML converts text to display markup. The input is HTML-escaped first,
// so markup in the model's answer is shown literally.
//
// Numbered items whose title is bold ("1. **Title:** rest") are rewritten
// before generic bold so the title keeps its accent colour.
func ToHTML(text string) string {
	html := htmlEscaper.Replace(text)

	html = headingRe.ReplaceAllStringFunc(html, func(m string) string {
		sub := headingRe.FindStringSubmatch(m)
		level := len(sub[1])
		return "<h" + strconv.Itoa(level) + ` style="` + headingStyles[level] + `">` +
			sub[2] + "</h" + strconv.Itoa(level) + ">"
	})
	html = numberedBoldRe.ReplaceAllString(html, `<strong style="color: #10b981;">$1. $2</strong>$3`)
	html = boldStarRe.ReplaceAllString(html, "<strong>$1</strong>")
	html = italicStarRe.ReplaceAllString(html, "<em>$1</em>")
	html = ruleRe.ReplaceAllString(html, ruleHTML)
	html = starBulletRe.ReplaceAllString(html, "${1}"+bulletHTML+" $2")
	html = dashBulletRe.ReplaceAllString(html, "${1}"+bulletHTML+" $2")
	html = ticketHeaderRe.ReplaceAllString(html, `<span class="ticket-header">$1</span>`)
	html = sectionLabelRe.ReplaceAllString(html, `<span class="section-label">$1</span>`)

	return html
}
