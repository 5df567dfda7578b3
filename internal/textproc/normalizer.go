// Package textproc prepares extracted manual text for indexing: boilerplate
// removal, paragraph reflow, and recursive chunking.
package textproc

import (
	"regexp"
	"strings"
)

// Clean-stage patterns. Page numbers, copyright notices and disclaimer
// sentences in equipment manuals follow these fixed shapes.
var (
	blankRuns      = regexp.MustCompile(`\n\s*\n`)
	pageNumberLine = regexp.MustCompile(`(?m)^\s*\d+\s*$`)
	trailingPageNo = regexp.MustCompile(`(?m)\s+\d+\s*$`)
	copyrightLine  = regexp.MustCompile(`(?i)Copyright © \d{4} [^\n]*\. All Rights Reserved\.`)
	confidential   = regexp.MustCompile(`(?i)Confidential and Proprietary Information[^\n]*`)
	disclaimer     = regexp.MustCompile(`(?i)Disclaimer:[^.]*\.`)
	whitespaceRun  = regexp.MustCompile(`\s+`)
)

// Standardize-stage patterns.
var (
	hyphenBreak   = regexp.MustCompile(`([a-zA-Z])-(\n)([a-zA-Z])`)
	sentenceStart = regexp.MustCompile(`([.?!])\s*([A-Z])`)
	softLineBreak = regexp.MustCompile(`([^\n])\n([^\n])`)
	paragraphRuns = regexp.MustCompile(`\n{2,}`)
)

// Clean strips irrelevant manual content: runs of blank lines, lines that are
// only a page number, trailing page numbers, copyright and confidentiality
// boilerplate, and disclaimer sentences. Whitespace runs collapse to single
// spaces. Idempotent; empty input yields empty output.
func Clean(text string) string {
	text = blankRuns.ReplaceAllString(text, "\n\n")
	text = pageNumberLine.ReplaceAllString(text, "")
	text = trailingPageNo.ReplaceAllString(text, "")
	text = copyrightLine.ReplaceAllString(text, "")
	text = confidential.ReplaceAllString(text, "")
	text = disclaimer.ReplaceAllString(text, "")
	text = whitespaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Standardize reflows cleaned text into paragraph form: hyphenated line-break
// word splits are rejoined, sentence boundaries followed by a capital get a
// double space, soft line breaks become spaces, and 2+ consecutive newlines
// collapse to exactly one blank line. Idempotent.
func Standardize(text string) string {
	text = hyphenBreak.ReplaceAllString(text, "$1$3")
	text = sentenceStart.ReplaceAllString(text, "$1  $2")
	text = whitespaceRun.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	text = softLineBreak.ReplaceAllString(text, "$1 $2")
	text = paragraphRuns.ReplaceAllString(text, "\n\n")
	return text
}

// Normalize runs both stages in order. This is the canonical form stored in
// the documents table and fed to the chunker.
func Normalize(text string) string {
	return Standardize(Clean(text))
}
