// Package ingest turns guideline documents into indexed passages: cleans
// publisher noise out of PDF-extracted text, splits it into overlapping
// chunks and writes them to the knowledge store under stable content-hash
// IDs.
package ingest

import (
	"regexp"
	"strings"
)

// Publisher boilerplate that PDF extraction drags along. Each pattern is
// removed before chunking.
var (
	journalFooterRe = regexp.MustCompile(`Strength and Conditioning Journal\s*\|\s*www\.nsca-scj\.com`)
	copyrightRe     = regexp.MustCompile(`Copyright National Strength and Conditioning Association.*`)
	pageNumberRe    = regexp.MustCompile(`(?m)^\s*\d+\s*$`)
	whitespaceRe    = regexp.MustCompile(`\s+`)
)

const reproductionNotice = "Unauthorized reproduction of this article is prohibited."

// Clean strips NSCA publication noise from extracted page text: journal
// footers, copyright lines, bare page numbers and reproduction notices,
// then collapses runs of whitespace.
func Clean(text string) string {
	text = journalFooterRe.ReplaceAllString(text, "")
	text = copyrightRe.ReplaceAllString(text, "")
	text = pageNumberRe.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, reproductionNotice, "")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
