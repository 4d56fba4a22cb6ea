package retrieval

import (
	"strings"
)

// sectionDelimiter separates scraped pages within the corpus file.
const sectionDelimiter = "===END-SECTION==="

// minSectionLen guards against stray delimiters producing near-empty
// sections, matching original_source/CXBuddyPro/vector_store.py's
// `len(section) < 50` skip.
const minSectionLen = 50

const (
	defaultChunkSize = 500
	defaultOverlap   = 100
)

// breakDelimiters is the break-preference order from spec.md §4.2: try each
// in turn within the tail of the candidate chunk before falling back to a
// hard cut.
var breakDelimiters = []string{". ", "? ", "! ", "\n\n"}

// section is one scraped page extracted from the corpus.
type section struct {
	SourceURL string
	Title     string
	Body      string
}

// splitSections splits raw corpus bytes into sections at the delimiter,
// extracting the SOURCE:/TITLE: header lines from each and stripping them
// from the body. Sections shorter than minSectionLen are dropped.
func splitSections(corpus string) []section {
	rawSections := strings.Split(corpus, sectionDelimiter)
	out := make([]section, 0, len(rawSections))

	for _, raw := range rawSections {
		raw = strings.TrimSpace(raw)
		if len(raw) < minSectionLen {
			continue
		}

		lines := strings.Split(raw, "\n")
		var sourceURL, title string
		bodyLines := make([]string, 0, len(lines))
		headerLinesSeen := 0
		for _, line := range lines {
			trimmed := strings.TrimSpace(line)
			switch {
			case strings.HasPrefix(trimmed, "SOURCE:") && headerLinesSeen < 5:
				sourceURL = strings.TrimSpace(strings.TrimPrefix(trimmed, "SOURCE:"))
			case strings.HasPrefix(trimmed, "TITLE:") && headerLinesSeen < 5:
				title = strings.TrimSpace(strings.TrimPrefix(trimmed, "TITLE:"))
			default:
				bodyLines = append(bodyLines, line)
			}
			headerLinesSeen++
		}

		out = append(out, section{
			SourceURL: sourceURL,
			Title:     title,
			Body:      strings.TrimSpace(strings.Join(bodyLines, "\n")),
		})
	}
	return out
}

// chunkText splits text into overlapping chunks of at most chunkSize
// characters, preferring to break at a sentence boundary within the tail of
// the window before falling back to a hard cut, per spec.md §4.2.
//
// Overlap is measured in characters and taken from the end of the
// previously emitted chunk: each chunk after the first starts overlap
// characters before the previous chunk's end.
func chunkText(text string, chunkSize, overlap int) []string {
	if len(text) <= chunkSize {
		if text == "" {
			return nil
		}
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + chunkSize
		if end >= len(text) {
			end = len(text)
		} else {
			end = findBreak(text, start, end)
		}

		chunk := strings.TrimSpace(text[start:end])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end >= len(text) {
			break
		}
		start = end - overlap
		if start < 0 {
			start = 0
		}
	}
	return chunks
}

// findBreak looks within the last 100 characters of text[start:end] for one
// of the preferred break delimiters and, if found, returns the index just
// past it. Falls back to end (a hard boundary) otherwise.
func findBreak(text string, start, end int) int {
	windowStart := end - 100
	if windowStart < start {
		windowStart = start
	}
	window := text[windowStart:end]

	for _, delim := range breakDelimiters {
		if idx := strings.LastIndex(window, delim); idx != -1 {
			return windowStart + idx + len(delim)
		}
	}
	return end
}
