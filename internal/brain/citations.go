package brain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"basegraph.app/slackbridge/internal/model"
)

// citationPattern matches inline citation markers returned by the completion API.
// Examples: "[doc1]", "[doc12]"
var citationPattern = regexp.MustCompile(`\[doc(\d+)\]`)

var ErrCitationOutOfRange = errors.New("citation index out of range")

// CitationIndexError reports a marker that points past the returned citations.
// Index is 0 when the digit run does not fit an int.
type CitationIndexError struct {
	Marker    string
	Index     int
	Available int
}

func (e *CitationIndexError) Error() string {
	return fmt.Sprintf("citation marker %s out of range (%d citations available)", e.Marker, e.Available)
}

func (e *CitationIndexError) Is(target error) bool {
	return target == ErrCitationOutOfRange
}

// Annotate rewrites every [docN] marker into a Slack link to citations[N-1]
// labelled source-N, and appends a blank line separating the answer from
// whatever follows it in chat. A marker outside 1..len(citations) fails the
// whole rewrite with a *CitationIndexError; nothing is partially rewritten.
func Annotate(content string, citations []model.Citation) (string, error) {
	matches := citationPattern.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return content + "\n\n", nil
	}

	var sb strings.Builder
	sb.Grow(len(content) + len(matches)*32)

	last := 0
	for _, m := range matches {
		digits := content[m[2]:m[3]]
		n, err := strconv.Atoi(digits)
		if err != nil || n < 1 || n > len(citations) {
			if err != nil {
				n = 0
			}
			return "", &CitationIndexError{
				Marker:    content[m[0]:m[1]],
				Index:     n,
				Available: len(citations),
			}
		}

		sb.WriteString(content[last:m[0]])
		sb.WriteString(formatCitationLink(citations[n-1].URL, n))
		last = m[1]
	}
	sb.WriteString(content[last:])
	sb.WriteString("\n\n")

	return sb.String(), nil
}

func formatCitationLink(url string, n int) string {
	return fmt.Sprintf("<%s|[source-%d]>", url, n)
}
