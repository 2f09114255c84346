package aggregator

import (
	"regexp"
	"strings"

	"github.com/streamscout/streamscout/source"
)

var (
	vostfrPattern = regexp.MustCompile(`\bvostfr\b`)
	vfPattern     = regexp.MustCompile(`\b(?:vf|vff|vfq|truefrench|french)\b|français|francais`)
)

// DetectLanguage guesses the language of an embed from the text that precedes it.
// VOSTFR wins over VF; anything without a keyword is Multi.
func DetectLanguage(text string) source.Language {
	lower := strings.ToLower(text)

	switch {
	case vostfrPattern.MatchString(lower):
		return source.VOSTFR
	case vfPattern.MatchString(lower):
		return source.VF
	default:
		return source.Multi
	}
}
