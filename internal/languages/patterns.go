package languages

import (
	"regexp"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/ports/driven"
)

var _ driven.LanguageDetector = (*PatternDetector)(nil)

// PatternDetector matches a language by regular expression
type PatternDetector struct {
	code     string
	priority int
	pattern  *regexp.Regexp
}

// NewPatternDetector compiles pattern into a detector
func NewPatternDetector(code string, priority int, pattern string) (*PatternDetector, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &PatternDetector{code: code, priority: priority, pattern: re}, nil
}

func (d *PatternDetector) Code() string        { return d.code }
func (d *PatternDetector) Priority() int       { return d.priority }
func (d *PatternDetector) Match(s string) bool { return d.pattern.MatchString(s) }

// defaultPatterns lists the African-market languages in detection order.
// "bitcoin" appears in several word lists; the earliest one wins.
var defaultPatterns = []struct {
	code    string
	pattern string
}{
	{"sw", `(?i)\b(habari|bitcoin|pesa|shilling|kenya|tanzania)\b`},
	{"fr", `(?i)\b(nouvelles|prix|franc|senegal|cote|ivoire)\b`},
	{"af", `(?i)\b(nuus|rand|suid-afrika|bitcoin)\b`},
	{"ar", `[\x{0600}-\x{06FF}]`},
	{"am", `[\x{1200}-\x{137F}]`},
	{"yo", `(?i)\b(iroyin|naira|nigeria|bitcoin)\b`},
	{"zu", `(?i)\b(izindaba|rand|ningizimu|afrika)\b`},
}

// NewDefaultRegistry returns a registry with the built-in detectors and
// English as the fallback.
func NewDefaultRegistry() *Registry {
	r := NewRegistry("en")
	for i, p := range defaultPatterns {
		r.Register(&PatternDetector{
			code:     p.code,
			priority: (len(defaultPatterns) - i) * 10,
			pattern:  regexp.MustCompile(p.pattern),
		})
	}
	return r
}
