package driven

// LanguageDetector recognizes one language from surface patterns
type LanguageDetector interface {
	// Code returns the ISO 639-1 code the detector reports
	Code() string

	// Priority returns the detector's priority (higher = checked first)
	Priority() int

	// Match reports whether text looks like the detector's language
	Match(text string) bool
}

// LanguageRegistry selects a language for a piece of text.
// The first matching detector in priority order wins.
type LanguageRegistry interface {
	Register(detector LanguageDetector)
	Detect(text string) (code string, confidence float64)
	List() []string
}
