package moderation

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// phoneNoise removes everything except digits, '+', whitespace and '-'
	phoneNoise = regexp.MustCompile(`[^\d+\s-]`)

	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{10}\b`),
		regexp.MustCompile(`\b\+91[\s-]?\d{10}\b`),
		regexp.MustCompile(`\b91[\s-]?\d{10}\b`),
		regexp.MustCompile(`\b\d{3}[\s-]\d{3}[\s-]\d{4}\b`),
		regexp.MustCompile(`\b\d{5}[\s-]\d{5}\b`),
	}

	abusiveKeywords = []string{
		"fraud", "scam", "cheat", "fake", "stupid", "idiot", "fool",
		"urgent", "hurry", "cash only", "advance payment", "western union",
		"money gram", "lottery", "winner", "congratulations", "selected",
	}

	externalPlatforms = []string{
		"whatsapp", "telegram", "facebook", "instagram", "email", "gmail",
		"yahoo", "hotmail", "call me", "text me", "dm me", "message me",
	}
)

// Analyze runs the local heuristics over message
func Analyze(message string) PreAnalysis {
	return PreAnalysis{
		PhoneDetected:            DetectPhoneNumber(message),
		AbusiveDetected:          DetectAbusiveContent(message),
		ExternalPlatformDetected: DetectExternalPlatform(message),
	}
}

// DetectPhoneNumber reports Indian mobile numbers in common layouts, including
// numbers broken up by letters or punctuation
func DetectPhoneNumber(message string) bool {
	clean := phoneNoise.ReplaceAllString(asciiDigits(message), "")
	for _, pattern := range phonePatterns {
		if pattern.MatchString(clean) {
			return true
		}
	}
	return false
}

// asciiDigits rewrites decimal digits of any script (Devanagari, Bengali,
// fullwidth...) as their ASCII equivalents
func asciiDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r <= unicode.MaxASCII || !unicode.IsDigit(r) {
			return r
		}
		return '0' + digitValue(r)
	}, s)
}

// digitValue relies on Unicode decimal digits being encoded in runs that start at zero
func digitValue(r rune) rune {
	zero := r
	for unicode.IsDigit(zero - 1) {
		zero--
	}
	return (r - zero) % 10
}

// DetectAbusiveContent reports abuse or scam keywords, case-insensitively
func DetectAbusiveContent(message string) bool {
	return containsAny(strings.ToLower(message), abusiveKeywords)
}

// DetectExternalPlatform reports attempts to move the conversation off platform
func DetectExternalPlatform(message string) bool {
	return containsAny(strings.ToLower(message), externalPlatforms)
}

func containsAny(s string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}
