package gate

import "unicode"

// hasCJK reports whether the text contains CJK unified ideographs.
func hasCJK(text string) bool {
	for _, r := range text {
		if r >= 0x4e00 && r <= 0x9fff {
			return true
		}
	}
	return false
}

// IsProbablyEnglish is a best-effort language heuristic without external deps.
// CJK characters mean non-English; otherwise the ratio of ASCII letters to all
// letters decides. Text with no letters defaults to English.
func IsProbablyEnglish(text string) bool {
	const asciiRatioThreshold = 0.6
	if text == "" {
		return true
	}
	if hasCJK(text) {
		return false
	}
	alphaTotal := 0
	asciiAlpha := 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			alphaTotal++
			if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' {
				asciiAlpha++
			}
		}
	}
	if alphaTotal == 0 {
		return true
	}
	return float64(asciiAlpha)/float64(alphaTotal) >= asciiRatioThreshold
}

// ShouldForceEnglish reports whether the model prompt must carry an explicit
// answer-in-English instruction. It decides the output language policy only;
// it does not translate anything.
func ShouldForceEnglish(text string) bool {
	return !IsProbablyEnglish(text)
}
