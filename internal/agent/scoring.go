package agent

import (
	"path/filepath"
	"strings"
)

// Scoring combines independent signals additively and clamps the sum.
// This is a deliberate simplicity choice over a trained classifier; the
// single-method CanHandle contract lets a learned implementation replace
// it without touching the router.

// KeywordScore returns weight per keyword found in the user intent.
func KeywordScore(intent string, keywords []string, weight float64) float64 {
	lowered := strings.ToLower(intent)
	matches := 0
	for _, k := range keywords {
		if strings.Contains(lowered, k) {
			matches++
		}
	}
	return float64(matches) * weight
}

// FileTypeScore returns weight if any context file has one of the extensions.
func FileTypeScore(paths []string, extensions []string, weight float64) float64 {
	for _, p := range paths {
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(p), "."))
		for _, want := range extensions {
			if ext == want {
				return weight
			}
		}
	}
	return 0
}

// GitScore returns weight when version-control context is present.
func GitScore(git *GitContext, weight float64) float64 {
	if git == nil {
		return 0
	}
	return weight
}
