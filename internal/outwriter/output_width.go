package outwriter

import (
	"os"

	"github.com/huangsam/repopulse/internal/contract"
	"golang.org/x/term"
)

// GetMaxExplanationWidth calculates the maximum width for the explanation
// column in table output based on terminal width.
func GetMaxExplanationWidth(cfg *contract.Config) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		// Get terminal width
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			// Fallback to conservative default for narrow terminals and CI
			termWidth = 80
		} else {
			termWidth = detectedWidth
		}
	}

	// Reserve space for the fixed columns: repo slug, status, counters,
	// CI, timestamps, release and flags, plus borders and padding.
	baseWidth := 95

	available := termWidth - baseWidth
	if available < 20 {
		// Minimum readable explanation width
		return 20
	}
	if available > 60 {
		// Cap so a wide terminal does not stretch rows needlessly
		return 60
	}
	return available
}
