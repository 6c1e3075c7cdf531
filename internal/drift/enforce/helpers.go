package enforce

import (
	"fmt"
	"strconv"
)

func summarizeCount(n int, noun string) string {
	if n == 0 {
		return "no " + noun + "s"
	}
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}

func coverageSummary(actual, threshold float64) string {
	return fmt.Sprintf("%.1f%% coverage (threshold %.1f%%)", actual*100, threshold*100)
}

func formatScore(score float64) string {
	return fmt.Sprintf("%.3f", score)
}
