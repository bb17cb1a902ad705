package navigation

import (
	"fmt"
	"math"
)

// FormatDistance renders a distance for spoken announcements. Short
// distances round to the nearest 10 m, distances under a kilometer to the
// meter, and longer ones to tenths of a kilometer.
func FormatDistance(meters float64) string {
	if meters <= 0 {
		return ""
	}
	if meters < 100 {
		return fmt.Sprintf("%d m", int(math.Round(meters/10))*10)
	}
	if meters < 1000 {
		return fmt.Sprintf("%d m", int(math.Round(meters)))
	}
	return fmt.Sprintf("%.1f km", meters/1000)
}
