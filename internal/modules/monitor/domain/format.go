package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

// Unknown is shown for rates and ETAs that cannot be derived.
const Unknown = "—"

// FormatElapsed renders H:MM:SS, or M:SS when under an hour.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func FormatRate(bytesPerSec *float64) string {
	if bytesPerSec == nil || *bytesPerSec <= 0 {
		return Unknown
	}
	return humanize.IBytes(uint64(*bytesPerSec)) + "/s"
}

// FormatETA derives remaining time from the bytes still to transfer.
func FormatETA(transferred, total *int64, bytesPerSec *float64) string {
	if transferred == nil || total == nil || bytesPerSec == nil || *bytesPerSec <= 0 {
		return Unknown
	}
	remaining := *total - *transferred
	if remaining < 0 {
		remaining = 0
	}
	return FormatETASeconds(int64(math.Ceil(float64(remaining) / *bytesPerSec)))
}

// FormatETASeconds renders 30s, 2m 30s or 1h 15m.
func FormatETASeconds(seconds int64) string {
	switch {
	case seconds < 0:
		return Unknown
	case seconds < 60:
		return fmt.Sprintf("%ds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
	default:
		return fmt.Sprintf("%dh %dm", seconds/3600, (seconds%3600)/60)
	}
}

func FormatBytesProgress(transferred, total *int64) string {
	if transferred == nil || total == nil || *transferred < 0 || *total < 0 {
		return ""
	}
	return humanize.IBytes(uint64(*transferred)) + " / " + humanize.IBytes(uint64(*total))
}
