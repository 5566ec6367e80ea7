package util

import (
	"fmt"
	"strings"
	"time"
)

// FormatDuration renders a duration for people, e.g. "10 minutes" or "1 hour 30 minutes".
func FormatDuration(duration time.Duration) string {
	duration = duration.Round(time.Second)

	if duration < time.Minute {
		return plural(int(duration.Seconds()), "second")
	}

	if duration < time.Hour {
		m := int(duration.Minutes())
		s := int(duration.Seconds()) % 60
		if s == 0 {
			return plural(m, "minute")
		}

		return plural(m, "minute") + " " + plural(s, "second")
	}

	h := int(duration.Hours())
	m := int(duration.Minutes()) % 60
	if m == 0 {
		return plural(h, "hour")
	}

	return plural(h, "hour") + " " + plural(m, "minute")
}

// MaskEmail hides most of the local part so addresses can be logged, e.g. "a***@x.com".
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}

	return email[:1] + "***" + email[at:]
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}

	return fmt.Sprintf("%d %ss", n, unit)
}
