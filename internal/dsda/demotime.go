package dsda

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const centisecond = 10 * time.Millisecond

// parseDemoTime parses demo times as shown on the site: "23.45", "1:23.45",
// "1:02:03.45" or without the fractional part.
func parseDemoTime(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty demo time")
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	var cs int
	if hasFrac {
		if len(frac) == 0 || len(frac) > 2 {
			return 0, fmt.Errorf("invalid demo time %q", s)
		}
		n, err := strconv.Atoi(frac)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid demo time %q", s)
		}
		if len(frac) == 1 {
			n *= 10
		}
		cs = n
	}

	parts := strings.Split(whole, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid demo time %q", s)
	}
	secs := 0
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid demo time %q", s)
		}
		secs = secs*60 + n
	}

	return time.Duration(secs)*time.Second + time.Duration(cs)*centisecond, nil
}

// formatDemoTime renders d as m:ss.cc, or h:mm:ss.cc past the hour.
func formatDemoTime(d time.Duration) string {
	cs := int64(d.Round(centisecond) / centisecond)
	h := cs / 360000
	m := cs / 6000 % 60
	s := cs / 100 % 60
	c := cs % 100
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, c)
	}
	return fmt.Sprintf("%d:%02d.%02d", m, s, c)
}
