package tools

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ClockTool reports the current time in an IANA timezone.
type ClockTool struct {
	now func() time.Time
}

func NewClockTool() *ClockTool {
	return &ClockTool{now: time.Now}
}

func (t *ClockTool) Name() string {
	return "current_time"
}

func (t *ClockTool) Description() string {
	return "Get current time in any timezone. Input should be a timezone string like 'Asia/Dhaka'."
}

func (t *ClockTool) Invoke(_ context.Context, input string) (string, error) {
	zone := strings.TrimSpace(input)
	if zone == "" {
		zone = "Asia/Dhaka"
	}

	loc, err := time.LoadLocation(zone)
	if err != nil {
		return "", fmt.Errorf("unknown timezone %q", zone)
	}

	current := t.now().In(loc)
	return fmt.Sprintf("Current time in %s: %s", zone, current.Format("2006-01-02 15:04:05 MST")), nil
}
