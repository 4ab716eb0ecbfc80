// Package color assigns terminal and hex colors to task statuses and tasks.
package color

import (
	"fmt"
	"hash/fnv"

	"github.com/fatih/color"
)

// Hex colors shared with the web UI.
const (
	NotStartedHex = "#9CA3AF"
	InProgressHex = "#3B82F6"
	CompletedHex  = "#10B981"
	DelayedHex    = "#EF4444"
	TodayHex      = "#EF4444"
)

var statusHex = map[string]string{
	"not-started": NotStartedHex,
	"in-progress": InProgressHex,
	"completed":   CompletedHex,
	"delayed":     DelayedHex,
}

var statusAttr = map[string]color.Attribute{
	"not-started": color.FgHiBlack,
	"in-progress": color.FgBlue,
	"completed":   color.FgGreen,
	"delayed":     color.FgRed,
}

// palette for tasks without an explicit color
var taskPalette = []string{
	"#F87171",
	"#FB923C",
	"#FBBF24",
	"#A3E635",
	"#34D399",
	"#22D3EE",
	"#60A5FA",
	"#A78BFA",
	"#F472B6",
	"#94A3B8",
}

// StatusHex returns the hex color for a status, or the not-started color for
// anything unknown.
func StatusHex(status string) string {
	if h, ok := statusHex[status]; ok {
		return h
	}
	return NotStartedHex
}

// Status returns a terminal color for a status. fatih/color already honors
// NO_COLOR and non-tty outputs.
func Status(status string) *color.Color {
	attr, ok := statusAttr[status]
	if !ok {
		attr = color.Reset
	}
	return color.New(attr)
}

// Sstatus renders s in the terminal color of status.
func Sstatus(status, s string) string {
	return Status(status).Sprint(s)
}

// TaskHex returns explicit when set, otherwise a stable palette color keyed
// by the task id.
func TaskHex(taskID, explicit string) string {
	if explicit != "" {
		return explicit
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(taskID))
	return taskPalette[int(h.Sum32()%uint32(len(taskPalette)))]
}

// StatusLabel formats a status as a fixed-width colored tag for list output.
func StatusLabel(status string) string {
	return Sstatus(status, fmt.Sprintf("[%-11s]", status))
}
