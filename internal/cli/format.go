package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/rcliao/slowpost/internal/lifecycle"
	"github.com/rcliao/slowpost/internal/model"
)

const previewLen = 30

// sealed hides the content of letters that have not been opened.
func sealed(v lifecycle.View) lifecycle.View {
	if !v.Opened() {
		v.Content = ""
	}
	return v
}

func letterLine(v lifecycle.View, now time.Time) string {
	var when string
	switch v.Status {
	case model.StatusOpened:
		when = "opened " + humanize.RelTime(*v.OpenedAt, now, "ago", "from now")
	case model.StatusReady:
		when = "arrived " + humanize.RelTime(v.UnlockAt, now, "ago", "from now")
	default:
		if v.TimeStatus == model.StatusReady {
			when = "waiting for you at home"
		} else {
			when = "arrives " + humanize.RelTime(v.UnlockAt, now, "ago", "from now")
		}
	}
	line := fmt.Sprintf("%s  %-10s  %s", v.ID, v.Status, when)
	if v.Opened() {
		line += "  " + preview(v.Content)
	}
	return line
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) > previewLen {
		return string(r[:previewLen]) + "…"
	}
	return s
}
