package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rcliao/slowpost/internal/ink"
	"github.com/rcliao/slowpost/internal/lifecycle"
	"github.com/rcliao/slowpost/internal/model"
)

// draftSession drives one composition from line-oriented input. Every line
// is offered as an addition to the draft; commands start with a slash.
type draftSession struct {
	svc   *lifecycle.Service
	in    io.Reader
	hints io.Writer
}

// run composes until /send, /cancel or end of input. It returns the sent
// letter, or nil when the draft was cancelled or blank.
func (s draftSession) run(ctx context.Context, prefill string, route model.Route) (*model.Letter, error) {
	d, err := s.svc.BeginDraft(ctx, prefill)
	if err != nil {
		return nil, err
	}
	if err := s.meter(ctx, d); err != nil {
		return nil, err
	}

	sc := bufio.NewScanner(s.in)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "/send":
			return s.svc.Submit(ctx, d.Text(), route)
		case line == "/cancel":
			fmt.Fprintln(s.hints, "draft discarded")
			return nil, nil
		case strings.HasPrefix(line, "/del"):
			n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "/del")))
			if err != nil || n < 0 {
				fmt.Fprintln(s.hints, "usage: /del N")
				continue
			}
			if _, err := s.svc.Compose(ctx, d, dropLast(d.Text(), n)); err != nil {
				return nil, err
			}
		default:
			proposed := d.Text()
			if proposed != "" && !strings.HasSuffix(proposed, "\n") {
				proposed += "\n"
			}
			proposed += line
			before := d.Len()
			res, err := s.svc.Compose(ctx, d, proposed)
			if err != nil {
				return nil, err
			}
			switch {
			case res.Throttled:
				fmt.Fprintf(s.hints, "slow down: kept %d of %d new characters\n", res.Accepted, ink.Count(proposed)-before)
			case d.Len() < ink.Count(proposed):
				fmt.Fprintln(s.hints, "out of ink for this week")
			}
		}
		if err := s.meter(ctx, d); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return s.svc.Submit(ctx, d.Text(), route)
}

func (s draftSession) meter(ctx context.Context, d *lifecycle.Draft) error {
	st, err := s.svc.Ink(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.hints, "[%d chars, ink %d/%d left]\n", d.Len(), st.Remaining-d.Len(), st.Limit)
	return nil
}

func dropLast(s string, n int) string {
	r := []rune(s)
	if n >= len(r) {
		return ""
	}
	return string(r[:len(r)-n])
}
