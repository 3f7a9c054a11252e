package timing

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"
)

// WriteAnalysis writes the full timing report for the current session.
// requested is the interval the session is running at. A disabled recorder
// writes nothing.
func (r *Recorder) WriteAnalysis(w io.Writer, requested time.Duration) error {
	if !r.enabled {
		return nil
	}

	stats := r.Stats()
	pending := r.Pending()

	r.mu.Lock()
	severe := append([]time.Duration(nil), r.severe...)
	recent := append([]DisplayEvent(nil), r.recent...)
	now := r.clock.Now()
	r.mu.Unlock()

	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "=== RandomPitchPlayer timing analysis ===")
	fmt.Fprintf(bw, "Pitch changes: %d\n", stats.Intervals)
	fmt.Fprintf(bw, "Target interval: %s\n", FormatSeconds(requested))
	fmt.Fprintf(bw, "Pending renders: %d\n", stats.Pending)
	fmt.Fprintf(bw, "Superseded renders: %d\n", stats.Superseded)

	if stats.Intervals > 0 {
		fmt.Fprintln(bw)
		fmt.Fprintln(bw, "[STATS] render-based delay analysis")
		fmt.Fprintf(bw, "  mean delay: %s\n", FormatSeconds(stats.MeanDelay))
		fmt.Fprintf(bw, "  max delay: %s\n", FormatSeconds(stats.MaxDelay))
		fmt.Fprintf(bw, "  min delay: %s\n", FormatSeconds(stats.MinDelay))
		fmt.Fprintf(bw, "  delays over 100ms: %d\n", stats.OverNoticeable)
		fmt.Fprintf(bw, "  delays over 500ms: %d\n", stats.OverSevere)
		fmt.Fprintf(bw, "  delays over 1s: %d\n", stats.OverCritical)

		if len(severe) > 0 {
			labels := make([]string, len(severe))
			for i, d := range severe {
				labels[i] = FormatSeconds(d)
			}
			fmt.Fprintf(bw, "  severe delays: [%s]\n", strings.Join(labels, " "))
		}
	}

	if len(pending) > 0 {
		fmt.Fprintln(bw)
		fmt.Fprintln(bw, "[WAIT] renders awaiting confirmation")
		for _, p := range pending {
			fmt.Fprintf(bw, "  seq %d: %s (waiting %s)\n", p.Sequence, p.Pitch, FormatSeconds(now.Sub(p.RequestTime)))
		}
	}

	if stats.Intervals > 0 {
		fmt.Fprintln(bw)
		fmt.Fprintln(bw, "[TIME] actual display interval analysis")
		fmt.Fprintf(bw, "  mean interval: %s\n", FormatSeconds(stats.MeanInterval))
		fmt.Fprintf(bw, "  max interval: %s\n", FormatSeconds(stats.MaxInterval))
		fmt.Fprintf(bw, "  min interval: %s\n", FormatSeconds(stats.MinInterval))
	}

	fmt.Fprintln(bw)
	fmt.Fprintf(bw, "[LIST] last %d intervals\n", len(recent))
	for i, ev := range recent {
		fmt.Fprintf(bw, "  %2d. %s interval: %s, delay: %s\n", i+1, ev.Pitch, FormatSeconds(ev.Interval), FormatSeconds(ev.Delay))
	}

	return bw.Flush()
}
