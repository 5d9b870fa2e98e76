package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/cbus-station/cancmd-go/pkg/log"
)

// Stats holds aggregate statistics about a capture file.
type Stats struct {
	TotalEvents       int
	EventsByLayer     map[log.Layer]int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	Opcodes           map[string]int
	Outcomes          map[string]int
	Rejected          int
	StateChanges      map[log.StateEntity]int
	Connections       map[string]*ConnectionStats
	Errors            int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}

	processing []time.Duration
}

// ConnectionStats holds statistics for a single bridge connection.
type ConnectionStats struct {
	FirstSeen  time.Time
	LastSeen   time.Time
	Events     int
	RemoteAddr string
}

func newStats() *Stats {
	return &Stats{
		EventsByLayer:     make(map[log.Layer]int),
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		Opcodes:           make(map[string]int),
		Outcomes:          make(map[string]int),
		StateChanges:      make(map[log.StateEntity]int),
		Connections:       make(map[string]*ConnectionStats),
	}
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByLayer[event.Layer]++
	s.EventsByCategory[event.Category]++
	s.EventsByDirection[event.Direction]++

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	if event.ConnectionID != "" {
		conn, ok := s.Connections[event.ConnectionID]
		if !ok {
			conn = &ConnectionStats{FirstSeen: event.Timestamp, LastSeen: event.Timestamp}
			s.Connections[event.ConnectionID] = conn
		}
		conn.Events++
		if event.Timestamp.After(conn.LastSeen) {
			conn.LastSeen = event.Timestamp
		}
		if conn.RemoteAddr == "" {
			conn.RemoteAddr = event.RemoteAddr
		}
	}

	switch {
	case event.Frame != nil:
		if event.Frame.Opcode != "" {
			s.Opcodes[event.Frame.Opcode]++
		}
	case event.Outcome != nil:
		s.Outcomes[event.Outcome.Kind]++
		if event.Outcome.Error != "" {
			s.Rejected++
		}
		if event.Outcome.ProcessingTime != nil {
			s.processing = append(s.processing, *event.Outcome.ProcessingTime)
		}
	case event.StateChange != nil:
		s.StateChanges[event.StateChange.Entity]++
	case event.Error != nil:
		s.Errors++
	}
}

// ProcessingPercentile returns the p-th percentile (0-100) of outcome
// processing times, or zero when none were captured.
func (s *Stats) ProcessingPercentile(p float64) time.Duration {
	if len(s.processing) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), s.processing...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(p / 100 * float64(len(sorted)-1))
	return sorted[idx]
}

// RunStats analyzes the capture file and prints statistics.
func RunStats(path string, w io.Writer) error {
	stats := newStats()
	err := each(path, log.Filter{}, func(event log.Event) error {
		stats.add(event)
		return nil
	})
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== CBUS Capture Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Layer:")
	for _, layer := range []log.Layer{log.LayerTransport, log.LayerBus, log.LayerStation} {
		if count := stats.EventsByLayer[layer]; count > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", layer.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryFrame, log.CategoryOutcome, log.CategoryState, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Direction:")
	for _, dir := range []log.Direction{log.DirectionIn, log.DirectionOut} {
		if count := stats.EventsByDirection[dir]; count > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", dir.String()+":", count)
		}
	}

	if len(stats.Opcodes) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Frames by Opcode:")
		printCounts(w, stats.Opcodes)
	}

	if len(stats.Outcomes) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Outcomes:")
		printCounts(w, stats.Outcomes)
		if stats.Rejected > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", "rejected:", stats.Rejected)
		}
		if len(stats.processing) > 0 {
			fmt.Fprintf(w, "  Processing: p50 %s  p99 %s\n",
				formatDuration(stats.ProcessingPercentile(50)),
				formatDuration(stats.ProcessingPercentile(99)))
		}
	}

	if len(stats.StateChanges) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "State Changes:")
		for _, e := range []log.StateEntity{log.StateEntityConnection, log.StateEntityProgramming, log.StateEntityPower, log.StateEntityLocoSession} {
			if count := stats.StateChanges[e]; count > 0 {
				fmt.Fprintf(w, "  %-14s %d\n", e.String()+":", count)
			}
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Connections: %d\n", len(stats.Connections))
	if len(stats.Connections) > 0 {
		ids := make([]string, 0, len(stats.Connections))
		for id := range stats.Connections {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool {
			return stats.Connections[ids[i]].FirstSeen.Before(stats.Connections[ids[j]].FirstSeen)
		})
		for _, id := range ids {
			c := stats.Connections[id]
			fmt.Fprintf(w, "  [%s] %d events, duration %s", shortenConnID(id), c.Events,
				c.LastSeen.Sub(c.FirstSeen).Round(time.Millisecond))
			if c.RemoteAddr != "" {
				fmt.Fprintf(w, " from %s", c.RemoteAddr)
			}
			fmt.Fprintln(w)
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}

// printCounts prints counts by descending frequency, then by name.
func printCounts(w io.Writer, counts map[string]int) {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	for _, name := range names {
		fmt.Fprintf(w, "  %-14s %d\n", name+":", counts[name])
	}
}
