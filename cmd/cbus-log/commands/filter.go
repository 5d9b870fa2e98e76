package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cbus-station/cancmd-go/pkg/log"
)

// FilterOptions specifies filtering criteria for the filter command.
type FilterOptions struct {
	Output    string
	ConnID    string
	TimeStart string
	TimeEnd   string
	Layer     string
	Direction string
	Category  string
	Opcode    string
	Entity    string
}

// filter converts the options into a reader filter.
func (opts FilterOptions) filter() (log.Filter, error) {
	filter := log.Filter{
		ConnectionID: opts.ConnID,
		Opcode:       strings.ToUpper(opts.Opcode),
	}

	if opts.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeStart)
		if err != nil {
			return filter, fmt.Errorf("invalid time-start format: %w", err)
		}
		filter.TimeStart = &t
	}
	if opts.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeEnd)
		if err != nil {
			return filter, fmt.Errorf("invalid time-end format: %w", err)
		}
		filter.TimeEnd = &t
	}
	if opts.Layer != "" {
		l, err := ParseLayerFlag(opts.Layer)
		if err != nil {
			return filter, err
		}
		filter.Layer = &l
	}
	if opts.Direction != "" {
		d, err := ParseDirectionFlag(opts.Direction)
		if err != nil {
			return filter, err
		}
		filter.Direction = &d
	}
	if opts.Category != "" {
		c, err := ParseCategoryFlag(opts.Category)
		if err != nil {
			return filter, err
		}
		filter.Category = &c
	}
	if opts.Entity != "" {
		e, err := ParseEntityFlag(opts.Entity)
		if err != nil {
			return filter, err
		}
		filter.Entity = &e
	}
	return filter, nil
}

// RunFilter copies the events matching opts into a new capture file and
// reports the count on w.
func RunFilter(path string, opts FilterOptions, w io.Writer) error {
	filter, err := opts.filter()
	if err != nil {
		return err
	}

	logger, err := log.NewFileLogger(opts.Output)
	if err != nil {
		return fmt.Errorf("failed to create output logger: %w", err)
	}

	count := 0
	err = each(path, filter, func(event log.Event) error {
		logger.Log(event)
		count++
		return nil
	})
	if closeErr := logger.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Filtered %d events to %s\n", count, opts.Output)
	return nil
}
