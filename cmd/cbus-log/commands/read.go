package commands

import (
	"fmt"

	"github.com/cbus-station/cancmd-go/pkg/log"
)

// each calls fn for every event in the capture file that matches filter.
func each(path string, filter log.Filter, fn func(log.Event) error) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for event, err := range reader.Events() {
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := fn(event); err != nil {
			return err
		}
	}
	return nil
}
