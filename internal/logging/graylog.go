package logging

import (
	"fmt"
	"io"

	"github.com/Graylog2/go-gelf/gelf"
)

// NewGraylogWriter dials a GELF UDP transport for the given address
// ("host:port"). The returned writer chunks and compresses each record, so it
// can back a JSON handler directly.
func NewGraylogWriter(addr string) (io.Writer, error) {
	w, err := gelf.NewWriter(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial graylog at %s: %w", addr, err)
	}
	return w, nil
}
