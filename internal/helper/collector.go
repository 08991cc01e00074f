// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

package helper

import (
	"bytes"
	"strings"
	"sync"
)

// LineCollector is an io.Writer that splits a process stream into lines and
// accumulates them. Every complete line is stored followed by "\n"; Close
// flushes a trailing partial line and appends one final "\n" marking the end
// of the stream.
type LineCollector struct {
	mu      sync.Mutex
	pending []byte
	out     strings.Builder
	onLine  func(line string)
	closed  bool
}

// NewLineCollector creates a collector. onLine, if non-nil, is called for
// every line received, without the newline.
func NewLineCollector(onLine func(line string)) *LineCollector {
	return &LineCollector{onLine: onLine}
}

// Write implements io.Writer.
func (c *LineCollector) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return len(p), nil
	}

	c.pending = append(c.pending, p...)
	for {
		i := bytes.IndexByte(c.pending, '\n')
		if i < 0 {
			break
		}
		c.emit(string(bytes.TrimSuffix(c.pending[:i], []byte{'\r'})))
		c.pending = c.pending[i+1:]
	}
	return len(p), nil
}

// Close flushes any partial line and marks the end of the stream. Further
// writes are discarded.
func (c *LineCollector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	if len(c.pending) > 0 {
		c.emit(string(bytes.TrimSuffix(c.pending, []byte{'\r'})))
		c.pending = nil
	}
	c.out.WriteByte('\n')
	return nil
}

// String returns what has been collected so far.
func (c *LineCollector) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out.String()
}

func (c *LineCollector) emit(line string) {
	c.out.WriteString(line)
	c.out.WriteByte('\n')
	if c.onLine != nil {
		c.onLine(line)
	}
}
