// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/mscloader/nexussso/internal/event"
)

// Presenter prints session events as console lines.
type Presenter struct {
	out  io.Writer
	done chan struct{}
}

// NewPresenter creates a Presenter writing to out.
func NewPresenter(out io.Writer) *Presenter {
	return &Presenter{out: out, done: make(chan struct{})}
}

// Run prints events from ch until it is closed.
func (p *Presenter) Run(ch <-chan event.Event) {
	go func() {
		defer close(p.done)
		for e := range ch {
			if line := formatEvent(e); line != "" {
				fmt.Fprintln(p.out, line)
			}
		}
	}()
}

// Wait blocks until Run's channel has been drained and closed.
func (p *Presenter) Wait() {
	<-p.done
}

func formatEvent(e event.Event) string {
	switch e.Type {
	case event.TypeStateChanged:
		return "[" + formatView(e.Session) + "]"
	case event.TypePromptShown:
		return e.Title + ": " + e.Message
	case event.TypeCancelShown:
		return e.Message + " (Ctrl-C to cancel)"
	case event.TypeNotice:
		return string(e.Notice) + ": " + e.Message
	case event.TypeProfileUpdated:
		return "profile image: " + e.Session.ProfileImagePath
	default:
		return ""
	}
}

func formatView(v event.SessionView) string {
	if v.UserName == "" {
		return v.DisplayText
	}
	return fmt.Sprintf("%s %s (%s)", v.DisplayText, v.UserName, v.MemberStatus)
}

// promptConfirmer asks yes/no questions on the console. Anything but "y" or
// "yes" is a no, including end of input.
type promptConfirmer struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

func newPromptConfirmer(in io.Reader, out io.Writer) *promptConfirmer {
	return &promptConfirmer{in: bufio.NewReader(in), out: out}
}

// ConfirmLogout implements session.Confirmer. It blocks on the console
// until a line is read.
func (c *promptConfirmer) ConfirmLogout(_ context.Context, question, title string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.out, "%s: %s [y/N] ", title, question)
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(c.out)
		return false
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// lockedWriter serializes writes from the presenter and the command.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func newLockedWriter(w io.Writer) *lockedWriter {
	return &lockedWriter{w: w}
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
