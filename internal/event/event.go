// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

// Package event carries session updates from the coordinator to whatever
// presents them: the console presenter, the agent log, tests.
package event

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Type identifies the kind of event.
type Type string

const (
	TypeStateChanged   Type = "state.changed"
	TypePromptShown    Type = "prompt.shown"
	TypePromptHidden   Type = "prompt.hidden"
	TypeCancelShown    Type = "cancel.shown"
	TypeNotice         Type = "notice"
	TypeProfileUpdated Type = "profile.updated"
)

// NoticeKind classifies a notice event.
type NoticeKind string

const (
	NoticeError     NoticeKind = "error"
	NoticeTimeout   NoticeKind = "timeout"
	NoticeCancelled NoticeKind = "cancelled"
	NoticeBusy      NoticeKind = "busy"
	NoticeInfo      NoticeKind = "info"
)

// SessionView is what a presenter shows for the login control.
type SessionView struct {
	State            string `json:"state" yaml:"state"`
	DisplayText      string `json:"display_text" yaml:"display_text"`
	MemberStatus     string `json:"member_status,omitempty" yaml:"member_status,omitempty"`
	UserName         string `json:"user_name,omitempty" yaml:"user_name,omitempty"`
	ProfileImagePath string `json:"profile_image_path,omitempty" yaml:"profile_image_path,omitempty"`
}

// Event is a single presentation update.
type Event struct {
	ID        ulid.ULID
	Type      Type
	Timestamp time.Time
	// Session is set on state.changed and profile.updated.
	Session SessionView
	// Title and Message carry prompt and notice text.
	Title   string
	Message string
	Notice  NoticeKind
}

// New returns an event of the given type with a fresh id and timestamp.
func New(t Type) Event {
	now := time.Now()
	return Event{ID: ids.next(now), Type: t, Timestamp: now}
}

// StateChanged builds a state.changed event.
func StateChanged(view SessionView) Event {
	e := New(TypeStateChanged)
	e.Session = view
	return e
}

// PromptShown builds a prompt.shown event.
func PromptShown(title, message string) Event {
	e := New(TypePromptShown)
	e.Title = title
	e.Message = message
	return e
}

// PromptHidden builds a prompt.hidden event.
func PromptHidden() Event {
	return New(TypePromptHidden)
}

// CancelShown builds a cancel.shown event.
func CancelShown(message string) Event {
	e := New(TypeCancelShown)
	e.Message = message
	return e
}

// Notice builds a notice event.
func Notice(kind NoticeKind, message string) Event {
	e := New(TypeNotice)
	e.Notice = kind
	e.Message = message
	return e
}

// ProfileUpdated builds a profile.updated event.
func ProfileUpdated(view SessionView) Event {
	e := New(TypeProfileUpdated)
	e.Session = view
	return e
}

// Publisher accepts events. Implementations must not block.
type Publisher interface {
	Publish(Event)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(Event)

// Publish calls f(e).
func (f PublisherFunc) Publish(e Event) { f(e) }

// Discard drops every event.
var Discard Publisher = PublisherFunc(func(Event) {})
