package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/seethroughlab/familliar-sub003/internal/downloads"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgJobEvent MsgKind = iota
	MsgStreamClosed
	MsgCancelIssued
)

// jobEventMsg is the constructor for [MsgJobEvent]
func jobEventMsg(event downloads.Event) Msg {
	return Msg{kind: MsgJobEvent, data: event}
}

// streamClosedMsg is the constructor for [MsgStreamClosed]
func streamClosedMsg() Msg {
	return Msg{kind: MsgStreamClosed}
}

// cancelIssuedMsg is the constructor for [MsgCancelIssued]
func cancelIssuedMsg(err error) Msg {
	return Msg{kind: MsgCancelIssued, data: err}
}
