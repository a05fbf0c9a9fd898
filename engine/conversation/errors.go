package conversation

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownNPC          = errors.New("unknown npc")
	ErrNoAvailableDialogue = errors.New("no available dialogue")
	ErrNotRunning          = errors.New("no conversation running")
	ErrAlreadyRunning      = errors.New("conversation already running")
	ErrUnknownChoice       = errors.New("unknown choice")
)

// Content problems found during traversal. They end the conversation but
// never the session.
var (
	ErrDeadEnd         = errors.New("dead end: port not connected")
	ErrUnknownNodeKind = errors.New("unknown node kind")
	ErrMissingGraph    = errors.New("dialogue graph not defined")
	ErrMissingQuest    = errors.New("quest not defined")
	ErrNoVisibleNode   = errors.New("hidden lines loop without a visible node")
)

// ConfigError locates a content problem inside a dialogue graph.
type ConfigError struct {
	Graph string
	Node  string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Node == "" {
		return fmt.Sprintf("dialogue %q: %v", e.Graph, e.Err)
	}
	return fmt.Sprintf("dialogue %q, node %q: %v", e.Graph, e.Node, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }
