package domain

import "errors"

// ErrSessionNotFound is returned when a conversation has no stored state.
var ErrSessionNotFound = errors.New("session not found")

// ErrFlowNotFound is returned when a flow id is unknown to the loader.
var ErrFlowNotFound = errors.New("flow not found")

// ErrNodeNotFound is returned when a node id is not part of a flow.
var ErrNodeNotFound = errors.New("node not found")
