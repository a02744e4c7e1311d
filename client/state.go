package client

import (
	enamlerrors "github.com/CrimsonAS/enaml/errors"
)

// State is the lifecycle state of a proxy widget.
type State int

const (
	Uncreated State = iota
	Created
	Initialized
	Bound
	Live
	Destroyed
)

var stateNames = [...]string{
	Uncreated:   "uncreated",
	Created:     "created",
	Initialized: "initialized",
	Bound:       "bound",
	Live:        "live",
	Destroyed:   "destroyed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "invalid"
	}
	return stateNames[s]
}

func errState(id string, have, want State) error {
	return enamlerrors.Newf(enamlerrors.ErrCodeInvalidState, "widget is %s, expected %s", have, want).
		WithContext("widget", id)
}
