package engine

import "errors"

var (
	// ErrNodeNotFound means a walk or definition referenced an unknown node.
	ErrNodeNotFound = errors.New("node not found")
	// ErrNoRoute means a router returned an outcome with no mapped target.
	ErrNoRoute = errors.New("no route for outcome")
	// ErrMaxSteps means a walk exceeded the forward-progress step cap.
	ErrMaxSteps = errors.New("step cap exceeded")
)
