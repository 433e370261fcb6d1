package playable

import "errors"

var (
	// ErrInvalidHandle is returned when a NodeHandle does not refer to a live node, either because it was
	// never issued by the graph or because the node it referred to has been destroyed.
	ErrInvalidHandle = errors.New("invalid node handle")

	// ErrInvalidSlot is returned when an input slot is outside the node's input count or is already occupied.
	ErrInvalidSlot = errors.New("invalid input slot")

	// ErrInputCount is returned when a node cannot take the requested number of inputs.
	ErrInputCount = errors.New("unsupported input count")

	// ErrCycle is returned when a connection would make a node feed itself.
	ErrCycle = errors.New("connection would create a cycle")

	// ErrReleased is returned by every operation on a graph after Release.
	ErrReleased = errors.New("graph released")

	// ErrNilArgument is returned when a node is created from a nil clip, source or job.
	ErrNilArgument = errors.New("nil node argument")
)
