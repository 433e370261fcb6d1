package oneoff

import "errors"

var (
	// ErrInitialization is returned by Initialize when the component cannot be built.
	// The component is unusable after this error.
	ErrInitialization = errors.New("one-off animation initialization failed")

	// ErrUseAfterTeardown is returned by every mutating operation after Teardown.
	ErrUseAfterTeardown = errors.New("one-off animation used after teardown")

	// ErrInvalidClip is returned by Play for a nil clip or one with a non-positive duration.
	ErrInvalidClip = errors.New("invalid one-off clip")
)
