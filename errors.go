package corephys

import "errors"

// Sentinel errors for the fatal, programmer-error conditions described in
// the error handling design: these are never recovered internally, but
// unlike a panic they let a caller log-and-skip a single tick rather than
// crash the whole simulation.
var (
	ErrDoesNotFitInTree    = errors.New("corephys: body does not fit in octree")
	ErrInvalidParent       = errors.New("corephys: setting this parent would create a cycle")
	ErrMalformedMesh       = errors.New("corephys: triangle indices out of bounds")
	ErrEmptyCollisionBuffer = errors.New("corephys: collision query dispatched with no input")
	ErrStrategyUnavailable = errors.New("corephys: high-precision strategy has no active device")
)
