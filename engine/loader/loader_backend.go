package loader

import "io"

// loaderBackend loads assets of one file format from files or streams.
type loaderBackend interface {
	// Load imports an asset from the given file path.
	//
	// Parameters:
	//   - path: the file path to load
	//
	// Returns:
	//   - *Asset: the imported asset
	//   - error: error if loading fails
	Load(path string) (*Asset, error)

	// LoadReader imports an asset from a reader stream.
	//
	// Parameters:
	//   - r: the reader providing asset data
	//   - isGLB: true if the reader provides GLB binary data, false for text-based formats
	//
	// Returns:
	//   - *Asset: the imported asset
	//   - error: error if loading fails
	LoadReader(r io.Reader, isGLB bool) (*Asset, error)
}
