package loader

import "io"

// gltfLoaderBackendImpl is the loaderBackend for glTF/GLB files.
// It delegates to the gltfImporter for parsing and extraction.
type gltfLoaderBackendImpl struct {
	importer gltfImporter
}

var _ loaderBackend = &gltfLoaderBackendImpl{}

func newGLTFLoaderBackend() loaderBackend {
	return &gltfLoaderBackendImpl{
		importer: newGLTFImporter(),
	}
}

func (b *gltfLoaderBackendImpl) Load(path string) (*Asset, error) {
	return b.importer.Import(path)
}

func (b *gltfLoaderBackendImpl) LoadReader(r io.Reader, isGLB bool) (*Asset, error) {
	return b.importer.ImportReader(r, isGLB)
}
