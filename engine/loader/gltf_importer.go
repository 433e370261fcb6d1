package loader

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// gltfImporterImpl is the implementation of the gltfImporter interface.
type gltfImporterImpl struct{}

// gltfImporter combines the parser and extractors to produce an Asset.
type gltfImporter interface {
	// Import loads a glTF/GLB file and extracts its skeleton, curves and clips.
	//
	// Parameters:
	//   - path: the file path to the glTF or GLB file
	//
	// Returns:
	//   - *Asset: the imported asset, named after the file
	//   - error: error if import fails
	Import(path string) (*Asset, error)

	// ImportReader loads a glTF document from a reader.
	//
	// Parameters:
	//   - r: the reader providing glTF/GLB data
	//   - isGLB: true if the reader provides GLB binary data, false for glTF JSON
	//
	// Returns:
	//   - *Asset: the imported asset
	//   - error: error if import fails
	ImportReader(r io.Reader, isGLB bool) (*Asset, error)
}

var _ gltfImporter = &gltfImporterImpl{}

func newGLTFImporter() gltfImporter {
	return &gltfImporterImpl{}
}

func (imp *gltfImporterImpl) Import(path string) (*Asset, error) {
	parser := newGLTFParser()
	if err := parser.Parse(path); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	asset, err := imp.importFromParser(parser)
	if err != nil {
		return nil, err
	}
	asset.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return asset, nil
}

func (imp *gltfImporterImpl) ImportReader(r io.Reader, isGLB bool) (*Asset, error) {
	parser := newGLTFParser()
	if err := parser.ParseReader(r, isGLB); err != nil {
		return nil, fmt.Errorf("failed to parse from reader: %w", err)
	}
	return imp.importFromParser(parser)
}

// importFromParser extracts the first skin's skeleton, or the whole node tree when the document has no skin,
// followed by the curves and every animation.
func (imp *gltfImporterImpl) importFromParser(parser gltfParser) (*Asset, error) {
	skinIndex := -1
	if len(parser.Document().Skins) > 0 {
		skinIndex = 0
	}

	skeleton, boneMapping, err := newGLTFSkeletonExtractor(parser).ExtractSkeleton(skinIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to extract skeleton: %w", err)
	}

	animations := newGLTFAnimationExtractor(parser)
	curves, err := animations.ExtractCurves()
	if err != nil {
		return nil, fmt.Errorf("failed to extract curves: %w", err)
	}
	clips, err := animations.ExtractAllAnimations(boneMapping)
	if err != nil {
		return nil, fmt.Errorf("failed to extract animations: %w", err)
	}

	return &Asset{
		Skeleton: skeleton,
		Curves:   curves,
		Clips:    clips,
	}, nil
}
