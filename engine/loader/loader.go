package loader

import (
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-overlay/engine/model"
)

// LoaderBackendType identifies the asset file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeGLTF selects the glTF/GLB loader backend.
	BackendTypeGLTF LoaderBackendType = iota
)

// CurveSpec declares one float curve an asset exposes and the value it rests at.
type CurveSpec struct {
	Name    string
	Default float32
}

// Asset is an imported skeleton with the float curves and animation clips authored for it.
type Asset struct {
	// Name is the asset identifier; file imports use the file name without extension.
	Name string

	// Skeleton is the bone hierarchy, parents first.
	Skeleton *model.Skeleton

	// Curves lists the float curves the asset's clips may drive.
	Curves []CurveSpec

	// Clips holds every animation of the asset in document order.
	Clips []*model.AnimationClip
}

// Avatar builds an avatar over the asset's skeleton declaring every asset curve.
// Options are applied after the asset's own, so they may rename the avatar or add further curves.
//
// Parameters:
//   - options: additional avatar options
//
// Returns:
//   - *model.Avatar: the avatar
//   - error: error if the skeleton or a curve is invalid
func (a *Asset) Avatar(options ...model.AvatarBuilderOption) (*model.Avatar, error) {
	opts := make([]model.AvatarBuilderOption, 0, len(a.Curves)+len(options)+1)
	if a.Name != "" {
		opts = append(opts, model.WithAvatarName(a.Name))
	}
	for _, c := range a.Curves {
		opts = append(opts, model.WithCurve(c.Name, c.Default))
	}
	opts = append(opts, options...)
	return model.NewAvatar(a.Skeleton, opts...)
}

// Clip looks up a clip by name.
func (a *Asset) Clip(name string) (*model.AnimationClip, bool) {
	for _, c := range a.Clips {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	assetCache map[string]*Asset

	backend loaderBackend
}

// Loader imports skeletons and clips from asset files and caches the results.
// The file format is handled by a backend selected at construction.
type Loader interface {
	// Load imports an asset file and caches the result by path.
	// If the asset is already cached, the cached version is returned.
	//
	// Parameters:
	//   - path: the file path to the asset file (.gltf or .glb)
	//
	// Returns:
	//   - *Asset: the loaded asset
	//   - error: error if the format is unsupported or loading fails
	Load(path string) (*Asset, error)

	// LoadReader imports an asset from a reader stream and caches it by the given name.
	//
	// Parameters:
	//   - name: the cache key and asset name
	//   - r: the reader providing asset data
	//   - isGLB: true if the reader provides GLB binary data
	//
	// Returns:
	//   - *Asset: the loaded asset
	//   - error: error if loading fails
	LoadReader(name string, r io.Reader, isGLB bool) (*Asset, error)

	// Get retrieves a cached asset by key. Returns nil if not found.
	Get(key string) *Asset

	// Assets returns a copy of the asset cache.
	Assets() map[string]*Asset
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the specified backend type and options applied.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeGLTF)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		assetCache: make(map[string]*Asset),
	}

	switch backendType {
	case BackendTypeGLTF:
		l.backend = newGLTFLoaderBackend()
	}

	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) Load(path string) (*Asset, error) {
	if cached := l.Get(path); cached != nil {
		return cached, nil
	}

	backend, err := l.resolveBackend(path)
	if err != nil {
		return nil, err
	}

	asset, err := backend.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	l.store(path, asset)
	return asset, nil
}

func (l *loader) LoadReader(name string, r io.Reader, isGLB bool) (*Asset, error) {
	if cached := l.Get(name); cached != nil {
		return cached, nil
	}
	if l.backend == nil {
		return nil, fmt.Errorf("loader has no backend")
	}

	asset, err := l.backend.LoadReader(r, isGLB)
	if err != nil {
		return nil, fmt.Errorf("failed to load from reader %q: %w", name, err)
	}
	asset.Name = name

	l.store(name, asset)
	return asset, nil
}

func (l *loader) Get(key string) *Asset {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.assetCache[key]
}

func (l *loader) Assets() map[string]*Asset {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]*Asset, len(l.assetCache))
	for k, v := range l.assetCache {
		result[k] = v
	}
	return result
}

func (l *loader) store(key string, asset *Asset) {
	l.mu.Lock()
	l.assetCache[key] = asset
	l.mu.Unlock()

	log.Printf("[Loader] %s: %d bones, %d curves, %d clips", key, len(asset.Skeleton.Bones), len(asset.Curves), len(asset.Clips))
}

// resolveBackend selects an appropriate loader backend based on the file extension.
func (l *loader) resolveBackend(path string) (loaderBackend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".gltf", ".glb":
		if l.backend != nil {
			return l.backend, nil
		}
	}
	return nil, fmt.Errorf("unsupported asset format: %s", ext)
}
