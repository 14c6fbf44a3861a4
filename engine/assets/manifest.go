package assets

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spaghettifunk/showroom/engine/config"
	"github.com/spaghettifunk/showroom/engine/resources"
)

var (
	ErrUnknownKind    = errors.New("unknown asset type")
	ErrDuplicateAsset = errors.New("duplicate asset name")
	ErrEmptyName      = errors.New("asset name is empty")
	ErrMissingPath    = errors.New("asset path is empty")
	ErrCubeFaces      = errors.New("cube texture needs exactly six faces")
)

// Descriptor names one asset to load. Name is its identity.
type Descriptor struct {
	Name string
	Kind Kind
	Path string
	// Paths lists the cube texture faces in +X, -X, +Y, -Y, +Z, -Z order.
	Paths []string
}

// Manifest is the ordered list of assets a scene needs.
type Manifest []Descriptor

type fileDescriptor struct {
	Name  string   `toml:"name" yaml:"name"`
	Type  string   `toml:"type" yaml:"type"`
	Path  string   `toml:"path" yaml:"path"`
	Paths []string `toml:"paths" yaml:"paths"`
}

type manifestFile struct {
	Assets []fileDescriptor `toml:"assets" yaml:"assets"`
}

// LoadManifest decodes the [[assets]] list of a TOML or YAML file, validates
// it and resolves relative paths against baseDir.
func LoadManifest(path, baseDir string) (Manifest, error) {
	var f manifestFile
	if err := config.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("load manifest %s: %w", path, err)
	}

	m := make(Manifest, 0, len(f.Assets))
	var errs []error
	for i, fd := range f.Assets {
		kind, err := ParseKind(fd.Type)
		if err != nil {
			errs = append(errs, fmt.Errorf("asset %d (%q): %w", i, fd.Name, err))
		}
		m = append(m, Descriptor{Name: fd.Name, Kind: kind, Path: fd.Path, Paths: fd.Paths})
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("load manifest %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("load manifest %s: %w", path, err)
	}
	return m.Resolve(baseDir), nil
}

// Validate reports every malformed entry and duplicate name.
func (m Manifest) Validate() error {
	var errs []error
	seen := make(map[string]int, len(m))
	for i, d := range m {
		if err := d.validate(); err != nil {
			errs = append(errs, fmt.Errorf("asset %d (%q): %w", i, d.Name, err))
		}
		if d.Name == "" {
			continue
		}
		if first, ok := seen[d.Name]; ok {
			errs = append(errs, fmt.Errorf("asset %d: %w %q, first declared at %d", i, ErrDuplicateAsset, d.Name, first))
			continue
		}
		seen[d.Name] = i
	}
	return errors.Join(errs...)
}

func (d Descriptor) validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrEmptyName
	}
	if !d.Kind.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownKind, int(d.Kind))
	}
	if d.Kind == KindCubeTexture {
		if len(d.Paths) != int(resources.CubeFaceCount) {
			return fmt.Errorf("%w, got %d", ErrCubeFaces, len(d.Paths))
		}
		for _, p := range d.Paths {
			if p == "" {
				return ErrMissingPath
			}
		}
		return nil
	}
	if d.Path == "" {
		return ErrMissingPath
	}
	return nil
}

// Resolve returns a copy with relative local paths joined to baseDir.
func (m Manifest) Resolve(baseDir string) Manifest {
	out := make(Manifest, len(m))
	for i, d := range m {
		d.Path = resolvePath(baseDir, d.Path)
		if d.Paths != nil {
			paths := make([]string, len(d.Paths))
			for j, p := range d.Paths {
				paths[j] = resolvePath(baseDir, p)
			}
			d.Paths = paths
		}
		out[i] = d
	}
	return out
}

// Files lists every local file the manifest reads.
func (m Manifest) Files() []string {
	var files []string
	for _, d := range m {
		for _, p := range append([]string{d.Path}, d.Paths...) {
			if p != "" && !isRemote(p) {
				files = append(files, filepath.Clean(p))
			}
		}
	}
	return files
}

// Lookup returns the descriptor reading the given file, if any.
func (m Manifest) Lookup(file string) (Descriptor, bool) {
	for _, d := range m {
		for _, p := range append([]string{d.Path}, d.Paths...) {
			if p != "" && samePath(p, file) {
				return d, true
			}
		}
	}
	return Descriptor{}, false
}

func resolvePath(baseDir, p string) string {
	if p == "" || baseDir == "" || filepath.IsAbs(p) || isRemote(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}

func samePath(a, b string) bool {
	if filepath.Clean(a) == filepath.Clean(b) {
		return true
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

func isRemote(p string) bool {
	return strings.Contains(p, "://")
}
