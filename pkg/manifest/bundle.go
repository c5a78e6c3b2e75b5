package manifest

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ShimConfig describes the AS-02 application-format shim a bundle
// declares, loaded the way the teacher's storage.ConfigEnv loads
// env.yaml: unmarshal, then fill defaults. Grounded on
// pkg/storage/storage.go's ConfigEnv/yaml.v3 pattern.
type ShimConfig struct {
	ApplicationFormat string `yaml:"applicationFormat"`
	ShimName          string `yaml:"shimName"`
	Description       string `yaml:"description"`
}

// NewShimConfig unmarshals shimYAML and fills in the AS-02 defaults
// used by the §8 test scenarios.
func NewShimConfig(shimYAML []byte) (*ShimConfig, error) {
	var cfg ShimConfig
	if len(shimYAML) > 0 {
		if err := yaml.Unmarshal(shimYAML, &cfg); err != nil {
			return nil, fmt.Errorf("manifest: unmarshal shim config: %w", err)
		}
	}
	if cfg.ApplicationFormat == "" {
		cfg.ApplicationFormat = "bbc/as-02/1"
	}
	if cfg.ShimName == "" {
		cfg.ShimName = "Generic AS-02 shim"
	}
	return &cfg, nil
}

// Bundle owns the on-disk directory layout of §6 "AS-02 bundle
// on-disk layout": manifest.xml, shim.xml, <bundle>.mxf, and
// media/<bundle>_v<n>.mxf / _a<n>.mxf essence components.
type Bundle struct {
	Dir  string
	Name string

	Registry *Registry
	Shim     *ShimConfig

	pictureCount int
	soundCount   int
}

// NewBundle creates (idempotently) the bundle directory and its media
// subdirectory, per §6 "Environment interactions: directory creation
// is best-effort idempotent." Grounded on pkg/storage/storage.go's
// os.MkdirAll usage (errors.Is(err, os.ErrExist) is not fatal).
func NewBundle(dir, name string, registry *Registry, shim *ShimConfig) (*Bundle, error) {
	if err := mkdirIdempotent(dir); err != nil {
		return nil, err
	}
	if err := mkdirIdempotent(filepath.Join(dir, "media")); err != nil {
		return nil, err
	}
	return &Bundle{Dir: dir, Name: name, Registry: registry, Shim: shim}, nil
}

func mkdirIdempotent(dir string) error {
	err := os.MkdirAll(dir, 0o700)
	if err != nil && !errors.Is(err, os.ErrExist) {
		return fmt.Errorf("manifest: create directory %v: %w", dir, err)
	}
	if info, statErr := os.Stat(dir); statErr == nil && !info.IsDir() {
		return fmt.Errorf("manifest: %v exists but is not a directory", dir)
	}
	return nil
}

// MediaFilePath returns the absolute path for the next essence
// component of the given kind ("v" for picture, "a" for sound),
// following the <version>_v<N>.mxf / _a<N>.mxf naming of §6.
func (b *Bundle) MediaFilePath(isPicture bool) (absPath, relativeURI string) {
	var n int
	var suffix string
	if isPicture {
		n = b.pictureCount
		b.pictureCount++
		suffix = "v"
	} else {
		n = b.soundCount
		b.soundCount++
		suffix = "a"
	}
	fileName := fmt.Sprintf("%s_%s%d.mxf", b.Name, suffix, n)
	abs := filepath.Join(b.Dir, "media", fileName)
	rel := percentEncodeRelative(path.Join("media", fileName))
	return abs, rel
}

// PrimaryVersionPath returns the absolute path and relative URI of
// the bundle's primary version file, <bundle>.mxf at the bundle root.
func (b *Bundle) PrimaryVersionPath() (absPath, relativeURI string) {
	fileName := b.Name + ".mxf"
	return filepath.Join(b.Dir, fileName), percentEncodeRelative(fileName)
}

// percentEncodeRelative percent-encodes a path-only relative URI, per
// §6 "Relative URIs in the manifest are percent-encoded path-only
// references."
func percentEncodeRelative(p string) string {
	u := &url.URL{Path: p}
	return u.EscapedPath()
}
