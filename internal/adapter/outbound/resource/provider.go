// Package resource reads plugin resources (block lists, settings) from the
// game directory.
package resource

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/chatcleaner/chat-cleaner/internal/domain/blocklist"
)

// Provider reads resources relative to a root directory.
type Provider struct {
	fs   afero.Fs
	root string
}

// Compile-time check that Provider implements blocklist.ResourceReader.
var _ blocklist.ResourceReader = (*Provider)(nil)

// NewProvider creates a Provider on the OS filesystem rooted at gameDir.
func NewProvider(gameDir string) *Provider {
	return NewProviderFs(afero.NewOsFs(), gameDir)
}

// NewProviderFs creates a Provider on an arbitrary afero filesystem. Relative
// paths passed to ReadResource are resolved against root; absolute paths are
// used as is.
func NewProviderFs(base afero.Fs, root string) *Provider {
	return &Provider{fs: base, root: root}
}

// Fs returns the underlying filesystem.
func (p *Provider) Fs() afero.Fs {
	return p.fs
}

// Resolve returns the filesystem path for a resource path.
func (p *Provider) Resolve(path string) string {
	if filepath.IsAbs(path) || p.root == "" {
		return path
	}
	return filepath.Join(p.root, path)
}

// ReadResource reads the whole resource. A missing resource yields an error
// wrapping blocklist.ErrResourceNotFound; an empty one yields no error.
func (p *Provider) ReadResource(path string) ([]byte, error) {
	full := p.Resolve(path)
	data, err := afero.ReadFile(p.fs, full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", full, blocklist.ErrResourceNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", full, err)
	}
	return data, nil
}
