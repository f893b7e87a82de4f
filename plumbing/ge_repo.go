package plumbing

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/brickster241/gemerge/utils/constants"
	"github.com/brickster241/gemerge/utils/types"
)

// Repository locates the git directory and work tree of one repository. Settings are prepared lazily, once.
type Repository struct {
	GitDir   string
	WorkTree string

	settingsOnce sync.Once
	settings     *types.RepoSettings
	settingsErr  error
}

// OpenRepository walks up from dir until it finds a .git directory.
func OpenRepository(dir string) (*Repository, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	for cur := filepath.Clean(abs); ; {
		gitDir := filepath.Join(cur, constants.GitDir)
		if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
			return &Repository{GitDir: gitDir, WorkTree: cur}, nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return nil, fmt.Errorf("not a git repository (or any of the parent directories): %s", constants.GitDir)
		}
		cur = parent
	}
}

// Settings returns the repository settings, loading .git/config on first use.
func (r *Repository) Settings() (*types.RepoSettings, error) {
	r.settingsOnce.Do(func() {
		if r.GitDir == "" {
			r.settingsErr = errors.New("cannot add settings for uninitialized repository")
			return
		}
		cfg, err := LoadRepoConfig(r.ConfigPath())
		if err != nil {
			r.settingsErr = err
			return
		}
		r.settings, r.settingsErr = PrepareRepoSettings(cfg)
	})
	return r.settings, r.settingsErr
}

func (r *Repository) IndexPath() string   { return filepath.Join(r.GitDir, "index") }
func (r *Repository) ConfigPath() string  { return filepath.Join(r.GitDir, "config") }
func (r *Repository) ObjectsPath() string { return filepath.Join(r.GitDir, "objects") }
