// Package overlay implements the content overlay protocol: user
// supplied configs, maps and addons staged on the instance and copied
// into the game container, plus the rendered bootstrap script that
// installs the container in the first place.
//
// The local layout is a resources directory containing
// scripts/setup.sh (the bootstrap template) and an optional includes/
// directory whose recognized subdirectories map to container paths:
//
//	cfg, cfgs, configs -> /home/srcds/server/tf/cfg
//	maps               -> /home/srcds/server/tf/maps
//	addons             -> /home/srcds/server/tf/addons
//
// Anything else at the includes/ root is ignored.
package overlay

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Remote paths are fixed so re-provisioning always overwrites the same
// files and operators can find them without consulting the tool.
const (
	// RemoteSetupScript is where the rendered bootstrap script lands.
	RemoteSetupScript = "/root/srcds-setup.sh"
	// RemoteSetupLog collects all bootstrap and apply output.
	RemoteSetupLog = "/root/srcds-setup.log"
	// RemoteIncludesDir is the staging area for the overlay payload.
	RemoteIncludesDir = "/root/srcds-includes"
	// RemoteApplyScript copies staged content into the container.
	RemoteApplyScript = "/root/srcds-apply.sh"
	// RemoteMarkerFile signals bootstrap completion and carries the
	// setup script's exit code.
	RemoteMarkerFile = "/var/local/srcds-setup.done"

	// ContainerName is the game container managed on each instance.
	ContainerName = "srcds"

	// BaselineConfig is the config name owned by the container; a user
	// file with this name is installed under OverrideConfig instead.
	BaselineConfig = "server.cfg"
	// OverrideConfig is the name user baseline configs are renamed to.
	OverrideConfig = "srcdsctl.cfg"
)

const (
	setupScriptRelPath = "scripts/setup.sh"
	includesDirName    = "includes"
)

// destinationFor maps an includes/ subdirectory to its container path.
func destinationFor(name string) (string, bool) {
	switch name {
	case "cfg", "cfgs", "configs":
		return "/home/srcds/server/tf/cfg", true
	case "maps":
		return "/home/srcds/server/tf/maps", true
	case "addons":
		return "/home/srcds/server/tf/addons", true
	}
	return "", false
}

// isCfgCategory reports whether an includes/ subdirectory holds
// configs, which is where the baseline rename applies.
func isCfgCategory(name string) bool {
	dest, ok := destinationFor(name)
	return ok && strings.HasSuffix(dest, "/cfg")
}

// Bundle is a local resources directory.
type Bundle struct {
	dir string
}

// Load validates that dir holds a usable resources layout. The setup
// template must exist; includes/ is optional.
func Load(dir string) (*Bundle, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("resources directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("resources path %s is not a directory", dir)
	}

	setupPath := filepath.Join(dir, filepath.FromSlash(setupScriptRelPath))
	if _, err := os.Stat(setupPath); err != nil {
		return nil, fmt.Errorf("bootstrap template %s: %w", setupPath, err)
	}

	return &Bundle{dir: dir}, nil
}

// Dir returns the resources root.
func (b *Bundle) Dir() string { return b.dir }

// SetupTemplate reads the raw bootstrap script template.
func (b *Bundle) SetupTemplate() ([]byte, error) {
	p := filepath.Join(b.dir, filepath.FromSlash(setupScriptRelPath))
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("reading bootstrap template %s: %w", p, err)
	}
	return data, nil
}

// IncludesDir returns the local overlay payload directory. It may not
// exist.
func (b *Bundle) IncludesDir() string {
	return filepath.Join(b.dir, includesDirName)
}

// HasIncludes reports whether the bundle carries an overlay payload.
func (b *Bundle) HasIncludes() bool {
	info, err := os.Stat(b.IncludesDir())
	return err == nil && info.IsDir()
}

// Category describes one recognized includes/ subdirectory.
type Category struct {
	// Name is the local directory name (cfg, maps, ...).
	Name string
	// Dest is the container path the content lands in.
	Dest string
	// Files is the number of regular files, dotfiles excluded.
	Files int
	// RenamesBaseline is set when the category contains a server.cfg
	// that will be installed as srcdsctl.cfg.
	RenamesBaseline bool
}

// Plan is the classified view of an includes/ directory.
type Plan struct {
	Categories []Category
	// Skipped lists includes/ root entries that match no category.
	Skipped    []string
	TotalFiles int
}

// Plan classifies the overlay payload. A missing includes/ directory
// yields an empty plan.
func (b *Bundle) Plan() (*Plan, error) {
	plan := &Plan{}

	includes := b.IncludesDir()
	entries, err := os.ReadDir(includes)
	if errors.Is(err, os.ErrNotExist) {
		return plan, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", includes, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		dest, ok := destinationFor(name)
		if !ok || !entry.IsDir() {
			plan.Skipped = append(plan.Skipped, name)
			continue
		}

		cat := Category{Name: name, Dest: dest}
		root := filepath.Join(includes, name)
		err := filepath.WalkDir(root, func(p string, de fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if p != root && strings.HasPrefix(de.Name(), ".") {
				if de.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if !de.IsDir() {
				cat.Files++
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", root, err)
		}

		if isCfgCategory(name) {
			if _, err := os.Stat(filepath.Join(root, BaselineConfig)); err == nil {
				cat.RenamesBaseline = true
			}
		}

		plan.Categories = append(plan.Categories, cat)
		plan.TotalFiles += cat.Files
	}

	sort.Slice(plan.Categories, func(i, j int) bool {
		return plan.Categories[i].Name < plan.Categories[j].Name
	})
	sort.Strings(plan.Skipped)
	return plan, nil
}
