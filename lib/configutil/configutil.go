package configutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// LocalPath returns the path of the local override for a config file,
// `courseodds.json5` becomes `courseodds.local.json5`.
func LocalPath(name string) string {
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s.local%s", strings.TrimSuffix(name, ext), ext)
}

func readJson5[T any](path string) (T, bool, error) {
	var out T
	contents, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return out, false, nil
	}
	if err != nil {
		return out, false, err
	}
	if len(contents) == 0 {
		return out, true, nil
	}
	err = json5.Unmarshal(contents, &out)
	if err != nil {
		return out, true, fmt.Errorf("parse %s: %w", path, err)
	}
	return out, true, nil
}

// ReadConfig merges the following files on top of `out`, where higher number is more prioritized.
// 1. <name>.<ext>
// 2. <name>.local.<ext>
//
// Zero values in a file do not override what is already in `out`, set pointers
// (such as an explicit `false` behind a *bool) always do. It returns
// the paths that were read, or os.ErrNotExist if neither file exists.
func ReadConfig[T any](name string, out *T) ([]string, error) {
	var loaded []string
	for _, path := range []string{name, LocalPath(name)} {
		layer, found, err := readJson5[T](path)
		if err != nil {
			return loaded, err
		}
		if !found {
			continue
		}
		err = mergo.Merge(out, layer, mergo.WithOverride, mergo.WithoutDereference)
		if err != nil {
			return loaded, err
		}
		loaded = append(loaded, path)
	}
	if len(loaded) == 0 {
		return nil, os.ErrNotExist
	}
	return loaded, nil
}

// ReadRecursively is ReadConfig but it goes up the filesystem from `start`
// until the root to find a configuration file matching the name.
func ReadRecursively[T any](start, name string, out *T) ([]string, error) {
	current, err := filepath.Abs(start)
	if err != nil {
		return nil, err
	}

	for {
		loaded, err := ReadConfig(filepath.Join(current, name), out)
		if err == nil {
			return loaded, nil
		}
		if !os.IsNotExist(err) {
			return loaded, err
		}

		parent := filepath.Dir(current)
		if parent == current {
			return nil, os.ErrNotExist
		}
		current = parent
	}
}
