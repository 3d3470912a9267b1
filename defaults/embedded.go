// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: defaults/embedded.go
// Summary: Embedded default configuration and example menu definitions.

package defaults

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed texelmenu.json menus/*.yaml
var files embed.FS

// SystemConfig returns the embedded texelmenu.json.
func SystemConfig() []byte {
	data, err := files.ReadFile("texelmenu.json")
	if err != nil {
		panic(fmt.Sprintf("defaults: missing embedded texelmenu.json: %v", err))
	}
	return data
}

// Examples lists the embedded example menus by name.
func Examples() []string {
	entries, err := fs.ReadDir(files, "menus")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	sort.Strings(names)
	return names
}

// Example returns the YAML of the named example menu.
func Example(name string) ([]byte, error) {
	if name == "" {
		return nil, fmt.Errorf("example name is required")
	}
	data, err := files.ReadFile("menus/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("unknown example %q", name)
	}
	return data, nil
}
