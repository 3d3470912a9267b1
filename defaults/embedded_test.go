// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package defaults_test

import (
	"encoding/json"
	"testing"

	"github.com/framegrace/texelmenu/apps/settings"
	"github.com/framegrace/texelmenu/defaults"
)

func TestSystemConfigIsJSON(t *testing.T) {
	var cfg map[string]interface{}
	if err := json.Unmarshal(defaults.SystemConfig(), &cfg); err != nil {
		t.Fatalf("texelmenu.json: %v", err)
	}
	if _, ok := cfg["engine"]; !ok {
		t.Fatalf("engine section missing")
	}
}

func TestExamplesValidate(t *testing.T) {
	names := defaults.Examples()
	if len(names) == 0 {
		t.Fatalf("no embedded examples")
	}
	for _, name := range names {
		data, err := defaults.Example(name)
		if err != nil {
			t.Fatalf("Example(%q): %v", name, err)
		}
		def, err := settings.Parse(data)
		if err != nil {
			t.Fatalf("example %s: %v", name, err)
		}
		if def.Name != name {
			t.Fatalf("example %s declares name %q", name, def.Name)
		}
	}
	if _, err := defaults.Example("missing"); err == nil {
		t.Fatalf("missing example returned no error")
	}
}
