package apps

import "testing"

func TestNewRegistryLookupAndList(t *testing.T) {
	m := &Manifest{Apps: []Entry{
		{Name: "readme", Path: "elf/README.md"},
	}}
	r, err := NewRegistry(m, blobs)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if _, ok := r.Lookup("readme"); !ok {
		t.Fatal("expected readme to be present")
	}
	if _, ok := r.Lookup("nonexistent"); ok {
		t.Fatal("nonexistent app should not be found")
	}
	if got := r.List(); len(got) != 1 || got[0] != "readme" {
		t.Fatalf("List() = %v, want [readme]", got)
	}
}

func TestLoadManifestParsesYAML(t *testing.T) {
	m, err := LoadManifest("manifest.yaml")
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if len(m.Apps) == 0 {
		t.Fatal("expected at least one app entry")
	}
	names := map[string]bool{}
	for _, e := range m.Apps {
		names[e.Name] = true
	}
	if !names["hello"] {
		t.Fatal("expected a hello entry in the default manifest")
	}
}
