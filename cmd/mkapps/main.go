// Command mkapps packs pre-built user ELF images into apps/elf/ and
// writes the manifest cmd/kernel embeds at compile time, replacing the
// linker-provided _num_app/_app_names symbols (spec.md section 6) with a
// build-time step instead of a boot-time one.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"gopkg.in/yaml.v3"

	"rvcore/apps"
)

// sourceEntry names one host-filesystem ELF binary (built by an external
// riscv64 toolchain this repository does not itself provide) and the app
// name it should be exposed under.
type sourceEntry struct {
	Name string `yaml:"name"`
	Src  string `yaml:"src"`
}

type sourceManifest struct {
	Apps []sourceEntry `yaml:"apps"`
}

func main() {
	srcManifestPath := flag.String("src", "apps.src.yaml", "YAML list of {name, src} host ELF binaries to pack")
	outDir := flag.String("out", "apps/elf", "directory the packed ELF blobs are written into")
	outManifest := flag.String("manifest", "apps/manifest.yaml", "path the embeddable manifest is written to")
	flag.Parse()

	entries, err := readSourceManifest(*srcManifestPath)
	if err != nil {
		log.Fatalf("mkapps: %v", err)
	}
	if len(entries) == 0 {
		log.Fatalf("mkapps: %s names no apps to pack", *srcManifestPath)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("mkapps: creating %s: %v", *outDir, err)
	}

	bar := progressbar.Default(int64(len(entries)), "packing apps")
	manifest := apps.Manifest{Apps: make([]apps.Entry, 0, len(entries))}
	for _, e := range entries {
		dst := filepath.Join(*outDir, e.Name)
		if err := copyFile(e.Src, dst); err != nil {
			log.Fatalf("mkapps: packing %q: %v", e.Name, err)
		}
		manifest.Apps = append(manifest.Apps, apps.Entry{
			Name: e.Name,
			Path: filepath.ToSlash(filepath.Join("elf", e.Name)),
		})
		_ = bar.Add(1)
	}
	bar.Close()

	if err := writeManifest(*outManifest, manifest); err != nil {
		log.Fatalf("mkapps: writing manifest: %v", err)
	}
	fmt.Printf("mkapps: packed %d apps into %s\n", len(entries), *outDir)
}

func readSourceManifest(path string) ([]sourceEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var m sourceManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return m.Apps, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

func writeManifest(path string, m apps.Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
