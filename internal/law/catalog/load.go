// Package catalog loads law catalogs from YAML files and keeps the current
// validated catalog available for concurrent readers.
package catalog

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"altar/internal/law"
)

//go:embed default.yaml
var defaultCatalog []byte

// maxParallelDecode bounds concurrent file decodes when loading a directory.
const maxParallelDecode = 8

// Default returns the catalog embedded in the binary.
func Default() (*law.Catalog, error) {
	rules, version, err := decode(defaultCatalog, "default.yaml")
	if err != nil {
		return nil, err
	}
	return law.NewCatalog(rules, version)
}

// Load reads a catalog from path. A file is decoded on its own; a directory
// contributes every *.yaml and *.yml file in it, concatenated in file name
// order. The combined rule set is validated before it is returned.
func Load(path string) (*law.Catalog, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat catalog %s: %w", path, err)
	}
	if !info.IsDir() {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", path, err)
		}
		rules, version, err := decode(data, filepath.Base(path))
		if err != nil {
			return nil, err
		}
		return law.NewCatalog(rules, version)
	}
	return loadDir(path)
}

// LoadOrDefault loads path, or the embedded catalog when path is empty.
func LoadOrDefault(path string) (*law.Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	return Load(path)
}

func loadDir(dir string) (*law.Catalog, error) {
	files, err := catalogFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("catalog directory %s: %w", dir, law.ErrEmptyCatalog)
	}

	parts := make([][]law.Rule, len(files))
	raw := make([][]byte, len(files))

	g := new(errgroup.Group)
	g.SetLimit(maxParallelDecode)
	for i, file := range files {
		g.Go(func() error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read catalog %s: %w", file, err)
			}
			rules, _, err := decode(data, filepath.Base(file))
			if err != nil {
				return err
			}
			parts[i], raw[i] = rules, data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var rules []law.Rule
	for _, p := range parts {
		rules = append(rules, p...)
	}
	return law.NewCatalog(rules, digest(raw...))
}

// catalogFiles lists the YAML files directly inside dir, sorted by name.
func catalogFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read catalog directory %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !isCatalogFile(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	slices.Sort(files)
	return files, nil
}

func isCatalogFile(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

// decode parses one catalog document. Every record that fails to convert is
// reported; the returned version is the document's own label or, when it has
// none, a digest of its bytes.
func decode(data []byte, name string) ([]law.Rule, string, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, "", fmt.Errorf("decode catalog %s: %w", name, law.ErrEmptyCatalog)
		}
		return nil, "", fmt.Errorf("decode catalog %s: %w", name, err)
	}

	rules := make([]law.Rule, 0, len(doc.Rules))
	var problems []error
	for i, rec := range doc.Rules {
		rule, err := rec.toRule()
		if err != nil {
			problems = append(problems, &law.RuleError{Index: i, ID: rec.ID, Reason: err.Error()})
			continue
		}
		rules = append(rules, rule)
	}
	if len(problems) > 0 {
		return nil, "", fmt.Errorf("decode catalog %s: %w", name, &law.CatalogError{Problems: problems})
	}

	version := strings.TrimSpace(doc.Version)
	if version == "" {
		version = digest(data)
	}
	return rules, version, nil
}

// Encode writes rules as a catalog document that Load accepts.
func Encode(w io.Writer, version string, rules []law.Rule) error {
	doc := document{Version: version, Rules: make([]record, len(rules))}
	for i, r := range rules {
		doc.Rules[i] = fromRule(r)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	return enc.Close()
}

func digest(parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	return "sha256:" + hex.EncodeToString(h.Sum(nil))[:12]
}
