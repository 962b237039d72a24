// Package manifest edits a project's composer.json.
//
// The manifest is decoded into ordered maps, so members keep their file
// order. Only the sections the installer owns (require, require-dev and
// autoload.psr-4) are changed. Output is normalized to composer's layout
// (four-space indent, unescaped slashes and HTML characters, trailing
// newline): a manifest already in that layout round-trips unchanged, any
// other formatting is rewritten.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/iancoleman/orderedmap"
)

// FileName is the manifest file name at the project root.
const FileName = "composer.json"

// Sections owned by the installer.
const (
	SectionRequire    = "require"
	SectionRequireDev = "require-dev"
)

// ErrPackageMissing indicates a package expected in a section is absent.
var ErrPackageMissing = errors.New("package not present in manifest")

// Entry is one package requirement.
type Entry struct {
	Name    string
	Version string
}

// Manifest is a parsed composer.json.
type Manifest struct {
	root *orderedmap.OrderedMap
}

// Parse decodes a composer.json document.
func Parse(data []byte) (*Manifest, error) {
	if !bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		return nil, fmt.Errorf("failed to parse %s: expected JSON object", FileName)
	}
	root := newMap()
	if err := json.Unmarshal(data, root); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}
	normalize(root)
	return &Manifest{root: root}, nil
}

// normalize stores nested objects by pointer with HTML escaping off, so
// constraints such as "<2.0" are written back as they were read.
func normalize(o *orderedmap.OrderedMap) {
	for _, k := range o.Keys() {
		v, _ := o.Get(k)
		o.Set(k, normalizeValue(v))
	}
}

func normalizeValue(v interface{}) interface{} {
	if n, ok := asMap(v); ok {
		n.SetEscapeHTML(false)
		normalize(n)
		return n
	}
	if list, ok := v.([]interface{}); ok {
		for i := range list {
			list[i] = normalizeValue(list[i])
		}
	}
	return v
}

// Bytes encodes the manifest.
func (m *Manifest) Bytes() ([]byte, error) {
	var compact bytes.Buffer
	enc := json.NewEncoder(&compact)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m.root); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", FileName, err)
	}
	var out bytes.Buffer
	if err := json.Indent(&out, bytes.TrimSpace(compact.Bytes()), "", "    "); err != nil {
		return nil, fmt.Errorf("failed to indent %s: %w", FileName, err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func newMap() *orderedmap.OrderedMap {
	o := orderedmap.New()
	o.SetEscapeHTML(false)
	return o
}

// asMap returns v as an ordered map. Decoded nested objects are stored by value.
func asMap(v interface{}) (*orderedmap.OrderedMap, bool) {
	switch o := v.(type) {
	case orderedmap.OrderedMap:
		return &o, true
	case *orderedmap.OrderedMap:
		return o, true
	}
	return nil, false
}

// child loads a member object of parent, or an empty one if absent.
func child(parent *orderedmap.OrderedMap, name string) (*orderedmap.OrderedMap, error) {
	v, ok := parent.Get(name)
	if !ok {
		return newMap(), nil
	}
	o, ok := asMap(v)
	if !ok {
		return nil, fmt.Errorf("section %q is not an object", name)
	}
	return o, nil
}

// Packages lists the entries of a section in file order.
func (m *Manifest) Packages(section string) ([]Entry, error) {
	obj, err := child(m.root, section)
	if err != nil {
		return nil, err
	}
	keys := obj.Keys()
	entries := make([]Entry, 0, len(keys))
	for _, k := range keys {
		v, _ := obj.Get(k)
		version, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("section %q package %q: version is not a string", section, k)
		}
		entries = append(entries, Entry{Name: k, Version: version})
	}
	return entries, nil
}

// Version returns the constraint of a package in a section.
func (m *Manifest) Version(section, name string) (string, bool, error) {
	entries, err := m.Packages(section)
	if err != nil {
		return "", false, err
	}
	for _, e := range entries {
		if e.Name == name {
			return e.Version, true, nil
		}
	}
	return "", false, nil
}

// Require adds a package to a section. If the package is already required
// the manifest is left alone and added is false. With config.sort-packages
// the section is kept in composer's package order.
func (m *Manifest) Require(section, name, version string) (added bool, err error) {
	obj, err := child(m.root, section)
	if err != nil {
		return false, err
	}
	if _, exists := obj.Get(name); exists {
		return false, nil
	}

	obj.Set(name, version)
	if m.sortPackages() {
		obj.SortKeys(func(keys []string) {
			sort.SliceStable(keys, func(i, j int) bool { return packageLess(keys[i], keys[j]) })
		})
	}
	m.root.Set(section, obj)
	return true, nil
}

// Remove deletes a package from a section.
func (m *Manifest) Remove(section, name string) error {
	obj, err := child(m.root, section)
	if err != nil {
		return err
	}
	if _, ok := obj.Get(name); !ok {
		return fmt.Errorf("%w: %s in %s", ErrPackageMissing, name, section)
	}
	obj.Delete(name)
	m.root.Set(section, obj)
	return nil
}

// Autoload returns the psr-4 path mapped to namespace.
func (m *Manifest) Autoload(namespace string) (string, bool, error) {
	psr4, _, err := m.psr4()
	if err != nil {
		return "", false, err
	}
	v, ok := psr4.Get(namespace)
	if !ok {
		return "", false, nil
	}
	path, ok := v.(string)
	if !ok {
		return "", false, fmt.Errorf("autoload namespace %q: path is not a string", namespace)
	}
	return path, true, nil
}

// SetAutoload maps namespace to path in autoload.psr-4. An empty path
// removes the mapping.
func (m *Manifest) SetAutoload(namespace, path string) error {
	psr4, autoload, err := m.psr4()
	if err != nil {
		return err
	}
	if path == "" {
		psr4.Delete(namespace)
	} else {
		psr4.Set(namespace, path)
	}
	autoload.Set("psr-4", psr4)
	m.root.Set("autoload", autoload)
	return nil
}

func (m *Manifest) psr4() (psr4 *orderedmap.OrderedMap, autoload *orderedmap.OrderedMap, err error) {
	autoload, err = child(m.root, "autoload")
	if err != nil {
		return nil, nil, err
	}
	psr4, err = child(autoload, "psr-4")
	if err != nil {
		return nil, nil, fmt.Errorf("autoload: %w", err)
	}
	return psr4, autoload, nil
}

// sortPackages reports whether config.sort-packages is enabled.
func (m *Manifest) sortPackages() bool {
	cfg, err := child(m.root, "config")
	if err != nil {
		return false
	}
	v, ok := cfg.Get("sort-packages")
	if !ok {
		return false
	}
	enabled, _ := v.(bool)
	return enabled
}

// packageLess orders packages the way composer does with sort-packages:
// platform packages first, then lexical order.
func packageLess(a, b string) bool {
	pa, pb := isPlatform(a), isPlatform(b)
	if pa != pb {
		return pa
	}
	return strings.ToLower(a) < strings.ToLower(b)
}

func isPlatform(name string) bool {
	return name == "php" || strings.HasPrefix(name, "ext-") || strings.HasPrefix(name, "lib-")
}
