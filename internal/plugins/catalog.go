// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package plugins

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Plugin is one entry of the host-exported plugin index.
type Plugin struct {
	URI      string   `json:"uri" yaml:"uri"`
	Name     string   `json:"name" yaml:"name"`
	Brand    string   `json:"brand,omitempty" yaml:"brand"`
	Label    string   `json:"label,omitempty" yaml:"label"`
	Author   string   `json:"author,omitempty" yaml:"author"`
	Version  string   `json:"version,omitempty" yaml:"version"`
	Category []string `json:"category,omitempty" yaml:"category"`
	Bundle   string   `json:"bundle,omitempty" yaml:"bundle"`
	Presets  []Preset `json:"presets,omitempty" yaml:"presets"`
	GUI      *GUI     `json:"gui,omitempty" yaml:"gui"`
}

// Preset is a factory or user preset of a plugin.
type Preset struct {
	URI   string `json:"uri" yaml:"uri"`
	Label string `json:"label" yaml:"label"`
	Path  string `json:"path,omitempty" yaml:"path"`
}

// GUI lists the resource files of a plugin's web interface.
type GUI struct {
	ResourcesDirectory string `json:"resources_directory" yaml:"resources_directory"`
	IconTemplate       string `json:"icon_template" yaml:"icon_template"`
	SettingsTemplate   string `json:"settings_template,omitempty" yaml:"settings_template"`
	Stylesheet         string `json:"stylesheet,omitempty" yaml:"stylesheet"`
	Javascript         string `json:"javascript,omitempty" yaml:"javascript"`
	Screenshot         string `json:"screenshot,omitempty" yaml:"screenshot"`
	Thumbnail          string `json:"thumbnail,omitempty" yaml:"thumbnail"`
}

// GUIMini is the subset of GUI needed to draw a pedal without loading its code.
type GUIMini struct {
	ResourcesDirectory string `json:"resources_directory"`
	IconTemplate       string `json:"icon_template"`
	Screenshot         string `json:"screenshot,omitempty"`
	Thumbnail          string `json:"thumbnail,omitempty"`
}

// Mini returns the reduced GUI description.
func (g GUI) Mini() GUIMini {
	return GUIMini{
		ResourcesDirectory: g.ResourcesDirectory,
		IconTemplate:       g.IconTemplate,
		Screenshot:         g.Screenshot,
		Thumbnail:          g.Thumbnail,
	}
}

// Filter selects plugins in SearchPlugins. Empty fields match everything.
type Filter struct {
	Query    string `json:"query"`
	Category string `json:"category"`
	Author   string `json:"author"`
	Brand    string `json:"brand"`
}

type catalogFile struct {
	Plugins []Plugin `json:"plugins" yaml:"plugins"`
}

// Catalog is an immutable, indexed plugin index.
type Catalog struct {
	plugins []Plugin
	byURI   map[string]int
	bundles map[string][]string
}

// NewCatalog indexes plugins. Later duplicates of a URI are dropped.
func NewCatalog(plugins []Plugin) *Catalog {
	c := &Catalog{
		byURI:   make(map[string]int, len(plugins)),
		bundles: make(map[string][]string),
	}
	for _, p := range plugins {
		if p.URI == "" {
			continue
		}
		if _, dup := c.byURI[p.URI]; dup {
			continue
		}
		if p.Bundle != "" {
			p.Bundle = cleanBundlePath(p.Bundle)
			c.bundles[p.Bundle] = append(c.bundles[p.Bundle], p.URI)
		}
		c.plugins = append(c.plugins, p)
	}

	sort.Slice(c.plugins, func(i, j int) bool { return c.plugins[i].URI < c.plugins[j].URI })
	for i, p := range c.plugins {
		c.byURI[p.URI] = i
	}
	for _, uris := range c.bundles {
		sort.Strings(uris)
	}
	return c
}

// LoadCatalog reads a YAML (.yaml, .yml) or JSON index. An empty path
// yields an empty catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return NewCatalog(nil), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plugin catalog: %w", err)
	}

	var file catalogFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &file)
	default:
		err = json.Unmarshal(data, &file)
	}
	if err != nil {
		return nil, fmt.Errorf("parse plugin catalog %s: %w", path, err)
	}
	return NewCatalog(file.Plugins), nil
}

// Len returns the number of plugins.
func (c *Catalog) Len() int {
	return len(c.plugins)
}

// Plugins returns every plugin sorted by URI.
func (c *Catalog) Plugins() []Plugin {
	out := make([]Plugin, len(c.plugins))
	copy(out, c.plugins)
	return out
}

// Plugin looks up a plugin by URI.
func (c *Catalog) Plugin(uri string) (Plugin, bool) {
	i, ok := c.byURI[uri]
	if !ok {
		return Plugin{}, false
	}
	return c.plugins[i], true
}

// Search returns the plugins matching f, sorted by URI.
func (c *Catalog) Search(f Filter) []Plugin {
	query := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]Plugin, 0)
	for _, p := range c.plugins {
		if query != "" &&
			!strings.Contains(strings.ToLower(p.Name), query) &&
			!strings.Contains(strings.ToLower(p.URI), query) &&
			!strings.Contains(strings.ToLower(p.Brand), query) {
			continue
		}
		if f.Category != "" && !containsFold(p.Category, f.Category) {
			continue
		}
		if f.Author != "" && !strings.EqualFold(p.Author, f.Author) {
			continue
		}
		if f.Brand != "" && !strings.EqualFold(p.Brand, f.Brand) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// BundlePlugins returns the URIs of the plugins in a bundle.
func (c *Catalog) BundlePlugins(path string) []string {
	uris := c.bundles[cleanBundlePath(path)]
	out := make([]string, len(uris))
	copy(out, uris)
	return out
}

// HasBundle reports whether any plugin comes from the bundle.
func (c *Catalog) HasBundle(path string) bool {
	return len(c.bundles[cleanBundlePath(path)]) > 0
}

func cleanBundlePath(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Clean(path)
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
