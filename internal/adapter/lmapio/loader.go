package lmapio

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"lmapd/internal/domain"
)

// Load reads the measurement configuration from a file or a directory.
// For a directory, every *.xml and *.json child file is parsed and
// merged in lexical readdir order. The merged tree is validated as one
// unit; on failure the whole tree is discarded.
func Load(path string) (*domain.Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	var cfg *domain.Config
	if info.IsDir() {
		cfg, err = loadDir(path)
	} else {
		cfg, err = loadFile(path)
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.PopulateCapabilities()
	return cfg, nil
}

func loadDir(dir string) (*domain.Config, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("config directory %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".xml", ".json":
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	cfg := domain.NewConfig()
	for _, name := range names {
		part, err := loadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		cfg.Merge(part)
	}
	return cfg, nil
}

func loadFile(path string) (*domain.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		cfg, err := ParseConfigJSON(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return cfg, nil
	}
	cfg, err := ParseConfigXML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
