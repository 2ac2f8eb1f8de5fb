package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/ichi0g0y/luckydraw/internal/types"
	"gopkg.in/yaml.v3"
)

// optionsFile は共有する設定のYAML表現
type optionsFile struct {
	Name           string        `yaml:"name"`
	CustomGreeting string        `yaml:"customGreeting,omitempty"`
	ThemeID        types.ThemeID `yaml:"themeId,omitempty"`
	Options        []optionEntry `yaml:"options"`
}

type optionEntry struct {
	ID      string           `yaml:"id,omitempty"`
	Type    types.OptionKind `yaml:"type,omitempty"`
	Content string           `yaml:"content"`
	Label   string           `yaml:"label,omitempty"`
}

// refFunc tags an image location as local or remote.
type refFunc func(location string) types.ImageRef

func readOptionsFile(path string, refFor refFunc) (types.GameConfiguration, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return types.GameConfiguration{}, fmt.Errorf("failed to read options file: %w", err)
	}
	return parseOptions(raw, filepath.Dir(path), refFor)
}

// parseOptions builds a configuration. Relative image paths are resolved against baseDir.
func parseOptions(raw []byte, baseDir string, refFor refFunc) (types.GameConfiguration, error) {
	var file optionsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return types.GameConfiguration{}, fmt.Errorf("failed to parse options file: %w", err)
	}

	cfg := types.GameConfiguration{
		ID:             uuid.NewString(),
		Name:           strings.TrimSpace(file.Name),
		CustomGreeting: file.CustomGreeting,
		ThemeID:        file.ThemeID,
		Options:        make([]types.Option, 0, len(file.Options)),
	}
	if cfg.ThemeID == "" {
		cfg.ThemeID = types.ThemeClassic
	}
	if !cfg.ThemeID.Valid() {
		return types.GameConfiguration{}, fmt.Errorf("unknown theme %q", cfg.ThemeID)
	}

	for i, entry := range file.Options {
		id := entry.ID
		if id == "" {
			id = uuid.NewString()
		}

		var (
			opt types.Option
			err error
		)
		switch entry.Type {
		case "", types.OptionText:
			opt, err = types.NewTextOption(id, entry.Content, entry.Label)
		case types.OptionImage:
			ref := refFor(imageLocation(entry.Content, baseDir))
			opt, err = types.NewImageOption(id, ref, entry.Label)
		default:
			err = fmt.Errorf("%w: %q", types.ErrUnknownKind, entry.Type)
		}
		if err != nil {
			return types.GameConfiguration{}, fmt.Errorf("option %d: %w", i+1, err)
		}
		cfg.Options = append(cfg.Options, opt)
	}
	return cfg, nil
}

func imageLocation(content, baseDir string) string {
	if content == "" || strings.Contains(content, "://") || strings.HasPrefix(content, "data:") || filepath.IsAbs(content) {
		return content
	}
	return filepath.Join(baseDir, content)
}

// toOptionsFile is the inverse used when printing a resolved share.
func toOptionsFile(cfg types.GameConfiguration) optionsFile {
	out := optionsFile{
		Name:           cfg.Name,
		CustomGreeting: cfg.CustomGreeting,
		ThemeID:        cfg.ThemeID,
		Options:        make([]optionEntry, 0, len(cfg.Options)),
	}
	for _, opt := range cfg.Options {
		out.Options = append(out.Options, optionEntry{
			ID:      opt.ID,
			Type:    opt.Kind,
			Content: opt.Content(),
			Label:   opt.Label,
		})
	}
	return out
}
