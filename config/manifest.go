package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/wippyai/wasm-player/errors"
)

// ManifestFile is the game manifest looked up in the game folder.
const ManifestFile = "game.toml"

// Manifest describes a game folder.
type Manifest struct {
	Title    string `toml:"title"`
	Script   string `toml:"script"`
	Bindings string `toml:"bindings"`
}

// LoadManifest reads game.toml from folder. A missing manifest is not an
// error and yields an empty Manifest.
func LoadManifest(folder string) (Manifest, error) {
	var m Manifest

	path := filepath.Join(folder, ManifestFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return m, errors.Wrap(errors.PhaseConfig, errors.KindIO, err, "manifest load failed ("+path+")")
	}

	if _, err := toml.Decode(string(data), &m); err != nil {
		return m, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "manifest parse failed ("+path+")")
	}
	return m, nil
}
