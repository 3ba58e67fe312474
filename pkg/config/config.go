// Package config loads mdrive's drive-level configuration. Layering,
// lowest priority first: embedded defaults, then an optional
// .mdrive.toml (or mdrive.toml) in the drive folder. Command-line
// flags override both at the command layer.
package config

import (
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	ptoml "github.com/pelletier/go-toml/v2"

	"github.com/calebhs/mdrive/pkg/errors"
)

// Config file names probed in the drive folder, first hit wins.
var configFileNames = []string{".mdrive.toml", "mdrive.toml"}

// Config holds the drive-level settings. Paths for the include file
// and the two layout directories are relative to the drive folder.
type Config struct {
	IncludeFile    string `koanf:"include_file" toml:"include_file"`
	OrganizedDir   string `koanf:"organized_dir" toml:"organized_dir"`
	ShuffledDir    string `koanf:"shuffled_dir" toml:"shuffled_dir"`
	IndexFile      string `koanf:"index_file" toml:"index_file"`
	DeleteExcluded bool   `koanf:"delete_excluded" toml:"delete_excluded"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		IncludeFile:    "include.txt",
		OrganizedDir:   "organized",
		ShuffledDir:    "shuffled",
		IndexFile:      "", // resolved to the XDG data dir at use time
		DeleteExcluded: false,
	}
}

// Load returns the effective configuration for a drive folder.
func Load(driveRoot string) (Config, error) {
	k := koanf.New(".")

	// 1. Load embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return Config{}, errors.Wrap(err, errors.ErrConfigLoad, "failed to load defaults")
	}

	// 2. Load drive config if it exists
	for _, filename := range configFileNames {
		path := filepath.Join(driveRoot, filename)
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return Config{}, errors.Wrapf(err, errors.ErrConfigParse, "failed to load drive config from %s", path)
			}
			break
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, errors.Wrap(err, errors.ErrConfigParse, "failed to unmarshal config")
	}
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.IncludeFile == "" {
		return errors.New(errors.ErrConfigValid, "include_file must not be empty")
	}
	if cfg.OrganizedDir == "" || cfg.ShuffledDir == "" {
		return errors.New(errors.ErrConfigValid, "organized_dir and shuffled_dir must not be empty")
	}
	if cfg.OrganizedDir == cfg.ShuffledDir {
		return errors.New(errors.ErrConfigValid, "organized_dir and shuffled_dir must differ")
	}
	return nil
}

// WriteDefault writes a starter .mdrive.toml with the built-in
// defaults. Refuses to overwrite an existing file.
func WriteDefault(path string) error {
	data, err := ptoml.Marshal(Default())
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "cannot marshal default config")
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot create %s", path)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot write %s", path)
	}
	return nil
}
