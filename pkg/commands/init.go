package commands

import (
	stderrors "errors"
	"os"
	"path/filepath"

	"github.com/calebhs/mdrive/pkg/config"
	"github.com/calebhs/mdrive/pkg/errors"
	"github.com/calebhs/mdrive/pkg/logging"
)

const starterIncludeFile = `# mdrive rule file: one rule per line, first match wins.
#
#   <pattern>[TAB<mode>]
#
# <pattern> is a glob relative to the library root; ** matches any
# depth. Prefix with ! to exclude. <mode> is organized, shuffled or
# both (the default).
#
# Examples:
#   Led Zeppelin/**
#   !**/*.log
#   Cake/**	shuffled
`

// Init prepares a drive folder: writes a starter .mdrive.toml and an
// empty rule file so the first sync has something to load. Existing
// files are left untouched.
func Init(driveRoot string) error {
	logger := logging.GetLogger("commands.init")

	if err := os.MkdirAll(driveRoot, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "cannot create drive folder %s", driveRoot)
	}

	cfgPath := filepath.Join(driveRoot, ".mdrive.toml")
	if err := config.WriteDefault(cfgPath); err != nil {
		if stderrors.Is(err, os.ErrExist) {
			logger.Info().Str("path", cfgPath).Msg("Config exists, keeping it")
		} else {
			return err
		}
	} else {
		logger.Info().Str("path", cfgPath).Msg("Wrote default config")
	}

	includePath := filepath.Join(driveRoot, config.Default().IncludeFile)
	f, err := os.OpenFile(includePath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			logger.Info().Str("path", includePath).Msg("Rule file exists, keeping it")
			return nil
		}
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot create %s", includePath)
	}
	defer f.Close()

	if _, err := f.WriteString(starterIncludeFile); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot write %s", includePath)
	}
	logger.Info().Str("path", includePath).Msg("Wrote starter rule file")
	return nil
}
