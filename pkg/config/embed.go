package config

import (
	_ "embed"
	"errors"
)

//go:embed default.toml
var defaultConfig []byte

// rawBytesProvider feeds embedded bytes into koanf.
type rawBytesProvider struct {
	bytes []byte
}

func (p *rawBytesProvider) ReadBytes() ([]byte, error) {
	return p.bytes, nil
}

func (p *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New("rawBytesProvider does not support Read()")
}
