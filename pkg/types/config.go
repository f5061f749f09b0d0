package types

import "errors"

// Config holds store location and feed parameters. Loaded from
// config.yaml by the CLI layer; validated before the store opens.
type Config struct {
	DataDir  string `json:"data_dir" yaml:"data_dir"`
	FeedAddr string `json:"feed_addr" yaml:"feed_addr"`
}

// Config validation errors.
var (
	ErrDataDirEmpty = errors.New("data directory must not be empty")
)

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return ErrDataDirEmpty
	}
	return nil
}
