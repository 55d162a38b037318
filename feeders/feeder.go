// Package feeders provides configuration feeders for suite configs:
// YAML and TOML files and environment variables. Feeders populate any
// struct; the environment feeder follows `env` struct tags.
package feeders

import (
	"errors"
)

// Feeder populates a config struct from one source. Sources that have
// nothing to contribute (an unset variable, an absent key) leave the
// target untouched rather than erroring, so feeders can be layered.
type Feeder interface {
	Feed(target interface{}) error
}

// Feeder errors
var (
	ErrTargetNotPointer = errors.New("target must be a non-nil pointer to a struct")
	ErrFieldNotSettable = errors.New("field cannot be set")
)

// Feed applies each feeder to target in order; later feeders override
// earlier ones for the fields they set.
func Feed(target interface{}, fs ...Feeder) error {
	for _, f := range fs {
		if err := f.Feed(target); err != nil {
			return err
		}
	}
	return nil
}
