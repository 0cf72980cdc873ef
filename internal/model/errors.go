package model

import (
	"errors"
	"fmt"
)

var (
	// ErrLimitExceeded is returned when spawning beyond MaxPets.
	ErrLimitExceeded = errors.New("pet limit exceeded")
	// ErrNotDeletable is returned for builtin or in-use characters.
	ErrNotDeletable = errors.New("character cannot be deleted")
	// ErrInvalidFormat marks assets that are not decodable GIFs.
	ErrInvalidFormat = errors.New("not a valid GIF")
	// ErrUnknownCharacter is returned for ids missing from the catalog.
	ErrUnknownCharacter = errors.New("unknown character")
	// ErrUnknownPet is returned for ids of pets that are not active.
	ErrUnknownPet = errors.New("unknown pet")
	// ErrNoSurface is returned when no pet surface could be created at launch.
	ErrNoSurface = errors.New("unable to create pet surface")
	// ErrShutdown is returned for commands issued after shutdown.
	ErrShutdown = errors.New("pets are shut down")
)

// ConfigReadError reports a settings file that could not be read or parsed.
type ConfigReadError struct {
	Path string
	Err  error
}

func (e *ConfigReadError) Error() string {
	return fmt.Sprintf("failed to read settings %s: %v", e.Path, e.Err)
}

func (e *ConfigReadError) Unwrap() error {
	return e.Err
}

// ConfigWriteError reports a settings file that could not be written.
type ConfigWriteError struct {
	Path string
	Err  error
}

func (e *ConfigWriteError) Error() string {
	return fmt.Sprintf("failed to write settings %s: %v", e.Path, e.Err)
}

func (e *ConfigWriteError) Unwrap() error {
	return e.Err
}

// AssetDecodeError reports an import source that is not a decodable GIF.
type AssetDecodeError struct {
	Path string
	Err  error
}

func (e *AssetDecodeError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Path, ErrInvalidFormat, e.Err)
}

func (e *AssetDecodeError) Unwrap() error {
	return e.Err
}

// Is matches ErrInvalidFormat.
func (e *AssetDecodeError) Is(target error) bool {
	return target == ErrInvalidFormat
}
