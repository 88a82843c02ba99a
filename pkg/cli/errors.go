package cli

import "fmt"

// ConfigError represents an error in configuration.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

// CommandError represents an error from a command execution.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}

// RegionError represents a failure to open or create a region file.
type RegionError struct {
	Path string
	Err  error
}

func (e *RegionError) Error() string {
	return fmt.Sprintf("region %s: %v", e.Path, e.Err)
}

func (e *RegionError) Unwrap() error {
	return e.Err
}

// NewRegionError creates a new RegionError.
func NewRegionError(path string, err error) *RegionError {
	return &RegionError{
		Path: path,
		Err:  err,
	}
}
