package loader

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigSyntax matches every *ConfigSyntaxError.
	ErrConfigSyntax = errors.New("config syntax error")
	// ErrEnvironmental matches every *EnvironmentalError.
	ErrEnvironmental = errors.New("environmental error")
)

// ConfigSyntaxError reports malformed configuration declarations. Line and
// Column are zero when the underlying parser does not report a position; when
// they are set, Err already renders as "line:column: message".
type ConfigSyntaxError struct {
	Path   string
	Line   int
	Column int
	Err    error
}

func (e *ConfigSyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ConfigSyntaxError) Unwrap() error { return e.Err }

func (*ConfigSyntaxError) Is(target error) bool { return target == ErrConfigSyntax }

// EnvironmentalError reports an I/O failure while reading bundle files. It is
// distinct from syntax errors: the declarations may be fine, the filesystem
// is not.
type EnvironmentalError struct {
	Path string
	Err  error
}

func (e *EnvironmentalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *EnvironmentalError) Unwrap() error { return e.Err }

func (*EnvironmentalError) Is(target error) bool { return target == ErrEnvironmental }
