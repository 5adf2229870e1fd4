package hook

import (
	"fmt"

	zlerrors "github.com/cperrin88/zipline/pkg/errors"
)

// ErrUnsupportedHookType is returned when a hook names an unknown type.
func ErrUnsupportedHookType(hookType string) error {
	return fmt.Errorf("%w: unsupported hook type: %s", zlerrors.ErrHookLoad, hookType)
}
