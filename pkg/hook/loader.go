package hook

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cperrin88/zipline/pkg/errors"
)

// HookFileExtension is the extension of hook script files.
const HookFileExtension = ".tengo"

// LoadHookFile registers the script at path as a hook of type hookType.
func LoadHookFile(manager HookManager, hookType HookType, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", errors.ErrHookLoad, path, err)
	}
	if err := manager.AddHook(Hook{Type: hookType, Content: string(content)}); err != nil {
		return errors.Wrapf(err, "error adding hook %s", path)
	}
	return nil
}

// LoadHooksFromDir loads <hook-type>.tengo files from dir. Unknown hook names are skipped.
func LoadHooksFromDir(manager HookManager, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("%w: failed to read hooks directory %s: %w", errors.ErrHookLoad, dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != HookFileExtension {
			continue
		}

		hookType := HookType(strings.TrimSuffix(entry.Name(), HookFileExtension))
		if !hookType.Valid() {
			continue
		}

		if err := LoadHookFile(manager, hookType, filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}

	return nil
}

// HookTemplate generates a template for a hook script
func HookTemplate(hookType HookType) string {
	switch hookType {
	case PostFetch:
		return `// Post-fetch hook
// This script runs after an ftp entry was transferred
// Available variables:
// - protocol: string - protocol of the batch
// - name: string - entry name on the remote side
// - fname: string - decoded file name
// - path: string - local path of the transferred file
// - vars: map - custom variables passed to the hook
// Set err to a non-empty string to fail the entry.

// Example: reject empty transfers
/*
os := import("os")
info := os.stat(path)
if is_error(info) || info.size == 0 {
    err = "empty transfer: " + name
}
*/`

	case PostUnzip:
		return `// Post-unzip hook
// This script runs after an entry was decoded
// Available variables: same as post-fetch hook, plus
// - content: string - decoded content when it was read into memory

// Example: require a header row
/*
text := import("text")
if content != "" && !text.has_prefix(content, "id,") {
    err = "missing header in " + fname
}
*/`

	default:
		return "// Unknown hook type: " + string(hookType)
	}
}
