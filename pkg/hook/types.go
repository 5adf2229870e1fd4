package hook

import "context"

// HookType represents the type of hook.
type HookType string

// Supported hook types.
const (
	PostFetch HookType = "post-fetch"
	PostUnzip HookType = "post-unzip"
)

// HookTypes lists every supported hook type in execution order.
var HookTypes = []HookType{PostFetch, PostUnzip}

// Valid reports whether t is a supported hook type.
func (t HookType) Valid() bool {
	for _, known := range HookTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Hook represents a hook script with its type and content.
type Hook struct {
	Type    HookType
	Content string
}

// HookContext contains information passed to hooks.
type HookContext struct {
	Protocol string
	Name     string
	FName    string
	Path     string
	Content  string
	Vars     map[string]interface{}
}

// HookManager defines the interface for managing hooks.
type HookManager interface {
	// Execute runs the specified hook type with the given context
	Execute(ctx context.Context, hookType HookType, hctx HookContext) error

	// AddHook adds a new hook
	AddHook(hook Hook) error

	// RemoveHook removes a hook of the specified type
	RemoveHook(hookType HookType) error

	// HasHook checks if a hook of the specified type exists
	HasHook(hookType HookType) bool
}
