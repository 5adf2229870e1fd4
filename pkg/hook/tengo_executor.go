package hook

import (
	"context"
	"sync"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/cperrin88/zipline/pkg/errors"
)

// TengoExecutor handles the execution of Tengo scripts.
type TengoExecutor struct {
	scripts map[HookType]*tengo.Compiled
	mutex   sync.RWMutex
}

// NewTengoExecutor creates a new Tengo script executor.
func NewTengoExecutor() *TengoExecutor {
	return &TengoExecutor{
		scripts: make(map[HookType]*tengo.Compiled),
	}
}

// contextVars are declared on every script so they can be set per execution.
var contextVars = []string{"protocol", "name", "fname", "path", "content", "vars"}

// Execute runs the specified hook type with the given context.
func (e *TengoExecutor) Execute(ctx context.Context, hookType HookType, hctx HookContext) error {
	e.mutex.RLock()
	compiled, exists := e.scripts[hookType]
	e.mutex.RUnlock()
	if !exists {
		return nil
	}

	// Compiled scripts share globals, so every run works on its own clone.
	run := compiled.Clone()
	values := map[string]interface{}{
		"protocol": hctx.Protocol,
		"name":     hctx.Name,
		"fname":    hctx.FName,
		"path":     hctx.Path,
		"content":  hctx.Content,
		"vars":     hctx.Vars,
	}
	for k, v := range values {
		if err := run.Set(k, v); err != nil {
			return errors.Wrapf(errors.ErrHookExecution, "%s: set %s: %v", hookType, k, err)
		}
	}

	if err := run.RunContext(ctx); err != nil {
		return errors.Wrapf(errors.ErrHookExecution, "%s: %v", hookType, err)
	}

	// Check for any returned error
	errVar := run.Get("err")
	switch v := errVar.Value().(type) {
	case error:
		return errors.Wrap(errors.ErrHookScript, v.Error())
	case string:
		if v != "" {
			return errors.Wrap(errors.ErrHookScript, v)
		}
	}
	return nil
}

// AddScript compiles script and stores it for the specified hook type.
func (e *TengoExecutor) AddScript(hookType HookType, script string) error {
	s := tengo.NewScript([]byte(script))
	s.SetImports(stdlib.GetModuleMap("fmt", "json", "os", "strings", "text", "times"))
	for _, name := range contextVars {
		if err := s.Add(name, nil); err != nil {
			return errors.Wrapf(errors.ErrHookScript, "%s: %v", hookType, err)
		}
	}
	if err := s.Add("err", ""); err != nil {
		return errors.Wrapf(errors.ErrHookScript, "%s: %v", hookType, err)
	}

	compiled, err := s.Compile()
	if err != nil {
		return errors.Wrapf(errors.ErrHookScript, "%s: %v", hookType, err)
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.scripts[hookType] = compiled
	return nil
}

// RemoveScript removes the script for the specified hook type.
func (e *TengoExecutor) RemoveScript(hookType HookType) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	delete(e.scripts, hookType)
}

// HasScript checks if a script exists for the specified hook type.
func (e *TengoExecutor) HasScript(hookType HookType) bool {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	_, exists := e.scripts[hookType]
	return exists
}
