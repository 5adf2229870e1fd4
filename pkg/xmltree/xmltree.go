// Package xmltree decodes XML documents into generic nested maps.
package xmltree

import (
	"slices"

	"github.com/clbanning/mxj/v2"

	zlerrors "github.com/cperrin88/zipline/pkg/errors"
)

// Tree is a decoded document. Elements become nested maps, repeated elements become
// []any and attributes are keyed with a leading "-".
type Tree map[string]any

// Options control decoding.
type Options struct {
	// ForceArray lists element names that are always decoded as []any, even when they
	// occur once.
	ForceArray []string
	// ErrorHandler is called with a parse error. When it returns nil, Parse returns an
	// empty tree and no error.
	ErrorHandler func(error) error
}

// Parse decodes data according to opts.
func Parse(data []byte, opts Options) (Tree, error) {
	m, err := mxj.NewMapXml(data)
	if err != nil {
		err = zlerrors.Tag(zlerrors.ErrUnprocessableEntity, err, "parse xml")
		if opts.ErrorHandler != nil {
			if herr := opts.ErrorHandler(err); herr != nil {
				return nil, herr
			}
			return Tree{}, nil
		}
		return nil, err
	}
	tree := Tree(m)
	if len(opts.ForceArray) > 0 {
		forceArrays(map[string]any(tree), opts.ForceArray)
	}
	return tree, nil
}

func forceArrays(node map[string]any, keys []string) {
	for k, v := range node {
		switch child := v.(type) {
		case map[string]any:
			forceArrays(child, keys)
			if slices.Contains(keys, k) {
				node[k] = []any{child}
			}
		case []any:
			for _, elem := range child {
				if m, ok := elem.(map[string]any); ok {
					forceArrays(m, keys)
				}
			}
		default:
			if slices.Contains(keys, k) {
				node[k] = []any{child}
			}
		}
	}
}
