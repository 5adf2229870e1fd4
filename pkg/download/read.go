package download

import (
	"bufio"
	"context"
	"os"

	zlerrors "github.com/cperrin88/zipline/pkg/errors"
	"github.com/cperrin88/zipline/pkg/xmltree"
)

// maxLineSize bounds a single line handed to ReadLines.
const maxLineSize = 4 << 20

// ReadLines calls fn for every line of the decoded file, without the line terminator.
// Reading stops at the first error returned by fn.
func (it *Item) ReadLines(ctx context.Context, fn func(line string) error) error {
	if err := it.checkLive(); err != nil {
		return err
	}
	f, err := os.Open(it.Path())
	if err != nil {
		return zlerrors.Tag(zlerrors.ErrFilesystem, err, "open "+it.Path())
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(scanner.Text()); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return zlerrors.Tag(zlerrors.ErrFilesystem, err, "read "+it.Path())
	}
	return nil
}

// ReadXML decodes the decoded file as an XML tree.
func (it *Item) ReadXML(opts xmltree.Options) (xmltree.Tree, error) {
	if err := it.checkLive(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(it.Path())
	if err != nil {
		return nil, zlerrors.Tag(zlerrors.ErrFilesystem, err, "read "+it.Path())
	}
	return xmltree.Parse(data, opts)
}
