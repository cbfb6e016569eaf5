package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/LdDl/reframe-go/reframe"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// Source supplies frames in presentation order. It returns io.EOF when there are no more frames.
type Source interface {
	Next(ctx context.Context) (reframe.Frame, error)
}

// Sink consumes composed output frames in presentation order.
type Sink interface {
	Write(ctx context.Context, frame reframe.Frame) error
}

var imageExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".bmp":  {},
	".tif":  {},
	".tiff": {},
}

// DirSource reads still images from a directory in lexical order, one image per frame.
type DirSource struct {
	paths []string
	next  int
}

// NewDirSource lists images in dir
func NewDirSource(dir string) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't list frames in '%s'", dir)
	}
	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))]; ok {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return &DirSource{paths: paths}, nil
}

// Len returns number of frames
func (source *DirSource) Len() int {
	return len(source.paths)
}

// Next implements Source
func (source *DirSource) Next(ctx context.Context) (reframe.Frame, error) {
	if err := ctx.Err(); err != nil {
		return reframe.Frame{}, err
	}
	if source.next >= len(source.paths) {
		return reframe.Frame{}, io.EOF
	}
	path := source.paths[source.next]
	img, err := imaging.Open(path)
	if err != nil {
		return reframe.Frame{}, errors.Wrapf(err, "Can't decode frame '%s'", path)
	}
	frame := reframe.NewFrame(int64(source.next), img)
	source.next++
	return frame, nil
}

// DirSink writes output frames into a directory as PNG files named by frame index.
type DirSink struct {
	dir string
}

// NewDirSink creates dir if needed
func NewDirSink(dir string) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "Can't create output directory '%s'", dir)
	}
	return &DirSink{dir: dir}, nil
}

// Path returns file path for frame index
func (sink *DirSink) Path(index int64) string {
	return filepath.Join(sink.dir, fmt.Sprintf("frame_%06d.png", index))
}

// Write implements Sink
func (sink *DirSink) Write(ctx context.Context, frame reframe.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := sink.Path(frame.Index)
	if err := imaging.Save(frame.Image, path); err != nil {
		return errors.Wrapf(err, "Can't save frame '%s'", path)
	}
	return nil
}
