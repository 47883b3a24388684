package testutils

import (
	"github.com/mandelsoft/vfs/pkg/composefs"
	"github.com/mandelsoft/vfs/pkg/layerfs"
	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mandelsoft/vfs/pkg/projectionfs"
	"github.com/mandelsoft/vfs/pkg/readonlyfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	. "github.com/onsi/gomega"
)

// Must expects a successful call and returns its result.
func Must[T any](o T, err error) T {
	ExpectWithOffset(1, err).To(Succeed())
	return o
}

func MustBeSuccessful(err error) {
	ExpectWithOffset(1, err).To(Succeed())
}

func MustFailWithMessage(err error, msg string) {
	ExpectWithOffset(1, err).To(HaveOccurred())
	ExpectWithOffset(1, err.Error()).To(Equal(msg))
}

// TestFileSystem provides a file system mounting the given
// directory at the same path. Writes go to an in-memory layer
// unless readonly is requested.
func TestFileSystem(path string, readonly bool) (vfs.FileSystem, error) {
	overlay, err := projectionfs.New(osfs.OsFs, path)
	if err != nil {
		return nil, err
	}
	if readonly {
		overlay = readonlyfs.New(overlay)
	} else {
		overlay = layerfs.New(memoryfs.New(), overlay)
	}

	root := memoryfs.New()
	for _, d := range []string{path, "/tmp"} {
		err = root.MkdirAll(d, 0o700)
		if err != nil {
			return nil, err
		}
	}
	fs := composefs.New(root, "/tmp")
	err = fs.Mount(path, overlay)
	if err != nil {
		return nil, err
	}
	return fs, nil
}

// Must2 is Must for calls with two results.
func Must2[A, B any](a A, b B, err error) (A, B) {
	ExpectWithOffset(1, err).To(Succeed())
	return a, b
}
