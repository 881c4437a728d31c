package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hupe1980/framecast/internal/fs"
)

// LocalStore implements BlobStore on the local file system. Blob names may
// contain slashes; they map to sub-directories under the root.
//
// Writes are atomic: data lands in a temp file that is renamed into place on
// Close, so readers never observe a half-written blob.
type LocalStore struct {
	fsys fs.FileSystem
	root string
}

// NewLocalStore creates a LocalStore rooted at dir. If fsys is nil the local
// OS file system is used; tests inject fs.FaultyFS here.
func NewLocalStore(fsys fs.FileSystem, dir string) *LocalStore {
	if fsys == nil {
		fsys = fs.Default
	}
	return &LocalStore{fsys: fsys, root: dir}
}

func (s *LocalStore) path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// Open opens a blob for reading.
func (s *LocalStore) Open(_ context.Context, name string) (Blob, error) {
	f, err := s.fsys.OpenFile(s.path(name), os.O_RDONLY, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &localBlob{f: f, size: info.Size()}, nil
}

// Create creates a new writable blob backed by a temp file.
func (s *LocalStore) Create(_ context.Context, name string) (WritableBlob, error) {
	final := s.path(name)
	if err := s.fsys.MkdirAll(filepath.Dir(final), 0o755); err != nil {
		return nil, err
	}
	tmp := final + ".tmp"
	f, err := s.fsys.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	return &localWritableBlob{fsys: s.fsys, f: f, tmp: tmp, final: final}, nil
}

// Put writes a blob atomically via Create/Close.
func (s *LocalStore) Put(ctx context.Context, name string, data []byte) error {
	w, err := s.Create(ctx, name)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// Delete removes a blob. Missing blobs are not an error.
func (s *LocalStore) Delete(_ context.Context, name string) error {
	err := s.fsys.Remove(s.path(name))
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// List walks the root and returns slash-separated blob names with the given
// prefix, sorted.
func (s *LocalStore) List(_ context.Context, prefix string) ([]string, error) {
	var names []string
	err := s.walk("", &names)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	out := names[:0]
	for _, n := range names {
		if strings.HasPrefix(n, prefix) && !strings.HasSuffix(n, ".tmp") {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *LocalStore) walk(rel string, names *[]string) error {
	entries, err := s.fsys.ReadDir(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil {
		return err
	}
	for _, e := range entries {
		child := e.Name()
		if rel != "" {
			child = rel + "/" + child
		}
		if e.IsDir() {
			if err := s.walk(child, names); err != nil {
				return err
			}
			continue
		}
		*names = append(*names, child)
	}
	return nil
}

type localBlob struct {
	f    fs.File
	size int64
}

func (b *localBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	return b.f.ReadAt(p, off)
}

func (b *localBlob) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	if off >= b.size {
		return io.NopCloser(strings.NewReader("")), nil
	}
	if off+length > b.size {
		length = b.size - off
	}
	return io.NopCloser(io.NewSectionReader(readerAtNoCtx{b.f}, off, length)), nil
}

func (b *localBlob) Size() int64 { return b.size }

func (b *localBlob) Close() error { return b.f.Close() }

// readerAtNoCtx adapts fs.File to io.ReaderAt for SectionReader.
type readerAtNoCtx struct{ f fs.File }

func (r readerAtNoCtx) ReadAt(p []byte, off int64) (int, error) { return r.f.ReadAt(p, off) }

type localWritableBlob struct {
	fsys     fs.FileSystem
	f        fs.File
	tmp      string
	final    string
	writeErr error
}

func (w *localWritableBlob) Write(p []byte) (int, error) {
	n, err := w.f.Write(p)
	if err != nil {
		w.writeErr = err
	}
	return n, err
}

func (w *localWritableBlob) Sync() error { return w.f.Sync() }

// Close finalizes the blob by renaming the temp file into place. If any write
// failed, the temp file is discarded instead; a truncated blob must never
// become visible.
func (w *localWritableBlob) Close() error {
	if w.writeErr != nil {
		_ = w.f.Close()
		_ = w.fsys.Remove(w.tmp)
		return w.writeErr
	}
	if err := w.f.Sync(); err != nil {
		_ = w.f.Close()
		_ = w.fsys.Remove(w.tmp)
		return err
	}
	if err := w.f.Close(); err != nil {
		_ = w.fsys.Remove(w.tmp)
		return err
	}
	return w.fsys.Rename(w.tmp, w.final)
}
