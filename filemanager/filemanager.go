// Package filemanager provides memory-mapped views over column and
// partition files plus a small reference-counted cache, standing in for
// the external file-manager collaborator described by the core: "get_file
// -> ArrayT<T>, flush_dir, flush_file, clear, bytes_free, record_pages."
package filemanager

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/edsrzf/mmap-go"
)

// MappedFile is a reference-counted, memory-mapped view of a file.
type MappedFile struct {
	path string
	f    *os.File
	mm   mmap.MMap
	refs int32
}

// Bytes returns the mapped region. The slice is valid only while the
// MappedFile has not been released back to zero references.
func (m *MappedFile) Bytes() []byte {
	return m.mm
}

// Retain increments the reference count; callers that keep a MappedFile
// past the call that returned it must Retain and later Release it.
func (m *MappedFile) Retain() {
	atomic.AddInt32(&m.refs, 1)
}

// Release decrements the reference count.
func (m *MappedFile) Release() {
	atomic.AddInt32(&m.refs, -1)
}

func (m *MappedFile) inUse() bool {
	return atomic.LoadInt32(&m.refs) > 0
}

func (m *MappedFile) unmap() error {
	var errs []string
	if err := m.mm.Unmap(); err != nil {
		errs = append(errs, err.Error())
	}
	if err := m.f.Close(); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return fmt.Errorf("filemanager: unmap %s: %s", m.path, strings.Join(errs, "; "))
	}
	return nil
}

// FileManager caches memory-mapped files and tracks reference counts so
// that flushing refuses to evict a file another operation is reading.
type FileManager interface {
	// GetFile returns a memory-mapped, reference-counted view of path,
	// reusing a cached mapping when present.
	GetFile(path string) (*MappedFile, error)
	// FlushFile unmaps and evicts path from the cache. It is a no-op if
	// path is not cached, and an error if path is still referenced.
	FlushFile(path string) error
	// FlushDir flushes every cached file whose path has dir as a prefix.
	FlushDir(dir string) error
	// Clear forcibly unmaps and evicts every cached file, regardless of
	// reference count.
	Clear()
	// BytesFree reports the total size in bytes of every mapping this
	// manager has released, by flushing or by Clear; Clear does not reset it.
	BytesFree() uint64
	// RecordPages records that byte range [start, end) was paged in, for
	// cache-accounting purposes.
	RecordPages(start, end int64)
}

type manager struct {
	mu      sync.Mutex
	cache   map[string]*MappedFile
	freed   uint64
	pagedIn int64
}

// New creates an empty FileManager.
func New() FileManager {
	return &manager{cache: make(map[string]*MappedFile)}
}

func (m *manager) GetFile(path string) (*MappedFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if mf, ok := m.cache[path]; ok {
		mf.Retain()
		return mf, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("filemanager: open %s: %w", path, err)
	}
	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("filemanager: mmap %s: %w", path, err)
	}

	mf := &MappedFile{path: path, f: f, mm: mm, refs: 1}
	m.cache[path] = mf
	m.pagedIn += int64(len(mm))
	return mf, nil
}

func (m *manager) FlushFile(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flushLocked(path)
}

func (m *manager) flushLocked(path string) error {
	mf, ok := m.cache[path]
	if !ok {
		return nil
	}
	if mf.inUse() {
		return fmt.Errorf("filemanager: %s is still referenced", path)
	}
	size := uint64(len(mf.mm))
	if err := mf.unmap(); err != nil {
		return err
	}
	m.freed += size
	delete(m.cache, path)
	return nil
}

func (m *manager) FlushDir(dir string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prefix := strings.TrimSuffix(dir, "/") + "/"
	var errs []string
	for path := range m.cache {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		if err := m.flushLocked(path); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("filemanager: flush %s: %s", dir, strings.Join(errs, "; "))
	}
	return nil
}

func (m *manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for path, mf := range m.cache {
		size := uint64(len(mf.mm))
		_ = mf.unmap()
		m.freed += size
		delete(m.cache, path)
	}
}

func (m *manager) BytesFree() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.freed
}

func (m *manager) RecordPages(start, end int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if end > start {
		m.pagedIn += end - start
	}
}
