// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package pagefile implements store.BackingStore over a single on-disk
// file organized into fixed 4 KiB pages, the reference backing medium for
// the node store. Nodes are appended to a monotonically growing arena;
// reclaiming abandoned space across historical batches is left to the
// host database (spec section 1 places history-depth GC out of scope).
package pagefile

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/exp/slices"
)

const pageSize = 1 << 12 // 4 KiB

// lengthPrefixSize is the size of the 4-byte little-endian length header
// written ahead of every node payload.
const lengthPrefixSize = 4

// File is a paged, append-only backing store for node payloads.
type File struct {
	f           *os.File
	fileMu      sync.Mutex
	pagesInFile int64
	cache       *pageCache
	pool        sync.Pool

	writeQueue chan writeTask
	flushDone  chan struct{}
	done       chan struct{}

	writeErrMu sync.Mutex
	writeErr   error
	closed     bool

	tail int64 // next free byte offset in the arena
}

// defaultCachePages is the page-cache capacity Open uses: 1024 pages is
// ~4 MB, enough to keep a typical working set of nodes hot without a
// configuration knob for the common case.
const defaultCachePages = 1024

// Open opens (creating if needed) a paged node file at path, with the
// default page-cache capacity.
func Open(path string) (*File, error) {
	return OpenWithCache(path, defaultCachePages)
}

// OpenWithCache opens path with a cache sized to hold cachePages pages,
// letting a caller trade memory for hit rate.
func OpenWithCache(path string, cachePages int) (*File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, err
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	size := stat.Size()
	if size%pageSize != 0 {
		f.Close()
		return nil, fmt.Errorf("pagefile: invalid file size %d, want a multiple of %d", size, pageSize)
	}

	// Offset 0 holds an empty slot and is never handed out by Write:
	// node.ID 0 means "no node".
	tail := size
	if tail == 0 {
		tail = lengthPrefixSize
	}

	queue := make(chan writeTask, 32)
	flushDone := make(chan struct{})
	done := make(chan struct{})

	file := &File{
		f:           f,
		pagesInFile: size / pageSize,
		cache:       newPageCache(cachePages),
		pool:        sync.Pool{New: func() any { return new(page) }},
		writeQueue:  queue,
		flushDone:   flushDone,
		done:        done,
		tail:        tail,
	}
	go file.processWrites(queue, flushDone, done)
	return file, nil
}

// Read implements store.BackingStore.
func (f *File) Read(id uint64) ([]byte, error) {
	header := make([]byte, lengthPrefixSize)
	if err := f.readAt(int64(id), header); err != nil {
		return nil, err
	}
	length := binary.LittleEndian.Uint32(header)
	payload := make([]byte, length)
	if length > 0 {
		if err := f.readAt(int64(id)+lengthPrefixSize, payload); err != nil {
			return nil, err
		}
	}
	return payload, nil
}

// Write implements store.BackingStore: it appends data to the arena's tail
// and returns the offset it was written at.
func (f *File) Write(data []byte) (uint64, error) {
	id := uint64(f.tail)
	if err := f.writeSlot(int64(id), data); err != nil {
		return 0, err
	}
	f.tail += int64(lengthPrefixSize + len(data))
	return id, nil
}

// Overwrite implements store.BackingStore: it replaces the payload at an
// existing id, which must already have at least len(data) bytes reserved.
func (f *File) Overwrite(id uint64, data []byte) error {
	header := make([]byte, lengthPrefixSize)
	if err := f.readAt(int64(id), header); err != nil {
		return err
	}
	existingLen := binary.LittleEndian.Uint32(header)
	if len(data) > int(existingLen) {
		return fmt.Errorf("pagefile: overwrite at id %d needs %d bytes, slot reserves %d", id, len(data), existingLen)
	}
	return f.writeSlot(int64(id), data)
}

func (f *File) writeSlot(offset int64, data []byte) error {
	var header [lengthPrefixSize]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(data)))
	if err := f.writeAt(offset, header[:]); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return f.writeAt(offset+lengthPrefixSize, data)
}

// Free implements store.BackingStore. The arena never reclaims space
// itself: abandoned slots are either absorbed by the node store's
// per-length cache before reaching here, or remain allocated until a host
// database's own page-level GC (out of scope for this engine) runs.
func (f *File) Free(id uint64) error {
	return nil
}

// NextID implements store.BackingStore.
func (f *File) NextID() uint64 {
	return uint64(f.tail)
}

// IsSameFile implements store.BackingStore. A single File instance is one
// physical file for its entire lifetime, so every id it has ever issued
// shares the same epoch.
func (f *File) IsSameFile(a, b uint64) bool {
	return true
}

// FlushFrom implements store.BackingStore. This reference implementation
// flushes every dirty page rather than tracking which ones fall in
// (prevID, NextID()]: pages are shared across adjacent slots, so a
// precise range flush would rarely skip real work.
func (f *File) FlushFrom(prevID uint64) error {
	return f.Flush()
}

// Flush writes back every dirty page and fsyncs the underlying file.
func (f *File) Flush() error {
	if f.closed {
		return nil
	}
	var dirty []int64
	dirtyPages := map[int64]*page{}
	f.cache.iterate(func(id int64, p *page) {
		if p.dirty {
			dirty = append(dirty, id)
			dirtyPages[id] = p
		}
	})
	// Writing pages back in ascending order keeps the underlying file
	// writes mostly sequential instead of jumping around at random.
	slices.Sort(dirty)
	for _, id := range dirty {
		f.writeQueue <- writeTask{id: id, page: dirtyPages[id]}
	}
	f.writeQueue <- writeTask{sync: true}
	<-f.flushDone

	f.writeErrMu.Lock()
	defer f.writeErrMu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	return f.f.Sync()
}

// Close flushes pending writes and releases the file handle.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	if err := f.Flush(); err != nil {
		return err
	}
	close(f.writeQueue)
	<-f.done
	f.closed = true
	return f.f.Close()
}

func (f *File) readAt(position int64, dst []byte) error {
	for len(dst) > 0 {
		p, err := f.getPage(position / pageSize)
		if err != nil {
			return err
		}
		n := copy(dst, p.data[position%pageSize:])
		dst = dst[n:]
		position += int64(n)
	}
	return nil
}

func (f *File) writeAt(position int64, src []byte) error {
	for len(src) > 0 {
		p, err := f.getPage(position / pageSize)
		if err != nil {
			return err
		}
		p.dirty = true
		n := copy(p.data[position%pageSize:], src)
		src = src[n:]
		position += int64(n)
	}
	return nil
}

func (f *File) getPage(pageID int64) (*page, error) {
	if p, found := f.cache.get(pageID); found {
		return p, nil
	}
	p, err := f.readPage(pageID)
	if err != nil {
		return nil, err
	}
	if evictedID, evicted, ok := f.cache.set(pageID, p); ok && evicted.dirty {
		// Written back before returning, so that a later miss on
		// evictedID reads the page's current contents from the file.
		if err := f.writePage(evictedID, evicted); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (f *File) readPage(id int64) (*page, error) {
	p := f.pool.Get().(*page)
	p.dirty = false
	if id >= f.pagesInFile {
		p.data = [pageSize]byte{}
		return p, nil
	}
	f.fileMu.Lock()
	defer f.fileMu.Unlock()
	if _, err := f.f.Seek(id*pageSize, io.SeekStart); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(f.f, p.data[:]); err != nil {
		return nil, err
	}
	return p, nil
}

func (f *File) writePage(id int64, p *page) error {
	if !p.dirty {
		return nil
	}
	f.fileMu.Lock()
	defer f.fileMu.Unlock()
	if _, err := f.f.Seek(id*pageSize, io.SeekStart); err != nil {
		return err
	}
	if _, err := f.f.Write(p.data[:]); err != nil {
		return err
	}
	if f.pagesInFile < id+1 {
		f.pagesInFile = id + 1
	}
	p.dirty = false
	return nil
}

func (f *File) processWrites(queue <-chan writeTask, flushDone chan<- struct{}, done chan<- struct{}) {
	defer close(done)
	defer close(flushDone)
	for task := range queue {
		if task.sync {
			flushDone <- struct{}{}
			continue
		}
		if err := f.writePage(task.id, task.page); err != nil {
			f.writeErrMu.Lock()
			if f.writeErr == nil {
				f.writeErr = err
			}
			f.writeErrMu.Unlock()
		}
	}
}

type page struct {
	data  [pageSize]byte
	dirty bool
}

type writeTask struct {
	id   int64
	page *page
	sync bool
}
