// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package file

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/golang/snappy"
	"github.com/joe-rlo/ShardNFTs/backend"
)

// Variant is the name under which the file store is registered.
const Variant backend.Variant = "file"

func init() {
	backend.RegisterFactory(Variant, func(directory string) (backend.Store, error) {
		return OpenStore(directory)
	})
}

// fileName is the name of the data file within the store directory.
const fileName = "ledger.snappy"

// Magic number of the data file format.
const storeMagic uint32 = 0xC0FF1EAF

// Store keeps all entries in memory and writes a snappy-compressed snapshot
// of them to a single file on Flush and Close. Snapshots are written to a
// temporary file first and moved into place, so a crash never leaves a
// partially written data file behind.
type Store struct {
	data  map[string][]byte
	file  string
	dirty bool
	mutex sync.Mutex
}

// OpenStore loads the store kept in the given directory, creating the
// directory if needed.
func OpenStore(directory string) (*Store, error) {
	if err := os.MkdirAll(directory, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create directory for file store: %w", err)
	}
	res := &Store{
		data: map[string][]byte{},
		file: filepath.Join(directory, fileName),
	}
	file, err := os.Open(res.file)
	if errors.Is(err, os.ErrNotExist) {
		return res, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open existing file store: %w", err)
	}
	err = errors.Join(res.load(snappy.NewReader(bufio.NewReader(file))), file.Close())
	if err != nil {
		return nil, fmt.Errorf("failed to load file store: %w", err)
	}
	return res, nil
}

func (s *Store) Get(key []byte) ([]byte, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	value, found := s.data[string(key)]
	if !found {
		return nil, backend.ErrNotFound
	}
	return slices.Clone(value), nil
}

func (s *Store) Apply(batch backend.Batch) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, write := range batch {
		if write.Value == nil {
			delete(s.data, string(write.Key))
		} else {
			s.data[string(write.Key)] = slices.Clone(write.Value)
		}
	}
	s.dirty = s.dirty || len(batch) > 0
	return nil
}

func (s *Store) Flush() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.dirty {
		return nil
	}
	tmp := s.file + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create file store snapshot: %w", err)
	}
	writer := snappy.NewBufferedWriter(file)
	err = errors.Join(
		s.store(writer),
		writer.Close(),
		file.Sync(),
		file.Close(),
	)
	if err != nil {
		return fmt.Errorf("failed to write file store snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.file); err != nil {
		return fmt.Errorf("failed to replace file store snapshot: %w", err)
	}
	s.dirty = false
	return nil
}

func (s *Store) Close() error {
	return s.Flush()
}

// store writes all entries sorted by key, such that the output is
// deterministic.
func (s *Store) store(w io.Writer) error {
	if err := binary.Write(w, binary.BigEndian, storeMagic); err != nil {
		return err
	}
	keys := slices.Sorted(maps.Keys(s.data))
	if err := binary.Write(w, binary.BigEndian, uint32(len(keys))); err != nil {
		return err
	}
	for _, key := range keys {
		if err := writeBytes(w, []byte(key)); err != nil {
			return err
		}
		if err := writeBytes(w, s.data[key]); err != nil {
			return err
		}
	}
	return nil
}

// load replaces the content of the store by the entries read from r.
func (s *Store) load(r io.Reader) error {
	var magic uint32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return err
	}
	if magic != storeMagic {
		return fmt.Errorf("invalid file store magic number: %x", magic)
	}
	var count uint32
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return err
	}
	data := make(map[string][]byte)
	for i := uint32(0); i < count; i++ {
		key, err := readBytes(r)
		if err != nil {
			return err
		}
		value, err := readBytes(r)
		if err != nil {
			return err
		}
		data[string(key)] = value
	}
	s.data = data
	return nil
}

// maxEntrySize bounds the length prefix of keys and values read from disk, so
// that corrupted files can not trigger huge allocations.
const maxEntrySize = 1 << 24

func writeBytes(w io.Writer, data []byte) error {
	if err := binary.Write(w, binary.BigEndian, uint32(len(data))); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

func readBytes(r io.Reader) ([]byte, error) {
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return nil, err
	}
	if length > maxEntrySize {
		return nil, fmt.Errorf("entry of %d bytes exceeds limit of %d", length, maxEntrySize)
	}
	res := make([]byte, length)
	if _, err := io.ReadFull(r, res); err != nil {
		return nil, err
	}
	return res, nil
}
