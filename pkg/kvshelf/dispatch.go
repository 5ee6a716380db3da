package kvshelf

import (
	"errors"
	"fmt"

	"github.com/kvshelf/kvshelf/internal/filestore"
	"github.com/kvshelf/kvshelf/internal/storagefs"
	"github.com/kvshelf/kvshelf/pkg/kvshelf/memstore"
	"github.com/kvshelf/kvshelf/pkg/kvshelf/respstore"
)

// Open constructs the Store selected by cfg.Backend. This is the
// top-level dispatch object: a thin switch with no independent logic of
// its own, not a hardened component.
func Open(cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendFile:
		s, err := filestore.Open(storagefs.NewReal(), cfg.Path, filestore.Options{
			IndexSize: cfg.IndexSize,
			Truncate:  cfg.Truncate,
		})
		if err != nil {
			return nil, fmt.Errorf("open file backend: %w", err)
		}

		return &fileStore{s: s}, nil

	case BackendMemory:
		return memstore.New(), nil

	case BackendRESP:
		return respstore.Dial(cfg.Addr)

	default:
		return nil, fmt.Errorf("kvshelf: unknown backend %d", cfg.Backend)
	}
}

// fileStore adapts *filestore.Store to Store, translating its errors
// into this package's sentinels, and its eight-operation naming
// (Pop/PopFirst vs. PopTail/PopHead) into the common contract.
type fileStore struct {
	s *filestore.Store
}

func (f *fileStore) Put(key, value []byte) error { return f.s.Put(key, value) }

func (f *fileStore) Get(key []byte) ([]byte, error) {
	v, err := f.s.Get(key)

	return v, translate(err)
}

func (f *fileStore) Remove(key []byte) error { return translate(f.s.Remove(key)) }

func (f *fileStore) FetchRemove(key []byte) ([]byte, error) {
	v, err := f.s.FetchRemove(key)

	return v, translate(err)
}

func (f *fileStore) Append(key, value []byte) error  { return f.s.Append(key, value) }
func (f *fileStore) Prepend(key, value []byte) error { return f.s.Prepend(key, value) }

func (f *fileStore) Pop(key []byte) ([]byte, error) {
	v, err := f.s.PopTail(key)

	return v, translate(err)
}

func (f *fileStore) PopFirst(key []byte) ([]byte, error) {
	v, err := f.s.PopHead(key)

	return v, translate(err)
}

func (f *fileStore) Close() error { return f.s.Close() }

func translate(err error) error {
	if errors.Is(err, filestore.ErrNotFound) {
		return ErrNotFound
	}

	return err
}

var _ Store = (*fileStore)(nil)
