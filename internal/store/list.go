package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// List stores a whole collection as a single JSON array under one key,
// matching the public list-semantics contract: every mutation reads the full
// array, rewrites it in memory and writes it back. Races between writers are
// closed by KV.Update's optimistic retry.
type List[T any] struct {
	kv  KV
	key string
}

// NewList binds a typed collection to a key inside a KV namespace.
func NewList[T any](kv KV, key string) *List[T] {
	return &List[T]{kv: kv, key: key}
}

// Load reads the full collection. A missing key is an empty collection.
func (l *List[T]) Load(ctx context.Context) ([]T, error) {
	raw, err := l.kv.Get(ctx, l.key)
	if err == ErrNotFound {
		return []T{}, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeList[T](raw)
}

// Save overwrites the full collection.
func (l *List[T]) Save(ctx context.Context, items []T) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return l.kv.Set(ctx, l.key, raw, 0)
}

// Update applies mutate to the collection under optimistic concurrency:
// the list passed to mutate reflects the value at write time, and the write
// is retried if another request lands in between. mutate returns the
// replacement slice.
func (l *List[T]) Update(ctx context.Context, mutate func(items []T) ([]T, error)) ([]T, error) {
	var result []T
	err := l.kv.Update(ctx, l.key, func(old []byte) ([]byte, error) {
		var items []T
		if old != nil {
			var err error
			if items, err = decodeList[T](old); err != nil {
				return nil, err
			}
		} else {
			items = []T{}
		}
		next, err := mutate(items)
		if err != nil {
			return nil, err
		}
		result = next
		return json.Marshal(next)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func decodeList[T any](raw []byte) ([]T, error) {
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode collection: %w", err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}
