package repositories

import (
	"encoding/json"
	stderrors "errors"
	"fmt"

	"huddle/errors"

	"github.com/dgraph-io/badger/v4"
)

// stdIs re-exports errors.Is under a local name; the package name errors is
// taken by the domain taxonomy import.
var stdIs = stderrors.Is

// mapBadgerErr translates store-level sentinel errors into the domain
// taxonomy so callers never import badger.
func mapBadgerErr(err error) error {
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return errors.ErrNotFound
	}
	return err
}

// getJSON reads a key and unmarshals its JSON value into out.
func getJSON[T any](txn *badger.Txn, key []byte, out *T) error {
	item, err := txn.Get(key)
	if err != nil {
		return mapBadgerErr(err)
	}
	return item.Value(func(val []byte) error {
		if err := json.Unmarshal(val, out); err != nil {
			return fmt.Errorf("unmarshal %s: %w", key, err)
		}
		return nil
	})
}

// scanJSON iterates every value under a prefix, unmarshaling each into T and
// calling visit. Iteration stops when visit returns false.
func scanJSON[T any](txn *badger.Txn, prefix []byte, visit func(T) bool) error {
	options := badger.DefaultIteratorOptions
	options.Prefix = prefix
	it := txn.NewIterator(options)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var value T
		err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &value)
		})
		if err != nil {
			return err
		}
		if !visit(value) {
			break
		}
	}
	return nil
}
