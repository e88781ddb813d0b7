// Package store archives the best ruler found per order in a local
// leveldb, so later runs can bootstrap their bound from it. The search
// core never touches this; only the front-end does.
package store

import (
	"encoding/json"
	"fmt"

	"github.com/guabee/golomb/golombv2/search"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
)

type RulerStore struct {
	db *leveldb.DB
}

func Open(path string) (*RulerStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "open ruler store %s", path)
	}
	return &RulerStore{db: db}, nil
}

func rulerKey(n int) []byte {
	return []byte(fmt.Sprintf("ruler/n=%02d", n))
}

// Best returns the archived ruler for order n, if any.
func (s *RulerStore) Best(n int) (search.Solution, bool, error) {
	data, err := s.db.Get(rulerKey(n), nil)
	if err == leveldb.ErrNotFound {
		return search.Solution{}, false, nil
	}
	if err != nil {
		return search.Solution{}, false, errors.Wrapf(err, "load ruler n=%d", n)
	}

	var sol search.Solution
	if err := json.Unmarshal(data, &sol); err != nil {
		return search.Solution{}, false, errors.Wrapf(err, "decode ruler n=%d", n)
	}
	return sol, true, nil
}

// Put archives sol for order n when it is valid and improves on (or
// first records) the stored one.
func (s *RulerStore) Put(n int, sol search.Solution) error {
	if sol.Empty() || len(sol.Marks) != n || !search.Validate(sol.Marks) {
		return errors.Errorf("refusing to archive invalid ruler for n=%d", n)
	}

	current, found, err := s.Best(n)
	if err != nil {
		return err
	}
	if found && current.Length <= sol.Length {
		return nil
	}

	data, err := json.Marshal(sol)
	if err != nil {
		return errors.Wrapf(err, "encode ruler n=%d", n)
	}
	return errors.Wrapf(s.db.Put(rulerKey(n), data, nil), "store ruler n=%d", n)
}

func (s *RulerStore) Close() error {
	return s.db.Close()
}
