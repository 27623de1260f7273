package chat

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

const sessionPrefix = "sess/"

// BadgerStore persists transcripts in an embedded BadgerDB. Keys are
// sess/<session>/<seq> with a zero-padded sequence so lexical iteration
// yields insertion order.
type BadgerStore struct {
	db *badger.DB

	mu  sync.Mutex
	seq map[string]uint64
}

// NewBadgerStore opens a persistent store at dir. Badger's internal logging
// is disabled; ours is enough.
func NewBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	return openBadger(opts)
}

// NewBadgerStoreInMemory opens a non-persistent store, used in tests.
func NewBadgerStoreInMemory() (*BadgerStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	return openBadger(opts)
}

func openBadger(opts badger.Options) (*BadgerStore, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening chat store: %w", err)
	}
	return &BadgerStore{db: db, seq: make(map[string]uint64)}, nil
}

func messageKey(sessionID string, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%s/%012d", sessionPrefix, sessionID, seq))
}

// nextSeq returns the next sequence number for a session, counting existing
// entries on first use after open.
func (s *BadgerStore) nextSeq(sessionID string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n, ok := s.seq[sessionID]; ok {
		s.seq[sessionID] = n + 1
		return n, nil
	}

	var count uint64
	prefix := []byte(sessionPrefix + sessionID + "/")
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.seq[sessionID] = count + 1
	return count, nil
}

func (s *BadgerStore) Append(sessionID string, msg Message) error {
	seq, err := s.nextSeq(sessionID)
	if err != nil {
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(sessionID, seq), data)
	})
}

func (s *BadgerStore) List(sessionID string) ([]Message, error) {
	var out []Message
	prefix := []byte(sessionPrefix + sessionID + "/")
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix, PrefetchValues: true})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var msg Message
				if err := json.Unmarshal(val, &msg); err != nil {
					return fmt.Errorf("decoding message: %w", err)
				}
				out = append(out, msg)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return out, err
}

func (s *BadgerStore) Sessions() ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte(sessionPrefix)})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			rest := strings.TrimPrefix(key, sessionPrefix)
			id, _, ok := strings.Cut(rest, "/")
			if !ok || seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
		return nil
	})
	return out, err
}

func (s *BadgerStore) Clear(sessionID string) error {
	prefix := []byte(sessionPrefix + sessionID + "/")

	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.seq, sessionID)
	s.mu.Unlock()
	return nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
