package badger

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/rentspace/messaging/internal/domain"
	"github.com/rentspace/messaging/internal/tx"
)

// Store keeps messages in BadgerDB.
//
// Layout:
//
//	m/{id}                              message JSON
//	p/{lo}/{hi}/{created_at}/{id}       pair index, value is the message id
//	u/{user}/{created_at}/{id}          per-party index, value is the message id
//	r/{receiver}/{sender}/{id}          unread index
//	f/{lo}/{hi}                         pair marker, written by the first message
//
// User ids are base64url encoded and created_at is a 19-digit zero padded
// UnixNano so that lexicographic key order is chronological order.
type Store struct {
	db *badger.DB
}

func New(db *badger.DB) *Store {
	return &Store{db: db}
}

// Open opens a store on disk, or fully in memory when path is empty.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLoggingLevel(badger.ERROR)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

const maxConflictRetries = 10

func enc(userID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(userID))
}

func ordered(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

func messageKey(id string) []byte {
	return []byte("m/" + id)
}

func pairPrefix(a, b string) []byte {
	lo, hi := ordered(a, b)
	return []byte("p/" + enc(lo) + "/" + enc(hi) + "/")
}

func partyPrefix(userID string) []byte {
	return []byte("u/" + enc(userID) + "/")
}

func unreadPrefix(receiverID, senderID string) []byte {
	return []byte("r/" + enc(receiverID) + "/" + enc(senderID) + "/")
}

func pairMarker(a, b string) []byte {
	lo, hi := ordered(a, b)
	return []byte("f/" + enc(lo) + "/" + enc(hi))
}

func stamp(msg *domain.Message) string {
	return fmt.Sprintf("%019d/%s", msg.CreatedAt.UnixNano(), msg.ID)
}

// update runs fn in a read-write transaction, retrying on write conflicts.
func (s *Store) update(fn func(txn *badger.Txn) error) error {
	for i := 0; i < maxConflictRetries; i++ {
		err := s.db.Update(fn)
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		return err
	}
	return tx.ErrRetryExhausted
}

func (s *Store) InsertMessage(ctx context.Context, msg *domain.Message) (bool, error) {
	value, err := json.Marshal(msg)
	if err != nil {
		return false, err
	}

	var first bool
	err = s.update(func(txn *badger.Txn) error {
		first = false

		marker := pairMarker(msg.SenderID, msg.ReceiverID)
		_, err := txn.Get(marker)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			first = true
			if err := txn.Set(marker, nil); err != nil {
				return err
			}
		case err != nil:
			return err
		}

		id := []byte(msg.ID)
		if err := txn.Set(messageKey(msg.ID), value); err != nil {
			return err
		}
		if err := txn.Set(append(pairPrefix(msg.SenderID, msg.ReceiverID), stamp(msg)...), id); err != nil {
			return err
		}
		if err := txn.Set(append(partyPrefix(msg.SenderID), stamp(msg)...), id); err != nil {
			return err
		}
		if msg.ReceiverID != msg.SenderID {
			if err := txn.Set(append(partyPrefix(msg.ReceiverID), stamp(msg)...), id); err != nil {
				return err
			}
		}
		if !msg.IsRead {
			return txn.Set(append(unreadPrefix(msg.ReceiverID, msg.SenderID), msg.ID...), id)
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to insert message: %w", err)
	}
	return first, nil
}

func (s *Store) ListBetween(ctx context.Context, a, b string) ([]*domain.Message, error) {
	return s.listByIndex(pairPrefix(a, b))
}

func (s *Store) ListInvolving(ctx context.Context, userID string) ([]*domain.Message, error) {
	return s.listByIndex(partyPrefix(userID))
}

func (s *Store) listByIndex(prefix []byte) ([]*domain.Message, error) {
	var messages []*domain.Message
	err := s.db.View(func(txn *badger.Txn) error {
		ids, err := collectIDs(txn, prefix)
		if err != nil {
			return err
		}
		for _, id := range ids {
			msg, err := getMessage(txn, id)
			if err != nil {
				return err
			}
			messages = append(messages, msg)
		}
		return nil
	})
	return messages, err
}

func (s *Store) MarkOneRead(ctx context.Context, messageID, readerID string) (*domain.Message, error) {
	var result *domain.Message
	err := s.update(func(txn *badger.Txn) error {
		msg, err := getMessage(txn, messageID)
		if err != nil {
			return err
		}
		if err := msg.MarkReadBy(readerID); err != nil {
			return err
		}
		if err := putRead(txn, msg); err != nil {
			return err
		}
		result = msg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) MarkAllRead(ctx context.Context, senderID, receiverID string) (int64, error) {
	var count int64
	err := s.update(func(txn *badger.Txn) error {
		count = 0
		ids, err := collectIDs(txn, unreadPrefix(receiverID, senderID))
		if err != nil {
			return err
		}
		for _, id := range ids {
			msg, err := getMessage(txn, id)
			if err != nil {
				return err
			}
			if err := msg.MarkReadBy(receiverID); err != nil {
				continue
			}
			if err := putRead(txn, msg); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	return count, err
}

func (s *Store) Ping(ctx context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger: database is closed")
	}
	return nil
}

func putRead(txn *badger.Txn, msg *domain.Message) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := txn.Set(messageKey(msg.ID), value); err != nil {
		return err
	}
	return txn.Delete(append(unreadPrefix(msg.ReceiverID, msg.SenderID), msg.ID...))
}

func getMessage(txn *badger.Txn, id string) (*domain.Message, error) {
	item, err := txn.Get(messageKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var msg domain.Message
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &msg)
	}); err != nil {
		return nil, err
	}
	return &msg, nil
}

// collectIDs walks an index prefix in key order and returns the message ids it
// points at. The iterator is closed before returning so callers may write.
func collectIDs(txn *badger.Txn, prefix []byte) ([]string, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	var ids []string
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		if err := it.Item().Value(func(val []byte) error {
			ids = append(ids, string(val))
			return nil
		}); err != nil {
			return nil, err
		}
	}
	return ids, nil
}
