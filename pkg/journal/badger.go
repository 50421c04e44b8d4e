package journal

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// Key layout:
//
//	x:{sessionID}:{ts_ns} → msgpack Exchange
//
// Nanosecond keys keep per-session listings chronological under badger's
// ascending iteration.

const keyPrefix = "x:"

var _ Journal = (*Badger)(nil)

// Badger is a Journal backed by BadgerDB v4.
type Badger struct {
	db *badger.DB
}

// BadgerOptions configures the badger journal.
type BadgerOptions struct {
	// Dir is the directory for data files. Required unless InMemory.
	Dir string

	// InMemory runs badger without disk persistence. Useful for tests.
	InMemory bool

	// Logger sets the badger logger. If nil, a quiet logger that only
	// surfaces warnings and errors is used.
	Logger badger.Logger
}

// NewBadger opens a badger-backed journal.
func NewBadger(opts BadgerOptions) (*Badger, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("journal: BadgerOptions.Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	if opts.Logger != nil {
		dbOpts = dbOpts.WithLogger(opts.Logger)
	} else {
		dbOpts = dbOpts.WithLogger(quietLogger{})
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, err
	}
	return &Badger{db: db}, nil
}

// Record implements Journal.
func (b *Badger) Record(_ context.Context, x Exchange) error {
	if x.At == 0 {
		x.At = time.Now().UnixNano()
	}
	data, err := msgpack.Marshal(x)
	if err != nil {
		return err
	}
	key := exchangeKey(x.SessionID, x.At)
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

// Recent implements Journal.
func (b *Badger) Recent(_ context.Context, sessionID string, n int) ([]Exchange, error) {
	if n <= 0 {
		return nil, nil
	}
	prefix := sessionPrefix(sessionID)
	var all []Exchange
	err := b.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = prefix
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var x Exchange
			if err := msgpack.Unmarshal(val, &x); err != nil {
				continue
			}
			all = append(all, x)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Iteration is ascending by key (chronological). Take the last n.
	if len(all) > n {
		all = all[len(all)-n:]
	}
	return all, nil
}

// Sessions implements Journal.
func (b *Badger) Sessions(_ context.Context) ([]string, error) {
	prefix := []byte(keyPrefix)
	var sessions []string
	seen := map[string]bool{}
	err := b.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = prefix
		iterOpts.PrefetchValues = false
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().Key()
			rest := key[len(prefix):]
			i := bytes.IndexByte(rest, ':')
			if i < 0 {
				continue
			}
			sid := string(rest[:i])
			if !seen[sid] {
				seen[sid] = true
				sessions = append(sessions, sid)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// Close implements Journal.
func (b *Badger) Close() error {
	return b.db.Close()
}

func exchangeKey(sessionID string, ts int64) []byte {
	return []byte(keyPrefix + sessionID + ":" + strconv.FormatInt(ts, 10))
}

func sessionPrefix(sessionID string) []byte {
	return []byte(keyPrefix + sessionID + ":")
}

// quietLogger wraps the standard log package for badger, suppressing debug
// and info level messages.
type quietLogger struct{}

func (quietLogger) Errorf(f string, v ...interface{})   { log.Printf("[journal] ERROR: "+f, v...) }
func (quietLogger) Warningf(f string, v ...interface{}) { log.Printf("[journal] WARN: "+f, v...) }
func (quietLogger) Infof(string, ...interface{})        {}
func (quietLogger) Debugf(string, ...interface{})       {}
