// Package overrides keeps a persistent journal of metadata overrides.
//
// Steam rewrites appinfo.vdf whenever it refreshes app data, dropping any
// local edits. The journal records, per app, the metadata as first seen and
// the override applied to it, so the overrides can be restored into a fresh
// store later.
//
// Records are msgpack-encoded in a single bbolt bucket keyed by big-endian
// app id, so iteration is in app id order.
package overrides

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/arloliu/appinfo/endian"
	"github.com/arloliu/appinfo/errs"
	"github.com/arloliu/appinfo/metadata"
	"github.com/arloliu/appinfo/store"
	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"
)

var bucketName = []byte("overrides")

// Record is the journal entry of one app.
type Record struct {
	AppID uint32 `msgpack:"app_id"`
	// Original is the metadata before the first override.
	Original  metadata.Info     `msgpack:"original"`
	Modified  metadata.Override `msgpack:"modified"`
	UpdatedAt time.Time         `msgpack:"updated_at"`
}

// Options configures Open.
type Options struct {
	// Logger receives restore progress. Default is slog.Default().
	Logger *slog.Logger
	// Timeout bounds waiting for the file lock. Zero waits forever.
	Timeout time.Duration
	// NoSync skips fsync after each commit. Only for tests.
	NoSync bool
	// Now returns the record timestamps. Default is time.Now.
	Now func() time.Time
}

// Journal is an open overrides database. It is safe for concurrent use.
type Journal struct {
	db     *bbolt.DB
	logger *slog.Logger
	now    func() time.Time
}

// Open opens or creates the journal at path.
func Open(path string, opt Options) (*Journal, error) {
	bopt := *bbolt.DefaultOptions
	bopt.Timeout = opt.Timeout
	bopt.NoSync = opt.NoSync

	db, err := bbolt.Open(path, 0o600, &bopt)
	if err != nil {
		return nil, fmt.Errorf("overrides: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("overrides: %w", err)
	}

	j := &Journal{db: db, logger: opt.Logger, now: opt.Now}
	if j.logger == nil {
		j.logger = slog.Default()
	}
	if j.now == nil {
		j.now = time.Now
	}

	return j, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

func key(appID uint32) []byte {
	return endian.GetBigEndianEngine().AppendUint32(nil, appID)
}

// Set records o for appID. The first record of an app keeps original as its
// Original; later calls merge o into the recorded override and leave
// Original alone.
func (j *Journal) Set(appID uint32, original metadata.Info, o metadata.Override) (Record, error) {
	if appID == 0 {
		return Record{}, fmt.Errorf("%w: 0 is reserved", errs.ErrInvalidAppID)
	}

	var rec Record
	err := j.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)

		found, err := decodeRecord(b.Get(key(appID)), &rec)
		if err != nil {
			return err
		}
		if !found {
			rec = Record{AppID: appID, Original: original}
		}
		rec.Modified = rec.Modified.Merge(o)
		rec.UpdatedAt = j.now().UTC()

		data, err := msgpack.Marshal(&rec)
		if err != nil {
			return err
		}

		return b.Put(key(appID), data)
	})
	if err != nil {
		return Record{}, fmt.Errorf("overrides: set app %d: %w", appID, err)
	}

	return rec, nil
}

// Get returns the record of appID.
func (j *Journal) Get(appID uint32) (Record, bool, error) {
	var (
		rec   Record
		found bool
	)
	err := j.db.View(func(tx *bbolt.Tx) error {
		var err error
		found, err = decodeRecord(tx.Bucket(bucketName).Get(key(appID)), &rec)

		return err
	})
	if err != nil {
		return Record{}, false, fmt.Errorf("overrides: get app %d: %w", appID, err)
	}

	return rec, found, nil
}

// Delete removes the record of appID and reports whether it existed.
func (j *Journal) Delete(appID uint32) (bool, error) {
	var found bool
	err := j.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		found = b.Get(key(appID)) != nil

		return b.Delete(key(appID))
	})
	if err != nil {
		return false, fmt.Errorf("overrides: delete app %d: %w", appID, err)
	}

	return found, nil
}

// All returns every record in app id order.
func (j *Journal) All() ([]Record, error) {
	var recs []Record
	err := j.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).ForEach(func(_, v []byte) error {
			var rec Record
			if _, err := decodeRecord(v, &rec); err != nil {
				return err
			}
			recs = append(recs, rec)

			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("overrides: %w", err)
	}

	return recs, nil
}

// Count returns the number of records.
func (j *Journal) Count() (int, error) {
	var n int
	err := j.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketName).Stats().KeyN
		return nil
	})

	return n, err
}

// Clear removes every record and returns how many there were.
func (j *Journal) Clear() (int, error) {
	var n int
	err := j.db.Update(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketName).Stats().KeyN
		if err := tx.DeleteBucket(bucketName); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketName)

		return err
	})
	if err != nil {
		return 0, fmt.Errorf("overrides: clear: %w", err)
	}

	return n, nil
}

// Modify applies o to appID in s and records it. The app's metadata before
// the change becomes the record's Original on first modification.
//
// Returns errs.ErrAppNotFound when s has no such app.
func (j *Journal) Modify(s *store.Store, appID uint32, o metadata.Override) (Record, error) {
	entry, ok := s.GetApp(appID)
	if !ok {
		return Record{}, fmt.Errorf("%w: %d", errs.ErrAppNotFound, appID)
	}

	original, _ := metadata.Extract(entry.Data)
	rec, err := j.Set(appID, original, o)
	if err != nil {
		return Record{}, err
	}
	metadata.Apply(entry.Data, o)

	return rec, nil
}

// Restore applies the recorded overrides to s and returns how many apps
// were changed. With no appIDs every record is restored. Apps missing from
// s or without a recorded override are skipped.
func (j *Journal) Restore(s *store.Store, appIDs ...uint32) (int, error) {
	var recs []Record
	if len(appIDs) == 0 {
		all, err := j.All()
		if err != nil {
			return 0, err
		}
		recs = all
	} else {
		for _, id := range appIDs {
			rec, found, err := j.Get(id)
			if err != nil {
				return 0, err
			}
			if found {
				recs = append(recs, rec)
			}
		}
	}

	restored := 0
	for _, rec := range recs {
		if rec.Modified.IsZero() {
			continue
		}
		entry, ok := s.GetApp(rec.AppID)
		if !ok {
			j.logger.LogAttrs(context.Background(), slog.LevelDebug, "override target missing from store",
				slog.Uint64("app_id", uint64(rec.AppID)))

			continue
		}
		metadata.Apply(entry.Data, rec.Modified)
		restored++
	}

	j.logger.LogAttrs(context.Background(), slog.LevelInfo, "restored overrides",
		slog.Int("count", restored), slog.Int("records", len(recs)))

	return restored, nil
}

func decodeRecord(data []byte, rec *Record) (bool, error) {
	if data == nil {
		return false, nil
	}
	if err := msgpack.Unmarshal(data, rec); err != nil {
		return false, fmt.Errorf("corrupt override record: %w", err)
	}

	return true, nil
}
