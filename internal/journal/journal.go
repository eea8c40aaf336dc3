package journal

import (
	"encoding/binary"
	"encoding/json"
	"time"

	bolt "github.com/boltdb/bolt"
)

const bucketUsers = "users" // parent bucket, one child bucket per user id

// Op is the kind of change applied to a fragment.
type Op string

const (
	OpWrite Op = "write"
	OpClear Op = "clear"
)

// Entry records one fragment mutation.
type Entry struct {
	Kind string `json:"kind"`
	Op   Op     `json:"op"`
	When int64  `json:"when"` // unix seconds
}

// Time returns When as a time.Time.
func (e Entry) Time() time.Time { return time.Unix(e.When, 0) }

// Journal is an append-only log of fragment changes per user kept in a bolt
// database.
type Journal struct {
	db *bolt.DB
}

// Open opens the database file and creates buckets if needed.
func Open(path string) (*Journal, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketUsers))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Journal{db: db}, nil
}

// Close releases the database file.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record appends e to the user's log.
func (j *Journal) Record(userID string, e Entry) error {
	return j.db.Update(func(tx *bolt.Tx) error {
		ub, err := tx.Bucket([]byte(bucketUsers)).CreateBucketIfNotExists([]byte(userID))
		if err != nil {
			return err
		}
		id, _ := ub.NextSequence()
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, id)
		data, err := json.Marshal(e)
		if err != nil {
			return err
		}
		return ub.Put(key, data)
	})
}

// Entries returns the user's log, oldest first.
func (j *Journal) Entries(userID string) ([]Entry, error) {
	var items []Entry
	err := j.db.View(func(tx *bolt.Tx) error {
		ub := tx.Bucket([]byte(bucketUsers)).Bucket([]byte(userID))
		if ub == nil {
			return nil
		}
		return ub.ForEach(func(_, v []byte) error {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			items = append(items, e)
			return nil
		})
	})
	return items, err
}

// Latest returns the most recent entry per fragment kind.
func (j *Journal) Latest(userID string) (map[string]Entry, error) {
	entries, err := j.Entries(userID)
	if err != nil {
		return nil, err
	}
	latest := make(map[string]Entry, 4)
	for _, e := range entries {
		latest[e.Kind] = e
	}
	return latest, nil
}

// Count returns the number of stored entries for a user.
func (j *Journal) Count(userID string) (int, error) {
	var count int
	err := j.db.View(func(tx *bolt.Tx) error {
		ub := tx.Bucket([]byte(bucketUsers)).Bucket([]byte(userID))
		if ub == nil {
			return nil
		}
		count = ub.Stats().KeyN
		return nil
	})
	return count, err
}

// Trim drops the oldest entries so that at most limit remain. The newest
// entry of every kind is kept even when that exceeds limit, so Latest stays
// accurate. A limit <= 0 keeps everything.
func (j *Journal) Trim(userID string, limit int) error {
	if limit <= 0 {
		return nil
	}
	return j.db.Update(func(tx *bolt.Tx) error {
		ub := tx.Bucket([]byte(bucketUsers)).Bucket([]byte(userID))
		if ub == nil {
			return nil
		}
		excess := ub.Stats().KeyN - limit
		if excess <= 0 {
			return nil
		}

		// the last key seen per kind must survive
		keep := make(map[string][]byte)
		if err := ub.ForEach(func(k, v []byte) error {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			keep[e.Kind] = append([]byte(nil), k...)
			return nil
		}); err != nil {
			return err
		}
		protected := make(map[string]bool, len(keep))
		for _, k := range keep {
			protected[string(k)] = true
		}

		var drop [][]byte
		c := ub.Cursor()
		for k, _ := c.First(); k != nil && len(drop) < excess; k, _ = c.Next() {
			if !protected[string(k)] {
				drop = append(drop, append([]byte(nil), k...))
			}
		}
		for _, k := range drop {
			if err := ub.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}
