package storage

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"phonebook/models"
)

// shard is a thread-safe mapping from suffix to record, guarded by its
// own reader-writer lock. It has no notion of which activity array or
// prefix it belongs to; that context is supplied by its caller for
// print/format purposes.
//
// This mirrors the teacher's per-bucket sync.RWMutex sharding
// (storage/binary/sharded_lock.go's ShardedLock) narrowed to a single
// bucket's map, rather than an array of buckets hashed by FNV — the
// phonebook's shard selection is the phone-number prefix itself, so no
// secondary hash is needed here.
type shard struct {
	mu      sync.RWMutex
	entries map[int]models.Record
}

func newShard() *shard {
	return &shard{entries: make(map[int]models.Record)}
}

// find returns the stored record for key and whether it was present.
func (s *shard) find(key int) (models.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.entries[key]
	return rec, ok
}

// insertOrReplace stores value at key. It returns (true, 0) if key was
// absent, or (false, old.Bytes()) if key was present and has been
// overwritten in place.
func (s *shard) insertOrReplace(key int, value models.Record) (wasNew bool, oldBytes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, present := s.entries[key]
	s.entries[key] = value
	if present {
		return false, old.Bytes()
	}
	return true, 0
}

// insertBlind unconditionally stores value at key, overwriting any
// existing entry. Used only by callers that have already established
// key's absence (e.g. rejection-sampled generate).
func (s *shard) insertBlind(key int, value models.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
}

// erase removes key if present, returning (oldBytes, true); otherwise
// (0, false).
func (s *shard) erase(key int) (oldBytes int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, present := s.entries[key]
	if !present {
		return 0, false
	}
	delete(s.entries, key)
	return old.Bytes(), true
}

// clear drops all entries, returning how many were removed and their
// combined byte footprint. Database.Clear does not use these values; it
// resets the aggregate counters to zero once every shard is cleared.
func (s *shard) clear() (count, bytes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.entries {
		count++
		bytes += rec.Bytes()
	}
	s.entries = make(map[int]models.Record)
	return count, bytes
}

func (s *shard) empty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries) == 0
}

func (s *shard) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// sortedKeys returns the shard's suffixes in ascending natural order.
// Go maps have no deterministic iteration order, so Save and the forward
// iterator go through this helper rather than ranging directly (print
// sorts its keys itself under its own read lock). It takes the shard's
// read lock, so it is safe alongside concurrent point writes.
func (s *shard) sortedKeys() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]int, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// print writes one line per entry, in ascending suffix order, to sink
// and returns the number of lines written. prefix/lEx/lIn/activity
// parameterize the phone-number reconstruction and the activity digit
// of each line (§6's CSV format).
func (s *shard) print(sink io.Writer, prefix int, activity bool, lEx, lIn int) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]int, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	activityDigit := "0"
	if activity {
		activityDigit = "1"
	}
	written := 0
	for _, suffix := range keys {
		rec := s.entries[suffix]
		line := fmt.Sprintf("8%0*d%0*d, %s, %s, %s, %s\n",
			lEx, prefix, lIn, suffix, rec.Last, rec.First, rec.Patronymic, activityDigit)
		if _, err := io.WriteString(sink, line); err != nil {
			return written, models.NewError(models.KindFileWrite, "print: %v", err)
		}
		written++
	}
	return written, nil
}
