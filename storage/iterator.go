package storage

import "phonebook/models"

// Entry is one record yielded by the forward iterator, carrying enough
// context (prefix, activity, suffix) to reconstruct its phone number or
// format a print line.
type Entry struct {
	Prefix   int
	Activity bool
	Suffix   int
	Record   models.Record
}

// Iterator walks all non-empty active shards in ascending prefix order,
// each in natural key order, then all non-empty inactive shards
// likewise. It is unsynchronized: safe only while the caller holds the
// database's gate shared, via a ScanHandle.
type Iterator struct {
	db *Database

	activity bool // which array the cursor is currently in
	prefix   int  // current shard index within that array
	keys     []int
	keyPos   int

	done bool
}

func newIterator(db *Database) *Iterator {
	it := &Iterator{db: db, activity: true}
	it.advanceToNonEmptyShard()
	return it
}

// advanceToNonEmptyShard moves the cursor forward (possibly switching
// from active to inactive) until it lands on a shard with at least one
// key, loading that shard's sorted key list, or marks the iterator done.
func (it *Iterator) advanceToNonEmptyShard() {
	for {
		shards := it.db.active
		if !it.activity {
			shards = it.db.inactive
		}
		for it.prefix < len(shards) {
			keys := shards[it.prefix].sortedKeys()
			if len(keys) > 0 {
				it.keys = keys
				it.keyPos = 0
				return
			}
			it.prefix++
		}
		if it.activity {
			it.activity = false
			it.prefix = 0
			continue
		}
		it.done = true
		return
	}
}

// Done reports whether iteration is exhausted.
func (it *Iterator) Done() bool {
	return it.done
}

// Next returns the current entry and advances the cursor. Calling Next
// after Done is true is a programming error and panics, matching the
// teacher's fail-fast style for iterator misuse.
func (it *Iterator) Next() Entry {
	if it.done {
		panic("storage: Next called on exhausted iterator")
	}

	shards := it.db.active
	if !it.activity {
		shards = it.db.inactive
	}
	suffix := it.keys[it.keyPos]
	rec, _ := shards[it.prefix].find(suffix)
	entry := Entry{Prefix: it.prefix, Activity: it.activity, Suffix: suffix, Record: rec}

	it.keyPos++
	if it.keyPos >= len(it.keys) {
		it.prefix++
		it.advanceToNonEmptyShard()
	}
	return entry
}

// GetBucket returns the shard index (prefix) the cursor currently sits
// in, for partitioned scan output.
func (it *Iterator) GetBucket() int {
	return it.prefix
}

// GetActiv reports whether the cursor is currently in the active array.
func (it *Iterator) GetActiv() bool {
	return it.activity
}

// Half rewinds/advances the iterator to the first inactive entry (the
// position just past every active entry), or to the exhausted state if
// there are none.
func (it *Iterator) Half() {
	it.activity = false
	it.prefix = 0
	it.done = false
	it.advanceToNonEmptyShard()
}
