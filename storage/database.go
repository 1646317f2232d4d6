// Package storage implements the phonebook's concurrent, shard-partitioned
// storage engine: the sharded key space, the reader/writer gating
// protocol that lets point operations run in parallel while excluding
// bulk operations, and the bulk jobs and iterator built on top of it.
//
// The locking design is grounded on the teacher's sharded_lock.go /
// locks_sharded.go (per-bucket sync.RWMutex arrays) composed with a
// global gate; the three-state serializer (exclusive bulk / parallel
// writers / parallel readers) follows the original implementation's
// data<Key,T> (boost::shared_mutex + condition_variable_any + two
// atomic operation counters), re-expressed with sync.RWMutex,
// sync.Cond and atomic.Int64.
package storage

import (
	"sync"
	"sync/atomic"
	"time"

	"phonebook/logger"
	"phonebook/models"
	"phonebook/phone"
)

// Database owns two parallel shard arrays — active and inactive — and
// the coordination protocol that lets point reads/writes and bulk
// operations share them safely.
type Database struct {
	hasher phone.Hasher
	lEx    int
	lIn    int

	active   []*shard
	inactive []*shard

	// gate is the global reader-writer lock G. Bulk operations hold it
	// exclusively; point operations and save/print hold it shared.
	gate sync.RWMutex

	// cond is tied to gateMu, the bookkeeping mutex that guards readOps
	// and writeOps and lets waiters block on their transitions to zero.
	// A plain sync.Cond cannot be attached to a sync.RWMutex's read
	// side, so the counters get their own small mutex independent of
	// gate; gate alone decides bulk-vs-shared, this one decides
	// writer-vs-reader within the shared region.
	gateMu  sync.Mutex
	cond    *sync.Cond
	readOps int64
	writeOps int64

	recordCount atomic.Int64
	byteCount   atomic.Int64

	defaultWaitTime time.Duration
}

// New constructs a Database for the given (L_ex, L_in) split and default
// wait_time. It fails with BadArg if the split is out of range, mirroring
// the original constructor's validation.
func New(lEx, lIn int, defaultWaitTime time.Duration) (*Database, error) {
	if lEx < 1 || lEx > 9 || lIn < 1 || lIn > 9 {
		return nil, models.NewError(models.KindBadArg, "L_ex and L_in must each be in [1,9], got L_ex=%d L_in=%d", lEx, lIn)
	}
	if lEx+lIn != 10 {
		return nil, models.NewError(models.KindBadArg, "L_ex+L_in must equal 10, got %d", lEx+lIn)
	}

	numShards := pow10(lEx)
	d := &Database{
		hasher:          phone.NewHasher(lEx, lIn),
		lEx:             lEx,
		lIn:             lIn,
		active:          make([]*shard, numShards),
		inactive:        make([]*shard, numShards),
		defaultWaitTime: defaultWaitTime,
	}
	for i := range d.active {
		d.active[i] = newShard()
		d.inactive[i] = newShard()
	}
	d.cond = sync.NewCond(&d.gateMu)
	return d, nil
}

// LEx and LIn expose the configured digit split; the worker dispatcher
// uses LEx to compute the shard index range to partition.
func (d *Database) LEx() int { return d.lEx }
func (d *Database) LIn() int { return d.lIn }

// Hasher exposes the database's phone-number hasher.
func (d *Database) Hasher() phone.Hasher { return d.hasher }

// RecordCount returns the current aggregate live-entry count.
func (d *Database) RecordCount() int64 { return d.recordCount.Load() }

// ByteCount returns the current aggregate byte footprint.
func (d *Database) ByteCount() int64 { return d.byteCount.Load() }

func pow10(n int) int {
	r := 1
	for i := 0; i < n; i++ {
		r *= 10
	}
	return r
}

// waitTime resolves the effective wait bound: the caller-supplied value
// if positive, else the database's configured default.
func (d *Database) waitTime(requested time.Duration) time.Duration {
	if requested > 0 {
		return requested
	}
	return d.defaultWaitTime
}

// waitUntil waits on d.cond until cond() holds, returning false if it
// does not become true within wait (callers turn that into their own
// Timeout or Sequence error). The caller must
// hold d.gateMu on entry; it is held again on return (sync.Cond.Wait
// reacquires it internally).
//
// sync.Cond has no timed wait, so the bound is enforced by a sibling
// goroutine that broadcasts once the deadline passes — this mirrors the
// original's condition_variable_any::wait_for via boost, re-expressed
// with the primitives Go's stdlib actually offers.
func (d *Database) waitUntil(cond func() bool, wait time.Duration) bool {
	deadline := time.Now().Add(wait)
	for !cond() {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		timedOut := make(chan struct{})
		timer := time.AfterFunc(remaining, func() {
			d.gateMu.Lock()
			close(timedOut)
			d.cond.Broadcast()
			d.gateMu.Unlock()
		})
		d.cond.Wait()
		timer.Stop()
		select {
		case <-timedOut:
			if !cond() {
				return false
			}
		default:
		}
	}
	return true
}

// beginRead registers the calling goroutine as a pending/active reader:
// increments readOps, then waits until writeOps == 0, bounded by wait.
// On timeout the increment is rolled back before returning false.
func (d *Database) beginRead(wait time.Duration) bool {
	d.gateMu.Lock()
	defer d.gateMu.Unlock()
	v := atomic.AddInt64(&d.readOps, 1)
	logger.LogGateOp(logger.GateReaders, "acquire", v)
	if d.waitUntil(func() bool { return d.writeOps == 0 }, wait) {
		return true
	}
	v = atomic.AddInt64(&d.readOps, -1)
	logger.LogGateOp(logger.GateReaders, "rollback", v)
	d.cond.Broadcast()
	return false
}

func (d *Database) endRead() {
	d.gateMu.Lock()
	v := atomic.AddInt64(&d.readOps, -1)
	logger.LogGateOp(logger.GateReaders, "release", v)
	d.cond.Broadcast()
	d.gateMu.Unlock()
}

// beginWrite registers the calling goroutine as a pending/active writer:
// increments writeOps, then waits until readOps == 0, bounded by wait.
func (d *Database) beginWrite(wait time.Duration) bool {
	d.gateMu.Lock()
	defer d.gateMu.Unlock()
	v := atomic.AddInt64(&d.writeOps, 1)
	logger.LogGateOp(logger.GateWriters, "acquire", v)
	if d.waitUntil(func() bool { return d.readOps == 0 }, wait) {
		return true
	}
	v = atomic.AddInt64(&d.writeOps, -1)
	logger.LogGateOp(logger.GateWriters, "rollback", v)
	d.cond.Broadcast()
	return false
}

func (d *Database) endWrite() {
	d.gateMu.Lock()
	v := atomic.AddInt64(&d.writeOps, -1)
	logger.LogGateOp(logger.GateWriters, "release", v)
	d.cond.Broadcast()
	d.gateMu.Unlock()
}

// waitPopulated blocks (bounded by wait) until record_count > 0, failing
// with Sequence if the database is still empty when the bound elapses.
// save/clear/find/print all require this precondition (§4.3.1).
func (d *Database) waitPopulated(wait time.Duration) error {
	d.gateMu.Lock()
	ok := d.waitUntil(func() bool { return d.recordCount.Load() > 0 }, wait)
	d.gateMu.Unlock()
	if !ok {
		return models.ErrEmpty
	}
	return nil
}

// waitUnpopulated blocks (bounded by wait) until record_count == 0,
// failing with Sequence if the database is still populated when the
// bound elapses. generate/load require this precondition (§4.3.1).
func (d *Database) waitUnpopulated(wait time.Duration) error {
	d.gateMu.Lock()
	ok := d.waitUntil(func() bool { return d.recordCount.Load() == 0 }, wait)
	d.gateMu.Unlock()
	if !ok {
		return models.ErrAlreadyPopulated
	}
	return nil
}

// ScanHandle is a scoped shared acquisition of the global gate, exposed
// to external callers (the streamed-print boundary handler) so that an
// iterator walk observes a stable shard sequence for its duration. It
// must not be held across any call requiring exclusive gate acquisition.
type ScanHandle struct {
	db *Database
}

// AcquireScan takes the gate shared and returns a handle good for one
// iterator walk. Release must be called exactly once.
func (d *Database) AcquireScan() *ScanHandle {
	d.gate.RLock()
	logger.LogGateOp(logger.GateShared, "acquire", 0)
	return &ScanHandle{db: d}
}

// Release gives up the shared gate hold.
func (h *ScanHandle) Release() {
	logger.LogGateOp(logger.GateShared, "release", 0)
	h.db.gate.RUnlock()
}

// Iterator returns a forward iterator over h's database, safe to use for
// the lifetime of h.
func (h *ScanHandle) Iterator() *Iterator {
	return newIterator(h.db)
}
