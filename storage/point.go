package storage

import (
	"time"

	"phonebook/logger"
	"phonebook/models"
)

func timeoutErr(op string) error {
	return models.NewError(models.KindTimeout, "%s: wait_time elapsed", op)
}

// Insert hashes number and stores rec in the activity array (active if
// activity, else inactive). It reports whether a genuinely new entry
// was created (false if it replaced an existing one, whether in place
// or by moving across activity), per §4.3.2's counter table.
//
// Insert takes the gate shared, registers as a writer (bounded by
// wait), and operates on the target shard via the shard's own lock.
func (d *Database) Insert(number string, activity bool, rec models.Record, wait time.Duration) (created bool, err error) {
	p, s, err := d.hasher.Hash(number)
	if err != nil {
		return false, err
	}

	d.gate.RLock()
	logger.LogGateOp(logger.GateShared, "acquire", 0)
	defer func() {
		logger.LogGateOp(logger.GateShared, "release", 0)
		d.gate.RUnlock()
	}()

	w := d.waitTime(wait)
	if !d.beginWrite(w) {
		return false, timeoutErr("insert")
	}
	defer d.endWrite()

	target, other := d.active, d.inactive
	if !activity {
		target, other = d.inactive, d.active
	}

	wasNew, oldBytes := target[p].insertOrReplace(s, rec)
	if !wasNew {
		// Replaced in place within the same array.
		d.byteCount.Add(int64(rec.Bytes() - oldBytes))
		return false, nil
	}

	// New in target; check whether it displaces an entry of the
	// opposite activity at the same (prefix, suffix) — a move.
	if movedBytes, moved := other[p].erase(s); moved {
		d.byteCount.Add(int64(rec.Bytes() - movedBytes))
		return false, nil
	}

	d.recordCount.Add(1)
	d.byteCount.Add(int64(rec.Bytes()))
	return true, nil
}

// Erase hashes number and removes it from active, else inactive. It
// reports whether an entry was found and removed.
func (d *Database) Erase(number string, wait time.Duration) (removed bool, err error) {
	p, s, err := d.hasher.Hash(number)
	if err != nil {
		return false, err
	}

	d.gate.RLock()
	logger.LogGateOp(logger.GateShared, "acquire", 0)
	defer func() {
		logger.LogGateOp(logger.GateShared, "release", 0)
		d.gate.RUnlock()
	}()

	w := d.waitTime(wait)
	if !d.beginWrite(w) {
		return false, timeoutErr("erase")
	}
	defer d.endWrite()

	if bytes, ok := d.active[p].erase(s); ok {
		d.recordCount.Add(-1)
		d.byteCount.Add(-int64(bytes))
		return true, nil
	}
	if bytes, ok := d.inactive[p].erase(s); ok {
		d.recordCount.Add(-1)
		d.byteCount.Add(-int64(bytes))
		return true, nil
	}
	return false, nil
}

// Find hashes number and looks it up in active, then inactive. It
// returns the record, the activity array it was found in, and whether
// it was found at all.
func (d *Database) Find(number string, wait time.Duration) (rec models.Record, activity bool, found bool, err error) {
	p, s, err := d.hasher.Hash(number)
	if err != nil {
		return models.Record{}, false, false, err
	}

	d.gate.RLock()
	logger.LogGateOp(logger.GateShared, "acquire", 0)
	defer func() {
		logger.LogGateOp(logger.GateShared, "release", 0)
		d.gate.RUnlock()
	}()

	w := d.waitTime(wait)
	if err := d.waitPopulated(w); err != nil {
		return models.Record{}, false, false, err
	}
	if !d.beginRead(w) {
		return models.Record{}, false, false, timeoutErr("find")
	}
	defer d.endRead()

	if r, ok := d.active[p].find(s); ok {
		return r, true, true, nil
	}
	if r, ok := d.inactive[p].find(s); ok {
		return r, false, true, nil
	}
	return models.Record{}, false, false, nil
}
