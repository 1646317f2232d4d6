package storage

import (
	"fmt"
	"io"
	"time"

	"phonebook/models"
)

// PrintPartition streams one line per entry (§6 format) whose activity
// matches activity and whose shard index falls in block workerIndex of
// a totalWorkers-way partition of the shard range, to sink. It acquires the
// gate shared for its own duration — unlike the other bulk operations,
// callers do not hold a ScanHandle across the call since each partition
// worker owns its own short-lived handle, allowing the streamed scan to
// interleave with point writers under the two-counter rule.
//
// It requires the database to be populated, failing with Sequence
// otherwise, per §4.3.1.
func (d *Database) PrintPartition(sink io.Writer, activity bool, totalWorkers, workerIndex int, wait time.Duration) (int, error) {
	if err := d.waitPopulated(d.waitTime(wait)); err != nil {
		return 0, err
	}

	handle := d.AcquireScan()
	defer handle.Release()

	blocks := partitionBlocks(pow10(d.lEx), totalWorkers)
	if workerIndex >= len(blocks) {
		return 0, nil
	}
	b := blocks[workerIndex]

	var shards []*shard
	if activity {
		shards = d.active[b.Start:b.End]
	} else {
		shards = d.inactive[b.Start:b.End]
	}

	written := 0
	for i, sh := range shards {
		prefix := b.Start + i
		n, err := sh.print(sink, prefix, activity, d.lEx, d.lIn)
		written += n
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// Print writes every entry (active then inactive, in iterator order) to
// sink using a single held ScanHandle, for non-partitioned full dumps
// (e.g. tests, or a single-worker /print request). It requires the
// database to be populated, failing with Sequence otherwise.
func (d *Database) Print(sink io.Writer, wait time.Duration) (int, error) {
	if err := d.waitPopulated(d.waitTime(wait)); err != nil {
		return 0, err
	}

	handle := d.AcquireScan()
	defer handle.Release()

	it := handle.Iterator()
	written := 0
	for !it.Done() {
		e := it.Next()
		activityDigit := "0"
		if e.Activity {
			activityDigit = "1"
		}
		line := fmt.Sprintf("8%0*d%0*d, %s, %s, %s, %s\n",
			d.lEx, e.Prefix, d.lIn, e.Suffix, e.Record.Last, e.Record.First, e.Record.Patronymic, activityDigit)
		if _, err := io.WriteString(sink, line); err != nil {
			return written, models.NewError(models.KindFileWrite, "print: %v", err)
		}
		written++
	}
	return written, nil
}
