package storage

import (
	"bufio"
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"phonebook/corpus"
	"phonebook/logger"
	"phonebook/models"
	"phonebook/recfile"
)

// Generate populates an empty database with total synthetic entries,
// partitioning the work across numWorkers. It fails with Sequence if
// the database is already populated, or propagates whatever the worker
// dispatch surfaces first.
//
// Grounded on the original data<Key,T>::Generate / GenerateOneThread
// (data.inl): per-shard rejection sampling of distinct suffixes. The
// fractional remainder of each worker's share is distributed across its
// shards deterministically (see generateBlock) rather than by an
// independent per-shard coin flip, so total always comes out exact.
func (d *Database) Generate(corp *corpus.Corpus, total, numWorkers int, wait time.Duration) (int64, error) {
	if total < 0 {
		return 0, models.NewError(models.KindBadArg, "generate: total must be non-negative, got %d", total)
	}

	d.gate.Lock()
	logger.LogGateOp(logger.GateBulkExclusive, "acquire", 0)
	defer func() {
		logger.LogGateOp(logger.GateBulkExclusive, "release", 0)
		d.gate.Unlock()
	}()

	w := d.waitTime(wait)
	if err := d.waitUnpopulated(w); err != nil {
		return 0, err
	}

	numShards := pow10(d.lEx)
	actualN := len(partitionBlocks(numShards, numWorkers))
	suffixSpace := pow10(d.lIn)

	var created atomic.Int64
	err := dispatch(context.Background(), numShards, numWorkers, func(ctx context.Context, b block) error {
		return d.generateBlock(corp, total, actualN, suffixSpace, b, &created)
	})
	return created.Load(), err
}

// generateBlock fills the shards in [b.Start, b.End) with exactly
// share = total/actualN entries (plus the final block's remainder),
// split as evenly as possible across the block's shards: every shard
// gets base = share/blockSize entries, and exactly share%blockSize of
// the shards get one more. Which shards get the extra entry is chosen
// by shuffling the block's shard indices, so the remainder still lands
// pseudo-randomly rather than always on the same leading shards — but
// the block's total is always exactly share, never a random variable
// around it. (An earlier version assigned the fractional remainder via
// an independent Bernoulli draw per shard, which made the database's
// final record_count a Binomial(numShards, frac) variable instead of
// exactly total; see the divergence note in DESIGN.md.)
func (d *Database) generateBlock(corp *corpus.Corpus, total, actualN, suffixSpace int, b block, created *atomic.Int64) error {
	blockSize := b.End - b.Start
	if blockSize == 0 {
		return nil
	}

	share := total / actualN
	if b.Index == actualN-1 {
		share += total - share*actualN
	}

	base := share / blockSize
	extra := share - base*blockSize

	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(b.Index)))

	bonus := make([]bool, blockSize)
	for _, idx := range rng.Perm(blockSize)[:extra] {
		bonus[idx] = true
	}

	for i, s := 0, b.Start; s < b.End; i, s = i+1, s+1 {
		count := base
		if bonus[i] {
			count++
		}
		if count > suffixSpace {
			count = suffixSpace
		}

		used := make(map[int]bool, count)
		for j := 0; j < count; j++ {
			suffix := rejectionSampleSuffix(rng, suffixSpace, used)
			used[suffix] = true
			d.generateOne(corp, rng, s, suffix)
			created.Add(1)
		}
	}
	return nil
}

// rejectionSampleSuffix draws a suffix in [0, space) not already in
// used. With a shard-local suffix space far larger than the handful of
// entries drawn per shard, this terminates quickly in expectation.
func rejectionSampleSuffix(rng *rand.Rand, space int, used map[int]bool) int {
	for {
		suffix := rng.Intn(space)
		if !used[suffix] {
			return suffix
		}
	}
}

// generateOne draws a random activity/sex/name triple and stores it
// unconditionally at (shardIndex, suffix) — the caller has already
// established, via rejectionSampleSuffix against its per-shard `used`
// set, that suffix is fresh within this shard.
func (d *Database) generateOne(corp *corpus.Corpus, rng *rand.Rand, shardIndex, suffix int) {
	sex := corpus.Male
	if rng.Intn(2) == 1 {
		sex = corpus.Female
	}
	activity := rng.Intn(2) == 1

	rec := models.NewRecord(
		pick(rng, corp.Last(sex)),
		pick(rng, corp.First(sex)),
		pick(rng, corp.Patronymic(sex)),
	)

	target := d.active
	if !activity {
		target = d.inactive
	}

	target[shardIndex].insertBlind(suffix, rec)
	d.recordCount.Add(1)
	d.byteCount.Add(int64(rec.Bytes()))
}

func pick(rng *rand.Rand, names []string) string {
	if len(names) == 0 {
		return ""
	}
	return names[rng.Intn(len(names))]
}

// Save writes every entry to dataDir, split across numWorkers files
// derived from baseFileName (§6's naming transform). It takes the gate
// shared throughout and requires a populated database.
func (d *Database) Save(numWorkers int, baseFileName, dataDir string, wait time.Duration) (int64, error) {
	d.gate.RLock()
	logger.LogGateOp(logger.GateShared, "acquire", 0)
	defer func() {
		logger.LogGateOp(logger.GateShared, "release", 0)
		d.gate.RUnlock()
	}()

	w := d.waitTime(wait)
	if err := d.waitPopulated(w); err != nil {
		return 0, err
	}
	if !d.beginRead(w) {
		return 0, timeoutErr("save")
	}
	defer d.endRead()

	numShards := pow10(d.lEx)
	var total atomic.Int64

	err := dispatch(context.Background(), numShards, numWorkers, func(ctx context.Context, b block) error {
		n, err := d.saveBlock(b, baseFileName, dataDir)
		total.Add(int64(n))
		return err
	})
	return total.Load(), err
}

func (d *Database) saveBlock(b block, baseFileName, dataDir string) (int, error) {
	fileName, err := recfile.WorkerFileName(baseFileName, b.Index)
	if err != nil {
		return 0, err
	}
	path := filepath.Join(dataDir, fileName)

	f, err := os.Create(path)
	if err != nil {
		return 0, models.NewFileError(models.KindFileOpen, path, "%v", err)
	}
	defer f.Close()

	out := bufio.NewWriter(f)
	count := 0

	for s := b.Start; s < b.End; s++ {
		n, err := d.saveShardLines(out, s, true)
		count += n
		if err != nil {
			return count, models.NewFileError(models.KindFileWrite, path, "%v", err)
		}
		n, err = d.saveShardLines(out, s, false)
		count += n
		if err != nil {
			return count, models.NewFileError(models.KindFileWrite, path, "%v", err)
		}
	}

	if err := out.Flush(); err != nil {
		return count, models.NewFileError(models.KindFileWrite, path, "%v", err)
	}
	return count, nil
}

func (d *Database) saveShardLines(out *bufio.Writer, shardIndex int, activity bool) (int, error) {
	sh := d.active[shardIndex]
	if !activity {
		sh = d.inactive[shardIndex]
	}
	count := 0
	for _, suffix := range sh.sortedKeys() {
		rec, ok := sh.find(suffix)
		if !ok {
			continue
		}
		number := d.hasher.Unhash(shardIndex, suffix)
		if err := recfile.WriteRow(out, number, rec, activity); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// Load reads numWorkers files derived from baseFileName in dataDir,
// inserting every parsed row. It takes the gate exclusively throughout
// and requires an empty database. Per-row inserts are applied directly
// to the target shard without re-acquiring the gate, since the caller
// already holds it exclusively.
func (d *Database) Load(numWorkers int, baseFileName, dataDir string, wait time.Duration) (int64, error) {
	d.gate.Lock()
	logger.LogGateOp(logger.GateBulkExclusive, "acquire", 0)
	defer func() {
		logger.LogGateOp(logger.GateBulkExclusive, "release", 0)
		d.gate.Unlock()
	}()

	w := d.waitTime(wait)
	if err := d.waitUnpopulated(w); err != nil {
		return 0, err
	}

	numShards := pow10(d.lEx)
	var total atomic.Int64

	err := dispatch(context.Background(), numShards, numWorkers, func(ctx context.Context, b block) error {
		n, err := d.loadBlock(b, baseFileName, dataDir)
		total.Add(int64(n))
		return err
	})
	return total.Load(), err
}

func (d *Database) loadBlock(b block, baseFileName, dataDir string) (int, error) {
	fileName, err := recfile.WorkerFileName(baseFileName, b.Index)
	if err != nil {
		return 0, err
	}
	path := filepath.Join(dataDir, fileName)

	f, err := os.Open(path)
	if err != nil {
		return 0, models.NewFileError(models.KindFileOpen, path, "%v", err)
	}
	defer f.Close()

	rows, err := recfile.ReadRows(f, path)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, row := range rows {
		p, s, err := d.hasher.Hash(row.Number)
		if err != nil {
			return count, models.NewFileError(models.KindFileParse, path, "bad phone number %q: %v", row.Number, err)
		}

		target, other := d.active, d.inactive
		if !row.Activity {
			target, other = d.inactive, d.active
		}

		wasNew, oldBytes := target[p].insertOrReplace(s, row.Record)
		if !wasNew {
			d.byteCount.Add(int64(row.Record.Bytes() - oldBytes))
		} else if movedBytes, moved := other[p].erase(s); moved {
			d.byteCount.Add(int64(row.Record.Bytes() - movedBytes))
		} else {
			d.recordCount.Add(1)
			d.byteCount.Add(int64(row.Record.Bytes()))
		}
		count++
	}
	return count, nil
}

// Clear drops every entry from both arrays, resetting the aggregate
// counters to zero. It takes the gate exclusively throughout and
// requires a populated database.
func (d *Database) Clear(numWorkers int, wait time.Duration) error {
	d.gate.Lock()
	logger.LogGateOp(logger.GateBulkExclusive, "acquire", 0)
	defer func() {
		logger.LogGateOp(logger.GateBulkExclusive, "release", 0)
		d.gate.Unlock()
	}()

	w := d.waitTime(wait)
	if err := d.waitPopulated(w); err != nil {
		return err
	}

	numShards := pow10(d.lEx)
	err := dispatch(context.Background(), numShards, numWorkers, func(ctx context.Context, b block) error {
		for s := b.Start; s < b.End; s++ {
			d.active[s].clear()
			d.inactive[s].clear()
		}
		return nil
	})
	if err != nil {
		return err
	}

	d.recordCount.Store(0)
	d.byteCount.Store(0)
	return nil
}
