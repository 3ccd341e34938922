package isam

import (
	"bytes"
	"errors"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gostonefire/fileorg/internal/conf"
	"github.com/gostonefire/fileorg/internal/model"
	"github.com/gostonefire/fileorg/record"
	"github.com/gostonefire/fileorg/storage"
	"github.com/stretchr/testify/assert"
)

const studentBlockSize int64 = 156

func testConf(t *testing.T, blockFactor, maxIndexEntries int64) Conf[record.Student] {
	return Conf[record.Student]{
		Name:            filepath.Join(t.TempDir(), "students"),
		BlockFactor:     blockFactor,
		MaxIndexEntries: maxIndexEntries,
		Codec:           record.StudentCodec{},
		Logger:          slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
	}
}

func newTestEngine(t *testing.T, blockFactor, maxIndexEntries int64) *Engine[record.Student] {
	engine, err := New(testConf(t, blockFactor, maxIndexEntries))
	assert.NoError(t, err, "creates engine")
	t.Cleanup(engine.CloseFiles)

	return engine
}

func students(keys ...int32) (records []record.Student) {
	for _, k := range keys {
		records = append(records, record.Student{Code: k, FirstName: "First", LastName: "Last", Cycle: k % 10})
	}
	return
}

func pageKeys(t *testing.T, engine *Engine[record.Student], offset int64) (keys []int32, next int64) {
	blk, err := engine.file.Read(offset)
	assert.NoError(t, err, "reads page")
	for _, r := range blk.Records {
		keys = append(keys, r.Code)
	}

	return keys, blk.Next
}

func scanKeys(t *testing.T, engine *Engine[record.Student]) (keys []int32) {
	scanner := engine.Scan()
	for scanner.HasNext() {
		r, err := scanner.Next()
		assert.NoError(t, err, "scans record")
		keys = append(keys, r.Code)
	}

	return
}

func TestNew(t *testing.T) {
	t.Run("creates files and reports parameters", func(t *testing.T) {
		// Prepare
		isamConf := testConf(t, 3, 8)

		// Execute
		engine, err := New(isamConf)

		// Check
		assert.NoError(t, err, "creates engine")
		assert.FileExists(t, GetDataFileName(isamConf.Name), "data file")
		assert.FileExists(t, GetIndexFileName(isamConf.Name), "index file")
		assert.Equal(t, Parameters{BlockFactor: 3, MaxIndexEntries: 8, RecordSize: 48, BlockSize: studentBlockSize},
			engine.GetStorageParameters(), "parameters")

		// Clean up
		engine.CloseFiles()
		assert.NoError(t, engine.RemoveFiles(), "removes files")
		assert.NoFileExists(t, GetDataFileName(isamConf.Name), "data file removed")
		assert.NoFileExists(t, GetIndexFileName(isamConf.Name), "index file removed")
	})

	t.Run("validates configuration", func(t *testing.T) {
		// Prepare
		noName := testConf(t, 3, 8)
		noName.Name = ""
		noCodec := testConf(t, 3, 8)
		noCodec.Codec = nil

		// Execute
		_, errName := New(noName)
		_, errCodec := New(noCodec)
		_, errBlockFactor := New(testConf(t, 0, 8))
		_, errIndex := New(testConf(t, 3, 0))

		// Check
		assert.Error(t, errName, "empty name")
		assert.Error(t, errCodec, "missing codec")
		assert.Error(t, errBlockFactor, "zero block factor")
		assert.Error(t, errIndex, "zero index capacity")
	})
}

func TestEngine_Build(t *testing.T) {
	t.Run("writes pages and one index entry per page", func(t *testing.T) {
		// Prepare
		engine := newTestEngine(t, 3, 64)

		// Execute
		err := engine.Build(students(1, 5, 6, 10, 11))

		// Check
		assert.NoError(t, err, "builds")
		keys, next := pageKeys(t, engine, 0)
		assert.Equal(t, []int32{1, 5, 6}, keys, "first page")
		assert.Equal(t, int64(conf.NoNextBlock), next, "first page not chained")
		keys, next = pageKeys(t, engine, studentBlockSize)
		assert.Equal(t, []int32{10, 11}, keys, "second page")
		assert.Equal(t, int64(conf.NoNextBlock), next, "second page not chained")
		assert.Equal(t, []model.IndexEntry{{Key: 1, Offset: 0}, {Key: 10, Offset: studentBlockSize}},
			engine.IndexEntries(), "index")
	})

	t.Run("chains pages beyond index capacity from the last indexed page", func(t *testing.T) {
		// Prepare
		engine := newTestEngine(t, 2, 2)
		size := conf.BlockSize(2, 48)

		// Execute
		err := engine.Build(students(1, 2, 3, 4, 5, 6, 7, 8, 9))

		// Check
		assert.NoError(t, err, "builds")
		assert.Equal(t, []model.IndexEntry{{Key: 1, Offset: 0}, {Key: 3, Offset: size}},
			engine.IndexEntries(), "index holds first pages")
		_, next := pageKeys(t, engine, size)
		assert.Equal(t, 2*size, next, "last indexed page chained")
		_, next = pageKeys(t, engine, 3*size)
		assert.Equal(t, 4*size, next, "trailing page chained")
		_, next = pageKeys(t, engine, 4*size)
		assert.Equal(t, int64(conf.NoNextBlock), next, "tail")
		for k := int32(1); k <= 9; k++ {
			r, err := engine.Search(k)
			assert.NoError(t, err, "finds key %d", k)
			assert.Equal(t, k, r.Code, "found record")
		}
	})

	t.Run("empty input writes one empty page", func(t *testing.T) {
		// Prepare
		engine := newTestEngine(t, 3, 4)

		// Execute
		err := engine.Build(nil)
		errInsert := engine.Insert(students(7)[0])

		// Check
		assert.NoError(t, err, "builds")
		assert.NoError(t, errInsert, "inserts into empty page")
		keys, _ := pageKeys(t, engine, 0)
		assert.Equal(t, []int32{7}, keys, "record in first page")
		assert.Equal(t, []model.IndexEntry{{Key: 7, Offset: 0}}, engine.IndexEntries(), "first page anchored")
	})

	t.Run("refuses to build twice and rebuilds after reset", func(t *testing.T) {
		// Prepare
		engine := newTestEngine(t, 3, 4)
		assert.NoError(t, engine.Build(students(1, 2, 3, 4)), "first build")

		// Execute
		errTwice := engine.Build(students(5, 6))
		errReset := engine.Reset()
		errRebuild := engine.Build(students(5, 6))

		// Check
		assert.True(t, errors.Is(errTwice, storage.AlreadyBuilt{}), "already built")
		assert.NoError(t, errReset, "resets")
		assert.NoError(t, errRebuild, "rebuilds")
		assert.Equal(t, []int32{5, 6}, scanKeys(t, engine), "only new records")
		assert.Equal(t, []model.IndexEntry{{Key: 5, Offset: 0}}, engine.IndexEntries(), "new index")
	})

	t.Run("rejects unsorted input", func(t *testing.T) {
		// Prepare
		engine := newTestEngine(t, 3, 4)

		// Execute
		errUnsorted := engine.Build(students(1, 3, 2))
		errDuplicate := engine.Build(students(1, 3, 3))

		// Check
		assert.True(t, errors.Is(errUnsorted, storage.PreconditionFailed{}), "unsorted")
		assert.True(t, errors.Is(errDuplicate, storage.PreconditionFailed{}), "duplicate")
		count, err := engine.file.BlockCount()
		assert.NoError(t, err, "counts pages")
		assert.Equal(t, int64(0), count, "nothing written")
	})
}

func TestEngine_Insert(t *testing.T) {
	t.Run("requires a built file", func(t *testing.T) {
		// Prepare
		engine := newTestEngine(t, 3, 4)

		// Execute
		errInsert := engine.Insert(students(1)[0])
		_, errSearch := engine.Search(1)
		_, errDelete := engine.Delete(1)

		// Check
		assert.True(t, errors.Is(errInsert, storage.PreconditionFailed{}), "insert")
		assert.True(t, errors.Is(errSearch, storage.PreconditionFailed{}), "search")
		assert.True(t, errors.Is(errDelete, storage.PreconditionFailed{}), "delete")
	})

	t.Run("free slot keeps page sorted and re-anchors head", func(t *testing.T) {
		// Prepare
		engine := newTestEngine(t, 3, 64)
		assert.NoError(t, engine.Build(students(10, 20, 30, 40, 50)), "builds")
		_, err := engine.Delete(10)
		assert.NoError(t, err, "frees a slot in the first page")

		// Execute
		errMid := engine.Insert(students(45)[0])
		errLow := engine.Insert(students(5)[0])

		// Check
		assert.NoError(t, errMid, "inserts 45")
		assert.NoError(t, errLow, "inserts 5")
		keys, _ := pageKeys(t, engine, studentBlockSize)
		assert.Equal(t, []int32{40, 45, 50}, keys, "second page sorted")
		keys, _ = pageKeys(t, engine, 0)
		assert.Equal(t, []int32{5, 20, 30}, keys, "first page sorted")
		assert.Equal(t, []model.IndexEntry{{Key: 5, Offset: 0}, {Key: 40, Offset: studentBlockSize}},
			engine.IndexEntries(), "first page re-anchored")
	})

	t.Run("splits a full page while the index has room", func(t *testing.T) {
		// Prepare
		engine := newTestEngine(t, 3, 64)
		assert.NoError(t, engine.Build(students(1, 5, 6, 10, 11, 12)), "builds")

		// Execute
		err := engine.Insert(students(25)[0])

		// Check
		assert.NoError(t, err, "inserts")
		keys, next := pageKeys(t, engine, studentBlockSize)
		assert.Equal(t, []int32{10, 11}, keys, "first half in place")
		assert.Equal(t, int64(conf.NoNextBlock), next, "original next preserved")
		keys, next = pageKeys(t, engine, 2*studentBlockSize)
		assert.Equal(t, []int32{12, 25}, keys, "second half appended")
		assert.Equal(t, int64(conf.NoNextBlock), next, "new page not chained")
		assert.Equal(t, []model.IndexEntry{
			{Key: 1, Offset: 0},
			{Key: 10, Offset: studentBlockSize},
			{Key: 12, Offset: 2 * studentBlockSize},
		}, engine.IndexEntries(), "new page indexed")
	})

	t.Run("chains a full page once the index is full", func(t *testing.T) {
		// Prepare
		engine := newTestEngine(t, 3, 2)
		assert.NoError(t, engine.Build(students(1, 5, 6, 10, 11)), "builds")
		assert.NoError(t, engine.Insert(students(12)[0]), "fills second page")

		// Execute
		err := engine.Insert(students(25)[0])

		// Check
		assert.NoError(t, err, "inserts")
		keys, next := pageKeys(t, engine, studentBlockSize)
		assert.Equal(t, []int32{10, 11}, keys, "first half in place")
		assert.Equal(t, 2*studentBlockSize, next, "linked to overflow")
		keys, next = pageKeys(t, engine, 2*studentBlockSize)
		assert.Equal(t, []int32{12, 25}, keys, "second half in overflow")
		assert.Equal(t, int64(conf.NoNextBlock), next, "overflow is tail")
		assert.Equal(t, []model.IndexEntry{{Key: 1, Offset: 0}, {Key: 10, Offset: studentBlockSize}},
			engine.IndexEntries(), "index unchanged")

		stats, err := engine.Stats()
		assert.NoError(t, err, "stats")
		assert.Equal(t, Stats{Pages: 3, IndexEntries: 2, Records: 7, MainPages: 2, OverflowPages: 1}, stats, "stats")
	})

	t.Run("chain keeps key order inside a chain", func(t *testing.T) {
		// Prepare
		engine := newTestEngine(t, 2, 1)
		size := conf.BlockSize(2, 48)
		assert.NoError(t, engine.Build(students(10, 20)), "builds")
		assert.NoError(t, engine.Insert(students(30)[0]), "chains 30")
		assert.NoError(t, engine.Insert(students(12)[0]), "fills head")

		// Execute
		err := engine.Insert(students(15)[0])

		// Check
		assert.NoError(t, err, "inserts")
		assert.Equal(t, []int32{10, 12, 15, 20, 30}, scanKeys(t, engine), "scan in key order")
		keys, next := pageKeys(t, engine, 0)
		assert.Equal(t, []int32{10}, keys, "head keeps the lowest half")
		assert.Equal(t, 2*size, next, "head linked to the newest overflow")
		keys, next = pageKeys(t, engine, 2*size)
		assert.Equal(t, []int32{12, 15}, keys, "new overflow right after the head")
		assert.Equal(t, size, next, "new overflow linked to the older one")
	})
}

func TestEngine_Search(t *testing.T) {
	t.Run("finds records and reports misses", func(t *testing.T) {
		// Prepare
		engine := newTestEngine(t, 3, 64)
		assert.NoError(t, engine.Build(students(1, 5, 6, 10, 11)), "builds")

		// Execute
		found, err := engine.Search(10)
		_, errMiss := engine.Search(7)
		_, errBelow := engine.Search(-4)

		// Check
		assert.NoError(t, err, "finds 10")
		assert.Equal(t, students(10)[0], found, "record")
		assert.True(t, errors.Is(errMiss, storage.NoRecordFound{}), "missing key")
		assert.True(t, errors.Is(errBelow, storage.NoRecordFound{}), "key below every anchor")
	})
}

func TestEngine_Delete(t *testing.T) {
	t.Run("unlinks an emptied overflow page", func(t *testing.T) {
		// Prepare
		engine := newTestEngine(t, 3, 2)
		assert.NoError(t, engine.Build(students(1, 5, 6, 10, 11)), "builds")
		assert.NoError(t, engine.Insert(students(12)[0]), "fills second page")
		assert.NoError(t, engine.Insert(students(13)[0]), "chains")
		deleted, err := engine.Delete(12)
		assert.NoError(t, err, "deletes 12")
		assert.True(t, deleted, "12 deleted")

		// Execute
		deleted, err = engine.Delete(13)

		// Check
		assert.NoError(t, err, "deletes 13")
		assert.True(t, deleted, "13 deleted")
		_, next := pageKeys(t, engine, studentBlockSize)
		assert.Equal(t, int64(conf.NoNextBlock), next, "predecessor repointed")
		assert.Equal(t, []int32{1, 5, 6, 10, 11}, scanKeys(t, engine), "remaining records")
	})

	t.Run("drops the index entry of an emptied head", func(t *testing.T) {
		// Prepare
		engine := newTestEngine(t, 3, 64)
		assert.NoError(t, engine.Build(students(1, 5, 6, 10)), "builds")

		// Execute
		deleted, err := engine.Delete(10)

		// Check
		assert.NoError(t, err, "deletes")
		assert.True(t, deleted, "deleted")
		assert.Equal(t, []model.IndexEntry{{Key: 1, Offset: 0}}, engine.IndexEntries(), "entry dropped")
		assert.NoError(t, engine.Insert(students(10)[0]), "inserts again")
		r, err := engine.Search(10)
		assert.NoError(t, err, "finds reinserted key")
		assert.Equal(t, int32(10), r.Code, "record")
	})

	t.Run("refills an emptied head from its overflow", func(t *testing.T) {
		// Prepare
		engine := newTestEngine(t, 3, 2)
		assert.NoError(t, engine.Build(students(1, 5, 6, 10, 11)), "builds")
		assert.NoError(t, engine.Insert(students(12)[0]), "fills second page")
		assert.NoError(t, engine.Insert(students(25)[0]), "chains")
		_, err := engine.Delete(10)
		assert.NoError(t, err, "deletes 10")

		// Execute
		deleted, err := engine.Delete(11)

		// Check
		assert.NoError(t, err, "deletes 11")
		assert.True(t, deleted, "deleted")
		keys, next := pageKeys(t, engine, studentBlockSize)
		assert.Equal(t, []int32{12, 25}, keys, "overflow moved into head")
		assert.Equal(t, int64(conf.NoNextBlock), next, "overflow abandoned")
		assert.Equal(t, []model.IndexEntry{{Key: 1, Offset: 0}, {Key: 12, Offset: studentBlockSize}},
			engine.IndexEntries(), "head re-anchored")
		stats, err := engine.Stats()
		assert.NoError(t, err, "stats")
		assert.Equal(t, int64(0), stats.OverflowPages, "no reachable overflow")
		assert.Equal(t, int64(3), stats.Pages, "abandoned page still in file")
	})

	t.Run("re-anchors when the minimum is removed", func(t *testing.T) {
		// Prepare
		engine := newTestEngine(t, 3, 64)
		assert.NoError(t, engine.Build(students(1, 5, 6, 10, 11)), "builds")

		// Execute
		deleted, err := engine.Delete(10)
		notDeleted, errMiss := engine.Delete(10)

		// Check
		assert.NoError(t, err, "deletes")
		assert.True(t, deleted, "deleted")
		assert.NoError(t, errMiss, "miss is not an error")
		assert.False(t, notDeleted, "nothing deleted")
		assert.Equal(t, []model.IndexEntry{{Key: 1, Offset: 0}, {Key: 11, Offset: studentBlockSize}},
			engine.IndexEntries(), "re-anchored")
	})
}

func TestEngine_Open(t *testing.T) {
	t.Run("reopens existing files", func(t *testing.T) {
		// Prepare
		isamConf := testConf(t, 3, 4)
		engine, err := New(isamConf)
		assert.NoError(t, err, "creates")
		assert.NoError(t, engine.Build(students(1, 5, 6, 10, 11)), "builds")
		assert.NoError(t, engine.Insert(students(25)[0]), "inserts")
		index := engine.IndexEntries()
		engine.CloseFiles()

		// Execute
		reopened, err := Open(isamConf)

		// Check
		assert.NoError(t, err, "opens")
		assert.Equal(t, index, reopened.IndexEntries(), "index restored")
		assert.Equal(t, []int32{1, 5, 6, 10, 11, 25}, scanKeys(t, reopened), "records")

		// Clean up
		reopened.CloseFiles()
	})

	t.Run("missing data file is a failed precondition", func(t *testing.T) {
		// Execute
		_, err := Open(testConf(t, 3, 4))

		// Check
		assert.True(t, errors.Is(err, storage.PreconditionFailed{}), "precondition failed")
	})

	t.Run("malformed index is treated as empty", func(t *testing.T) {
		// Prepare
		isamConf := testConf(t, 3, 4)
		engine, err := New(isamConf)
		assert.NoError(t, err, "creates")
		assert.NoError(t, engine.Build(students(1, 5, 6, 10, 11)), "builds")
		engine.CloseFiles()
		assert.NoError(t, os.WriteFile(GetIndexFileName(isamConf.Name), []byte{1, 2, 3}, 0644), "corrupts index")
		logBuf := &bytes.Buffer{}
		isamConf.Logger = slog.New(slog.NewTextHandler(logBuf, nil))

		// Execute
		reopened, err := Open(isamConf)

		// Check
		assert.NoError(t, err, "opens")
		assert.Empty(t, reopened.IndexEntries(), "empty index")
		assert.Contains(t, logBuf.String(), "malformed index file", "warning logged")
		r, err := reopened.Search(5)
		assert.NoError(t, err, "first page still reachable")
		assert.Equal(t, int32(5), r.Code, "record")

		// Clean up
		reopened.CloseFiles()
	})
}

func TestEngine_Scan(t *testing.T) {
	t.Run("yields every record once and restarts", func(t *testing.T) {
		// Prepare
		engine := newTestEngine(t, 2, 3)
		assert.NoError(t, engine.Build(students(2, 4, 6, 8, 10, 12)), "builds")
		for _, k := range []int32{3, 5, 7, 9, 11, 13, 1} {
			assert.NoError(t, engine.Insert(students(k)[0]), "inserts %d", k)
		}
		scanner := engine.Scan()
		_, err := scanner.Next()
		assert.NoError(t, err, "reads one record")

		// Execute
		scanner.Reset()
		var got []record.Student
		for scanner.HasNext() {
			r, err := scanner.Next()
			assert.NoError(t, err, "scans")
			got = append(got, r)
		}

		// Check
		expected := students(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13)
		if diff := cmp.Diff(expected, got); diff != "" {
			t.Errorf("scan mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestEngine_RandomOperations(t *testing.T) {
	t.Run("every live key stays reachable", func(t *testing.T) {
		// Prepare
		rnd := rand.New(rand.NewSource(1))
		engine := newTestEngine(t, 3, 5)
		universe := rnd.Perm(400)
		var initial []int32
		for _, k := range universe[:30] {
			initial = append(initial, int32(k))
		}
		sort.Slice(initial, func(i, j int) bool { return initial[i] < initial[j] })
		assert.NoError(t, engine.Build(students(initial...)), "builds")
		live := make(map[int32]bool)
		for _, k := range initial {
			live[k] = true
		}
		rest := universe[30:]

		// Execute
		for step := 0; step < 500; step++ {
			if rnd.Intn(10) < 6 && len(rest) > 0 {
				k := int32(rest[0])
				rest = rest[1:]
				assert.NoError(t, engine.Insert(students(k)[0]), "inserts %d", k)
				live[k] = true
				continue
			}
			if len(live) == 0 {
				continue
			}
			keys := make([]int32, 0, len(live))
			for k := range live {
				keys = append(keys, k)
			}
			sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
			k := keys[rnd.Intn(len(keys))]
			deleted, err := engine.Delete(k)
			assert.NoError(t, err, "deletes %d", k)
			assert.True(t, deleted, "deleted %d", k)
			delete(live, k)
		}

		// Check
		var expected []int32
		for k := range live {
			expected = append(expected, k)
			_, err := engine.Search(k)
			assert.NoError(t, err, "finds %d", k)
		}
		sort.Slice(expected, func(i, j int) bool { return expected[i] < expected[j] })
		got := scanKeys(t, engine)
		sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
		if diff := cmp.Diff(expected, got); diff != "" {
			t.Errorf("scan mismatch (-want +got):\n%s", diff)
		}
		assert.LessOrEqual(t, len(engine.IndexEntries()), 5, "index bounded")
		stats, err := engine.Stats()
		assert.NoError(t, err, "stats")
		assert.Equal(t, int64(len(live)), stats.Records, "reachable records")
	})
}
