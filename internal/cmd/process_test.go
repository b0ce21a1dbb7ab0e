package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookops/overload/pkg/batch"
	"github.com/bookops/overload/pkg/bibs"
	"github.com/bookops/overload/pkg/marc"
)

func sampleRecord(controlNo string) *marc.Record {
	return &marc.Record{
		Leader: "00000nam a2200000 a 4500",
		Fields: []marc.Field{
			marc.NewControlField("001", controlNo),
			marc.NewField("245", "1", "0", marc.Subfield{Code: "a", Value: "Title " + controlNo}),
		},
	}
}

func TestReadRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.mrc")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, marc.WriteAll(f, []*marc.Record{sampleRecord("on100"), sampleRecord("on200")}))
	require.NoError(t, f.Close())

	records, err := readRecords(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "on100", records[0].ControlNumber())
}

func TestWriteBatches(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "midwest0823.mrc")

	batches := batch.Batches{
		Dup: []*bibs.Bib{{Record: sampleRecord("on100")}},
		Deduped: []*bibs.Bib{
			{Record: sampleRecord("on200")},
			{Record: sampleRecord("on300")},
		},
	}
	dupPath, newPath, err := writeBatches(inPath, "", batches)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "midwest0823-DUP.mrc"), dupPath)
	assert.Equal(t, filepath.Join(dir, "midwest0823-NEW.mrc"), newPath)

	written, err := readRecords(newPath)
	require.NoError(t, err)
	require.Len(t, written, 2)
	assert.Equal(t, "on200", written[0].ControlNumber())
}

func TestWriteBatchesSkipsEmpty(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "in.mrc")

	dupPath, newPath, err := writeBatches(inPath, "", batch.Batches{})
	require.NoError(t, err)
	assert.Empty(t, dupPath)
	assert.Empty(t, newPath)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
