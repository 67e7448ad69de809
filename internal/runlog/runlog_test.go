package runlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

func testEntry() Entry {
	return Entry{
		Timestamp:    testTime,
		RunID:        "0b7c6f7e-1f7a-4c55-9c2c-3f0e0c1d2a11",
		Statement:    "april.csv",
		Transactions: 10,
		Matched:      6,
		Unmatched:    4,
		MatchRate:    60,
		Rejected:     1,
		Skipped:      3,
	}
}

func TestAppend_NewFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, []Entry{testEntry()}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, testEntry(), entries[0])
}

func TestAppend_ExistingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, []Entry{testEntry()}))

	e2 := testEntry()
	e2.Statement = "may.xlsx"
	e2.MatchRate = 33.333333
	require.NoError(t, Append(dir, []Entry{e2}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "april.csv", entries[0].Statement)
	assert.Equal(t, "may.xlsx", entries[1].Statement)
	assert.InDelta(t, 33.3, entries[1].MatchRate, 0.001)

	data, err := os.ReadFile(filepath.Join(dir, logFile))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "run_id"), "header written once")
}

func TestRead_NoFile(t *testing.T) {
	entries, err := Read(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUnmarshalEntry_Errors(t *testing.T) {
	good := MarshalEntry(testEntry())

	_, err := UnmarshalEntry(good[:3])
	assert.Error(t, err)

	bad := append([]string(nil), good...)
	bad[colTimestamp] = "yesterday"
	_, err = UnmarshalEntry(bad)
	assert.ErrorContains(t, err, "parsing timestamp")

	bad = append([]string(nil), good...)
	bad[colMatched] = "six"
	_, err = UnmarshalEntry(bad)
	assert.ErrorContains(t, err, "parsing matched")

	bad = append([]string(nil), good...)
	bad[colMatchRate] = "n/a"
	_, err = UnmarshalEntry(bad)
	assert.ErrorContains(t, err, "parsing match_rate")
}
