package nasr

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const aptBase = "\ufeffEFF_DATE,SITE_NO,ARPT_ID,ICAO_ID,FUEL_TYPES,TWR_TYPE_CODE,FAR_139_TYPE_CODE\n" +
	"2026/03/19,01818.*A,SFO,KSFO,\"100LL,A\",ATCT,I E\n" +
	"2026/03/19,02236.*A,LVK,,100LL,ATCT,\n" +
	"2026/03/19,00001.*A,0Q3,, ,NON-ATCT,\n"

func TestReadAirportBase(t *testing.T) {
	md, err := ReadAirportBase(context.Background(), strings.NewReader(aptBase))
	require.NoError(t, err)

	sfo, ok := md["KSFO"]
	require.True(t, ok)
	assert.True(t, sfo.HasFuel)
	assert.True(t, sfo.HasTower)
	assert.Equal(t, "I E", sfo.FAR139)
	assert.Equal(t, sfo, md["SFO"])
	assert.Equal(t, sfo, md["01818.*A"])

	q3 := md["0Q3"]
	assert.False(t, q3.HasFuel)
	assert.False(t, q3.HasTower, "NON-ATCT is not a tower")
}

func TestReadAirportBase_MissingHeader(t *testing.T) {
	_, err := ReadAirportBase(context.Background(), strings.NewReader("A,B\n1,2\n3,4\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ARPT_ID")
}

func TestReadAirportBase_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ReadAirportBase(ctx, strings.NewReader(aptBase))
	require.Error(t, err)
}

func TestMetadata_LookupFallsBackToFAAID(t *testing.T) {
	md, err := ReadAirportBase(context.Background(), strings.NewReader(aptBase))
	require.NoError(t, err)

	lvk, ok := md.Lookup("KLVK")
	require.True(t, ok)
	assert.True(t, lvk.HasTower)

	_, ok = md.Lookup("PAXX")
	assert.False(t, ok)
	_, ok = md.Lookup("K12")
	assert.False(t, ok)
}

func TestCycle(t *testing.T) {
	anchor := time.Date(2024, 3, 21, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, anchor, Cycle(anchor))
	assert.Equal(t, anchor, Cycle(anchor.Add(27*24*time.Hour+23*time.Hour)))
	assert.Equal(t, anchor.AddDate(0, 0, 28), Cycle(time.Date(2024, 4, 18, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, anchor.AddDate(0, 0, -28), Cycle(time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2026-03-19", CycleID(Cycle(time.Date(2026, 3, 25, 0, 0, 0, 0, time.UTC))))
}

func TestCycles_NewestFirst(t *testing.T) {
	cs := Cycles(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))
	require.Len(t, cs, 3)
	assert.Equal(t, "2024-04-18", CycleID(cs[0]))
	assert.Equal(t, "2024-03-21", CycleID(cs[1]))
	assert.Equal(t, "2024-02-22", CycleID(cs[2]))
}

func TestCache_RoundTrip(t *testing.T) {
	c := Cache{Dir: t.TempDir()}

	_, ok, err := c.Load("2026-03-19")
	require.NoError(t, err)
	assert.False(t, ok)

	md := Metadata{"KSFO": {HasFuel: true, HasTower: true, FAR139: "I E"}}
	require.NoError(t, c.Save("2026-03-19", md))

	got, ok, err := c.Load("2026-03-19")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, md, got)

	_, err = os.Stat(c.Path("2026-03-19") + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestCache_CorruptFile(t *testing.T) {
	c := Cache{Dir: t.TempDir()}
	require.NoError(t, os.WriteFile(c.Path("x"), []byte("not zstd"), 0o644))

	_, _, err := c.Load("x")
	require.Error(t, err)
}
