package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordTiming(t *testing.T) {
	c := NewCollector()
	c.RecordTiming(OpRetrieve, 10*time.Millisecond)
	c.RecordTiming(OpRetrieve, 30*time.Millisecond)

	snap := c.Snapshot()
	require.NotNil(t, snap.Retrieve)
	assert.Equal(t, int64(2), snap.Retrieve.Count)
	assert.Equal(t, int64(40), snap.Retrieve.TotalTimeMs)
	assert.Equal(t, 20.0, snap.Retrieve.AvgTimeMs)
	assert.Equal(t, int64(10), snap.Retrieve.MinTimeMs)
	assert.Equal(t, int64(30), snap.Retrieve.MaxTimeMs)
	assert.Nil(t, snap.Retrieve.TotalInputTokens)

	assert.Nil(t, snap.Rank, "operations without data are omitted")
	assert.Nil(t, snap.IndexRebuild)
}

func TestRecordLLMUsage(t *testing.T) {
	c := NewCollector()
	c.RecordLLMUsage(OpLLMGenerate, time.Second, 100, 20)
	c.RecordLLMUsage(OpLLMGenerate, time.Second, 300, 60)

	snap := c.Snapshot().LLMGenerate
	require.NotNil(t, snap)
	require.NotNil(t, snap.TotalInputTokens)
	assert.Equal(t, int64(400), *snap.TotalInputTokens)
	assert.Equal(t, int64(80), *snap.TotalOutputTokens)
	assert.Equal(t, 200.0, *snap.AvgInputTokens)
	assert.Equal(t, int64(100), *snap.MinInputTokens)
	assert.Equal(t, int64(60), *snap.MaxOutputTokens)
}

func TestCounters(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Inc(CountRankFallback)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), c.Count(CountRankFallback))
	assert.Zero(t, c.Count(CountGenerationFailed))

	snap := c.Snapshot()
	assert.Equal(t, int64(50), snap.Counters[CountRankFallback])
	snap.Counters[CountRankFallback] = 0
	assert.Equal(t, int64(50), c.Count(CountRankFallback), "snapshot counters are a copy")
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordTiming(OpGenerate, time.Second)
		c.RecordLLMUsage(OpLLMGenerate, time.Second, 1, 1)
		c.Inc(CountGenerationFailed)
	})
	assert.Zero(t, c.Count(CountGenerationFailed))
	assert.Equal(t, Snapshot{}, c.Snapshot())
}
