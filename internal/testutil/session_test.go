package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chw3k5/mypysql/internal/engine"
)

var _ engine.SessionIDGenerator = (*FixedSessionGenerator)(nil)

func TestFixedSessionGenerator_ReturnsSameID(t *testing.T) {
	gen := NewFixedSessionGenerator("test-session-123")

	assert.Equal(t, "test-session-123", gen.Generate())
	assert.Equal(t, "test-session-123", gen.Generate())
	assert.Equal(t, "test-session-123", gen.Generate())
}

func TestFixedSessionGenerator_EmptyIDDefault(t *testing.T) {
	gen := NewFixedSessionGenerator("")
	assert.Equal(t, DefaultSessionID, gen.Generate())
}

func TestFixedSessionGenerator_ThreadSafe(t *testing.T) {
	gen := NewFixedSessionGenerator("thread-safe")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.Equal(t, "thread-safe", gen.Generate())
			}
		}()
	}
	wg.Wait()
}

func TestSampleDataset(t *testing.T) {
	ds := SampleDataset()
	assert.Len(t, ds.Stars, 4)
	assert.Len(t, ds.Spectra, 4)

	spectra := map[string]int{}
	for _, sp := range ds.Spectra {
		spectra[sp.StarHandle]++
	}
	assert.Equal(t, 3, spectra["hd1"], "hd1 fans out over three spectra")

	ds.Stars[0].Handle = "changed"
	assert.Equal(t, "hd1", SampleDataset().Stars[0].Handle, "each call returns a fresh dataset")
}
