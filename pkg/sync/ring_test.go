package sync

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRing_Consistency(t *testing.T) {
	r := newRing(64, 200)

	for i := 0; i < 256; i++ {
		key := []byte(fmt.Sprintf("key%d", i))
		val := r.shard(key)

		assert.True(t, val >= 0 && val < 64)
		for j := 0; j < 256; j++ {
			assert.Equal(t, val, r.shard(key))
		}
	}
}

func TestRing_Distribution(t *testing.T) {
	stripes := 5
	iterations := 500000
	marginOfError := 0.1
	expectedFrequency := iterations / stripes

	r := newRing(stripes, 200)

	hits := make(map[int]int)
	for i := 0; i < iterations; i++ {
		hits[r.shard([]byte(fmt.Sprintf("key%d", i)))]++
	}

	assert.Len(t, hits, stripes)
	for _, hitCount := range hits {
		assert.True(t, math.Abs(float64(hitCount-expectedFrequency)) <= marginOfError*float64(expectedFrequency))
	}
}
