package sync

import (
	"encoding/binary"
	"fmt"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
	"github.com/spaolacci/murmur3"
)

// ring is a consistent hash ring over a fixed number of stripe indexes
type ring struct {
	hashRing *treemap.Map

	// minStripe caches the value of the min entry in hashRing, since
	// treemap.Map.Min() is O(log n).
	minStripe int
}

// newRing returns a consistent hash ring where each of the stripes has
// replicationFactor entries
func newRing(stripes int, replicationFactor uint) *ring {
	hashRing := treemap.NewWith(utils.Int64Comparator)
	for stripe := 0; stripe < stripes; stripe++ {
		keyHash, _ := murmur3.Sum128([]byte(fmt.Sprintf("lock%d", stripe)))
		keyHashBytes := make([]byte, 8)
		binary.LittleEndian.PutUint64(keyHashBytes, keyHash)

		indexBytes := make([]byte, 4)
		for i := 0; i < int(replicationFactor); i++ {
			binary.LittleEndian.PutUint32(indexBytes, uint32(i))

			hasher := murmur3.New128()
			hasher.Write(keyHashBytes)
			hasher.Write(indexBytes)
			hash, _ := hasher.Sum128()
			hashRing.Put(int64(hash), stripe)
		}
	}

	r := &ring{hashRing: hashRing}
	if _, minStripe := hashRing.Min(); minStripe != nil {
		r.minStripe = minStripe.(int)
	}
	return r
}

// shard consistently hashes the key to a stripe index
func (r *ring) shard(key []byte) int {
	hasher := murmur3.New128()
	hasher.Write(key)
	raw, _ := hasher.Sum128()

	_, stripe := r.hashRing.Ceiling(int64(raw))
	if stripe != nil {
		return stripe.(int)
	}
	return r.minStripe
}
