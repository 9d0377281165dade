package bank

import (
	"crypto/sha256"

	"github.com/emirpasic/gods/maps/linkedhashmap"

	"github.com/code-payments/code-vault/pkg/solana"
)

// blockhashQueue holds the recent blockhashes transactions may reference,
// oldest first. A new blockhash is registered for every slot.
type blockhashQueue struct {
	hashes *linkedhashmap.Map // solana.Blockhash -> slot
	latest solana.Blockhash
	slot   uint64
}

func newBlockhashQueue(genesis solana.Blockhash) *blockhashQueue {
	q := &blockhashQueue{
		hashes: linkedhashmap.New(),
	}
	q.register(genesis)
	return q
}

func (q *blockhashQueue) register(hash solana.Blockhash) {
	q.latest = hash
	q.hashes.Put(hash, q.slot)
}

// advance moves to the next slot, deriving its blockhash from the previous
// one and the entry that closed the slot. Only the maxAge most recent
// blockhashes, the new one included, stay valid. The rest are expired and
// returned.
func (q *blockhashQueue) advance(entry []byte, maxAge uint64) []solana.Blockhash {
	h := sha256.New()
	h.Write(q.latest[:])
	h.Write(entry)

	var next solana.Blockhash
	copy(next[:], h.Sum(nil))

	q.slot++
	q.register(next)

	var expired []solana.Blockhash
	for uint64(q.hashes.Size()) > maxAge && q.hashes.Size() > 1 {
		it := q.hashes.Iterator()
		if !it.First() {
			break
		}

		oldest := it.Key().(solana.Blockhash)
		q.hashes.Remove(oldest)
		expired = append(expired, oldest)
	}
	return expired
}

func (q *blockhashQueue) isValid(hash solana.Blockhash) bool {
	_, ok := q.hashes.Get(hash)
	return ok
}
