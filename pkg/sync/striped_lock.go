package sync

import (
	"sort"
	base "sync"
)

const (
	hashEntriesPerLock = 200
)

// StripedLock is a partitioned locking mechanism that consistently maps a key
// space to a set of locks. This provides concurrent data access while also
// limiting the total memory footprint.
type StripedLock struct {
	locks    []base.RWMutex
	hashRing *ring
}

// NewStripedLock returns a new StripedLock with a static number of stripes.
func NewStripedLock(stripes uint) *StripedLock {
	if stripes == 0 {
		stripes = 1
	}

	return &StripedLock{
		locks:    make([]base.RWMutex, stripes),
		hashRing: newRing(int(stripes), hashEntriesPerLock),
	}
}

// LockSet is the set of stripes held for a group of keys.
type LockSet struct {
	l       *StripedLock
	stripes []int
	write   map[int]bool
}

// Unlock releases every stripe in the set.
func (s *LockSet) Unlock() {
	for i := len(s.stripes) - 1; i >= 0; i-- {
		s.unlockStripe(s.stripes[i])
	}
	s.stripes = nil
}

func (s *LockSet) unlockStripe(stripe int) {
	if s.write[stripe] {
		s.l.locks[stripe].Unlock()
	} else {
		s.l.locks[stripe].RUnlock()
	}
}

// LockKeys blocks until the stripes for all keys are held. Stripes containing
// a writable key are held exclusively, the rest shared. Stripes are always
// acquired in ascending order, so concurrent callers cannot deadlock.
func (l *StripedLock) LockKeys(writable, readonly [][]byte) *LockSet {
	s := l.newLockSet(writable, readonly)
	for _, stripe := range s.stripes {
		if s.write[stripe] {
			l.locks[stripe].Lock()
		} else {
			l.locks[stripe].RLock()
		}
	}
	return s
}

// TryLockKeys is the non-blocking variant of LockKeys. It returns false, with
// nothing held, if any stripe is unavailable.
func (l *StripedLock) TryLockKeys(writable, readonly [][]byte) (*LockSet, bool) {
	s := l.newLockSet(writable, readonly)
	for i, stripe := range s.stripes {
		var ok bool
		if s.write[stripe] {
			ok = l.locks[stripe].TryLock()
		} else {
			ok = l.locks[stripe].TryRLock()
		}

		if !ok {
			for j := i - 1; j >= 0; j-- {
				s.unlockStripe(s.stripes[j])
			}
			return nil, false
		}
	}
	return s, true
}

func (l *StripedLock) newLockSet(writable, readonly [][]byte) *LockSet {
	write := make(map[int]bool)
	for _, key := range writable {
		write[l.hashRing.shard(key)] = true
	}
	for _, key := range readonly {
		stripe := l.hashRing.shard(key)
		if _, ok := write[stripe]; !ok {
			write[stripe] = false
		}
	}

	stripes := make([]int, 0, len(write))
	for stripe := range write {
		stripes = append(stripes, stripe)
	}
	sort.Ints(stripes)

	return &LockSet{
		l:       l,
		stripes: stripes,
		write:   write,
	}
}
