package concurrent

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainMultimapAppendAndGet(t *testing.T) {
	m := NewDomainMultimap[string](0)

	m.Append("example.com", "a")
	m.Append("example.com", "b")
	m.Append("other.com", "c")

	assert.Equal(t, []string{"a", "b"}, m.Get("example.com"))
	assert.Equal(t, []string{"c"}, m.Get("other.com"))
	assert.Nil(t, m.Get("never-seen.com"))
}

func TestDomainMultimapKeys(t *testing.T) {
	m := NewDomainMultimap[int](4)
	m.Append("a.com", 1)
	m.Append("b.com", 2)

	keys := m.Keys()
	assert.ElementsMatch(t, []string{"a.com", "b.com"}, keys)
}

func TestDomainMultimapConcurrentAppend(t *testing.T) {
	m := NewDomainMultimap[int](8)

	var wg sync.WaitGroup
	const perDomain = 200
	domains := []string{"a.com", "b.com", "c.com", "d.com"}

	for _, d := range domains {
		for i := 0; i < perDomain; i++ {
			wg.Add(1)
			go func(domain string, i int) {
				defer wg.Done()
				m.Append(domain, i)
			}(d, i)
		}
	}
	wg.Wait()

	for _, d := range domains {
		assert.Len(t, m.Get(d), perDomain, "domain %s", d)
	}
}

func TestDomainMultimapManyKeysSpreadAcrossShards(t *testing.T) {
	m := NewDomainMultimap[string](0)
	for i := 0; i < 500; i++ {
		m.Append("domain-"+strconv.Itoa(i)+".com", "v")
	}
	assert.Len(t, m.Keys(), 500)
}

func TestDomainMultimapCustomShardCount(t *testing.T) {
	// shardCount=1 collapses every key onto a single lock stripe; results
	// must still be correct, just without the concurrency benefit.
	m := NewDomainMultimap[string](1)
	m.Append("a.com", "x")
	m.Append("b.com", "y")

	assert.Equal(t, []string{"x"}, m.Get("a.com"))
	assert.Equal(t, []string{"y"}, m.Get("b.com"))
	assert.ElementsMatch(t, []string{"a.com", "b.com"}, m.Keys())
}
