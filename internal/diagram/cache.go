package diagram

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// Renderer memoizes Render by source and title.
type Renderer struct {
	cache *cache.Cache
}

// NewRenderer creates a Renderer whose entries expire after ttl. A non-positive ttl keeps
// entries until the process exits.
func NewRenderer(ttl time.Duration) *Renderer {
	if ttl <= 0 {
		return &Renderer{cache: cache.New(cache.NoExpiration, 0)}
	}
	return &Renderer{cache: cache.New(ttl, 2*ttl)}
}

func (r *Renderer) Render(source, title string) Artifact {
	key := title + "\x00" + source
	if x, found := r.cache.Get(key); found {
		return x.(Artifact)
	}
	a := Render(source, title)
	r.cache.Set(key, a, cache.DefaultExpiration)
	return a
}

// Len reports the number of cached artifacts, expired ones included until the next purge.
func (r *Renderer) Len() int {
	return r.cache.ItemCount()
}
