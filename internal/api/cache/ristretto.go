package cache

import (
	"context"

	"github.com/devoptimist/builder/internal/api/domain"

	"github.com/dgraph-io/ristretto/v2"
)

// DefaultMaxEntries bounds the in-process session cache. Each entry costs 1,
// so this is a straight entry count.
const DefaultMaxEntries = 100_000

// Ristretto is an in-process SessionCache. Ristretto gives per-key atomic
// set/del, which is all the coherence contract requires.
type Ristretto struct {
	c *ristretto.Cache[string, domain.Session]
}

var _ SessionCache = (*Ristretto)(nil)

func NewRistretto(maxEntries int64) (*Ristretto, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	c, err := ristretto.NewCache(&ristretto.Config[string, domain.Session]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Ristretto{c: c}, nil
}

func (r *Ristretto) Lookup(_ context.Context, token string) (domain.Session, bool, error) {
	s, ok := r.c.Get(token)
	if !ok {
		return domain.Session{}, false, nil
	}
	return s, true, nil
}

func (r *Ristretto) Put(_ context.Context, token string, session domain.Session) error {
	r.c.Set(token, session, 1)
	// Ristretto applies writes through a buffer; flush so the entry (or its
	// rejection) is settled before the caller proceeds. Session invalidation
	// correctness depends on deletes observing prior puts.
	r.c.Wait()
	return nil
}

func (r *Ristretto) Delete(_ context.Context, token string) error {
	r.c.Del(token)
	r.c.Wait()
	return nil
}

func (r *Ristretto) Close() error {
	r.c.Close()
	return nil
}
