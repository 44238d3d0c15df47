// Package affinity persists the precomputed co-purchase table with
// generation-swap snapshot semantics: readers see the previous
// generation until a rebuild has fully written the next one.
package affinity

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nordkart/shopsearch/internal/db"
	"github.com/nordkart/shopsearch/internal/domain"
	domaff "github.com/nordkart/shopsearch/internal/domain/affinity"
)

// pairSep joins the two product ids of a canonical pair into one hash
// field. Product ids are alphanumeric catalog numbers; the separator is
// never part of an id.
const pairSep = "|"

// store is the consumer interface for the affinity table (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	DelMulti(ctx context.Context, keys []string) error
}

// Repo implements affinity table persistence.
type Repo struct {
	store store
	now   func() time.Time
}

// New creates an affinity repository.
func New(s store) *Repo {
	return &Repo{store: s, now: time.Now}
}

// WithClock overrides the generation-id time source (tests).
func (r *Repo) WithClock(now func() time.Time) *Repo {
	r.now = now
	return r
}

// Replace atomically installs counts as the new affinity generation.
// The full table is written under a fresh generation key first, then the
// current-generation pointer is flipped, then stale generations are
// dropped. A failure before the pointer flip leaves the previous
// generation untouched. Returns the pair count of the replaced generation.
func (r *Repo) Replace(ctx context.Context, counts map[domaff.Pair]int) (int, error) {
	prevGen, err := r.currentGeneration(ctx)
	if err != nil {
		return 0, err
	}

	previous := 0
	if prevGen != "" {
		rows, err := r.store.HGetAll(ctx, generationKey(prevGen))
		if err != nil {
			return 0, fmt.Errorf("read previous generation: %w", err)
		}
		previous = len(rows)
	}

	gen := strconv.FormatInt(r.now().UnixNano(), 10)

	if len(counts) > 0 {
		fields := make(map[string]string, len(counts))
		for pair, count := range counts {
			fields[pair.A+pairSep+pair.B] = strconv.Itoa(count)
		}
		if err := r.store.HSet(ctx, generationKey(gen), fields); err != nil {
			return 0, fmt.Errorf("write generation %s: %w", gen, err)
		}
	}

	if err := r.store.Set(ctx, pointerKey(), []byte(gen)); err != nil {
		return 0, fmt.Errorf("flip generation pointer: %w", err)
	}

	// Old generations are unreachable once the pointer flipped; cleanup
	// failures are not fatal to the rebuild.
	stale, err := r.store.Scan(ctx, generationKey("*"))
	if err == nil {
		current := generationKey(gen)
		drop := stale[:0]
		for _, k := range stale {
			if k != current {
				drop = append(drop, k)
			}
		}
		_ = r.store.DelMulti(ctx, drop)
	}

	return previous, nil
}

// Partners returns the co-purchase partners of productID from the
// current generation, count descending, ties by ascending product id.
func (r *Repo) Partners(ctx context.Context, productID string) ([]domaff.Partner, error) {
	rows, err := r.rows(ctx)
	if err != nil {
		return nil, err
	}

	var partners []domaff.Partner
	for field, raw := range rows {
		a, b, ok := strings.Cut(field, pairSep)
		if !ok {
			continue
		}
		pair := domaff.Pair{A: a, B: b}
		if !pair.Contains(productID) {
			continue
		}
		count, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		partners = append(partners, domaff.Partner{ProductID: pair.Other(productID), Count: count})
	}

	domaff.SortPartners(partners)
	return partners, nil
}

// Count returns the number of pairs in the current generation.
func (r *Repo) Count(ctx context.Context) (int, error) {
	rows, err := r.rows(ctx)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (r *Repo) rows(ctx context.Context) (map[string]string, error) {
	gen, err := r.currentGeneration(ctx)
	if err != nil {
		return nil, err
	}
	if gen == "" {
		return nil, nil
	}

	rows, err := r.store.HGetAll(ctx, generationKey(gen))
	if err != nil {
		return nil, fmt.Errorf("read generation %s: %w", gen, err)
	}
	return rows, nil
}

func (r *Repo) currentGeneration(ctx context.Context) (string, error) {
	raw, err := r.store.Get(ctx, pointerKey())
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("read generation pointer: %w", err)
	}
	return string(raw), nil
}

func pointerKey() string {
	return domain.KeyPrefix + "affinity:current"
}

func generationKey(gen string) string {
	return domain.KeyPrefix + "affinity:gen:" + gen
}
