package arb

import (
	"bytes"
	"math/big"
	"sort"

	"github.com/aman-zulfiqar/arbbot/internal/chain"
)

// pricedPool is one sibling pool's mid_price(minor -> desired) quote, ready
// for the ascending/descending sorts spec.md §4.6 step 4 describes.
type pricedPool struct {
	addr  chain.Addr
	price *big.Rat
}

// sortAscending orders quotes cheapest-first (best pool to buy minor at),
// tie-breaking by pool address per spec.md §4.6's ordering rule so TxKey
// stays stable across repeated runs over the same quote set.
func sortAscending(quotes []pricedPool) {
	sort.Slice(quotes, func(i, j int) bool {
		if c := quotes[i].price.Cmp(quotes[j].price); c != 0 {
			return c < 0
		}
		return bytes.Compare(quotes[i].addr[:], quotes[j].addr[:]) < 0
	})
}

// sortDescending orders quotes priciest-first (best pool to sell minor at),
// using the same lexicographic tie-break as sortAscending.
func sortDescending(quotes []pricedPool) {
	sort.Slice(quotes, func(i, j int) bool {
		if c := quotes[i].price.Cmp(quotes[j].price); c != 0 {
			return c > 0
		}
		return bytes.Compare(quotes[i].addr[:], quotes[j].addr[:]) < 0
	})
}

// selectLegs picks the buy (cheapest) and sell (priciest) pool from two
// already-sorted quote slices, never returning the same pool for both legs.
// If the naive top-of-each-side choice collides on one pool, it falls back
// to the second-best on either side per spec.md §4.6 step 5; if fewer than
// two distinct pools remain, ok is false and the opportunity is skipped.
func selectLegs(asc, desc []pricedPool) (buy, sell pricedPool, ok bool) {
	if len(asc) == 0 || len(desc) == 0 {
		return pricedPool{}, pricedPool{}, false
	}

	buy, sell = asc[0], desc[0]
	if !buy.addr.Equals(sell.addr) {
		return buy, sell, true
	}

	if len(desc) > 1 && !asc[0].addr.Equals(desc[1].addr) {
		return asc[0], desc[1], true
	}
	if len(asc) > 1 && !asc[1].addr.Equals(desc[0].addr) {
		return asc[1], desc[0], true
	}
	return pricedPool{}, pricedPool{}, false
}
