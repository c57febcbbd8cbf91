package model

// Tier is an immutable catalog entry for a price tranche of the event.
// Tiers are defined at deploy time and never mutated at runtime; only the
// capacity ledger's remaining count changes as seats are sold.
//
// Fields:
//  ID             – stable identifier used in requests and storage
//                   (e.g. "tranche1").
//  Label          – human-readable description shown on tickets and in
//                   availability listings.
//  PriceCents     – entry price in euro cents.
//  MaxCapacity    – total number of seats sellable in this tier.
//  OnlineBookable – whether the tier can be reserved through the public
//                   endpoint; door-only tiers are rejected server-side.
type Tier struct {
	ID             string `json:"id"`
	Label          string `json:"label"`
	PriceCents     uint32 `json:"price_cents"`
	MaxCapacity    int    `json:"max_capacity"`
	OnlineBookable bool   `json:"online_bookable"`
}

// Catalog is the fixed set of tiers sold for the event. It is built once
// at process start and passed into the allocator; lookups never mutate it.
type Catalog struct {
	tiers []Tier
	byID  map[string]Tier
}

// NewCatalog builds a catalog from the given tiers. Order is preserved for
// listing. Duplicate IDs keep the first occurrence.
func NewCatalog(tiers ...Tier) *Catalog {
	c := &Catalog{byID: make(map[string]Tier, len(tiers))}
	for _, t := range tiers {
		if _, ok := c.byID[t.ID]; ok {
			continue
		}
		c.byID[t.ID] = t
		c.tiers = append(c.tiers, t)
	}
	return c
}

// Get returns the tier with the given ID.
func (c *Catalog) Get(id string) (Tier, bool) {
	t, ok := c.byID[id]
	return t, ok
}

// All returns every tier in catalog order.
func (c *Catalog) All() []Tier {
	out := make([]Tier, len(c.tiers))
	copy(out, c.tiers)
	return out
}

// OnlineBookable returns the subset of tiers that may be reserved through
// the public endpoint, in catalog order.
func (c *Catalog) OnlineBookable() []Tier {
	var out []Tier
	for _, t := range c.tiers {
		if t.OnlineBookable {
			out = append(out, t)
		}
	}
	return out
}
