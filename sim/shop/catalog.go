package shop

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Kind distinguishes one-time server purchases from repeatable upgrades.
type Kind string

const (
	KindServer  Kind = "server"
	KindUpgrade Kind = "upgrade"
)

// ItemID names a catalog entry.
type ItemID string

const (
	CPU4              ItemID = "cpu_4"
	CPU5              ItemID = "cpu_5"
	CPU6              ItemID = "cpu_6"
	UpgradeSpeed      ItemID = "upgrade_speed"
	UpgradeCapacity   ItemID = "upgrade_capacity"
	UpgradeProcessing ItemID = "upgrade_processing"
)

// Item is one entry of the catalog.
//
// Server items are bought once; Purchased flips back to false if the server is
// lost. Upgrade items start at Level 1 and gain a level per purchase; the price
// of the next purchase is Price(BasePrice, Growth, Level).
type Item struct {
	ID        ItemID
	Name      string
	Kind      Kind
	BasePrice int
	Growth    float64 // upgrades only
	Level     int     // upgrades only, >= 1
	Purchased bool    // servers only
}

// NextPrice returns what the next purchase of this item costs.
func (it Item) NextPrice() int {
	if it.Kind == KindServer {
		return it.BasePrice
	}
	return Price(it.BasePrice, it.Growth, it.Level)
}

// Available reports whether the item can still be bought at all.
func (it Item) Available() bool {
	return it.Kind == KindUpgrade || !it.Purchased
}

// Receipt describes a completed purchase.
type Receipt struct {
	Item  ItemID
	Kind  Kind
	Price int
	Level int // new level for upgrades, 0 for servers
}

// Catalog holds the shop state. Items keep their insertion order, which is
// the display order and the order EligibleRegressions reports.
//
// Thread-safety: NOT thread-safe. Owned by the game controller.
type Catalog struct {
	items []*Item
	index map[ItemID]*Item
}

// NewCatalog returns the standard catalog: three server slots priced 10/20/30
// and the speed, capacity and processing upgrades.
func NewCatalog() *Catalog {
	c := &Catalog{index: make(map[ItemID]*Item)}
	c.add(&Item{ID: CPU4, Name: "CPU 4", Kind: KindServer, BasePrice: 10})
	c.add(&Item{ID: CPU5, Name: "CPU 5", Kind: KindServer, BasePrice: 20})
	c.add(&Item{ID: CPU6, Name: "CPU 6", Kind: KindServer, BasePrice: 30})
	c.add(&Item{ID: UpgradeSpeed, Name: "Transport speed", Kind: KindUpgrade, BasePrice: 15, Growth: 1.4, Level: 1})
	c.add(&Item{ID: UpgradeCapacity, Name: "Capacity", Kind: KindUpgrade, BasePrice: 25, Growth: 1.5, Level: 1})
	c.add(&Item{ID: UpgradeProcessing, Name: "Processing time", Kind: KindUpgrade, BasePrice: 20, Growth: 1.6, Level: 1})
	return c
}

func (c *Catalog) add(it *Item) {
	c.items = append(c.items, it)
	c.index[it.ID] = it
}

// Items returns a snapshot of every item in display order.
func (c *Catalog) Items() []Item {
	out := make([]Item, len(c.items))
	for i, it := range c.items {
		out[i] = *it
	}
	return out
}

// Item returns a snapshot of one item.
func (c *Catalog) Item(id ItemID) (Item, bool) {
	it, ok := c.index[id]
	if !ok {
		return Item{}, false
	}
	return *it, true
}

// Level returns the current level of an upgrade, or 0 for unknown ids.
func (c *Catalog) Level(id ItemID) int {
	if it, ok := c.index[id]; ok {
		return it.Level
	}
	return 0
}

// Override replaces the price curve of an item. Nil arguments keep the
// current value. Returns an error for unknown ids or out-of-range values.
func (c *Catalog) Override(id ItemID, basePrice *int, growth *float64) error {
	it, ok := c.index[id]
	if !ok {
		return fmt.Errorf("unknown shop item %q", id)
	}
	if basePrice != nil {
		if *basePrice <= 0 {
			return fmt.Errorf("shop item %q: base price must be > 0, got %d", id, *basePrice)
		}
		it.BasePrice = *basePrice
	}
	if growth != nil {
		if it.Kind != KindUpgrade {
			return fmt.Errorf("shop item %q: growth only applies to upgrades", id)
		}
		if *growth < 1 {
			return fmt.Errorf("shop item %q: growth must be >= 1, got %f", id, *growth)
		}
		it.Growth = *growth
	}
	return nil
}

// Purchase buys one unit of id if balance covers it. Returns false, leaving
// the catalog unchanged, for unknown ids, already-owned servers and
// insufficient balance.
func (c *Catalog) Purchase(id ItemID, balance int) (Receipt, bool) {
	it, ok := c.index[id]
	if !ok || !it.Available() {
		return Receipt{}, false
	}
	price := it.NextPrice()
	if price > balance {
		logrus.Debugf("shop: cannot afford %s (price %d, balance %d)", id, price, balance)
		return Receipt{}, false
	}
	r := Receipt{Item: id, Kind: it.Kind, Price: price}
	if it.Kind == KindServer {
		it.Purchased = true
	} else {
		it.Level++
		r.Level = it.Level
	}
	logrus.Infof("shop: bought %s for %d", id, price)
	return r, true
}

// Regress lowers an upgrade by one level. Level-1 upgrades and server items
// are not eligible; returns false for them.
func (c *Catalog) Regress(id ItemID) bool {
	it, ok := c.index[id]
	if !ok || it.Kind != KindUpgrade || it.Level <= 1 {
		return false
	}
	it.Level--
	logrus.Infof("shop: %s regressed to level %d", id, it.Level)
	return true
}

// MarkUnpurchased makes a server slot buyable again.
func (c *Catalog) MarkUnpurchased(id ItemID) bool {
	it, ok := c.index[id]
	if !ok || it.Kind != KindServer || !it.Purchased {
		return false
	}
	it.Purchased = false
	return true
}

// EligibleRegressions lists upgrades above level 1, in display order.
func (c *Catalog) EligibleRegressions() []ItemID {
	var out []ItemID
	for _, it := range c.items {
		if it.Kind == KindUpgrade && it.Level > 1 {
			out = append(out, it.ID)
		}
	}
	return out
}

// PriceTable returns the next n prices of an upgrade starting at level 1.
// Server items yield a single entry.
func (c *Catalog) PriceTable(id ItemID, n int) []int {
	it, ok := c.index[id]
	if !ok || n <= 0 {
		return nil
	}
	if it.Kind == KindServer {
		return []int{it.BasePrice}
	}
	out := make([]int, n)
	for i := range out {
		out[i] = Price(it.BasePrice, it.Growth, i+1)
	}
	return out
}
