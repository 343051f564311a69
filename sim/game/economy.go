package game

import (
	"fmt"
	"sort"

	"github.com/inference-sim/queue-sim/sim"
	"github.com/inference-sim/queue-sim/sim/shop"
)

// Purchase buys a shop item with the current balance and applies its effect
// immediately. Returns false if the item is unknown, unaffordable, already
// owned, or the game is over.
func (q *QueueSimulator) Purchase(id shop.ItemID) bool {
	if q.gameOver {
		return false
	}
	r, ok := q.catalog.Purchase(id, q.Balance())
	if !ok {
		return false
	}
	q.spent += r.Price
	switch r.Kind {
	case shop.KindServer:
		s := q.attachServer()
		q.serverItems[s.ID()] = id
		q.log.Infof("[tick %07d] purchased %s as %s for %d", q.clock.Now(), id, s.Name(), r.Price)
	case shop.KindUpgrade:
		q.applyUpgrade(id)
		q.log.Infof("[tick %07d] purchased %s level %d for %d", q.clock.Now(), id, r.Level, r.Price)
	}
	return true
}

// applyUpgrade recomputes the parameter driven by an upgrade from its current
// level and the configured base value.
func (q *QueueSimulator) applyUpgrade(id shop.ItemID) {
	level := q.catalog.Level(id)
	switch id {
	case shop.UpgradeSpeed:
		q.conn.SetTransportSpeed(shop.SpeedAt(q.cfg.TransportSpeed, level))
	case shop.UpgradeCapacity:
		q.conn.SetMaxCapacity(shop.CapacityAt(q.cfg.MaxCapacity, level))
	case shop.UpgradeProcessing:
		q.processingMs = shop.ProcessingMsAt(q.cfg.ProcessingTimeMs, level)
		for _, s := range q.conn.Servers() {
			s.SetProcessingTimeMs(q.processingMs)
		}
	}
}

// PurchasedServers returns the ids of servers bought in the shop, ascending.
func (q *QueueSimulator) PurchasedServers() []sim.ServerID {
	var out []sim.ServerID
	for _, s := range q.conn.Servers() {
		if _, ok := q.serverItems[s.ID()]; ok {
			out = append(out, s.ID())
		}
	}
	return out
}

// removePurchasedServer detaches a bought server, frees its shop slot and
// accounts for the processes lost with it.
func (q *QueueSimulator) removePurchasedServer(id sim.ServerID) bool {
	item, ok := q.serverItems[id]
	if !ok {
		return false
	}
	dropped := q.conn.RemoveServer(id)
	q.metrics.Dropped += len(dropped)
	q.catalog.MarkUnpurchased(item)
	delete(q.serverItems, id)
	if sel, ok := q.selection.Server(); ok && sel == id {
		q.ClearSelection()
	}
	return true
}

// BuildCatalog returns the standard catalog with the scenario's price
// overrides applied. Keys are processed in sorted order so the reported error
// is stable.
func BuildCatalog(overrides map[string]sim.ShopItemBundle) (*shop.Catalog, error) {
	c := shop.NewCatalog()
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		o := overrides[k]
		if err := c.Override(shop.ItemID(k), o.BasePrice, o.Growth); err != nil {
			return nil, fmt.Errorf("applying shop overrides: %w", err)
		}
	}
	return c, nil
}
