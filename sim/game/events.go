package game

import (
	"fmt"

	"github.com/inference-sim/queue-sim/sim"
)

// EventKind names a game-mode random event.
type EventKind string

const (
	EventIncreasedLoad EventKind = "increased_load"
	EventRegression    EventKind = "regression"
	EventServerFailure EventKind = "server_failure"
	EventTimeout       EventKind = "timeout"
	EventGameOver      EventKind = "game_over"
)

// Notification is a transient message for the player. It expires
// NotificationTTLSeconds after CreatedAt.
type Notification struct {
	Kind      EventKind
	Message   string
	CreatedAt int64
}

// Health returns the remaining health points.
func (q *QueueSimulator) Health() int { return q.health }

// MaxHealth returns the starting health.
func (q *QueueSimulator) MaxHealth() int { return q.cfg.InitialHealth }

// GameOver reports whether health reached zero.
func (q *QueueSimulator) GameOver() bool { return q.gameOver }

// Notifications returns the visible notifications, oldest first.
func (q *QueueSimulator) Notifications() []Notification {
	out := make([]Notification, len(q.notifications))
	copy(out, q.notifications)
	return out
}

// SurgeActive reports whether an increased-load event is in force.
func (q *QueueSimulator) SurgeActive() bool { return q.clock.Now() < q.surgeUntil }

func (q *QueueSimulator) notify(kind EventKind, msg string) {
	q.notifications = append(q.notifications, Notification{Kind: kind, Message: msg, CreatedAt: q.clock.Now()})
	if over := len(q.notifications) - q.cfg.MaxNotifications; over > 0 {
		q.notifications = q.notifications[over:]
	}
}

func (q *QueueSimulator) expireNotifications() {
	ttl := q.cfg.NotificationTTLSeconds
	keep := q.notifications[:0]
	for _, n := range q.notifications {
		if q.clock.ElapsedSeconds(n.CreatedAt) < ttl {
			keep = append(keep, n)
		}
	}
	q.notifications = keep
}

// damage removes one health point, ending the game at zero.
func (q *QueueSimulator) damage(reason string) {
	if q.gameOver {
		return
	}
	q.health = max(0, q.health-1)
	q.notify(EventTimeout, fmt.Sprintf("%s (-1 HP, %d left)", reason, q.health))
	if q.health == 0 {
		q.endGame()
	}
}

// endGame stops the generator and every server. Tick is a no-op afterwards.
func (q *QueueSimulator) endGame() {
	q.gameOver = true
	q.generator.Stop()
	for _, s := range q.conn.Servers() {
		s.Stop()
	}
	q.notify(EventGameOver, fmt.Sprintf("Game over! Final score: %d", q.score))
	q.log.Infof("[tick %07d] game over, final score %d", q.clock.Now(), q.score)
}

// eventsTick fires a random event every EventIntervalSeconds.
func (q *QueueSimulator) eventsTick() {
	q.eventTicks++
	if q.eventTicks < q.clock.TicksFor(q.cfg.EventIntervalSeconds*1000) {
		return
	}
	q.eventTicks = 0
	q.TriggerEvent(q.chooseEvent())
}

// chooseEvent draws an event kind according to the configured weights.
func (q *QueueSimulator) chooseEvent() EventKind {
	w := q.cfg.Weights
	r := q.rng.ForSubsystem(sim.SubsystemEvents).Float64() * (w.IncreasedLoad + w.Regression + w.ServerFailure)
	switch {
	case r < w.IncreasedLoad:
		return EventIncreasedLoad
	case r < w.IncreasedLoad+w.Regression:
		return EventRegression
	default:
		return EventServerFailure
	}
}

// TriggerEvent applies a random event of the given kind. Regression and
// server failure fall back to increased load when nothing is eligible.
// Returns the kind actually applied, or "" after game over.
func (q *QueueSimulator) TriggerEvent(kind EventKind) EventKind {
	if q.gameOver {
		return ""
	}
	targets := q.rng.ForSubsystem(sim.SubsystemEventTargets)
	switch kind {
	case EventRegression:
		if eligible := q.catalog.EligibleRegressions(); len(eligible) > 0 {
			id := eligible[targets.Intn(len(eligible))]
			q.catalog.Regress(id)
			q.applyUpgrade(id)
			q.notify(EventRegression, fmt.Sprintf("Regression! %s dropped to level %d", id, q.catalog.Level(id)))
			q.log.Infof("[tick %07d] event: %s regressed", q.clock.Now(), id)
			return EventRegression
		}
	case EventServerFailure:
		if bought := q.PurchasedServers(); len(bought) > 0 {
			id := bought[targets.Intn(len(bought))]
			q.removePurchasedServer(id)
			q.notify(EventServerFailure, fmt.Sprintf("Server failure! CPU_%d went down", id))
			q.log.Infof("[tick %07d] event: CPU_%d failed", q.clock.Now(), id)
			return EventServerFailure
		}
	}
	q.startSurge()
	return EventIncreasedLoad
}

// startSurge shortens the generation interval by a random fraction for
// SurgeDurationSeconds.
func (q *QueueSimulator) startSurge() {
	g := q.cfg.GameConfig
	q.surgeFraction = g.SurgeMinFraction + q.rng.ForSubsystem(sim.SubsystemEventTargets).Float64()*(g.SurgeMaxFraction-g.SurgeMinFraction)
	q.surgeUntil = q.clock.Now() + q.clock.TicksFor(g.SurgeDurationSeconds*1000)
	q.notify(EventIncreasedLoad, fmt.Sprintf("Load surge! Generation %.0f%% faster", q.surgeFraction*100))
	q.log.Infof("[tick %07d] event: load surge %.2f until tick %d", q.clock.Now(), q.surgeFraction, q.surgeUntil)
}
