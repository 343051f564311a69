package sim

import (
	"errors"
	"fmt"

	"github.com/inference-sim/queue-sim/sim/trace"
)

// TransportConfig groups connection-system parameters.
type TransportConfig struct {
	MaxCapacity    int           // admission limit across the whole system (must be > 0)
	TransportSpeed float64       // distance per tick (must be > 0)
	TransitLimits  TransitLimits // concurrent in-transit caps
}

// ServerConfig groups parameters for the servers present at start.
type ServerConfig struct {
	InitialServers   int // servers attached before the first tick (≥ 1)
	ProcessingTimeMs int // default processing duration per process (must be > 0)
}

// GenerationConfig groups process generation and queue-wait parameters.
type GenerationConfig struct {
	IntervalSeconds     float64 // seconds between automatic generations (must be > 0)
	AutoGenerate        bool    // whether the generator fires on its own
	MaxQueueTimeSeconds float64 // wait-queue timeout (must be > 0)
}

// EventWeights are the relative probabilities of the game-mode random events.
type EventWeights struct {
	IncreasedLoad float64
	Regression    float64
	ServerFailure float64
}

// GameConfig groups game-mode parameters. Ignored unless Enabled.
type GameConfig struct {
	Enabled                bool
	InitialHealth          int     // starting and maximum health points
	EventIntervalSeconds   float64 // seconds between random events
	SurgeMinFraction       float64 // lower bound of the interval shrink (0.10 = 10%)
	SurgeMaxFraction       float64 // upper bound of the interval shrink
	SurgeDurationSeconds   float64 // how long an increased-load event lasts
	NotificationTTLSeconds float64 // how long a notification stays visible
	MaxNotifications       int     // rolling notification list length
	Weights                EventWeights
}

// LayoutConfig places the generator and the server slots. Presentation supplies
// these as static constants; the engine only uses them for transport distance.
type LayoutConfig struct {
	Generator   Point
	ServerSlots []Point  // slot i hosts server ID i+1
	SlotColors  []string // color tag per slot
}

// PolicyConfig groups policy selection.
type PolicyConfig struct {
	LoadBalancer string // "round-robin" (default) or "least-loaded"
	TraceLevel   string // "none" (default) or "decisions"
}

// SimConfig is the complete configuration of one simulation.
type SimConfig struct {
	TicksPerSecond int
	Seed           int64
	TransportConfig
	ServerConfig
	GenerationConfig
	GameConfig
	LayoutConfig
	PolicyConfig
}

// NewTransportConfig creates a TransportConfig with the given values.
func NewTransportConfig(maxCapacity int, transportSpeed float64, limits TransitLimits) TransportConfig {
	return TransportConfig{MaxCapacity: maxCapacity, TransportSpeed: transportSpeed, TransitLimits: limits}
}

// NewServerConfig creates a ServerConfig with the given values.
func NewServerConfig(initialServers, processingTimeMs int) ServerConfig {
	return ServerConfig{InitialServers: initialServers, ProcessingTimeMs: processingTimeMs}
}

// NewGenerationConfig creates a GenerationConfig with the given values.
func NewGenerationConfig(intervalSeconds float64, autoGenerate bool, maxQueueTimeSeconds float64) GenerationConfig {
	return GenerationConfig{IntervalSeconds: intervalSeconds, AutoGenerate: autoGenerate, MaxQueueTimeSeconds: maxQueueTimeSeconds}
}

// NewPolicyConfig creates a PolicyConfig with the given values.
func NewPolicyConfig(loadBalancer, traceLevel string) PolicyConfig {
	return PolicyConfig{LoadBalancer: loadBalancer, TraceLevel: traceLevel}
}

// DefaultGameConfig returns the tuned game-mode settings (disabled).
func DefaultGameConfig() GameConfig {
	return GameConfig{
		InitialHealth:          15,
		EventIntervalSeconds:   10,
		SurgeMinFraction:       0.10,
		SurgeMaxFraction:       0.30,
		SurgeDurationSeconds:   10,
		NotificationTTLSeconds: 4,
		MaxNotifications:       5,
		Weights:                EventWeights{IncreasedLoad: 0.5, Regression: 0.25, ServerFailure: 0.25},
	}
}

// Default screen grid: 1280x720 split into 12 columns and 8 rows.
const (
	defaultCellWidth  = 1280.0 / 12
	defaultCellHeight = 720.0 / 8
)

// DefaultLayoutConfig returns the standard layout: generator on the left,
// six server slots on the right.
func DefaultLayoutConfig() LayoutConfig {
	cell := func(col, row int) Point {
		return GridCenter(col, row, 2, 2, defaultCellWidth, defaultCellHeight)
	}
	return LayoutConfig{
		Generator: cell(1, 3),
		ServerSlots: []Point{
			cell(9, 0), cell(9, 3), cell(9, 6),
			cell(6, 0), cell(6, 6), cell(5, 3),
		},
		SlotColors: []string{"red", "blue", "cyan", "green", "yellow", "purple"},
	}
}

// SlotPosition returns the position of the slot hosting server id. IDs beyond
// the configured slots stack below the last slot.
func (l LayoutConfig) SlotPosition(id ServerID) Point {
	idx := int(id) - 1
	if idx >= 0 && idx < len(l.ServerSlots) {
		return l.ServerSlots[idx]
	}
	if len(l.ServerSlots) == 0 {
		return l.Generator
	}
	last := l.ServerSlots[len(l.ServerSlots)-1]
	extra := idx - len(l.ServerSlots) + 1
	return Point{X: last.X, Y: last.Y + float64(extra)*defaultCellHeight}
}

// SlotColor returns the color tag of the slot hosting server id.
func (l LayoutConfig) SlotColor(id ServerID) string {
	idx := int(id) - 1
	if idx >= 0 && idx < len(l.SlotColors) {
		return l.SlotColors[idx]
	}
	return "gray"
}

// DefaultSimConfig returns the configuration used when nothing is overridden.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		TicksPerSecond:   DefaultTicksPerSecond,
		Seed:             42,
		TransportConfig:  NewTransportConfig(10, 3.0, DefaultTransitLimits()),
		ServerConfig:     NewServerConfig(3, 2000),
		GenerationConfig: NewGenerationConfig(1.0, true, 5.0),
		GameConfig:       DefaultGameConfig(),
		LayoutConfig:     DefaultLayoutConfig(),
		PolicyConfig:     NewPolicyConfig("round-robin", "none"),
	}
}

// Validate checks parameter ranges and policy names.
func (c SimConfig) Validate() error {
	var errs []error
	if c.TicksPerSecond <= 0 {
		errs = append(errs, fmt.Errorf("ticks_per_second must be > 0, got %d", c.TicksPerSecond))
	}
	if c.MaxCapacity <= 0 {
		errs = append(errs, fmt.Errorf("max_capacity must be > 0, got %d", c.MaxCapacity))
	}
	if c.TransportSpeed <= 0 {
		errs = append(errs, fmt.Errorf("transport_speed must be > 0, got %f", c.TransportSpeed))
	}
	if c.TransitLimits.Single <= 0 || c.TransitLimits.Multi <= 0 {
		errs = append(errs, fmt.Errorf("transit limits must be > 0, got %+v", c.TransitLimits))
	}
	if c.InitialServers < 1 {
		errs = append(errs, fmt.Errorf("initial_servers must be >= 1, got %d", c.InitialServers))
	}
	if c.ProcessingTimeMs <= 0 {
		errs = append(errs, fmt.Errorf("processing_time_ms must be > 0, got %d", c.ProcessingTimeMs))
	}
	if c.IntervalSeconds <= 0 {
		errs = append(errs, fmt.Errorf("interval_seconds must be > 0, got %f", c.IntervalSeconds))
	}
	if c.MaxQueueTimeSeconds <= 0 {
		errs = append(errs, fmt.Errorf("max_queue_time_seconds must be > 0, got %f", c.MaxQueueTimeSeconds))
	}
	if !IsValidLoadBalancer(c.LoadBalancer) {
		errs = append(errs, fmt.Errorf("unknown load balancer %q", c.LoadBalancer))
	}
	if !trace.IsValidTraceLevel(c.TraceLevel) {
		errs = append(errs, fmt.Errorf("unknown trace level %q", c.TraceLevel))
	}
	if c.GameConfig.Enabled {
		if c.InitialHealth <= 0 {
			errs = append(errs, fmt.Errorf("initial_health must be > 0, got %d", c.InitialHealth))
		}
		if c.EventIntervalSeconds <= 0 {
			errs = append(errs, fmt.Errorf("event_interval_seconds must be > 0, got %f", c.EventIntervalSeconds))
		}
		if c.SurgeMinFraction < 0 || c.SurgeMaxFraction >= 1 || c.SurgeMinFraction > c.SurgeMaxFraction {
			errs = append(errs, fmt.Errorf("surge fractions must satisfy 0 <= min <= max < 1, got %f..%f", c.SurgeMinFraction, c.SurgeMaxFraction))
		}
		if c.SurgeDurationSeconds <= 0 {
			errs = append(errs, fmt.Errorf("surge_duration_seconds must be > 0, got %f", c.SurgeDurationSeconds))
		}
		if c.NotificationTTLSeconds <= 0 {
			errs = append(errs, fmt.Errorf("notification_ttl_seconds must be > 0, got %f", c.NotificationTTLSeconds))
		}
		if c.MaxNotifications < 1 {
			errs = append(errs, fmt.Errorf("max_notifications must be >= 1, got %d", c.MaxNotifications))
		}
		w := c.Weights
		if w.IncreasedLoad < 0 || w.Regression < 0 || w.ServerFailure < 0 || w.IncreasedLoad+w.Regression+w.ServerFailure <= 0 {
			errs = append(errs, fmt.Errorf("event weights must be non-negative with a positive sum, got %+v", w))
		}
	}
	return errors.Join(errs...)
}
