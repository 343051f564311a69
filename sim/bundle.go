package sim

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/inference-sim/queue-sim/sim/trace"
)

// ScenarioBundle holds scenario configuration, loadable from a YAML file.
// Nil pointer fields mean "not set in YAML"; they do not override SimConfig.
// String fields use empty string for "not set".
type ScenarioBundle struct {
	TicksPerSecond *int                      `yaml:"ticks_per_second"`
	Seed           *int64                    `yaml:"seed"`
	Transport      TransportBundle           `yaml:"transport"`
	Servers        ServersBundle             `yaml:"servers"`
	Generation     GenerationBundle          `yaml:"generation"`
	Game           GameBundle                `yaml:"game"`
	Policy         PolicyBundle              `yaml:"policy"`
	Layout         *LayoutBundle             `yaml:"layout"`
	Shop           map[string]ShopItemBundle `yaml:"shop"`
}

// TransportBundle holds connection-system overrides.
type TransportBundle struct {
	MaxCapacity    *int     `yaml:"max_capacity"`
	TransportSpeed *float64 `yaml:"transport_speed"`
	TransitSingle  *int     `yaml:"transit_limit_single"`
	TransitMulti   *int     `yaml:"transit_limit_multi"`
}

// ServersBundle holds initial server overrides.
type ServersBundle struct {
	Initial          *int `yaml:"initial"`
	ProcessingTimeMs *int `yaml:"processing_time_ms"`
}

// GenerationBundle holds generation overrides.
type GenerationBundle struct {
	IntervalSeconds     *float64 `yaml:"interval_seconds"`
	AutoGenerate        *bool    `yaml:"auto_generate"`
	MaxQueueTimeSeconds *float64 `yaml:"max_queue_time_seconds"`
}

// GameBundle holds game-mode overrides.
type GameBundle struct {
	Enabled              *bool    `yaml:"enabled"`
	InitialHealth        *int     `yaml:"initial_health"`
	EventIntervalSeconds *float64 `yaml:"event_interval_seconds"`
	SurgeMinFraction     *float64 `yaml:"surge_min_fraction"`
	SurgeMaxFraction     *float64 `yaml:"surge_max_fraction"`
	SurgeDurationSeconds *float64 `yaml:"surge_duration_seconds"`
	NotificationTTL      *float64 `yaml:"notification_ttl_seconds"`
	MaxNotifications     *int     `yaml:"max_notifications"`
	WeightIncreasedLoad  *float64 `yaml:"weight_increased_load"`
	WeightRegression     *float64 `yaml:"weight_regression"`
	WeightServerFailure  *float64 `yaml:"weight_server_failure"`
}

// PolicyBundle holds policy selection.
type PolicyBundle struct {
	LoadBalancer string `yaml:"load_balancer"`
	TraceLevel   string `yaml:"trace_level"`
}

// LayoutBundle replaces the default layout when present.
type LayoutBundle struct {
	CellWidth  float64    `yaml:"cell_width"`
	CellHeight float64    `yaml:"cell_height"`
	Generator  GridCell   `yaml:"generator"`
	Slots      []GridCell `yaml:"slots"`
}

// GridCell is a grid-addressed element of the layout.
type GridCell struct {
	Col    int    `yaml:"col"`
	Row    int    `yaml:"row"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Color  string `yaml:"color"`
}

// ShopItemBundle overrides the price curve of one shop item.
type ShopItemBundle struct {
	BasePrice *int     `yaml:"base_price"`
	Growth    *float64 `yaml:"growth"`
}

// LoadScenarioBundle reads and parses a YAML scenario file.
// Unknown fields are rejected so that typos surface as errors.
func LoadScenarioBundle(path string) (*ScenarioBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario config: %w", err)
	}
	return ParseScenarioBundle(data)
}

// ParseScenarioBundle parses YAML scenario bytes with strict field checking.
func ParseScenarioBundle(data []byte) (*ScenarioBundle, error) {
	var bundle ScenarioBundle
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&bundle); err != nil {
		return nil, fmt.Errorf("parsing scenario config: %w", err)
	}
	return &bundle, nil
}

// Validate checks policy names and the ranges of every field that is set.
func (b *ScenarioBundle) Validate() error {
	if !IsValidLoadBalancer(b.Policy.LoadBalancer) {
		return fmt.Errorf("unknown load balancer %q", b.Policy.LoadBalancer)
	}
	if !trace.IsValidTraceLevel(b.Policy.TraceLevel) {
		return fmt.Errorf("unknown trace level %q", b.Policy.TraceLevel)
	}
	if b.TicksPerSecond != nil && *b.TicksPerSecond <= 0 {
		return fmt.Errorf("ticks_per_second must be positive, got %d", *b.TicksPerSecond)
	}
	if b.Transport.MaxCapacity != nil && *b.Transport.MaxCapacity <= 0 {
		return fmt.Errorf("max_capacity must be positive, got %d", *b.Transport.MaxCapacity)
	}
	if b.Transport.TransportSpeed != nil && *b.Transport.TransportSpeed <= 0 {
		return fmt.Errorf("transport_speed must be positive, got %f", *b.Transport.TransportSpeed)
	}
	if b.Servers.Initial != nil && *b.Servers.Initial < 1 {
		return fmt.Errorf("servers.initial must be >= 1, got %d", *b.Servers.Initial)
	}
	if b.Servers.ProcessingTimeMs != nil && *b.Servers.ProcessingTimeMs <= 0 {
		return fmt.Errorf("processing_time_ms must be positive, got %d", *b.Servers.ProcessingTimeMs)
	}
	if b.Generation.IntervalSeconds != nil && *b.Generation.IntervalSeconds <= 0 {
		return fmt.Errorf("interval_seconds must be positive, got %f", *b.Generation.IntervalSeconds)
	}
	if b.Generation.MaxQueueTimeSeconds != nil && *b.Generation.MaxQueueTimeSeconds <= 0 {
		return fmt.Errorf("max_queue_time_seconds must be positive, got %f", *b.Generation.MaxQueueTimeSeconds)
	}
	if b.Game.InitialHealth != nil && *b.Game.InitialHealth <= 0 {
		return fmt.Errorf("initial_health must be positive, got %d", *b.Game.InitialHealth)
	}
	if b.Game.SurgeDurationSeconds != nil && *b.Game.SurgeDurationSeconds <= 0 {
		return fmt.Errorf("surge_duration_seconds must be positive, got %f", *b.Game.SurgeDurationSeconds)
	}
	if b.Game.NotificationTTL != nil && *b.Game.NotificationTTL <= 0 {
		return fmt.Errorf("notification_ttl_seconds must be positive, got %f", *b.Game.NotificationTTL)
	}
	if b.Game.MaxNotifications != nil && *b.Game.MaxNotifications < 1 {
		return fmt.Errorf("max_notifications must be >= 1, got %d", *b.Game.MaxNotifications)
	}
	if b.Layout != nil && (b.Layout.CellWidth <= 0 || b.Layout.CellHeight <= 0) {
		return fmt.Errorf("layout cell size must be positive, got %fx%f", b.Layout.CellWidth, b.Layout.CellHeight)
	}
	for id, item := range b.Shop {
		if item.BasePrice != nil && *item.BasePrice <= 0 {
			return fmt.Errorf("shop item %q: base_price must be positive, got %d", id, *item.BasePrice)
		}
		if item.Growth != nil && *item.Growth < 1 {
			return fmt.Errorf("shop item %q: growth must be >= 1, got %f", id, *item.Growth)
		}
	}
	return nil
}

// Apply overlays every set field of the bundle onto cfg.
func (b *ScenarioBundle) Apply(cfg *SimConfig) {
	setInt(&cfg.TicksPerSecond, b.TicksPerSecond)
	if b.Seed != nil {
		cfg.Seed = *b.Seed
	}
	setInt(&cfg.MaxCapacity, b.Transport.MaxCapacity)
	setFloat(&cfg.TransportSpeed, b.Transport.TransportSpeed)
	setInt(&cfg.TransitLimits.Single, b.Transport.TransitSingle)
	setInt(&cfg.TransitLimits.Multi, b.Transport.TransitMulti)
	setInt(&cfg.InitialServers, b.Servers.Initial)
	setInt(&cfg.ProcessingTimeMs, b.Servers.ProcessingTimeMs)
	setFloat(&cfg.IntervalSeconds, b.Generation.IntervalSeconds)
	setBool(&cfg.AutoGenerate, b.Generation.AutoGenerate)
	setFloat(&cfg.MaxQueueTimeSeconds, b.Generation.MaxQueueTimeSeconds)
	setBool(&cfg.GameConfig.Enabled, b.Game.Enabled)
	setInt(&cfg.InitialHealth, b.Game.InitialHealth)
	setFloat(&cfg.EventIntervalSeconds, b.Game.EventIntervalSeconds)
	setFloat(&cfg.SurgeMinFraction, b.Game.SurgeMinFraction)
	setFloat(&cfg.SurgeMaxFraction, b.Game.SurgeMaxFraction)
	setFloat(&cfg.SurgeDurationSeconds, b.Game.SurgeDurationSeconds)
	setFloat(&cfg.NotificationTTLSeconds, b.Game.NotificationTTL)
	setInt(&cfg.MaxNotifications, b.Game.MaxNotifications)
	setFloat(&cfg.Weights.IncreasedLoad, b.Game.WeightIncreasedLoad)
	setFloat(&cfg.Weights.Regression, b.Game.WeightRegression)
	setFloat(&cfg.Weights.ServerFailure, b.Game.WeightServerFailure)
	if b.Policy.LoadBalancer != "" {
		cfg.LoadBalancer = b.Policy.LoadBalancer
	}
	if b.Policy.TraceLevel != "" {
		cfg.TraceLevel = b.Policy.TraceLevel
	}
	if b.Layout != nil {
		cfg.LayoutConfig = b.Layout.toLayoutConfig()
	}
}

func (l *LayoutBundle) toLayoutConfig() LayoutConfig {
	center := func(c GridCell) Point {
		w, h := max(c.Width, 1), max(c.Height, 1)
		return GridCenter(c.Col, c.Row, w, h, l.CellWidth, l.CellHeight)
	}
	out := LayoutConfig{Generator: center(l.Generator)}
	for _, slot := range l.Slots {
		out.ServerSlots = append(out.ServerSlots, center(slot))
		out.SlotColors = append(out.SlotColors, slot.Color)
	}
	return out
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}
