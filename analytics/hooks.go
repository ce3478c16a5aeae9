// Package analytics aggregates store events into small in-process KPIs.
package analytics

import (
	"context"
	"sync"

	"gesushell/core"
	"gesushell/engine"
)

// Hook receives domain events for KPI aggregation.
type Hook interface {
	OnEvent(e core.Event)
}

// Attach subscribes the hooks to every store event type. Returns a detach func.
func Attach(bus *engine.EventBus, hooks ...Hook) func() {
	forward := func(_ context.Context, e core.Event) {
		for _, h := range hooks {
			h.OnEvent(e)
		}
	}
	types := []core.EventType{
		core.EventXPAdded,
		core.EventLevelUp,
		core.EventAchievementUnlocked,
		core.EventCosmeticUnlocked,
		core.EventStateReplaced,
	}
	unsubs := make([]func(), 0, len(types))
	for _, typ := range types {
		unsubs = append(unsubs, bus.Subscribe(typ, forward))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// DAU tracks daily active users.
type DAU struct {
	mu   sync.Mutex
	days map[string]map[core.UserID]struct{}
}

func NewDAU() *DAU { return &DAU{days: map[string]map[core.UserID]struct{}{}} }

func (d *DAU) OnEvent(e core.Event) {
	if e.Type != core.EventXPAdded {
		return
	}
	day := e.Time.UTC().Format("2006-01-02")
	d.mu.Lock()
	defer d.mu.Unlock()
	m := d.days[day]
	if m == nil {
		m = map[core.UserID]struct{}{}
		d.days[day] = m
	}
	m[e.UserID] = struct{}{}
}

func (d *DAU) Count(day string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.days[day])
}

// XPPerDay sums XP gained per day and per reason.
type XPPerDay struct {
	mu       sync.Mutex
	byDay    map[string]int64
	byReason map[core.Reason]int64
}

func NewXPPerDay() *XPPerDay {
	return &XPPerDay{byDay: map[string]int64{}, byReason: map[core.Reason]int64{}}
}

func (x *XPPerDay) OnEvent(e core.Event) {
	if e.Type != core.EventXPAdded || e.XPGained <= 0 {
		return
	}
	day := e.Time.UTC().Format("2006-01-02")
	x.mu.Lock()
	defer x.mu.Unlock()
	x.byDay[day] += e.XPGained
	x.byReason[e.Reason] += e.XPGained
}

func (x *XPPerDay) Day(day string) int64 {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.byDay[day]
}

func (x *XPPerDay) Reason(r core.Reason) int64 {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.byReason[r]
}

// Milestones counts level-ups, achievement unlocks, and cosmetic unlocks.
type Milestones struct {
	mu           sync.Mutex
	levelUps     int64
	levelsDist   map[int]int64
	achievements map[core.AchievementID]int64
	cosmetics    map[core.CosmeticID]int64
}

func NewMilestones() *Milestones {
	return &Milestones{
		levelsDist:   map[int]int64{},
		achievements: map[core.AchievementID]int64{},
		cosmetics:    map[core.CosmeticID]int64{},
	}
}

func (m *Milestones) OnEvent(e core.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch e.Type {
	case core.EventLevelUp:
		m.levelUps++
		m.levelsDist[e.Level]++
	case core.EventAchievementUnlocked:
		m.achievements[e.Achievement]++
	case core.EventCosmeticUnlocked:
		m.cosmetics[e.Cosmetic]++
	}
}

func (m *Milestones) LevelUps() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.levelUps
}

func (m *Milestones) ReachedLevel(level int) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.levelsDist[level]
}

func (m *Milestones) Achievement(id core.AchievementID) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.achievements[id]
}

func (m *Milestones) Cosmetic(id core.CosmeticID) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cosmetics[id]
}
