/*
Package game
File: economy.go
Description:
    Handles the economic simulation of the city.
    This includes:
    1. Collecting territory income, scaled by stability, markets and the
       current city event.
    2. Drawing and expiring city-wide events (the rare event tick).
    3. Buying territory: capturing unclaimed districts and installing upgrades.
*/

package game

import (
	"fmt"
	"math"
)

const (
	marketBonus  = 1.25
	gangIncome   = 10 // Resources per held territory per income tick
	eventEnded   = "The city settles down."
	notEnoughEdd = "Not enough eddies!"
)

// Economy runs income, city events and territory purchases.
type Economy struct {
	*world
}

// stabilityModifier maps stability 0..100 to an income factor of 0.5..1.0.
func stabilityModifier(stability int) float64 {
	return 0.5 + float64(stability)/200
}

// TerritoryIncome is the income one player territory yields per tick,
// before the city event multiplier.
func TerritoryIncome(t Territory) int {
	amount := float64(t.Income) * stabilityModifier(t.Stability)
	if t.UpgradeLevel(UpgradeMarket) > 0 {
		amount *= marketBonus
	}
	return int(math.Floor(amount))
}

// IncomeTick credits the player for every controlled territory and feeds the
// gangs' operation budgets.
func (e *Economy) IncomeTick() {
	st := e.store.Get()

	// 1. Sum player income
	total, held := 0, 0
	for _, t := range st.Territories {
		if !t.Controlled {
			continue
		}
		total += TerritoryIncome(t)
		held++
	}
	if ev := e.activeEvent(st); ev != nil && ev.IncomeMultiplier > 0 {
		total = int(math.Floor(float64(total) * ev.IncomeMultiplier))
	}

	// 2. Commit player and gang income together
	e.store.Update(func(s *State) {
		s.Eddies += total
		for i := range s.Gangs {
			s.Gangs[i].Resources += gangIncome * len(s.Gangs[i].Territories)
		}
	})

	if held == 0 {
		return
	}
	e.bus.Notify(Notification{
		Kind:     NotifyTerritoryIncome,
		Message:  fmt.Sprintf("Collected %d eddies from %d territories", total, held),
		Severity: SeverityGood,
		Payload:  IncomePayload{Total: total, Territories: held},
	})
}

func (e *Economy) activeEvent(st State) *GlobalEvent {
	if st.GlobalEvent == nil || st.GlobalEvent.ExpiresAt <= e.now() {
		return nil
	}
	return st.GlobalEvent
}

// CurrentEvent returns the running city event, if any.
func (e *Economy) CurrentEvent() (GlobalEvent, bool) {
	ev := e.activeEvent(e.store.Get())
	if ev == nil {
		return GlobalEvent{}, false
	}
	return *ev, true
}

// EventTick expires the running event, or rolls for a new one when the city
// is quiet. A new event shifts heat and stability everywhere.
func (e *Economy) EventTick() {
	st := e.store.Get()

	// 1. Expire
	if st.GlobalEvent != nil {
		if e.activeEvent(st) != nil {
			return
		}
		e.store.Update(func(s *State) { s.GlobalEvent = nil })
		e.bus.Notify(Notification{Kind: NotifyGameEvent, Message: eventEnded, Severity: SeverityNeutral})
		return
	}

	// 2. Roll
	if len(e.content.Events) == 0 || !chance(e.rng, e.content.Balance.EventChance) {
		return
	}
	ev := e.content.Events[intn(e.rng, len(e.content.Events))]
	ev.ExpiresAt = e.now() + ev.DurationMS

	e.store.Update(func(s *State) {
		for i := range s.Territories {
			s.Territories[i].Heat += ev.HeatDelta
			s.Territories[i].Stability += ev.StabilityDelta
			clampTerritory(&s.Territories[i])
		}
		s.GlobalEvent = &ev
	})
	e.bus.Notify(Notification{
		Kind:     NotifyGameEvent,
		Message:  ev.Name + ": " + ev.Description,
		Severity: ev.Severity,
		Payload:  ev,
	})
}

// CaptureTerritory buys an unclaimed district outright.
func (e *Economy) CaptureTerritory(territoryID string) Result {
	st := e.store.Get()
	ti := territoryIndex(st.Territories, territoryID)
	if ti < 0 {
		return fail("Unknown territory")
	}
	t := st.Territories[ti]
	cost := e.content.Balance.CaptureCost
	switch {
	case t.Controlled:
		return fail("You already control " + t.Name)
	case t.RivalGang != "":
		return fail(t.Name + " is held by a rival gang")
	case st.Eddies < cost:
		return fail(notEnoughEdd)
	}

	e.store.Update(func(s *State) {
		s.Eddies -= cost
		transferTerritory(s, territoryID, InitiatorPlayer)
	})
	e.bus.Notify(Notification{
		Kind:     NotifyGameEvent,
		Message:  t.Name + " is now under your protection",
		Severity: SeverityGood,
	})
	return ok()
}

// UpgradeCost returns the price of the next level of an upgrade.
func UpgradeCost(offer UpgradeOffer, current int) int {
	return offer.Cost * (current + 1)
}

// InstallUpgrade buys the next level of an upgrade on a player territory.
// A new upgrade type needs a free slot; levelling an installed one does not.
func (e *Economy) InstallUpgrade(territoryID string, ut UpgradeType) Result {
	st := e.store.Get()

	// 1. Validation
	ti := territoryIndex(st.Territories, territoryID)
	if ti < 0 {
		return fail("Unknown territory")
	}
	t := st.Territories[ti]
	if !t.Controlled {
		return fail("You do not control " + t.Name)
	}
	offer, found := e.content.Upgrade(ut)
	if !found {
		return fail("Upgrade not found")
	}
	level := t.UpgradeLevel(ut)
	if level >= offer.MaxLevel {
		return fail(offer.Name + " is already at max level")
	}
	if level == 0 && len(t.Upgrades) >= t.Slots {
		return fail("No upgrade slots available")
	}
	cost := UpgradeCost(offer, level)
	if st.Eddies < cost {
		return fail(notEnoughEdd)
	}

	// 2. Apply purchase
	e.store.Update(func(s *State) {
		s.Eddies -= cost
		t := &s.Territories[territoryIndex(s.Territories, territoryID)]
		for i := range t.Upgrades {
			if t.Upgrades[i].Type == ut {
				t.Upgrades[i].Level++
				return
			}
		}
		t.Upgrades = append(t.Upgrades, Upgrade{Type: ut, Level: 1})
	})
	return ok()
}
