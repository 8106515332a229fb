package domain

// GameState is the canonical, versioned source of truth for player-visible
// facts. Version is an optimistic-concurrency token: every accepted patch
// tests it first and bumps it by exactly one.
type GameState struct {
	Version int    `json:"version"`
	Player  Player `json:"player"`
}

type Player struct {
	Name      string          `json:"name"`
	Level     int             `json:"level"`
	XP        int             `json:"xp"`
	Skills    Skills          `json:"skills"`
	HP        int             `json:"hp"`
	MaxHP     int             `json:"maxHp"`
	Inventory []InventoryItem `json:"inventory"`
	Location  string          `json:"location"`
}

type Skills struct {
	Sword       int `json:"sword"`
	Alchemy     int `json:"alchemy"`
	Stealth     int `json:"stealth"`
	Athletics   int `json:"athletics"`
	Lockpicking int `json:"lockpicking"`
}

type InventoryItem struct {
	ID  string `json:"id"`
	Qty int    `json:"qty"`
}

// NewGameState returns the fixed starting state for a fresh session.
func NewGameState() *GameState {
	return &GameState{
		Version: 1,
		Player: Player{
			Name:  "Adventurer",
			Level: 1,
			XP:    0,
			Skills: Skills{
				Sword:       10,
				Alchemy:     10,
				Stealth:     10,
				Athletics:   10,
				Lockpicking: 10,
			},
			HP:    20,
			MaxHP: 20,
			Inventory: []InventoryItem{
				{ID: "rusty_dagger", Qty: 1},
			},
			Location: "crossroads",
		},
	}
}

// ClampSkill bounds a skill value to [0, 100].
func ClampSkill(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Clamp bounds every skill to [0, 100] in place.
func (s *Skills) Clamp() {
	s.Sword = ClampSkill(s.Sword)
	s.Alchemy = ClampSkill(s.Alchemy)
	s.Stealth = ClampSkill(s.Stealth)
	s.Athletics = ClampSkill(s.Athletics)
	s.Lockpicking = ClampSkill(s.Lockpicking)
}

// Map returns the skills keyed by their wire names.
func (s Skills) Map() map[string]int {
	return map[string]int{
		"sword":       s.Sword,
		"alchemy":     s.Alchemy,
		"stealth":     s.Stealth,
		"athletics":   s.Athletics,
		"lockpicking": s.Lockpicking,
	}
}

// Value looks a skill up by wire name.
func (s Skills) Value(name string) (int, bool) {
	v, ok := s.Map()[name]
	return v, ok
}

// Clone deep-copies the state so callers can mutate freely.
func (g *GameState) Clone() *GameState {
	cp := *g
	cp.Player.Inventory = make([]InventoryItem, len(g.Player.Inventory))
	copy(cp.Player.Inventory, g.Player.Inventory)
	return &cp
}
