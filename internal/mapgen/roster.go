package mapgen

// BossEntry defines one boss identity and the places its layer can be set in.
type BossEntry struct {
	Name      string   // Scene-facing name: "Pride"
	Title     string   // Display title: "Lucifer, Sovereign of Pride"
	Locations []string // Candidate location names for the boss's layer
}

// Roster is the fixed cast of bosses a generator draws from.
type Roster struct {
	Sins  []BossEntry // Drawn without replacement, one per sin layer
	Final BossEntry   // Boss of the optional terminal layer
}

// Canonical boss names
const (
	BossWrath    = "Wrath"
	BossEnvy     = "Envy"
	BossGreed    = "Greed"
	BossLust     = "Lust"
	BossGluttony = "Gluttony"
	BossSloth    = "Sloth"
	BossPride    = "Pride"
	BossDevil    = "Devil"
)

// DefaultRoster returns the seven sins and the Devil.
func DefaultRoster() Roster {
	return Roster{
		Sins: []BossEntry{
			{
				Name:      BossWrath,
				Title:     "Satan, Herald of Wrath",
				Locations: []string{"Ashen Battlefield", "Crimson Forge", "Shattered Ramparts"},
			},
			{
				Name:      BossEnvy,
				Title:     "Leviathan, Coil of Envy",
				Locations: []string{"Mirror Marsh", "Verdant Mire", "Hall of Reflections"},
			},
			{
				Name:      BossGreed,
				Title:     "Mammon, Keeper of Greed",
				Locations: []string{"Gilded Vault", "Coin-Choked Mines", "Merchant's Labyrinth"},
			},
			{
				Name:      BossLust,
				Title:     "Asmodeus, Veil of Lust",
				Locations: []string{"Velvet Gardens", "Scarlet Palace", "Perfumed Catacombs"},
			},
			{
				Name:      BossGluttony,
				Title:     "Beelzebub, Maw of Gluttony",
				Locations: []string{"Rotting Banquet", "Swarming Larder", "Bloated Cellars"},
			},
			{
				Name:      BossSloth,
				Title:     "Belphegor, Slumber of Sloth",
				Locations: []string{"Drowsing Fen", "Dust-Choked Library", "Endless Bedchamber"},
			},
			{
				Name:      BossPride,
				Title:     "Lucifer, Sovereign of Pride",
				Locations: []string{"Ivory Spire", "Throne of Mirrors", "Hall of Crowns"},
			},
		},
		Final: BossEntry{
			Name:      BossDevil,
			Title:     "The Devil",
			Locations: []string{"Abyssal Throne"},
		},
	}
}

// Names returns every boss name, sins first, then the final boss.
func (r Roster) Names() []string {
	names := make([]string, 0, len(r.Sins)+1)
	for _, s := range r.Sins {
		names = append(names, s.Name)
	}
	return append(names, r.Final.Name)
}

// Contains returns true if the name belongs to the roster.
func (r Roster) Contains(name string) bool {
	return r.Entry(name) != nil
}

// Entry returns the roster entry for a boss name, or nil if absent.
func (r Roster) Entry(name string) *BossEntry {
	for i := range r.Sins {
		if r.Sins[i].Name == name {
			return &r.Sins[i]
		}
	}
	if r.Final.Name == name {
		return &r.Final
	}
	return nil
}
