package catalog

import "strings"

// Types is every energy type a card can carry.
var Types = []string{
	"Colorless", "Darkness", "Dragon", "Fairy", "Fighting", "Fire",
	"Grass", "Lightning", "Metal", "Psychic", "Water",
}

var rarityRanks = map[string]int{
	"promo":                     0,
	"common":                    1,
	"uncommon":                  2,
	"rare":                      3,
	"rare holo":                 4,
	"double rare":               5,
	"rare holo ex":              5,
	"rare holo gx":              5,
	"rare holo v":               5,
	"rare holo vmax":            5,
	"ultra rare":                6,
	"rare ultra":                6,
	"illustration rare":         7,
	"rare secret":               8,
	"special illustration rare": 8,
	"hyper rare":                9,
	"rare rainbow":              9,
}

// RarityRank orders rarities from common to chase cards. Unknown rarities
// rank with promos, at the bottom.
func RarityRank(rarity string) int {
	return rarityRanks[strings.ToLower(strings.TrimSpace(rarity))]
}

var typeColors = map[string]string{
	"colorless": "#A8A878",
	"darkness":  "#705848",
	"dragon":    "#7038F8",
	"fairy":     "#EE99AC",
	"fighting":  "#C03028",
	"fire":      "#F08030",
	"grass":     "#78C850",
	"lightning": "#F8D030",
	"metal":     "#B8B8D0",
	"psychic":   "#F85888",
	"water":     "#6890F0",
}

// TypeColor returns a hex colour for an energy type, or "" if unknown.
func TypeColor(t string) string {
	return typeColors[strings.ToLower(strings.TrimSpace(t))]
}

// RarityColor returns a hex colour for a rarity tier.
func RarityColor(rarity string) string {
	switch rank := RarityRank(rarity); {
	case rank >= 8:
		return "#FFD700"
	case rank >= 6:
		return "#C77DFF"
	case rank >= 4:
		return "#4CC9F0"
	case rank == 3:
		return "#90BE6D"
	default:
		return "#ADB5BD"
	}
}
