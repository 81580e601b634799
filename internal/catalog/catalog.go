package catalog

import (
	"fmt"
	"sort"
	"strings"
)

// Game identifies the conversion profile a ROM belongs to.
type Game string

const (
	GameUnknown     Game = ""
	GameStarFox64   Game = "sf64"
	GameMarioKart64 Game = "mk64"
)

// ArchiveName returns the conventional output archive file name for the game.
func (g Game) ArchiveName() string {
	switch g {
	case GameStarFox64:
		return "sf64.o2r"
	case GameMarioKart64:
		return "mk64.o2r"
	default:
		return "output.o2r"
	}
}

// Port returns the name of the PC port that consumes the archive.
func (g Game) Port() string {
	switch g {
	case GameStarFox64:
		return "Starship"
	case GameMarioKart64:
		return "SpaghettiKart"
	default:
		return ""
	}
}

// Identity describes a catalogued release.
type Identity struct {
	Digest     string
	Known      bool
	Title      string
	Region     string
	Version    string
	Compressed bool
	Game       Game
}

// DisplayTitle returns the title, or a placeholder for unknown ROMs.
func (i Identity) DisplayTitle() string {
	if !i.Known {
		return "Unknown ROM"
	}
	return i.Title
}

var entries = map[string]Identity{
	"f7475fb11e7e6830f82883412638e8390791ab87": {Title: "Star Fox 64 (U) (V1.1) - Decompressed", Region: "US", Version: "1.1", Game: GameStarFox64},
	"09f0d105f476b00efa5303a3ebc42e60a7753b7a": {Title: "Star Fox 64 (U) (V1.1) - Compressed", Region: "US", Version: "1.1", Compressed: true, Game: GameStarFox64},
	"63b69f0ef36306257481afc250f9bc304c7162b2": {Title: "Star Fox 64 (U) (V1.0) - Decompressed", Region: "US", Version: "1.0", Game: GameStarFox64},
	"d8b1088520f7c5f81433292a9258c1184afa1457": {Title: "Star Fox 64 (U) (V1.0) - Compressed", Region: "US", Version: "1.0", Compressed: true, Game: GameStarFox64},
	"d064229a32cc05ab85e2381ce07744eb3ffaf530": {Title: "Star Fox 64 (JP) (V1.0) - Decompressed", Region: "JP", Version: "1.0", Game: GameStarFox64},
	"9bd71afbecf4d0a43146e4e7a893395e19bf3220": {Title: "Star Fox 64 (JP) (V1.0) - Compressed", Region: "JP", Version: "1.0", Compressed: true, Game: GameStarFox64},
	"09f5d5c14219fc77a36c5a6ad5e63f7abd8b3385": {Title: "Star Fox 64 (EU) (V1.0) - Decompressed", Region: "EU", Version: "1.0", Game: GameStarFox64},
	"05b307b8804f992af1a1e2fbafbd588501fdf799": {Title: "Star Fox 64 (EU) (V1.0) - Compressed", Region: "EU", Version: "1.0", Compressed: true, Game: GameStarFox64},
	"3a05aba5549fa71e8b16a0c6e2c8481b070818a9": {Title: "Star Fox 64 (CN) (V1.1) - Decompressed", Region: "CN", Version: "1.1", Game: GameStarFox64},
	"c8a10699dea52f4bb2e2311935c1376dfb352e7a": {Title: "Star Fox 64 (CN) (V1.1) - Compressed", Region: "CN", Version: "1.1", Compressed: true, Game: GameStarFox64},
	"579c48e211ae952530ffc8738709f078d5dd215e": {Title: "Mario Kart 64 (US)", Region: "US", Version: "1.0", Game: GameMarioKart64},
}

// Normalize trims and lower-cases a digest for lookup.
func Normalize(digest string) string {
	return strings.ToLower(strings.TrimSpace(digest))
}

// Lookup returns the identity for digest. Unknown digests return an Identity
// with Known false.
func Lookup(digest string) Identity {
	normalized := Normalize(digest)
	entry, ok := entries[normalized]
	if !ok {
		return Identity{Digest: normalized}
	}
	entry.Digest = normalized
	entry.Known = true
	return entry
}

// Entries returns every catalogued identity sorted by title.
func Entries() []Identity {
	out := make([]Identity, 0, len(entries))
	for digest, entry := range entries {
		entry.Digest = digest
		entry.Known = true
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title == out[j].Title {
			return out[i].Digest < out[j].Digest
		}
		return out[i].Title < out[j].Title
	})
	return out
}

// SupportedSummary lists supported releases one per line, for logs shown
// when a digest is not recognized.
func SupportedSummary() string {
	var b strings.Builder
	for _, entry := range Entries() {
		fmt.Fprintf(&b, "%s: %s\n", entry.Title, entry.Digest)
	}
	return strings.TrimRight(b.String(), "\n")
}
