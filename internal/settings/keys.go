// Package settings holds the persisted hunt configuration: the key/value
// contract, its memory and sqlite stores, and the typed view the controller
// reads every tick.
package settings

import (
	"errors"
	"fmt"
	"sort"

	"github.com/agnivade/levenshtein"
)

const (
	KeyEnabled              = "Shiny-Enabled"
	KeyUseMasterball        = "Shiny-UseMasterball"
	KeyAutoAdvanceRoutes    = "Shiny-AutoAdvanceRoutes"
	KeyDungeonHunt          = "Shiny-DungeonHunt"
	KeySafariHunt           = "Shiny-SafariHunt"
	KeyMinTokens            = "Shiny-MinTokens"
	KeyResumeTokens         = "Shiny-ResumeTokens"
	KeyMinSafariCurrency    = "Shiny-MinSafariCurrency"
	KeyResumeSafariCurrency = "Shiny-ResumeSafariCurrency"
	KeyAllowAutoBestRoute   = "Shiny-AllowAutoBestRoute"
	KeyTokenFarmRoute       = "Shiny-TokenFarmRoute"
	KeySafariFarmRoute      = "Shiny-SafariFarmRoute"
	KeyPreferredDungeon     = "Shiny-PreferredDungeon"
	KeyMasterballForFarming = "Shiny-MasterballForFarming"
	KeyFallbackBallPriority = "Shiny-FallbackBallPriority"
	KeyDebugTelemetry       = "Shiny-DebugTelemetry"
)

// Auto marks route and dungeon keys that let the controller choose.
const Auto = "auto"

var ErrUnknownKey = errors.New("unknown setting")

type kind int

const (
	kindBool kind = iota
	kindInt
	kindRoute
	kindDungeon
	kindToolList
)

type keyDef struct {
	key  string
	kind kind
	def  string
}

var keyDefs = []keyDef{
	{KeyEnabled, kindBool, "false"},
	{KeyUseMasterball, kindBool, "true"},
	{KeyAutoAdvanceRoutes, kindBool, "true"},
	{KeyDungeonHunt, kindBool, "false"},
	{KeySafariHunt, kindBool, "false"},
	{KeyMinTokens, kindInt, "5000"},
	{KeyResumeTokens, kindInt, "7000"},
	{KeyMinSafariCurrency, kindInt, "100"},
	{KeyResumeSafariCurrency, kindInt, "200"},
	{KeyAllowAutoBestRoute, kindBool, "true"},
	{KeyTokenFarmRoute, kindRoute, Auto},
	{KeySafariFarmRoute, kindRoute, Auto},
	{KeyPreferredDungeon, kindDungeon, Auto},
	{KeyMasterballForFarming, kindBool, "false"},
	{KeyFallbackBallPriority, kindToolList, "Ultraball,Greatball,Pokeball"},
	{KeyDebugTelemetry, kindBool, "false"},
}

var keyIndex = func() map[string]keyDef {
	m := make(map[string]keyDef, len(keyDefs))
	for _, d := range keyDefs {
		m[d.key] = d
	}
	return m
}()

// Keys lists every known key in declaration order.
func Keys() []string {
	out := make([]string, 0, len(keyDefs))
	for _, d := range keyDefs {
		out = append(out, d.key)
	}
	return out
}

// Defaults returns the default value of every key.
func Defaults() map[string]string {
	out := make(map[string]string, len(keyDefs))
	for _, d := range keyDefs {
		out[d.key] = d.def
	}
	return out
}

func Default(key string) (string, error) {
	d, err := lookup(key)
	if err != nil {
		return "", err
	}
	return d.def, nil
}

func lookup(key string) (keyDef, error) {
	d, ok := keyIndex[key]
	if !ok {
		return keyDef{}, fmt.Errorf("%w %q%s", ErrUnknownKey, key, hint(key, Keys()))
	}
	return d, nil
}

// hint suggests the closest candidate when it is near enough to be a typo.
func hint(got string, candidates []string) string {
	best, bestDist := "", -1
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(got, c)
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	if best == "" || bestDist > maxHintDistance(got) {
		return ""
	}
	return fmt.Sprintf(" (did you mean %q?)", best)
}

func maxHintDistance(s string) int {
	if n := len(s) / 3; n > 2 {
		return n
	}
	return 2
}

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
