package settings

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"shinyhunt.ai/internal/catalog"
	"shinyhunt.ai/internal/hunt/gate"
)

// Config is the typed view of the settings keys.
type Config struct {
	Enabled           bool
	UseMasterball     bool
	AutoAdvanceRoutes bool
	DungeonHunt       bool
	SafariHunt        bool

	Tokens gate.Thresholds
	Safari gate.Thresholds

	AllowAutoBestRoute bool
	// Nil farm routes and an empty dungeon mean "auto".
	TokenFarmRoute     *catalog.RouteRef
	SafariFarmRoute    *catalog.RouteRef
	PreferredDungeon   string

	MasterballForFarming bool
	FallbackBallPriority []string
	DebugTelemetry       bool
}

// DefaultConfig parses the default of every key.
func DefaultConfig() Config {
	cfg, _ := Parse(Defaults(), nil)
	return cfg
}

// Parse builds a Config from raw values. Missing keys take their default. A
// value that does not parse keeps the default and is reported in the joined
// error, which is never fatal. When cat is non-nil route, dungeon and tool
// names are checked against it.
func Parse(values map[string]string, cat *catalog.Catalog) (Config, error) {
	p := parser{values: values, cat: cat}
	cfg := Config{
		Enabled:           p.boolean(KeyEnabled),
		UseMasterball:     p.boolean(KeyUseMasterball),
		AutoAdvanceRoutes: p.boolean(KeyAutoAdvanceRoutes),
		DungeonHunt:       p.boolean(KeyDungeonHunt),
		SafariHunt:        p.boolean(KeySafariHunt),
		Tokens: gate.Thresholds{
			Enter:  p.integer(KeyMinTokens),
			Resume: p.integer(KeyResumeTokens),
		}.Effective(),
		Safari: gate.Thresholds{
			Enter:  p.integer(KeyMinSafariCurrency),
			Resume: p.integer(KeyResumeSafariCurrency),
		}.Effective(),
		AllowAutoBestRoute:   p.boolean(KeyAllowAutoBestRoute),
		TokenFarmRoute:       p.route(KeyTokenFarmRoute),
		SafariFarmRoute:      p.route(KeySafariFarmRoute),
		PreferredDungeon:     p.dungeon(KeyPreferredDungeon),
		MasterballForFarming: p.boolean(KeyMasterballForFarming),
		FallbackBallPriority: p.tools(KeyFallbackBallPriority),
		DebugTelemetry:       p.boolean(KeyDebugTelemetry),
	}
	return cfg, errors.Join(p.errs...)
}

// Validate checks a single value against the type of its key.
func Validate(key, value string, cat *catalog.Catalog) error {
	if _, err := lookup(key); err != nil {
		return err
	}
	p := parser{values: map[string]string{key: value}, cat: cat}
	switch keyIndex[key].kind {
	case kindBool:
		p.boolean(key)
	case kindInt:
		p.integer(key)
	case kindRoute:
		p.route(key)
	case kindDungeon:
		p.dungeon(key)
	case kindToolList:
		p.tools(key)
	}
	return errors.Join(p.errs...)
}

type parser struct {
	values map[string]string
	cat    *catalog.Catalog
	errs   []error
}

// raw returns the trimmed value and the key default. ok is false when the
// value is absent and the default applies.
func (p *parser) raw(key string) (value, def string, ok bool) {
	def = keyIndex[key].def
	v, present := p.values[key]
	v = strings.TrimSpace(v)
	if !present || v == "" {
		return def, def, false
	}
	return v, def, true
}

func (p *parser) fail(key, value string, err error) {
	p.errs = append(p.errs, fmt.Errorf("%s=%q: %w", key, value, err))
}

func (p *parser) boolean(key string) bool {
	v, def, _ := p.raw(key)
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, v, errors.New("want true or false"))
		b, _ = strconv.ParseBool(def)
	}
	return b
}

func (p *parser) integer(key string) int64 {
	v, def, _ := p.raw(key)
	n, err := strconv.ParseInt(v, 10, 64)
	if err == nil && n < 0 {
		err = errors.New("must not be negative")
	}
	if err != nil {
		p.fail(key, v, err)
		n, _ = strconv.ParseInt(def, 10, 64)
	}
	return n
}

func (p *parser) route(key string) *catalog.RouteRef {
	v, _, _ := p.raw(key)
	if strings.EqualFold(v, Auto) {
		return nil
	}
	ref, err := catalog.ParseRouteRef(v)
	if err != nil {
		p.fail(key, v, err)
		return nil
	}
	if p.cat != nil {
		if _, ok := p.cat.Route(ref); !ok {
			p.fail(key, v, fmt.Errorf("no such route%s", hint(ref.String(), p.cat.RouteNames())))
			return nil
		}
	}
	return &ref
}

func (p *parser) dungeon(key string) string {
	v, _, _ := p.raw(key)
	if strings.EqualFold(v, Auto) {
		return ""
	}
	if p.cat != nil {
		if _, ok := p.cat.Run(v); !ok {
			p.fail(key, v, fmt.Errorf("no such dungeon%s", hint(v, p.cat.RunNames())))
			return ""
		}
	}
	return v
}

func (p *parser) tools(key string) []string {
	v, _, _ := p.raw(key)
	known := catalog.DefaultTools()
	if p.cat != nil {
		known = p.cat.Tools
	}
	ids := make([]string, 0, len(known))
	for _, t := range known {
		ids = append(ids, t.ID)
	}

	var out []string
	for _, part := range strings.Split(v, ",") {
		id := strings.TrimSpace(part)
		if id == "" {
			continue
		}
		if !containsFold(ids, &id) {
			p.fail(key, v, fmt.Errorf("unknown tool %q%s", id, hint(id, ids)))
			continue
		}
		out = append(out, id)
	}
	return out
}

// containsFold matches id case-insensitively and rewrites it to the
// canonical spelling.
func containsFold(ids []string, id *string) bool {
	for _, known := range ids {
		if strings.EqualFold(known, *id) {
			*id = known
			return true
		}
	}
	return false
}
