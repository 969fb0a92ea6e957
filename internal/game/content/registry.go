package content

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Catalog is the on-disk layout of a content file. Any section may be empty.
type Catalog struct {
	Monsters      []*MonsterTemplate `yaml:"monsters,omitempty"`
	Tags          []*TagEffect       `yaml:"tags,omitempty"`
	Breakthroughs []*Requirement     `yaml:"breakthroughs,omitempty"`
	SpiritRoots   []*SpiritRoot      `yaml:"spirit_roots,omitempty"`
}

// Validate checks every entry of the catalog.
//
// Postcondition: Returns nil iff every entry is valid; the first violation otherwise.
func (c *Catalog) Validate() error {
	for _, m := range c.Monsters {
		if err := m.Validate(); err != nil {
			return err
		}
	}
	for _, t := range c.Tags {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	for _, r := range c.Breakthroughs {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	for _, s := range c.SpiritRoots {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// LoadCatalogFromBytes parses a single catalog from raw YAML bytes.
//
// Postcondition: Returns a validated *Catalog, or an error.
func LoadCatalogFromBytes(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog YAML: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Registry owns the live game content. Entries are keyed by monster ID, tag
// name, requirement level, and spirit root name. Every successful Merge bumps
// Version. All methods are safe for concurrent use.
type Registry struct {
	mu           sync.RWMutex
	version      uint64
	monsters     map[string]*MonsterTemplate
	tags         map[string]*TagEffect
	requirements map[int]*Requirement
	spiritRoots  map[string]*SpiritRoot
}

// NewRegistry returns an empty Registry at version 0.
func NewRegistry() *Registry {
	return &Registry{
		monsters:     make(map[string]*MonsterTemplate),
		tags:         make(map[string]*TagEffect),
		requirements: make(map[int]*Requirement),
		spiritRoots:  make(map[string]*SpiritRoot),
	}
}

// Load merges every *.yaml file in dir, in lexical file order.
//
// Precondition: dir must be a readable directory.
// Postcondition: On error, files merged before the failing one remain merged
// and the failing file contributes nothing.
func (r *Registry) Load(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading content dir %q: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %q: %w", path, err)
		}
		c, err := LoadCatalogFromBytes(data)
		if err != nil {
			return fmt.Errorf("loading %q: %w", path, err)
		}
		if err := r.Merge(c); err != nil {
			return fmt.Errorf("merging %q: %w", path, err)
		}
	}
	return nil
}

// Merge validates c and then adds or replaces its entries.
//
// Postcondition: On error the registry is unchanged; on success Version is
// incremented by one.
func (r *Registry) Merge(c *Catalog) error {
	if c == nil {
		return fmt.Errorf("content: nil catalog")
	}
	if err := c.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range c.Monsters {
		r.monsters[m.ID] = m
	}
	for _, t := range c.Tags {
		r.tags[t.Name] = t
	}
	for _, req := range c.Breakthroughs {
		r.requirements[req.Level] = req
	}
	for _, s := range c.SpiritRoots {
		r.spiritRoots[s.Name] = s
	}
	r.version++
	return nil
}

// Persist writes the current content to path as a single catalog file.
//
// Postcondition: The written file round-trips through LoadCatalogFromBytes.
func (r *Registry) Persist(path string) error {
	data, err := yaml.Marshal(r.Snapshot())
	if err != nil {
		return fmt.Errorf("marshalling catalog: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating content dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %q: %w", path, err)
	}
	return nil
}

// Snapshot returns every entry in deterministic order.
func (r *Registry) Snapshot() *Catalog {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c := &Catalog{}
	for _, m := range r.monsters {
		c.Monsters = append(c.Monsters, m)
	}
	sort.Slice(c.Monsters, func(i, j int) bool { return c.Monsters[i].ID < c.Monsters[j].ID })
	for _, t := range r.tags {
		c.Tags = append(c.Tags, t)
	}
	sort.Slice(c.Tags, func(i, j int) bool { return c.Tags[i].Name < c.Tags[j].Name })
	for _, req := range r.requirements {
		c.Breakthroughs = append(c.Breakthroughs, req)
	}
	sort.Slice(c.Breakthroughs, func(i, j int) bool { return c.Breakthroughs[i].Level < c.Breakthroughs[j].Level })
	for _, s := range r.spiritRoots {
		c.SpiritRoots = append(c.SpiritRoots, s)
	}
	sort.Slice(c.SpiritRoots, func(i, j int) bool { return c.SpiritRoots[i].Name < c.SpiritRoots[j].Name })
	return c
}

// Version returns the number of successful merges.
func (r *Registry) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// Monster returns a copy of the template with the given ID.
//
// Postcondition: The returned slices and pointers are private to the caller.
func (r *Registry) Monster(id string) (MonsterTemplate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.monsters[id]
	if !ok {
		return MonsterTemplate{}, false
	}
	out := *m
	out.Level = clonePtr(m.Level)
	out.Loot = append([]LootEntry(nil), m.Loot...)
	out.Tags = append([]string(nil), m.Tags...)
	if m.Rewards != nil {
		out.Rewards = &RewardOverrides{
			Exp:          clonePtr(m.Rewards.Exp),
			SpiritStones: clonePtr(m.Rewards.SpiritStones),
		}
	}
	return out, true
}

// MonsterIDs returns all template IDs in sorted order.
func (r *Registry) MonsterIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.monsters))
	for id := range r.monsters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Tag returns a copy of the named tag effect.
func (r *Registry) Tag(name string) (TagEffect, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tags[name]
	if !ok {
		return TagEffect{}, false
	}
	out := *t
	out.NamePrefix = clonePtr(t.NamePrefix)
	out.NameSuffix = clonePtr(t.NameSuffix)
	out.HPMultiplier = clonePtr(t.HPMultiplier)
	out.AttackMultiplier = clonePtr(t.AttackMultiplier)
	out.DefenseMultiplier = clonePtr(t.DefenseMultiplier)
	out.SpiritStonesMultiplier = clonePtr(t.SpiritStonesMultiplier)
	out.ExpMultiplier = clonePtr(t.ExpMultiplier)
	out.AddToLoot = append([]LootEntry(nil), t.AddToLoot...)
	return out, true
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// RequirementFor returns the breakthrough a character of the given level
// and realm may attempt: the requirement with the greatest Level <= level
// whose FromRealm equals realm.
//
// Postcondition: ok is false when no requirement qualifies.
func (r *Registry) RequirementFor(level int, realm string) (Requirement, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var best *Requirement
	for _, req := range r.requirements {
		if req.Level > level || req.FromRealm != realm {
			continue
		}
		if best == nil || req.Level > best.Level {
			best = req
		}
	}
	if best == nil {
		return Requirement{}, false
	}
	out := *best
	out.RequiredItems = append([]string(nil), best.RequiredItems...)
	return out, true
}

// SpiritRootEfficiency returns the efficiency of the named root, or 1.0 for
// an unknown root.
func (r *Registry) SpiritRootEfficiency(name string) float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.spiritRoots[name]; ok {
		return s.Efficiency
	}
	return 1.0
}

// SpiritRoot returns a copy of the named spirit root.
func (r *Registry) SpiritRoot(name string) (SpiritRoot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.spiritRoots[name]
	if !ok {
		return SpiritRoot{}, false
	}
	return *s, true
}

// SpiritRootNames returns every spirit root name in sorted order.
func (r *Registry) SpiritRootNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.spiritRoots))
	for name := range r.spiritRoots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
