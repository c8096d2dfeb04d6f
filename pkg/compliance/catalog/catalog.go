// Package catalog interprets the standards catalog, which the backend emits
// in either of two wire shapes, into one stable list of selectable entries.
package catalog

import (
	"encoding/json"
	"sort"

	"regubot-client/internal/dto"
)

// Catalog groups
const (
	GroupGlobal   = "Global"
	GroupNational = "National"
)

// wireGroups maps wire group keys to display groups. The backend spells the
// national group "Nasional".
var wireGroups = map[string]string{
	"Global":   GroupGlobal,
	"Nasional": GroupNational,
}

// Entry is one selectable compliance standard.
type Entry struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
	Group       string `json:"group"`
}

// Catalog is the parsed standards catalog. Fetched once at startup and never
// cleared by session resets.
type Catalog struct {
	entries []Entry
	byKey   map[string]Entry
}

type wireEntry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
}

// Parse reads a standards response in whichever shape it arrived.
//
// Current shape:  {success, standards: {Global: {KEY: {name, description, available}}, Nasional: {...}}}
// Legacy shape:   {Global: ["KEY", ...], Nasional: [...]} at the top level.
//
// Legacy entries carry no metadata; they are marked available with the key
// doubling as the name.
func Parse(resp *dto.StandardsResponse) *Catalog {
	c := &Catalog{byKey: make(map[string]Entry)}
	if resp == nil {
		return c
	}

	source := resp.Standards
	if len(source) == 0 {
		source = resp.Raw
	}

	for _, wireGroup := range sortedKeys(source) {
		group, known := wireGroups[wireGroup]
		if !known {
			continue
		}
		raw := source[wireGroup]

		var keyed map[string]wireEntry
		if err := json.Unmarshal(raw, &keyed); err == nil {
			for _, key := range sortedEntryKeys(keyed) {
				entry := keyed[key]
				name := entry.Name
				if name == "" {
					name = key
				}
				c.add(Entry{
					Key:         key,
					Name:        name,
					Description: entry.Description,
					Available:   entry.Available,
					Group:       group,
				})
			}
			continue
		}

		var legacy []string
		if err := json.Unmarshal(raw, &legacy); err == nil {
			for _, key := range legacy {
				c.add(Entry{Key: key, Name: key, Available: true, Group: group})
			}
		}
	}
	return c
}

func (c *Catalog) add(entry Entry) {
	if _, exists := c.byKey[entry.Key]; exists {
		return
	}
	c.entries = append(c.entries, entry)
	c.byKey[entry.Key] = entry
}

// Entries returns all entries, Global group first.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Group == GroupGlobal && out[j].Group != GroupGlobal
	})
	return out
}

// Lookup returns the entry for a standard key.
func (c *Catalog) Lookup(key string) (Entry, bool) {
	entry, ok := c.byKey[key]
	return entry, ok
}

// IsSelectable reports whether a key exists and is available. An entry with
// available=false must never enter the selected set.
func (c *Catalog) IsSelectable(key string) bool {
	entry, ok := c.byKey[key]
	return ok && entry.Available
}

func (c *Catalog) Len() int {
	return len(c.entries)
}

// Default is the known ReguBot standard set, used only when the catalog
// fetch fails so the selection UI is not empty.
func Default() *Catalog {
	c := &Catalog{byKey: make(map[string]Entry)}
	c.add(Entry{Key: "GDPR", Name: "GDPR", Description: "EU General Data Protection Regulation", Available: true, Group: GroupGlobal})
	c.add(Entry{Key: "NIST", Name: "NIST", Description: "NIST Cybersecurity Framework", Available: true, Group: GroupGlobal})
	c.add(Entry{Key: "UU_PDP", Name: "UU PDP", Description: "Undang-Undang Pelindungan Data Pribadi", Available: true, Group: GroupNational})
	c.add(Entry{Key: "POJK", Name: "POJK", Description: "Peraturan Otoritas Jasa Keuangan", Available: true, Group: GroupNational})
	c.add(Entry{Key: "BSSN", Name: "BSSN", Description: "Badan Siber dan Sandi Negara guidelines", Available: true, Group: GroupNational})
	return c
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedEntryKeys(m map[string]wireEntry) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
