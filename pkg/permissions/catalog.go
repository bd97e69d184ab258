package permissions

import (
	"encoding/json"
	"sort"
	"strings"
)

// Catalog is an immutable, indexed collection of merged permission records.
type Catalog struct {
	records        []Record
	byID           map[string]int
	byValue        map[string]int
	provisioned    int
	rawPermissions json.RawMessage
}

// NewCatalog indexes records by ID and by lowercased value. The first record
// wins when keys collide.
func NewCatalog(records []Record) *Catalog {
	c := &Catalog{
		records: records,
		byID:    make(map[string]int, len(records)),
		byValue: make(map[string]int, len(records)),
	}
	for i, rec := range records {
		if rec.ID != "" {
			if _, ok := c.byID[rec.ID]; !ok {
				c.byID[rec.ID] = i
			}
		}
		if rec.Value != "" {
			key := strings.ToLower(rec.Value)
			if _, ok := c.byValue[key]; !ok {
				c.byValue[key] = i
			}
		}
		if rec.ProvisioningInfo != nil {
			c.provisioned++
		}
	}
	return c
}

// WithRawPermissions attaches the verbatim permissions document.
func (c *Catalog) WithRawPermissions(raw json.RawMessage) *Catalog {
	c.rawPermissions = raw
	return c
}

// All returns the records in load order. Callers must not modify the slice.
func (c *Catalog) All() []Record {
	return c.records
}

// Count returns the number of records.
func (c *Catalog) Count() int {
	return len(c.records)
}

// Provisioned returns how many records carry provisioning info.
func (c *Catalog) Provisioned() int {
	return c.provisioned
}

// RawPermissions returns the permissions document as loaded, or nil.
func (c *Catalog) RawPermissions() json.RawMessage {
	return c.rawPermissions
}

// ByID retrieves a record by its stable identifier.
func (c *Catalog) ByID(id string) (Record, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Record{}, false
	}
	return c.records[i], true
}

// ByValue retrieves a record by value, ignoring case.
func (c *Catalog) ByValue(value string) (Record, bool) {
	i, ok := c.byValue[strings.ToLower(strings.TrimSpace(value))]
	if !ok {
		return Record{}, false
	}
	return c.records[i], true
}

// Lookup tries ByID first and falls back to ByValue.
func (c *Catalog) Lookup(key string) (Record, bool) {
	if rec, ok := c.ByID(key); ok {
		return rec, true
	}
	return c.ByValue(key)
}

// Services returns the distinct API prefixes of all values, sorted.
func (c *Catalog) Services() []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, rec := range c.records {
		api := rec.API()
		if api == "" {
			continue
		}
		if _, ok := seen[api]; ok {
			continue
		}
		seen[api] = struct{}{}
		out = append(out, api)
	}
	sort.Strings(out)
	return out
}

// Slug turns a permission value into its URL form: lowercased, dots as dashes.
func Slug(value string) string {
	return strings.ReplaceAll(strings.ToLower(value), ".", "-")
}

// CanonicalURL is the public link of a record: <base>/api/<API>/permission/<slug>.
// Records without a value link to base.
func CanonicalURL(baseURL string, rec Record) string {
	base := strings.TrimRight(baseURL, "/")
	if rec.Value == "" {
		return base
	}
	return base + "/api/" + rec.API() + "/permission/" + Slug(rec.Value)
}

// BySlug finds the record whose value slug equals slug within api.
func (c *Catalog) BySlug(api, slug string) (Record, bool) {
	for _, rec := range c.records {
		if rec.Value != "" && strings.EqualFold(rec.API(), api) && Slug(rec.Value) == strings.ToLower(slug) {
			return rec, true
		}
	}
	return Record{}, false
}

// Values returns every non-empty permission value in load order.
func (c *Catalog) Values() []string {
	out := make([]string, 0, len(c.records))
	for _, rec := range c.records {
		if rec.Value != "" {
			out = append(out, rec.Value)
		}
	}
	return out
}
