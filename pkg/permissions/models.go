package permissions

import (
	"encoding/json"
	"slices"
	"strings"

	"github.com/milan604/permcatalog/pkg/utils"
)

// Type classifies a permission by who can be granted it.
type Type string

const (
	TypeAdmin       Type = "Admin"
	TypeDelegated   Type = "Delegated"
	TypeApplication Type = "Application"
)

// AllTypes returns every known permission type in display order.
func AllTypes() []Type {
	return []Type{TypeAdmin, TypeDelegated, TypeApplication}
}

// ParseType maps a case-sensitive type name onto a Type.
func ParseType(s string) (Type, bool) {
	t := Type(s)
	if slices.Contains(AllTypes(), t) {
		return t, true
	}
	return "", false
}

// Badge returns the CSS class used to render the type.
func (t Type) Badge() string {
	switch t {
	case TypeApplication:
		return "badge-application"
	case TypeAdmin:
		return "badge-admin"
	default:
		return "badge-delegated"
	}
}

// Description is one entry of the descriptions document as published upstream.
type Description struct {
	ID                      string   `json:"id"`
	Value                   string   `json:"value"`
	IsAdmin                 bool     `json:"isAdmin"`
	IsEnabled               *bool    `json:"isEnabled,omitempty"`
	AllowedMemberTypes      []string `json:"allowedMemberTypes,omitempty"`
	AdminConsentDisplayName string   `json:"adminConsentDisplayName"`
	AdminConsentDescription string   `json:"adminConsentDescription"`
	ConsentDisplayName      string   `json:"consentDisplayName"`
	ConsentDescription      string   `json:"consentDescription"`
	UserConsentDisplayName  string   `json:"userConsentDisplayName"`
	UserConsentDescription  string   `json:"userConsentDescription"`
}

// ProvisioningInfo is the provisioning metadata attached to a permission by value.
// Fields other than value are kept verbatim.
type ProvisioningInfo struct {
	Value      string
	Attributes map[string]json.RawMessage
}

func (p *ProvisioningInfo) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if v, ok := raw["value"]; ok {
		if err := json.Unmarshal(v, &p.Value); err != nil {
			return err
		}
		delete(raw, "value")
	}
	p.Attributes = raw
	return nil
}

func (p ProvisioningInfo) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(p.Attributes)+1)
	for k, v := range p.Attributes {
		out[k] = v
	}
	value, err := json.Marshal(p.Value)
	if err != nil {
		return nil, err
	}
	out["value"] = value
	return json.Marshal(out)
}

// Record is one merged permission as served by the catalog. Records are
// immutable once the catalog is built.
type Record struct {
	ID                      string            `json:"id"`
	Value                   string            `json:"value"`
	Type                    Type              `json:"type"`
	Badge                   string            `json:"badge"`
	AdminConsentDisplayName string            `json:"adminConsentDisplayName,omitempty"`
	ConsentDisplayName      string            `json:"consentDisplayName,omitempty"`
	AdminConsentDescription string            `json:"adminConsentDescription,omitempty"`
	ConsentDescription      string            `json:"consentDescription,omitempty"`
	IsAdmin                 bool              `json:"isAdmin,omitempty"`
	IsEnabled               *bool             `json:"isEnabled,omitempty"`
	AllowedMemberTypes      []string          `json:"allowedMemberTypes,omitempty"`
	ProvisioningInfo        *ProvisioningInfo `json:"provisioningInfo,omitempty"`
}

// DisplayName is the admin consent display name, else the consent display name.
func (r Record) DisplayName() string {
	return utils.Coalesce(r.AdminConsentDisplayName, r.ConsentDisplayName)
}

// Description is the admin consent description, else the consent description.
func (r Record) Description() string {
	return utils.Coalesce(r.AdminConsentDescription, r.ConsentDescription)
}

// API is the resource prefix of the value, e.g. "User" for "User.Read".
func (r Record) API() string {
	api, _, _ := strings.Cut(r.Value, ".")
	return api
}
