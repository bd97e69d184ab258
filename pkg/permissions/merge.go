package permissions

import (
	"slices"

	"github.com/milan604/permcatalog/pkg/utils"
)

// Merge builds one Record per description, in input order, attaching the
// provisioning entry whose value matches. Descriptions without a value are
// kept; they simply never match provisioning info.
func Merge(descriptions []Description, provisioning []ProvisioningInfo) []Record {
	byValue := make(map[string]*ProvisioningInfo, len(provisioning))
	for i := range provisioning {
		p := &provisioning[i]
		if p.Value == "" {
			continue
		}
		if _, seen := byValue[p.Value]; !seen {
			byValue[p.Value] = p
		}
	}

	records := make([]Record, 0, len(descriptions))
	for _, d := range descriptions {
		t := DeriveType(d)
		rec := Record{
			ID:                      d.ID,
			Value:                   d.Value,
			Type:                    t,
			Badge:                   t.Badge(),
			AdminConsentDisplayName: d.AdminConsentDisplayName,
			AdminConsentDescription: d.AdminConsentDescription,
			ConsentDisplayName:      utils.Coalesce(d.ConsentDisplayName, d.UserConsentDisplayName),
			ConsentDescription:      utils.Coalesce(d.ConsentDescription, d.UserConsentDescription),
			IsAdmin:                 d.IsAdmin,
			IsEnabled:               d.IsEnabled,
			AllowedMemberTypes:      d.AllowedMemberTypes,
		}
		if d.Value != "" {
			rec.ProvisioningInfo = byValue[d.Value]
		}
		records = append(records, rec)
	}
	return records
}

// DeriveType classifies a description: Application when application members
// may hold it, Admin when it requires admin consent, Delegated otherwise.
func DeriveType(d Description) Type {
	switch {
	case slices.Contains(d.AllowedMemberTypes, string(TypeApplication)):
		return TypeApplication
	case d.IsAdmin:
		return TypeAdmin
	default:
		return TypeDelegated
	}
}
