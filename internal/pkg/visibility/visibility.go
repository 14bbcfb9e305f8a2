// Package visibility restricts lists of tenant-owned records to what the
// acting principal may see. Every multi-record read path goes through
// Filter before records are returned; the only exceptions are accessors
// explicitly suffixed Raw, reserved for platform-wide superadmin views.
package visibility

import (
	"strings"

	"github.com/strefex/strefex/internal/pkg/principal"
)

// Record is any tenant-owned row the filter can project.
type Record interface {
	// RecordTenant returns the owning tenant's slug.
	RecordTenant() string
	// RecordCreator returns the identity that authored the record.
	RecordCreator() string
	// RecordAssignee returns the identity the record is assigned to, or "".
	RecordAssignee() string
}

// Filter returns the subset of records the principal may see. It is a pure
// projection: input records are never mutated, and applying the filter twice
// yields the same result.
//
//   - superadmin and the external auditor see every record platform-wide
//   - everyone else is restricted to their own tenant
//   - admin, internal auditor and manager see the whole tenant
//   - user sees only records they authored or are assigned to
func Filter[T Record](p principal.Principal, records []T) []T {
	if p.Role == principal.RoleSuperadmin || p.Role == principal.RoleAuditorExternal {
		return records
	}

	out := make([]T, 0, len(records))
	for _, r := range records {
		if r.RecordTenant() != p.TenantID {
			continue
		}
		switch p.Role {
		case principal.RoleAdmin, principal.RoleAuditorInternal, principal.RoleManager:
			out = append(out, r)
		default:
			if matchesUser(r.RecordCreator(), p.UserID) || matchesUser(r.RecordAssignee(), p.UserID) {
				out = append(out, r)
			}
		}
	}
	return out
}

// matchesUser compares identity strings case-insensitively, additionally
// accepting a match on the local part of an email address.
func matchesUser(recordValue, userID string) bool {
	if recordValue == "" || userID == "" {
		return false
	}
	rv := strings.ToLower(strings.TrimSpace(recordValue))
	u := strings.ToLower(strings.TrimSpace(userID))
	if rv == u {
		return true
	}
	rvLocal, _, _ := strings.Cut(rv, "@")
	uLocal, _, _ := strings.Cut(u, "@")
	return rvLocal != "" && rvLocal == uLocal
}
