package visibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/strefex/strefex/internal/pkg/principal"
)

type record struct {
	tenant   string
	creator  string
	assignee string
}

func (r record) RecordTenant() string   { return r.tenant }
func (r record) RecordCreator() string  { return r.creator }
func (r record) RecordAssignee() string { return r.assignee }

var sampleRecords = []record{
	{tenant: "acme.com", creator: "john@acme.com"},
	{tenant: "acme.com", creator: "boss@acme.com", assignee: "john@acme.com"},
	{tenant: "acme.com", creator: "jane@acme.com"},
	{tenant: "other.com", creator: "eva@other.com"},
	{tenant: "other.com", creator: "eva@other.com", assignee: "mark@other.com"},
}

func TestSuperadminAndExternalAuditorSeeEverything(t *testing.T) {
	for _, role := range []principal.Role{principal.RoleSuperadmin, principal.RoleAuditorExternal} {
		p := principal.Principal{Role: role, TenantID: "platform", UserID: "ops@strefex.com"}
		assert.Len(t, Filter(p, sampleRecords), len(sampleRecords), "role %s", role)
	}
}

func TestTenantStaffSeeWholeTenant(t *testing.T) {
	for _, role := range []principal.Role{principal.RoleAdmin, principal.RoleManager, principal.RoleAuditorInternal} {
		p := principal.Principal{Role: role, TenantID: "acme.com", UserID: "staff@acme.com"}
		got := Filter(p, sampleRecords)
		assert.Len(t, got, 3, "role %s", role)
		for _, r := range got {
			assert.Equal(t, "acme.com", r.tenant)
		}
	}
}

func TestUserSeesOnlyOwnOrAssigned(t *testing.T) {
	p := principal.Principal{Role: principal.RoleUser, TenantID: "acme.com", UserID: "john@acme.com"}
	got := Filter(p, sampleRecords)
	assert.Len(t, got, 2)
	for _, r := range got {
		assert.True(t, r.creator == "john@acme.com" || r.assignee == "john@acme.com")
	}
}

func TestGuestSeesNothing(t *testing.T) {
	assert.Empty(t, Filter(principal.Anonymous(), sampleRecords))
}

func TestMatchesUserAcceptsLocalPart(t *testing.T) {
	assert.True(t, matchesUser("john@acme.com", "John@Acme.com"))
	assert.True(t, matchesUser("john", "john@acme.com"))
	assert.True(t, matchesUser("john@acme.com", "john"))
	assert.False(t, matchesUser("jane@acme.com", "john@acme.com"))
	assert.False(t, matchesUser("", "john@acme.com"))
	assert.False(t, matchesUser("john@acme.com", ""))
}

func genRecords(t *rapid.T) []record {
	tenants := []string{"acme.com", "other.com", "third.io"}
	users := []string{"john@acme.com", "jane@acme.com", "eva@other.com", ""}
	return rapid.SliceOfN(rapid.Custom(func(t *rapid.T) record {
		return record{
			tenant:   rapid.SampledFrom(tenants).Draw(t, "tenant"),
			creator:  rapid.SampledFrom(users).Draw(t, "creator"),
			assignee: rapid.SampledFrom(users).Draw(t, "assignee"),
		}
	}), 0, 40).Draw(t, "records")
}

func genPrincipal(t *rapid.T) principal.Principal {
	return principal.Principal{
		Role:     rapid.SampledFrom(principal.AllRoles).Draw(t, "role"),
		TenantID: rapid.SampledFrom([]string{"acme.com", "other.com", "platform"}).Draw(t, "tenantID"),
		UserID:   rapid.SampledFrom([]string{"john@acme.com", "eva@other.com", "ops@strefex.com"}).Draw(t, "userID"),
	}
}

func TestFilterIsIdempotent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p := genPrincipal(rt)
		records := genRecords(rt)

		once := Filter(p, records)
		twice := Filter(p, once)
		assert.Equal(t, once, twice)
	})
}

func TestFilterNeverLeaksForeignTenants(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p := genPrincipal(rt)
		if p.Role == principal.RoleSuperadmin || p.Role == principal.RoleAuditorExternal {
			return
		}
		for _, r := range Filter(p, genRecords(rt)) {
			if r.tenant != p.TenantID {
				rt.Fatalf("role %s in %s saw record of %s", p.Role, p.TenantID, r.tenant)
			}
		}
	})
}

func TestFilterIsSubsetAndPreservesOrder(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p := genPrincipal(rt)
		records := genRecords(rt)
		got := Filter(p, records)

		if len(got) > len(records) {
			rt.Fatalf("filter grew the record set: %d > %d", len(got), len(records))
		}
		i := 0
		for _, r := range got {
			for i < len(records) && records[i] != r {
				i++
			}
			if i == len(records) {
				rt.Fatalf("record %+v not found in input order", r)
			}
			i++
		}
	})
}
