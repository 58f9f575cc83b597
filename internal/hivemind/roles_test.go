package hivemind

import (
	"testing"

	"github.com/apiarylabs/apiary/pkg/models"
)

func containsRole(roles []Role, want Role) bool {
	for _, r := range roles {
		if r == want {
			return true
		}
	}
	return false
}

func TestClassifyTaskRoles(t *testing.T) {
	tests := []struct {
		name      string
		task      string
		wantRoles []Role
		notWant   []Role
	}{
		{
			name:      "architect always included",
			task:      "ponder the universe",
			wantRoles: []Role{RoleArchitect},
			notWant:   []Role{RoleCoder, RoleTester, RoleSecurity},
		},
		{
			name:      "implementation keywords pull in coder",
			task:      "implement a new module",
			wantRoles: []Role{RoleArchitect, RoleCoder},
		},
		{
			name:      "testing keywords pull in tester",
			task:      "validate the output format",
			wantRoles: []Role{RoleArchitect, RoleTester},
		},
		{
			name:      "security keywords pull in auditor",
			task:      "check for sql injection holes",
			wantRoles: []Role{RoleArchitect, RoleReviewer, RoleSecurity},
		},
		{
			name:      "bug keywords pull in debugger",
			task:      "fix the crash on startup",
			wantRoles: []Role{RoleArchitect, RoleDebugger},
		},
		{
			name:      "docs keywords pull in documenter",
			task:      "update the readme",
			wantRoles: []Role{RoleArchitect, RoleDocumenter},
		},
		{
			name:      "case insensitive",
			task:      "IMPLEMENT THE PARSER",
			wantRoles: []Role{RoleArchitect, RoleCoder},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyTaskRoles(tt.task)
			for _, want := range tt.wantRoles {
				if !containsRole(got, want) {
					t.Errorf("ClassifyTaskRoles(%q) = %v, missing %q", tt.task, got, want)
				}
			}
			for _, not := range tt.notWant {
				if containsRole(got, not) {
					t.Errorf("ClassifyTaskRoles(%q) = %v, should not include %q", tt.task, got, not)
				}
			}
		})
	}
}

func TestRole_Tier(t *testing.T) {
	tests := []struct {
		role Role
		want models.ModelTier
	}{
		{RoleArchitect, models.TierPremium},
		{RoleSecurity, models.TierPremium},
		{RoleCoder, models.TierMid},
		{RoleReviewer, models.TierMid},
		{RoleTester, models.TierMid},
		{RoleDebugger, models.TierMid},
		{RoleDocumenter, models.TierBudget},
		{RoleOutputReviewer, models.TierBudget},
		{RoleTaskVerifier, models.TierBudget},
	}

	for _, tt := range tests {
		if got := tt.role.Tier(); got != tt.want {
			t.Errorf("%s.Tier() = %q, want %q", tt.role, got, tt.want)
		}
	}
}

func TestAllRoles_OrderedAndComplete(t *testing.T) {
	roles := AllRoles()
	if len(roles) != 9 {
		t.Fatalf("AllRoles() returned %d roles, want 9", len(roles))
	}
	if roles[0] != RoleArchitect {
		t.Errorf("first role = %q, want Architect", roles[0])
	}
	for i := 1; i < len(roles); i++ {
		if roles[i-1].ExecutionOrder() >= roles[i].ExecutionOrder() {
			t.Errorf("roles out of execution order at index %d: %q before %q", i, roles[i-1], roles[i])
		}
	}
}

func TestRole_SystemPromptsAreDistinct(t *testing.T) {
	seen := make(map[string]Role)
	for _, role := range AllRoles() {
		prompt := role.SystemPrompt()
		if prompt == "" {
			t.Errorf("%s has an empty system prompt", role)
		}
		if prior, dup := seen[prompt]; dup {
			t.Errorf("%s and %s share a system prompt", role, prior)
		}
		seen[prompt] = role
	}
}
