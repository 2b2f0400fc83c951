package authz

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"
)

// RBAC with role inheritance; "*" as a policy action grants every action.
const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && (r.act == p.act || p.act == "*")
`

// Resources
const (
	ResourceContent    = "content"
	ResourceGiveaway   = "giveaway"
	ResourceUpload     = "upload"
	ResourceModeration = "moderation"
	ResourceDashboard  = "dashboard"
	ResourceUsers      = "users"
	ResourceSlots      = "slots"
)

// Actions
const (
	ActionRead   = "read"
	ActionWrite  = "write"
	ActionEnter  = "enter"
	ActionReview = "review"
	ActionManage = "manage"
)

// roles listed from least to most privileged; each inherits the previous one
var roleChain = []string{"user", "moderator", "admin"}

var defaultPolicies = [][]string{
	{"user", ResourceContent, ActionWrite},
	{"user", ResourceGiveaway, ActionEnter},
	{"user", ResourceUpload, ActionWrite},
	{"user", ResourceSlots, ActionRead},

	{"moderator", ResourceModeration, ActionReview},
	{"moderator", ResourceModeration, ActionRead},
	{"moderator", ResourceDashboard, ActionRead},
	{"moderator", ResourceContent, ActionManage},

	{"admin", ResourceUsers, "*"},
	{"admin", ResourceSlots, "*"},
	{"admin", ResourceGiveaway, ActionManage},
}

// Authorizer role permission checks backed by casbin
type Authorizer struct {
	enforcer *casbin.Enforcer
}

// New builds an in-memory enforcer loaded with the marketplace policies.
func New() (*Authorizer, error) {
	m, err := casbinmodel.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("authz model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("authz enforcer: %w", err)
	}

	for i := 1; i < len(roleChain); i++ {
		if _, err := e.AddGroupingPolicy(roleChain[i], roleChain[i-1]); err != nil {
			return nil, fmt.Errorf("authz role %s: %w", roleChain[i], err)
		}
	}
	for _, p := range defaultPolicies {
		if _, err := e.AddPolicy(p[0], p[1], p[2]); err != nil {
			return nil, fmt.Errorf("authz policy %v: %w", p, err)
		}
	}
	return &Authorizer{enforcer: e}, nil
}

// Allowed reports whether role may perform act on obj. Unknown roles are denied.
func (a *Authorizer) Allowed(role, obj, act string) bool {
	ok, err := a.enforcer.Enforce(role, obj, act)
	return err == nil && ok
}

// IsStaff moderator or above
func (a *Authorizer) IsStaff(role string) bool {
	return a.Allowed(role, ResourceModeration, ActionReview)
}

// ValidRole reports whether role is a known role.
func ValidRole(role string) bool {
	for _, r := range roleChain {
		if r == role {
			return true
		}
	}
	return false
}
