// Package authz is the single authorization policy. Roles come from
// Member.IsEditor and nowhere else; every check names a Capability.
package authz

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/core/domain"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// Capability is an (object, action) pair from policy.csv.
type Capability struct {
	Object string
	Action string
}

func (c Capability) String() string {
	return c.Object + ":" + c.Action
}

var (
	IngestClick  = Capability{Object: "click", Action: "ingest"}
	ReadStats    = Capability{Object: "stats", Action: "read"}
	WriteCatalog = Capability{Object: "catalog", Action: "write"}
)

// Policy answers capability checks for actors.
type Policy struct {
	enforcer *casbin.SyncedEnforcer
}

// NewPolicy loads the embedded RBAC model and rules.
func NewPolicy() (*Policy, error) {
	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("load casbin model: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create casbin enforcer: %w", err)
	}

	if err := loadPolicy(enforcer, embeddedPolicy); err != nil {
		return nil, err
	}
	return &Policy{enforcer: enforcer}, nil
}

// MustPolicy is NewPolicy for wiring code; the embedded policy is static.
func MustPolicy() *Policy {
	p, err := NewPolicy()
	if err != nil {
		panic(err)
	}
	return p
}

func loadPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		switch {
		case parts[0] == "p" && len(parts) == 4:
			if _, err := enforcer.AddPolicy(parts[1], parts[2], parts[3]); err != nil {
				return fmt.Errorf("add policy %v: %w", parts[1:], err)
			}
		case parts[0] == "g" && len(parts) == 3:
			if _, err := enforcer.AddGroupingPolicy(parts[1], parts[2]); err != nil {
				return fmt.Errorf("add grouping policy %v: %w", parts[1:], err)
			}
		default:
			return fmt.Errorf("malformed policy line %q", line)
		}
	}
	return nil
}

// Can reports whether actor holds capability. Unknown roles hold nothing.
func (p *Policy) Can(actor domain.Actor, c Capability) bool {
	role := actor.Role
	if role == "" {
		role = domain.RoleAnonymous
	}
	allowed, err := p.enforcer.Enforce(string(role), c.Object, c.Action)
	return err == nil && allowed
}

// Require returns ErrUnauthorized for anonymous actors and ErrForbidden for
// authenticated ones lacking the capability.
func (p *Policy) Require(actor domain.Actor, c Capability) error {
	if p.Can(actor, c) {
		return nil
	}
	if actor.Role == "" || actor.Role == domain.RoleAnonymous {
		return fmt.Errorf("%s: %w", c, domain.ErrUnauthorized)
	}
	return fmt.Errorf("%s requires more than %s: %w", c, actor.Role, domain.ErrForbidden)
}
