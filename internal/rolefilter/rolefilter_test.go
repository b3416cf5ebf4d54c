package rolefilter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tamshai/hr-gateway/internal/model"
)

var testCfg = Config{
	FullAccessRoles: []string{"hr-admin", "executive"},
	TeamRoles:       []string{"manager"},
}

func caller(name string, roles ...string) model.CallerIdentity {
	return model.CallerIdentity{ID: "u-1", DisplayName: name, Roles: roles}
}

func TestBuildFullAccessWins(t *testing.T) {
	// full access dominates even when a team role is also present
	c := Build(caller("Alice", "manager", "hr-admin"), testCfg)
	assert.True(t, c.Unrestricted)
	assert.False(t, c.OwnerOrAssignee)
	assert.Empty(t, c.Caller)
}

func TestBuildTeamRole(t *testing.T) {
	c := Build(caller("Bob", "manager", "employee"), testCfg)
	assert.False(t, c.Unrestricted)
	assert.True(t, c.OwnerOrAssignee)
	assert.Equal(t, "Bob", c.Caller)
	assert.False(t, c.OwnerOnly())
}

func TestBuildDefaultOwnerOnly(t *testing.T) {
	for _, roles := range [][]string{nil, {}, {"employee", "intern"}} {
		c := Build(caller("Carol", roles...), testCfg)
		assert.True(t, c.OwnerOnly(), "roles %v", roles)
		assert.Equal(t, "Carol", c.Caller)
	}
}

func TestBuildEmptyConfig(t *testing.T) {
	// no configured privileged roles: everyone is owner-only
	c := Build(caller("Dave", "hr-admin"), Config{})
	assert.True(t, c.OwnerOnly())
}
