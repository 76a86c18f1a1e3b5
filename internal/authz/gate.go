// Package authz decides whether an extracted principal may perform a named
// operation, given the required-role policy loaded from configuration.
package authz

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rs/zerolog/log"

	"github.com/Rainier-MSFT/ID360Model/internal/core"
	"github.com/Rainier-MSFT/ID360Model/internal/roles"
)

// Operations gated by this service.
const (
	OperationLookup    = "directory.lookup"
	OperationWhoami    = "whoami"
	OperationAuditRead = "audit.read"
)

// RoleAny is the special required-role value meaning "any authenticated
// caller". It is satisfied by the mere presence of the authenticated role.
const RoleAny = "*"

// Operation binds a name to its required-role set and an optional compiled
// condition that must also hold.
type Operation struct {
	Name string `yaml:"name" json:"name"`

	// RequiredRoles uses OR semantics: holding any one role is sufficient.
	RequiredRoles []string `yaml:"required_roles" json:"required_roles"`

	// Expr is an optional condition over {Identity, Roles, Claims}.
	// Evaluation errors deny.
	Expr string `yaml:"expr,omitempty" json:"expr,omitempty"`

	compiled *vm.Program
}

// DefaultOperations is the policy used when the config file declares none.
func DefaultOperations() []Operation {
	return []Operation{
		{Name: OperationLookup, RequiredRoles: []string{"Directory.Reader", "Admin"}},
		{Name: OperationWhoami, RequiredRoles: []string{RoleAny}},
		{Name: OperationAuditRead, RequiredRoles: []string{"Admin"}},
	}
}

// Gate evaluates authorization decisions against the configured operations.
type Gate struct {
	ops map[string]*Operation
}

// NewGate compiles any expression conditions and indexes the operations.
func NewGate(operations []Operation) (*Gate, error) {
	ops := make(map[string]*Operation, len(operations))
	for i := range operations {
		op := operations[i]
		if op.Name == "" {
			return nil, fmt.Errorf("operation at index %d has empty name", i)
		}
		if op.Expr != "" {
			program, err := expr.Compile(op.Expr, expr.AsBool())
			if err != nil {
				return nil, fmt.Errorf("compiling condition for operation %q: %w", op.Name, err)
			}
			op.compiled = program
		}
		ops[op.Name] = &op
	}
	return &Gate{ops: ops}, nil
}

// Authorize decides whether the principal may perform the named operation.
// Unknown operations fail closed.
func (g *Gate) Authorize(principal *core.Principal, operation string) core.AuthorizationDecision {
	decision := core.AuthorizationDecision{
		Operation:   operation,
		ActualRoles: principal.Roles,
	}

	op, ok := g.ops[operation]
	if !ok {
		decision.Reason = "operation not covered by policy"
		return decision
	}
	decision.RequiredRoles = op.RequiredRoles

	matched := false
	for _, required := range op.RequiredRoles {
		if required == RoleAny {
			if principal.HasRole(roles.RoleAuthenticated) {
				matched = true
				break
			}
			continue
		}
		if principal.HasRole(required) {
			matched = true
			break
		}
	}
	if !matched {
		decision.Reason = "required role not held"
		return decision
	}

	if op.compiled != nil {
		ok, err := runCondition(op.compiled, principal)
		if err != nil {
			log.Warn().Err(err).Str("operation", operation).
				Msg("policy condition evaluation failed, denying")
			decision.Reason = "policy condition error"
			return decision
		}
		if !ok {
			decision.Reason = "policy condition not satisfied"
			return decision
		}
	}

	decision.Allowed = true
	return decision
}

func runCondition(program *vm.Program, principal *core.Principal) (bool, error) {
	out, err := expr.Run(program, map[string]any{
		"Identity": principal.DisplayIdentity,
		"Roles":    principal.Roles,
		"Claims":   principal.Claims,
	})
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	return ok && b, nil
}
