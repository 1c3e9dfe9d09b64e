package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Role names a memory namespace.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Roles returns every namespace in a fixed order.
func Roles() []Role {
	return []Role{RoleUser, RoleAssistant}
}

// ParseRole accepts "user" or "assistant", case-insensitively.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, nil
	case RoleAssistant:
		return RoleAssistant, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

// Namespaces holds one Driver per role.
type Namespaces struct {
	drivers map[Role]Driver
}

// NewNamespaces builds the namespace set by calling open once per role.
// Drivers opened before a failure are closed.
func NewNamespaces(open func(Role) (Driver, error)) (*Namespaces, error) {
	n := &Namespaces{drivers: make(map[Role]Driver, 2)}
	for _, role := range Roles() {
		d, err := open(role)
		if err != nil {
			_ = n.Close()
			return nil, fmt.Errorf("opening %s memory: %w", role, err)
		}
		n.drivers[role] = d
	}
	return n, nil
}

// For returns the driver for role.
func (n *Namespaces) For(role Role) (Driver, error) {
	if n == nil {
		return nil, ErrNotConfigured
	}
	d, ok := n.drivers[role]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	return d, nil
}

// Add stores text as a fact in role's namespace.
func (n *Namespaces) Add(ctx context.Context, role Role, text string) (string, error) {
	d, err := n.For(role)
	if err != nil {
		return "", err
	}
	return d.Add(ctx, text)
}

// Query searches role's namespace.
func (n *Namespaces) Query(ctx context.Context, role Role, text string, k int) ([]string, error) {
	d, err := n.For(role)
	if err != nil {
		return nil, err
	}
	return d.Query(ctx, text, k)
}

// Close closes every driver and joins their errors.
func (n *Namespaces) Close() error {
	if n == nil {
		return nil
	}
	var errs []error
	for _, d := range n.drivers {
		if err := d.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
