package domain

import "fmt"

// Connection is a saved link from an identity to an externally-held account,
// carrying a default reference for repeat transfers. At most one connection
// exists per (identity, target account) pair.
type Connection struct {
	id        string
	identity  *Identity
	target    *Account
	reference string
}

func NewConnection(id string, identity *Identity, target *Account, reference string) (*Connection, error) {
	if identity == nil || target == nil {
		return nil, fmt.Errorf("connection requires an identity and a target account")
	}
	if reference == "" {
		reference = DefaultReference
	}
	return &Connection{id: id, identity: identity, target: target, reference: reference}, nil
}

func (c *Connection) ID() string        { return c.id }
func (c *Connection) Target() *Account  { return c.target }
func (c *Connection) Reference() string { return c.reference }
