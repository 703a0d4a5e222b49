// Package customer resolves the backend customer record a checkout is
// charged to.
package customer

import (
	"context"
	"errors"

	"github.com/ariefcatur/go-storefront-checkout/internal/ident"
	"go.uber.org/zap"
)

var ErrResolution = errors.New("customer id not obtained")

// Data is the contact and shipping information typed at checkout.
type Data struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Address  string `json:"address"`
	City     string `json:"city"`
}

// Customer is a directory record. Depending on the endpoint the identifier
// arrives as id or customerId.
type Customer struct {
	ID         ident.ID `json:"id"`
	CustomerID ident.ID `json:"customerId"`
	Email      string   `json:"email,omitempty"`
	FullName   string   `json:"fullName,omitempty"`
	Address    string   `json:"address,omitempty"`
	City       string   `json:"city,omitempty"`
}

// Identifier prefers id and falls back to customerId when id is absent.
func (c Customer) Identifier() ident.ID {
	if c.ID != (ident.ID{}) {
		return c.ID
	}
	return c.CustomerID
}

type Directory interface {
	FindByEmail(ctx context.Context, email string) (Customer, error)
	Create(ctx context.Context, d Data) (Customer, error)
}

type Resolver struct {
	dir Directory
	log *zap.Logger
}

func NewResolver(dir Directory, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{dir: dir, log: log}
}

// Resolve finds the customer by email, creating it only when the directory
// answers not-found. Any other lookup failure is returned unchanged.
func (r *Resolver) Resolve(ctx context.Context, d Data) (ident.ID, error) {
	var id ident.ID

	existing, err := r.dir.FindByEmail(ctx, d.Email)
	switch {
	case err == nil:
		id = existing.Identifier()
	case IsNotFound(err):
		created, err := r.dir.Create(ctx, d)
		if err != nil {
			return ident.ID{}, err
		}
		id = created.Identifier()
		r.log.Info("customer created", zap.Stringer("customer_id", id))
	default:
		return ident.ID{}, err
	}

	if id.IsZero() {
		return ident.ID{}, ErrResolution
	}
	return id, nil
}

// IsNotFound reports whether err, or an error it wraps, is a not-found
// answer from a backend.
func IsNotFound(err error) bool {
	var nf interface{ NotFound() bool }
	return errors.As(err, &nf) && nf.NotFound()
}
