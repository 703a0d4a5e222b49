package backend

import (
	"bytes"
	"context"
	"net/http"
	"net/url"

	"github.com/ariefcatur/go-storefront-checkout/internal/catalog"
	"github.com/ariefcatur/go-storefront-checkout/internal/checkout"
	"github.com/ariefcatur/go-storefront-checkout/internal/customer"
	"github.com/ariefcatur/go-storefront-checkout/internal/ident"
)

type CatalogAPI struct{ c *Client }

// ListProducts treats a payload that is not a list as an empty catalog.
func (a *CatalogAPI) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	raw, err := a.c.do(ctx, http.MethodGet, "/products", nil)
	if err != nil {
		return nil, err
	}
	if t := bytes.TrimSpace(raw); len(t) == 0 || t[0] != '[' {
		return []catalog.Product{}, nil
	}
	return decode[[]catalog.Product](raw)
}

func (a *CatalogAPI) GetProduct(ctx context.Context, id ident.ID) (catalog.Product, error) {
	raw, err := a.c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id.String()), nil)
	if err != nil {
		return catalog.Product{}, err
	}
	return decode[catalog.Product](raw)
}

type CustomerAPI struct{ c *Client }

func (a *CustomerAPI) GetByID(ctx context.Context, id ident.ID) (customer.Customer, error) {
	raw, err := a.c.do(ctx, http.MethodGet, "/customers/"+url.PathEscape(id.String()), nil)
	if err != nil {
		return customer.Customer{}, err
	}
	return decode[customer.Customer](raw)
}

func (a *CustomerAPI) FindByEmail(ctx context.Context, email string) (customer.Customer, error) {
	raw, err := a.c.do(ctx, http.MethodPost, "/customers/by-email", map[string]string{"email": email})
	if err != nil {
		return customer.Customer{}, err
	}
	return decode[customer.Customer](raw)
}

func (a *CustomerAPI) Create(ctx context.Context, d customer.Data) (customer.Customer, error) {
	raw, err := a.c.do(ctx, http.MethodPost, "/customers", d)
	if err != nil {
		return customer.Customer{}, err
	}
	return decode[customer.Customer](raw)
}

type TransactionAPI struct{ c *Client }

func (a *TransactionAPI) Checkout(ctx context.Context, req checkout.TransactionRequest) (checkout.TransactionResponse, error) {
	raw, err := a.c.do(ctx, http.MethodPost, "/transactions/checkout", req)
	if err != nil {
		return checkout.TransactionResponse{}, err
	}
	return decode[checkout.TransactionResponse](raw)
}
