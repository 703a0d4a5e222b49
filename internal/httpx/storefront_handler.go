package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ariefcatur/go-storefront-checkout/internal/cart"
	"github.com/ariefcatur/go-storefront-checkout/internal/catalog"
	"github.com/ariefcatur/go-storefront-checkout/internal/checkout"
	"github.com/ariefcatur/go-storefront-checkout/internal/customer"
	"github.com/ariefcatur/go-storefront-checkout/internal/ident"
	"github.com/ariefcatur/go-storefront-checkout/internal/pricing"
	"github.com/ariefcatur/go-storefront-checkout/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const HeaderSessionID = "X-Session-Id"

type StorefrontHandler struct {
	Sessions *session.Registry
	Catalog  *catalog.Loader
	Log      *zap.Logger
}

type CartResp struct {
	Lines      []cart.Line      `json:"lines"`
	TotalItems int              `json:"totalItems"`
	Pricing    pricing.Snapshot `json:"pricing"`
}

type AddItemReq struct {
	ProductID ident.ID `json:"productId"`
}

type CheckoutReq struct {
	Customer customer.Data     `json:"customer"`
	Card     checkout.CardData `json:"card"`
}

type CheckoutResp struct {
	Outcome *checkout.Outcome `json:"outcome,omitempty"`
	Result  checkout.Result   `json:"result"`
	Error   string            `json:"error,omitempty"`
}

func (h *StorefrontHandler) Register(r chi.Router) {
	// checkout routes carry no timeout: a submitted transaction runs to completion
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(15 * time.Second))
		r.Get("/products", h.listProducts)
		r.Get("/products/{id}", h.getProduct)
	})

	r.Get("/cart", h.getCart)
	r.Delete("/cart", h.clearCart)
	r.Post("/cart/items", h.addItem)
	r.Delete("/cart/items/{id}", h.removeItem)
	r.Post("/cart/items/{id}/increment", h.incrementItem)
	r.Post("/cart/items/{id}/decrement", h.decrementItem)

	r.Get("/checkout", h.getCheckout)
	r.Post("/checkout", h.submitCheckout)
	r.Post("/checkout/reset", h.resetCheckout)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func (h *StorefrontHandler) session(w http.ResponseWriter, r *http.Request) *checkout.Orchestrator {
	id, o := h.Sessions.Get(r.Header.Get(HeaderSessionID))
	w.Header().Set(HeaderSessionID, id)
	return o
}

func (h *StorefrontHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Catalog.Products(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, catalog.Filter(products, r.URL.Query().Get("q")))
}

func (h *StorefrontHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.Catalog.Product(r.Context(), ident.Parse(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, lookupStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *StorefrontHandler) getCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, cartResp(h.session(w, r)))
}

func (h *StorefrontHandler) clearCart(w http.ResponseWriter, r *http.Request) {
	o := h.session(w, r)
	o.Clear()
	writeJSON(w, http.StatusOK, cartResp(o))
}

// addItem enforces the storefront rule that sold-out products cannot be added.
func (h *StorefrontHandler) addItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ProductID.IsZero() {
		writeError(w, http.StatusBadRequest, "missing productId")
		return
	}
	o := h.session(w, r)

	p, err := h.product(r.Context(), req.ProductID)
	if err != nil {
		writeError(w, lookupStatus(err), err.Error())
		return
	}
	if !catalog.InStock(p) {
		writeError(w, http.StatusConflict, "out of stock")
		return
	}
	o.Add(p)
	writeJSON(w, http.StatusOK, cartResp(o))
}

func (h *StorefrontHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	o := h.session(w, r)
	o.Remove(ident.Parse(chi.URLParam(r, "id")))
	writeJSON(w, http.StatusOK, cartResp(o))
}

// incrementItem refuses to grow a line past the latest known stock.
func (h *StorefrontHandler) incrementItem(w http.ResponseWriter, r *http.Request) {
	o := h.session(w, r)
	id := ident.Parse(chi.URLParam(r, "id"))

	line, ok := o.Cart().Line(id)
	if !ok {
		writeError(w, http.StatusNotFound, "item not in cart")
		return
	}
	stock := line.Stock
	if p, ok := h.Catalog.Find(id); ok {
		stock = p.Stock
	}
	if !catalog.CanIncrement(line.Quantity, stock) {
		writeError(w, http.StatusConflict, "not enough stock")
		return
	}
	o.Increment(id)
	writeJSON(w, http.StatusOK, cartResp(o))
}

func (h *StorefrontHandler) decrementItem(w http.ResponseWriter, r *http.Request) {
	o := h.session(w, r)
	o.Decrement(ident.Parse(chi.URLParam(r, "id")))
	writeJSON(w, http.StatusOK, cartResp(o))
}

func (h *StorefrontHandler) getCheckout(w http.ResponseWriter, r *http.Request) {
	o := h.session(w, r)
	writeJSON(w, http.StatusOK, CheckoutResp{Result: o.Result()})
}

func (h *StorefrontHandler) resetCheckout(w http.ResponseWriter, r *http.Request) {
	o := h.session(w, r)
	o.Reset()
	writeJSON(w, http.StatusOK, CheckoutResp{Result: o.Result()})
}

func (h *StorefrontHandler) submitCheckout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	o := h.session(w, r)

	// a client disconnect must not abort a submitted transaction
	out, err := o.Submit(context.WithoutCancel(r.Context()), req.Customer, req.Card)
	resp := CheckoutResp{Result: o.Result()}
	if out.Kind != "" {
		resp.Outcome = &out
	}
	if err == nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	resp.Error = out.Message
	if resp.Error == "" {
		resp.Error = err.Error()
	}
	var declined *checkout.DeclinedError
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		writeJSON(w, http.StatusBadRequest, resp)
	case errors.Is(err, checkout.ErrCheckoutInProgress), errors.Is(err, checkout.ErrResultNotReset):
		writeJSON(w, http.StatusConflict, resp)
	case errors.As(err, &declined):
		writeJSON(w, http.StatusPaymentRequired, resp)
	default:
		writeJSON(w, http.StatusBadGateway, resp)
	}
}

func (h *StorefrontHandler) product(ctx context.Context, id ident.ID) (catalog.Product, error) {
	if p, ok := h.Catalog.Find(id); ok {
		return p, nil
	}
	return h.Catalog.Product(ctx, id)
}

func cartResp(o *checkout.Orchestrator) CartResp {
	c := o.Cart()
	return CartResp{
		Lines:      c.Lines(),
		TotalItems: c.TotalItems(),
		Pricing:    o.Totals(),
	}
}

func lookupStatus(err error) int {
	if customer.IsNotFound(err) {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}
