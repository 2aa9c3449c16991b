package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/ec-checkout/internal/domain/address"
	"github.com/example/ec-checkout/internal/domain/cart"
	"github.com/example/ec-checkout/internal/infrastructure/store"
)

var ErrOrderNotFound = errors.New("order not found")

type Handler struct {
	readStore store.ReadStoreInterface
	addresses address.Book
}

func NewHandler(readStore store.ReadStoreInterface, addresses address.Book) *Handler {
	return &Handler{readStore: readStore, addresses: addresses}
}

// Cart
func (h *Handler) GetCart(ctx context.Context, userID string) (*CartReadModel, error) {
	cartID := cart.GetCartID(userID)
	data, ok, err := h.readStore.Get(ctx, store.CollectionCarts, cartID)
	if err != nil {
		return nil, fmt.Errorf("get cart %s: %w", cartID, err)
	}
	if !ok {
		return &CartReadModel{
			ID:     cartID,
			UserID: userID,
			Items:  []CartItemReadModel{},
		}, nil
	}
	return data.(*CartReadModel), nil
}

// Orders

// GetOrder returns ErrOrderNotFound for another user's order
func (h *Handler) GetOrder(ctx context.Context, userID, orderID string) (*OrderReadModel, error) {
	data, ok, err := h.readStore.Get(ctx, store.CollectionOrders, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", orderID, err)
	}
	if !ok {
		return nil, ErrOrderNotFound
	}
	o := data.(*OrderReadModel)
	if o.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (h *Handler) ListOrdersByUser(ctx context.Context, userID string) ([]*OrderReadModel, error) {
	items, err := h.readStore.GetAllByUser(ctx, store.CollectionOrders, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	orders := make([]*OrderReadModel, 0, len(items))
	for _, item := range items {
		orders = append(orders, item.(*OrderReadModel))
	}
	return orders, nil
}

// Addresses
func (h *Handler) ListAddresses(ctx context.Context, userID string) ([]address.Address, error) {
	list, err := h.addresses.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	if list == nil {
		list = []address.Address{}
	}
	return list, nil
}
