package main

import (
	"github.com/example/ec-checkout/internal/domain/catalog"
	"github.com/example/ec-checkout/internal/domain/coupon"
	"github.com/shopspring/decimal"
)

// seedData is the demo catalog and coupon set for STORE_MODE=memory
func seedData() ([]catalog.Product, []coupon.Coupon) {
	products := []catalog.Product{
		{ID: "p-notebook", Name: "A5 Dotted Notebook", Price: 34900, Category: "stationery", VendorID: "v-paperworks"},
		{ID: "p-fountain-pen", Name: "Fountain Pen", Price: 129900, Category: "stationery", VendorID: "v-inkhouse"},
		{ID: "p-tote", Name: "Canvas Tote Bag", Price: 59900, Category: "bags", VendorID: "v-paperworks"},
		{ID: "p-mug", Name: "Ceramic Mug", Price: 24900, Category: "kitchen", VendorID: "v-claycraft"},
	}
	coupons := []coupon.Coupon{
		{
			Code:           "FLASH10",
			Kind:           coupon.Percentage,
			Value:          decimal.NewFromInt(10),
			MinOrderAmount: 50000,
			Scope:          coupon.Scope{Kind: coupon.ScopeGlobal},
		},
		{
			Code:           "WELCOME100",
			Kind:           coupon.FixedAmount,
			Value:          decimal.NewFromInt(10000),
			MinOrderAmount: 99900,
			Scope:          coupon.Scope{Kind: coupon.ScopeGlobal},
		},
		{
			Code:  "INK15",
			Kind:  coupon.Percentage,
			Value: decimal.NewFromInt(15),
			Scope: coupon.Scope{Kind: coupon.ScopeVendor, Target: "v-inkhouse"},
		},
		{
			Code:  "STATIONERY5",
			Kind:  coupon.Percentage,
			Value: decimal.NewFromInt(5),
			Scope: coupon.Scope{Kind: coupon.ScopeCategory, Target: "stationery"},
		},
	}
	return products, coupons
}
