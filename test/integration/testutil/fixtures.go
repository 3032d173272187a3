package testutil

import (
	"github.com/shopspring/decimal"

	"gemnet/pkg/model"
)

type ListingBuilder struct {
	listing model.Listing
}

func NewListingBuilder() *ListingBuilder {
	return &ListingBuilder{
		listing: model.Listing{
			SellerID:     "seller-1",
			SellerName:   "Nimal Perera",
			GemName:      "Ceylon Blue Sapphire",
			Species:      "Corundum",
			Description:  "Unheated 3.2ct oval cut",
			ReservePrice: decimal.NewFromInt(50000),
			Currency:     "LKR",
		},
	}
}

func (b *ListingBuilder) WithSeller(id, name string) *ListingBuilder {
	b.listing.SellerID = id
	b.listing.SellerName = name
	return b
}

func (b *ListingBuilder) WithGemName(name string) *ListingBuilder {
	b.listing.GemName = name
	return b
}

func (b *ListingBuilder) WithSpecies(species string) *ListingBuilder {
	b.listing.Species = species
	return b
}

func (b *ListingBuilder) WithReservePrice(amount int64) *ListingBuilder {
	b.listing.ReservePrice = decimal.NewFromInt(amount)
	return b
}

func (b *ListingBuilder) Build() model.Listing {
	return b.listing
}

func ValidListing() model.Listing {
	return NewListingBuilder().Build()
}

func EmptyListing() model.Listing {
	return model.Listing{}
}

func ValidBid(listingID string, amount int64) model.BidRequest {
	return model.BidRequest{
		ListingID:  listingID,
		BidderID:   "bidder-1",
		BidderName: "Kamala Silva",
		BidAmount:  decimal.NewFromInt(amount),
	}
}

func BidFrom(listingID, bidderID, bidderName string, amount int64) model.BidRequest {
	return model.BidRequest{
		ListingID:  listingID,
		BidderID:   bidderID,
		BidderName: bidderName,
		BidAmount:  decimal.NewFromInt(amount),
	}
}
