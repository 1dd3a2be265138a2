package domain

import "github.com/shopspring/decimal"

// Macro is a placeholder token recognised inside creative markup.
type Macro string

const (
	MacroAuctionPrice       Macro = "${AUCTION_PRICE}"
	MacroAuctionPriceEnc    Macro = "${AUCTION_PRICE:ENC}"
	MacroSSPAuctionPriceEnc Macro = "${SSP_AUCTION_PRICE:ENC}"
	MacroFirstBidEnc        Macro = "${FIRST_BID:ENC}"
	MacroSecondBidEnc       Macro = "${SECOND_BID:ENC}"
	MacroThirdBidEnc        Macro = "${THIRD_BID:ENC}"
)

// CreativeInput carries the fields of one bid response that a creative
// render needs. AdID is the nonce seed shared by every encoded macro.
type CreativeInput struct {
	AdID         string
	Markup       string
	AuctionPrice Price

	// ExchangeRate adjusts the externally visible clearing price. Nil, zero
	// and one leave it unchanged.
	ExchangeRate *decimal.Decimal

	// Competing bids; nil renders the macro as an empty string.
	FirstBid  *Price
	SecondBid *Price
	ThirdBid  *Price
}
