package services

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"github.com/adscale/pricecrypt/api/internal/core/domain"
)

var macroPattern = compileMacroPattern(
	domain.MacroAuctionPrice,
	domain.MacroAuctionPriceEnc,
	domain.MacroSSPAuctionPriceEnc,
	domain.MacroFirstBidEnc,
	domain.MacroSecondBidEnc,
	domain.MacroThirdBidEnc,
)

func compileMacroPattern(macros ...domain.Macro) *regexp.Regexp {
	alts := make([]string, len(macros))
	for i, m := range macros {
		alts[i] = regexp.QuoteMeta(string(m))
	}
	return regexp.MustCompile(strings.Join(alts, "|"))
}

// truncationFunc observes a price that had to be cut to fit.
type truncationFunc func(macro domain.Macro, from, to domain.Price)

// RenderCreative replaces every recognised macro in in.Markup and leaves all
// other text untouched. Every price is resolved before any text is replaced,
// so a failure returns a *domain.MacroResolutionError and no markup at all.
//
// All encoded macros use in.AdID as nonce seed, so a holder of the matching
// key pair can decode each of them. Prices must be empty or plain
// non-negative decimals; anything else fails with domain.ErrInvalidPrice.
func RenderCreative(keys domain.PriceKeyring, in domain.CreativeInput) (string, error) {
	return renderCreative(keys, in, nil)
}

func renderCreative(keys domain.PriceKeyring, in domain.CreativeInput, onTruncate truncationFunc) (string, error) {
	values, err := resolveMacros(keys, in, onTruncate)
	if err != nil {
		return "", err
	}

	return macroPattern.ReplaceAllStringFunc(in.Markup, func(token string) string {
		return values[domain.Macro(token)]
	}), nil
}

func resolveMacros(keys domain.PriceKeyring, in domain.CreativeInput, onTruncate truncationFunc) (map[domain.Macro]string, error) {
	external, err := keys.ForContext(domain.KeyExternal)
	if err != nil {
		return nil, err
	}
	internal, err := keys.ForContext(domain.KeyInternal)
	if err != nil {
		return nil, err
	}

	if err := in.AuctionPrice.Validate(); err != nil {
		return nil, &domain.MacroResolutionError{Macro: domain.MacroAuctionPrice, Err: err}
	}

	r := &macroResolver{adID: in.AdID, onTruncate: onTruncate}

	// The external counterpart settles in its own currency; our backend
	// already knows the original one and gets the unadjusted price.
	adjusted, err := AdjustPrice(in.AuctionPrice, in.ExchangeRate)
	if err != nil {
		return nil, &domain.MacroResolutionError{Macro: domain.MacroAuctionPriceEnc, Err: err}
	}
	auctionPrice, err := r.truncate(domain.MacroAuctionPrice, adjusted)
	if err != nil {
		return nil, err
	}

	values := map[domain.Macro]string{
		domain.MacroAuctionPrice: string(auctionPrice),
	}

	if values[domain.MacroAuctionPriceEnc], err = r.encrypt(external, domain.MacroAuctionPriceEnc, adjusted); err != nil {
		return nil, err
	}
	if values[domain.MacroSSPAuctionPriceEnc], err = r.encrypt(internal, domain.MacroSSPAuctionPriceEnc, in.AuctionPrice); err != nil {
		return nil, err
	}

	bids := []struct {
		macro domain.Macro
		price *domain.Price
	}{
		{domain.MacroFirstBidEnc, in.FirstBid},
		{domain.MacroSecondBidEnc, in.SecondBid},
		{domain.MacroThirdBidEnc, in.ThirdBid},
	}
	for _, bid := range bids {
		if bid.price == nil {
			values[bid.macro] = ""
			continue
		}
		if err := bid.price.Validate(); err != nil {
			return nil, &domain.MacroResolutionError{Macro: bid.macro, Err: err}
		}
		if values[bid.macro], err = r.encrypt(internal, bid.macro, *bid.price); err != nil {
			return nil, err
		}
	}

	return values, nil
}

type macroResolver struct {
	adID       string
	onTruncate truncationFunc
}

func (r *macroResolver) truncate(macro domain.Macro, price domain.Price) (domain.Price, error) {
	truncated, err := TruncatePrice(price)
	if err != nil {
		return "", &domain.MacroResolutionError{Macro: macro, Err: err}
	}
	if truncated != price && r.onTruncate != nil {
		r.onTruncate(macro, price, truncated)
	}
	return truncated, nil
}

func (r *macroResolver) encrypt(c domain.PriceCrypter, macro domain.Macro, price domain.Price) (string, error) {
	truncated, err := r.truncate(macro, price)
	if err != nil {
		return "", err
	}
	encoded, err := c.Encrypt(r.adID, truncated)
	if err != nil {
		return "", &domain.MacroResolutionError{Macro: macro, Err: err}
	}
	return encoded, nil
}

// CreativeService renders creatives and reports failures that would corrupt
// settlement as system alerts.
type CreativeService struct {
	keys   domain.PriceKeyring
	alerts domain.AlertRecorder
	logger *slog.Logger
}

func NewCreativeService(keys domain.PriceKeyring, alerts domain.AlertRecorder, logger *slog.Logger) *CreativeService {
	return &CreativeService{
		keys:   keys,
		alerts: alerts,
		logger: logger.With(slog.String("component", "creative_service")),
	}
}

func (s *CreativeService) Render(ctx context.Context, in domain.CreativeInput) (string, error) {
	markup, err := renderCreative(s.keys, in, func(macro domain.Macro, from, to domain.Price) {
		s.logger.Warn("truncated price to fit into 8 bytes",
			slog.String("ad_id", in.AdID),
			slog.String("macro", string(macro)),
			slog.String("price", string(from)),
			slog.String("truncated", string(to)),
		)
	})
	if err != nil {
		s.reportFailure(ctx, in, err)
		return "", err
	}
	return markup, nil
}

func (s *CreativeService) reportFailure(ctx context.Context, in domain.CreativeInput, err error) {
	var resolveErr *domain.MacroResolutionError
	if !errors.As(err, &resolveErr) {
		s.logger.Error("creative render failed", slog.String("ad_id", in.AdID), slog.Any("error", err))
		return
	}

	s.logger.Error("creative render aborted",
		slog.String("ad_id", in.AdID),
		slog.String("macro", string(resolveErr.Macro)),
		slog.Any("error", resolveErr.Err),
	)

	if !errors.Is(err, domain.ErrPriceTooLarge) {
		return
	}

	alert := &domain.SystemAlert{
		Severity:   domain.SeverityCritical,
		Category:   domain.CategoryPriceEncoding,
		ResourceID: in.AdID,
		Message:    err.Error(),
		Metadata: map[string]any{
			"macro":         string(resolveErr.Macro),
			"auction_price": string(in.AuctionPrice),
		},
	}
	if alertErr := s.alerts.CreateAlert(ctx, alert); alertErr != nil {
		s.logger.Error("failed to record alert", slog.String("ad_id", in.AdID), slog.Any("error", alertErr))
	}
}
