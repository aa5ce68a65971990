package market

import (
	"time"

	"github.com/cruisectl/truthmarket/pkg/fixedpoint"
)

// commissionAmount returns floor(amount * bps / 10000).
func commissionAmount(amount fixedpoint.Amount, bps uint32) fixedpoint.Amount {
	return amount.MulDivFloor(fixedpoint.NewAmount(uint64(bps)), fixedpoint.NewAmount(MaxCommissionBps))
}

// TaxRate returns the sell-side exit tax rate at now: elapsed/duration,
// clamped to [0, 1]. Zero at or before start, one at or after end, and zero
// when the configured window is degenerate (duration <= 0).
func TaxRate(cfg *Config, now time.Time) fixedpoint.Dec {
	duration := cfg.EndTime.Unix() - cfg.StartTime.Unix()
	if duration <= 0 {
		return fixedpoint.ZeroDec()
	}
	elapsed := now.Unix() - cfg.StartTime.Unix()
	if elapsed <= 0 {
		return fixedpoint.ZeroDec()
	}
	if elapsed >= duration {
		return fixedpoint.OneDec()
	}
	return fixedpoint.DecFromRatio(
		fixedpoint.NewAmount(uint64(elapsed)),
		fixedpoint.NewAmount(uint64(duration)),
	)
}

// SellQuote is the full cost breakdown of selling a gross amount at a given
// time. A real sell executed at the same timestamp applies exactly these
// figures; SimulateSell returns the same struct.
type SellQuote struct {
	AmountSent     fixedpoint.Amount `json:"amount_sent"`
	TaxRate        fixedpoint.Dec    `json:"tax_rate"`
	TaxAmount      fixedpoint.Amount `json:"tax_amount"`
	AmountAfterTax fixedpoint.Amount `json:"amount_after_tax"`
	Commission     fixedpoint.Amount `json:"commission_amount"`
	NetPayout      fixedpoint.Amount `json:"net_payout"`
}

// quoteSell derives the tax-then-commission breakdown for a gross sell
// amount at now. The time tax applies first; commission is taken on the
// post-tax amount. Every step floors.
func quoteSell(cfg *Config, amount fixedpoint.Amount, now time.Time) SellQuote {
	rate := TaxRate(cfg, now)

	// remaining = 1 - rate; rate is clamped to [0, 1] so this cannot fail.
	remaining, err := fixedpoint.OneDec().Sub(rate)
	if err != nil {
		panic(err)
	}

	afterTax := remaining.MulAmountFloor(amount)
	taxAmount, err := amount.Sub(afterTax)
	if err != nil {
		panic(err)
	}

	commission := commissionAmount(afterTax, cfg.CommissionBps)
	net, err := afterTax.Sub(commission)
	if err != nil {
		panic(err)
	}

	return SellQuote{
		AmountSent:     amount,
		TaxRate:        rate,
		TaxAmount:      taxAmount,
		AmountAfterTax: afterTax,
		Commission:     commission,
		NetPayout:      net,
	}
}
