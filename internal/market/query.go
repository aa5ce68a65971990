package market

import (
	"time"

	"github.com/cruisectl/truthmarket/pkg/fixedpoint"
	"github.com/cruisectl/truthmarket/pkg/types"
)

// OptionSnapshot is one option's view in the market snapshot.
type OptionSnapshot struct {
	Option      string            `json:"option"`
	TokenDenom  string            `json:"token_denom"`
	TotalStaked fixedpoint.Amount `json:"total_staked"`
	Odds        fixedpoint.Dec    `json:"odds"`
}

// Snapshot is the read-only configuration-plus-state view served to
// external consumers.
type Snapshot struct {
	ID               string            `json:"id"`
	Address          string            `json:"address"`
	Status           string            `json:"status"`
	WinningOption    string            `json:"winning_option,omitempty"`
	Options          [2]OptionSnapshot `json:"options"`
	BuyToken         string            `json:"buy_token"`
	TotalValue       types.Coin        `json:"total_value"`
	NumBettors       uint64            `json:"num_bettors"`
	Volume           fixedpoint.Amount `json:"volume"`
	StartTime        time.Time         `json:"start_time"`
	EndTime          time.Time         `json:"end_time"`
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	BannerURL        string            `json:"banner_url"`
	ResolutionSource string            `json:"resolution_source"`
	AssetToTrack     string            `json:"asset_to_track"`
	Rule             Rule              `json:"rule"`
	TargetPrice      fixedpoint.Dec    `json:"target_price"`
	InitialPrice     fixedpoint.Dec    `json:"initial_price"`
}

// Snapshot returns the market's external view.
func (m *Market) Snapshot() Snapshot {
	odds := Odds(&m.cfg, &m.state)
	snap := Snapshot{
		ID:      m.cfg.ID,
		Address: m.address,
		Status:  m.state.Status.Phase().String(),
		Options: [2]OptionSnapshot{
			{
				Option:      m.cfg.Options[0].Text,
				TokenDenom:  m.cfg.Options[0].TokenDenom,
				TotalStaked: m.state.TotalStakeA,
				Odds:        odds[0].Odds,
			},
			{
				Option:      m.cfg.Options[1].Text,
				TokenDenom:  m.cfg.Options[1].TokenDenom,
				TotalStaked: m.state.TotalStakeB,
				Odds:        odds[1].Odds,
			},
		},
		BuyToken:         m.cfg.BuyToken,
		TotalValue:       m.state.TotalValue,
		NumBettors:       m.state.NumBettors,
		Volume:           m.state.Volume,
		StartTime:        m.cfg.StartTime,
		EndTime:          m.cfg.EndTime,
		Title:            m.cfg.Title,
		Description:      m.cfg.Description,
		BannerURL:        m.cfg.BannerURL,
		ResolutionSource: m.cfg.ResolutionSource,
		AssetToTrack:     m.cfg.AssetToTrack,
		Rule:             m.cfg.Rule,
		TargetPrice:      m.cfg.TargetPrice,
		InitialPrice:     m.cfg.InitialPrice,
	}
	if winner, ok := m.state.Status.Winner(); ok {
		snap.WinningOption = winner.Text
	}
	return snap
}

// ShareView is one share record with its owner and option, as served to
// external consumers.
type ShareView struct {
	User      string     `json:"user"`
	Option    string     `json:"option"`
	Amount    types.Coin `json:"amount"`
	Withdrawn bool       `json:"has_withdrawn"`
}

func (m *Market) shareViews(entries []ShareEntry) []ShareView {
	views := make([]ShareView, 0, len(entries))
	for _, e := range entries {
		views = append(views, ShareView{
			User:      e.Key.User,
			Option:    e.Key.Option,
			Amount:    types.NewCoin(m.cfg.BuyToken, e.Share.Amount),
			Withdrawn: e.Share.Withdrawn,
		})
	}
	return views
}

// UserShares returns the user's share records (at most two).
func (m *Market) UserShares(user string) []ShareView {
	return m.shareViews(m.shares.ForUser(user, m.cfg.Options))
}

// AllShares returns every share record in stable order.
func (m *Market) AllShares() []ShareView {
	return m.shareViews(m.shares.All())
}

// OptionTotal is one option's aggregate stake.
type OptionTotal struct {
	Option      string     `json:"option"`
	TokenDenom  string     `json:"token_denom"`
	TotalStaked types.Coin `json:"total_staked"`
}

// TotalsPerOption returns both options' aggregate stakes in slot order.
func (m *Market) TotalsPerOption() [2]OptionTotal {
	return [2]OptionTotal{
		{
			Option:      m.cfg.Options[0].Text,
			TokenDenom:  m.cfg.Options[0].TokenDenom,
			TotalStaked: types.NewCoin(m.cfg.BuyToken, m.state.TotalStakeA),
		},
		{
			Option:      m.cfg.Options[1].Text,
			TokenDenom:  m.cfg.Options[1].TokenDenom,
			TotalStaked: types.NewCoin(m.cfg.BuyToken, m.state.TotalStakeB),
		},
	}
}

// Odds returns both options' current odds, labeled, in slot order.
func (m *Market) Odds() [2]OptionOdds {
	return Odds(&m.cfg, &m.state)
}

// PotentialWinnings returns the user's potential payout per option.
func (m *Market) PotentialWinnings(user string) [2]OptionWinnings {
	return PotentialWinnings(&m.cfg, &m.state, m.shares, user)
}

// ActualWinnings returns the user's realized payout under the resolved
// outcome, zero when unresolved or the user holds no winning share.
func (m *Market) ActualWinnings(user string) types.Coin {
	return ActualWinnings(&m.cfg, &m.state, m.shares, user)
}

// TaxRate returns the current sell-side exit tax rate.
func (m *Market) TaxRate(now time.Time) fixedpoint.Dec {
	return TaxRate(&m.cfg, now)
}

// SimulateSell previews the tax/commission breakdown of selling amount of
// an option at now, without mutating anything. The figures are exactly
// those a real sell at the same timestamp would apply.
func (m *Market) SimulateSell(option string, amount fixedpoint.Amount, now time.Time) (SellQuote, error) {
	if _, _, ok := m.cfg.OptionByText(option); !ok {
		return SellQuote{}, types.ErrValidation("invalid option %q", option)
	}
	if amount.IsZero() {
		return SellQuote{}, types.ErrValidation("sell amount must be positive")
	}
	return quoteSell(&m.cfg, amount, now), nil
}
