package wallet

import (
	"fmt"
	"strings"

	"github.com/strimboom/boombucks/internal/config"
)

// Policy holds the money-movement rules that used to be hard-coded.
type Policy struct {
	Currency string
	// ReferralThreshold is the cumulative purchase volume that triggers the reward.
	ReferralThreshold Amount
	// ReferralReward is credited to the referrer once per relationship.
	ReferralReward Amount
	// RequireRecipient refuses donations to streams without an owner. When
	// false, such donations debit the donor and credit nobody.
	RequireRecipient bool
}

func DefaultPolicy() Policy {
	return Policy{
		Currency:          "BBS",
		ReferralThreshold: 3,
		ReferralReward:    1,
		RequireRecipient:  true,
	}
}

func PolicyFromConfig(cfg config.LedgerConfig) Policy {
	return Policy{
		Currency:          strings.ToUpper(strings.TrimSpace(cfg.Currency)),
		ReferralThreshold: Amount(cfg.ReferralThreshold),
		ReferralReward:    Amount(cfg.ReferralReward),
		RequireRecipient:  cfg.RequireRecipient,
	}
}

func (p Policy) Validate() error {
	if p.Currency == "" {
		return fmt.Errorf("currency: %w", ErrInvalidArgument)
	}

	if p.ReferralThreshold <= 0 {
		return fmt.Errorf("referral threshold %d: %w", p.ReferralThreshold, ErrInvalidAmount)
	}

	if p.ReferralReward <= 0 {
		return fmt.Errorf("referral reward %d: %w", p.ReferralReward, ErrInvalidAmount)
	}

	return nil
}

// resolveCurrency maps an empty tag to the ledger currency and rejects any
// other unit.
func (p Policy) resolveCurrency(currency string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(currency))
	if c == "" {
		return p.Currency, nil
	}

	if c != p.Currency {
		return "", fmt.Errorf("%q: %w", currency, ErrUnsupportedCurrency)
	}

	return c, nil
}
