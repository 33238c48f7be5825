package vault

import (
	"fmt"

	"onre/native/token"
)

// Accounts captures the venue-owned accounts a settlement operates with. The
// Authority account is compared against each mint's authority to select the
// mint/burn path; Vault is the pre-funded fallback liquidity; Boss receives
// forwarded input funds; Intermediary is the escrow hop of the
// permissionless flow.
type Accounts struct {
	Authority    string
	Vault        string
	Boss         string
	Intermediary string
}

// SettleInput routes the paid-in side of a settlement. When the venue holds
// the input mint's authority the input is burned out of the payer's balance;
// otherwise the full amount (fee included) is forwarded to the boss account.
// The burned flag reports which path was taken.
func SettleInput(ledger token.Ledger, acct Accounts, payer, mint string, amount uint64) (burned bool, err error) {
	authority, err := ledger.MintAuthorityOf(mint)
	if err != nil {
		return false, err
	}
	if acct.Authority != "" && authority == acct.Authority {
		if err := ledger.Burn(payer, mint, amount); err != nil {
			return false, err
		}
		return true, nil
	}
	if err := ledger.Transfer(payer, acct.Boss, mint, amount); err != nil {
		return false, err
	}
	return false, nil
}

// SettleOutput routes the paid-out side of a settlement. When the venue
// holds the output mint's authority the amount is minted directly to the
// recipient; otherwise it is transferred out of the vault's pre-funded
// balance, failing with ErrInsufficientOfferBalance when the vault cannot
// cover it. The minted flag reports which path was taken.
//
// Input and output sides are selected independently per mint: one side may
// mint while the other transfers within the same call.
func SettleOutput(ledger token.Ledger, acct Accounts, recipient, mint string, amount uint64) (minted bool, err error) {
	authority, err := ledger.MintAuthorityOf(mint)
	if err != nil {
		return false, err
	}
	if acct.Authority != "" && authority == acct.Authority {
		if err := ledger.Mint(recipient, mint, amount); err != nil {
			return false, err
		}
		return true, nil
	}
	balance, err := ledger.BalanceOf(acct.Vault, mint)
	if err != nil {
		return false, err
	}
	if balance < amount {
		return false, fmt.Errorf("%w: vault holds %d %s, need %d", ErrInsufficientOfferBalance, balance, mint, amount)
	}
	if err := ledger.Transfer(acct.Vault, recipient, mint, amount); err != nil {
		return false, err
	}
	return false, nil
}

// EnsureOutputCoverage rejects a settlement before any balance moves when
// the output leg cannot be paid: a transfer leg larger than the vault's
// holding, or a mint leg larger than the mint's remaining supply headroom.
// The check keeps a failed settlement from leaving the input side half
// settled.
func EnsureOutputCoverage(ledger token.Ledger, acct Accounts, mint string, amount uint64) error {
	authority, err := ledger.MintAuthorityOf(mint)
	if err != nil {
		return err
	}
	if acct.Authority != "" && authority == acct.Authority {
		headroom, err := ledger.MintHeadroomOf(mint)
		if err != nil {
			return err
		}
		if headroom < amount {
			return fmt.Errorf("%w: %s headroom %d, need %d", token.ErrMaxSupplyExceeded, mint, headroom, amount)
		}
		return nil
	}
	balance, err := ledger.BalanceOf(acct.Vault, mint)
	if err != nil {
		return err
	}
	if balance < amount {
		return fmt.Errorf("%w: vault holds %d %s, need %d", ErrInsufficientOfferBalance, balance, mint, amount)
	}
	return nil
}

// settleDirect executes both legs against the payer and recipient directly.
func settleDirect(ledger token.Ledger, acct Accounts, payer, recipient, inMint, outMint string, amountIn, amountOut uint64) (inputBurned, outputMinted bool, err error) {
	if err := EnsureOutputCoverage(ledger, acct, outMint, amountOut); err != nil {
		return false, false, err
	}
	inputBurned, err = SettleInput(ledger, acct, payer, inMint, amountIn)
	if err != nil {
		return false, false, err
	}
	outputMinted, err = SettleOutput(ledger, acct, recipient, outMint, amountOut)
	if err != nil {
		return inputBurned, false, err
	}
	return inputBurned, outputMinted, nil
}

// settlePermissionless routes both legs through the intermediary custody
// account in two hops so a caller without authority over the destination can
// still trigger settlement. The intermediary must end the call with a zero
// balance in both mints; a residual is a correctness failure, not a rounding
// artifact.
func settlePermissionless(ledger token.Ledger, acct Accounts, payer, recipient, inMint, outMint string, amountIn, amountOut uint64) (inputBurned, outputMinted bool, err error) {
	if acct.Intermediary == "" {
		return false, false, fmt.Errorf("vault: intermediary account not configured")
	}
	if err := EnsureOutputCoverage(ledger, acct, outMint, amountOut); err != nil {
		return false, false, err
	}
	if err := ledger.Transfer(payer, acct.Intermediary, inMint, amountIn); err != nil {
		return false, false, err
	}
	inputBurned, err = SettleInput(ledger, acct, acct.Intermediary, inMint, amountIn)
	if err != nil {
		return false, false, err
	}
	outputMinted, err = SettleOutput(ledger, acct, acct.Intermediary, outMint, amountOut)
	if err != nil {
		return inputBurned, false, err
	}
	if err := ledger.Transfer(acct.Intermediary, recipient, outMint, amountOut); err != nil {
		return inputBurned, outputMinted, err
	}
	for _, mint := range []string{inMint, outMint} {
		residual, err := ledger.BalanceOf(acct.Intermediary, mint)
		if err != nil {
			return inputBurned, outputMinted, err
		}
		if residual != 0 {
			return inputBurned, outputMinted, fmt.Errorf("%w: %d %s", ErrIntermediaryResidual, residual, mint)
		}
	}
	return inputBurned, outputMinted, nil
}
