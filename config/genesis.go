package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// GenesisMint declares a token mint seeded at first boot.
type GenesisMint struct {
	Symbol    string `yaml:"symbol"`
	Decimals  uint8  `yaml:"decimals"`
	Authority string `yaml:"authority"`
	MaxSupply uint64 `yaml:"maxSupply"`
}

// GenesisBalance seeds an opening balance for an account.
type GenesisBalance struct {
	Account string `yaml:"account"`
	Mint    string `yaml:"mint"`
	Amount  uint64 `yaml:"amount"`
}

// GenesisGovernance seeds the initial authority set.
type GenesisGovernance struct {
	Boss            string   `yaml:"boss"`
	Admins          []string `yaml:"admins"`
	Approvers       []string `yaml:"approvers"`
	RedemptionAdmin string   `yaml:"redemptionAdmin"`
}

// GenesisAccounts names the venue-owned settlement accounts.
type GenesisAccounts struct {
	Authority        string `yaml:"authority"`
	Vault            string `yaml:"vault"`
	Intermediary     string `yaml:"intermediary"`
	RedemptionEscrow string `yaml:"redemptionEscrow"`
}

// Genesis describes the venue's initial state. It is applied once, when the
// store holds no governance record yet.
type Genesis struct {
	Mints      []GenesisMint     `yaml:"mints"`
	Balances   []GenesisBalance  `yaml:"balances"`
	Governance GenesisGovernance `yaml:"governance"`
	Accounts   GenesisAccounts   `yaml:"accounts"`
}

// LoadGenesis reads and validates a genesis file.
func LoadGenesis(path string) (*Genesis, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	genesis := &Genesis{}
	if err := yaml.Unmarshal(raw, genesis); err != nil {
		return nil, fmt.Errorf("genesis %s: %w", path, err)
	}
	if err := genesis.Validate(); err != nil {
		return nil, fmt.Errorf("genesis %s: %w", path, err)
	}
	return genesis, nil
}

// Validate checks the genesis document for internal consistency.
func (g *Genesis) Validate() error {
	if strings.TrimSpace(g.Governance.Boss) == "" {
		return fmt.Errorf("governance.boss must be set")
	}
	if strings.TrimSpace(g.Accounts.Authority) == "" {
		return fmt.Errorf("accounts.authority must be set")
	}
	if strings.TrimSpace(g.Accounts.Vault) == "" {
		return fmt.Errorf("accounts.vault must be set")
	}
	if strings.TrimSpace(g.Accounts.Intermediary) == "" {
		return fmt.Errorf("accounts.intermediary must be set")
	}
	if strings.TrimSpace(g.Accounts.RedemptionEscrow) == "" {
		return fmt.Errorf("accounts.redemptionEscrow must be set")
	}
	seen := make(map[string]bool, len(g.Mints))
	for i, mint := range g.Mints {
		symbol := strings.ToUpper(strings.TrimSpace(mint.Symbol))
		if symbol == "" {
			return fmt.Errorf("mints[%d]: symbol must be set", i)
		}
		if seen[symbol] {
			return fmt.Errorf("mints[%d]: duplicate symbol %s", i, symbol)
		}
		seen[symbol] = true
	}
	for i, balance := range g.Balances {
		if strings.TrimSpace(balance.Account) == "" {
			return fmt.Errorf("balances[%d]: account must be set", i)
		}
		symbol := strings.ToUpper(strings.TrimSpace(balance.Mint))
		if !seen[symbol] {
			return fmt.Errorf("balances[%d]: unknown mint %s", i, balance.Mint)
		}
	}
	return nil
}
