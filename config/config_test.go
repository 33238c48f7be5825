package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "onred.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.ListenAddress)
	require.Equal(t, "onre-local", cfg.NetworkName)
	require.NotEmpty(t, cfg.JWTSecret, "default config generates a secret")
	require.FileExists(t, path)

	// A second load round-trips the persisted file.
	again, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, again)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "onred.toml")
	require.NoError(t, os.WriteFile(path, []byte("JWTSecret = \"sekrit\"\nDataDir = \"/var/lib/onre\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/var/lib/onre", cfg.DataDir)
	require.Equal(t, ":8080", cfg.ListenAddress)
	require.Equal(t, ":9090", cfg.MetricsAddress)
	require.Equal(t, "onred", cfg.JWTIssuer)
}

func TestValidate(t *testing.T) {
	cfg := &Config{ListenAddress: ":8080", JWTSecret: "sekrit"}
	require.NoError(t, cfg.Validate())

	cfg.JWTSecret = " "
	require.ErrorIs(t, cfg.Validate(), errMissingSecret)

	cfg.JWTSecret = "sekrit"
	cfg.LogFileMaxSizeMB = -1
	require.Error(t, cfg.Validate())
}

const genesisDoc = `
mints:
  - symbol: usdc
    decimals: 6
    authority: circle
  - symbol: ONE
    decimals: 9
    authority: venue-authority
    maxSupply: 1000000000000000000
balances:
  - account: treasury
    mint: USDC
    amount: 5000000000
governance:
  boss: boss-address
  admins: [admin-1]
  approvers: [approver-1]
  redemptionAdmin: fulfiller
accounts:
  authority: venue-authority
  vault: vault-escrow
  intermediary: intermediary
  redemptionEscrow: redemption-escrow
`

func TestLoadGenesis(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(genesisDoc), 0o644))

	genesis, err := LoadGenesis(path)
	require.NoError(t, err)
	require.Len(t, genesis.Mints, 2)
	require.Equal(t, uint8(9), genesis.Mints[1].Decimals)
	require.Equal(t, "boss-address", genesis.Governance.Boss)
	require.Equal(t, "redemption-escrow", genesis.Accounts.RedemptionEscrow)
}

func TestGenesisValidate(t *testing.T) {
	base := func() *Genesis {
		return &Genesis{
			Mints: []GenesisMint{{Symbol: "USDC", Decimals: 6, Authority: "circle"}},
			Governance: GenesisGovernance{
				Boss: "boss",
			},
			Accounts: GenesisAccounts{
				Authority:        "venue-authority",
				Vault:            "vault-escrow",
				Intermediary:     "intermediary",
				RedemptionEscrow: "redemption-escrow",
			},
		}
	}

	require.NoError(t, base().Validate())

	missingBoss := base()
	missingBoss.Governance.Boss = " "
	require.Error(t, missingBoss.Validate())

	duplicate := base()
	duplicate.Mints = append(duplicate.Mints, GenesisMint{Symbol: "usdc"})
	require.Error(t, duplicate.Validate())

	orphanBalance := base()
	orphanBalance.Balances = []GenesisBalance{{Account: "treasury", Mint: "DOGE", Amount: 1}}
	require.Error(t, orphanBalance.Validate())
}
