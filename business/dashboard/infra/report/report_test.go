package report

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/web3-connect/business/dashboard/domain"
	gasDomain "github.com/fd1az/web3-connect/business/gas/domain"
	"github.com/fd1az/web3-connect/internal/asset"
	"github.com/fd1az/web3-connect/pkg/ui"
)

func testSnapshot() *domain.Snapshot {
	ether := asset.NewAmount(asset.ETH, big.NewInt(1_500_000_000_000_000_000))
	return &domain.Snapshot{
		Block: &domain.Block{Number: 12345, Timestamp: time.Unix(1_700_000_000, 0)},
		Connection: domain.Connection{
			Context:     "network",
			Connector:   "network",
			Active:      true,
			ChainID:     1,
			WalletError: errors.New("wallet not authorized"),
		},
		Ether:    &ether,
		Balances: []asset.Amount{asset.NewAmount(asset.USDC, big.NewInt(2_000_000))},
		Exchange: &domain.ExchangeInfo{
			Address:    common.HexToAddress("0xbEbc44782C7dB0a1A60Cb6fe97d0b483032FF1C7"),
			Coins:      []common.Address{asset.AddrDAI, asset.AddrUSDC},
			FeePercent: decimal.RequireFromString("0.04"),
			Quote:      decimal.RequireFromString("0.9996"),
		},
		GasPrices: map[gasDomain.Tier]*gasDomain.GasPrice{
			gasDomain.TierAverage: gasDomain.NewGasPrice(gasDomain.TierAverage, big.NewInt(35_000_000_000), "station"),
		},
		GasTier:  gasDomain.TierAverage,
		Errors:   []error{errors.New("gas: station unavailable")},
		Duration: 20 * time.Millisecond,
	}
}

func TestConsoleReporter_Report(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporterTo(&buf)

	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	r.Report(testSnapshot())
	r.UpdateConnectionStatus("RPC", true, 15*time.Millisecond)
	if err := r.Stop(); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{
		"Block:          #12345",
		"Context:      network (active=true)",
		"none (read-only)",
		"Wallet error: wallet not authorized",
		"ETH           1.500000",
		"USDC          2.000000",
		"Fee:          0.0400%",
		" * average       35.00 gwei (station)",
		"   fast          -",
		"gas: station unavailable",
		"RPC: connected (15ms)",
		"web3-connect Stopped",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}

func TestTUIReporter_SendsMessages(t *testing.T) {
	var sent []tea.Msg
	r := newTUIReporter(func(msg tea.Msg) { sent = append(sent, msg) })

	snap := testSnapshot()
	_ = r.Start(context.Background())
	r.Report(snap)
	r.UpdateConnectionStatus("Heads", false, 0)

	if len(sent) != 3 {
		t.Fatalf("sent %d messages, want 3", len(sent))
	}
	if msg, ok := sent[0].(ui.StartupMsg); !ok || msg.Step != "gas" {
		t.Errorf("first message = %#v", sent[0])
	}
	if msg, ok := sent[1].(ui.SnapshotMsg); !ok || msg.Snapshot != snap {
		t.Errorf("second message = %#v", sent[1])
	}
	if msg, ok := sent[2].(ui.ConnectionStatusMsg); !ok || msg.Name != "Heads" || msg.Connected {
		t.Errorf("third message = %#v", sent[2])
	}
}
