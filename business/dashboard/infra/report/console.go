// Package report contains the dashboard reporters.
package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fd1az/web3-connect/business/dashboard/domain"
	gasDomain "github.com/fd1az/web3-connect/business/gas/domain"
)

// ConsoleReporter implements Reporter for CLI output.
type ConsoleReporter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleReporter creates a new ConsoleReporter writing to stdout.
func NewConsoleReporter() *ConsoleReporter {
	return NewConsoleReporterTo(os.Stdout)
}

// NewConsoleReporterTo creates a ConsoleReporter writing to out.
func NewConsoleReporterTo(out io.Writer) *ConsoleReporter {
	return &ConsoleReporter{out: out}
}

// Start initializes the console reporter.
func (r *ConsoleReporter) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, "web3-connect Started")
	fmt.Fprintln(r.out, "====================")
	return nil
}

// Report prints a snapshot.
func (r *ConsoleReporter) Report(s *domain.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "================================================================================")
	if s.Block != nil {
		fmt.Fprintf(r.out, "Block:          #%d (%s)\n", s.Block.Number, s.Block.Timestamp.Format(time.RFC3339))
	} else {
		fmt.Fprintln(r.out, "Block:          unknown")
	}
	fmt.Fprintf(r.out, "Refreshed in:   %s\n", s.Duration.Round(time.Millisecond))
	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
	fmt.Fprintln(r.out, "CONNECTION")
	c := s.Connection
	fmt.Fprintf(r.out, "  Context:      %s (active=%t)\n", c.Context, c.Active)
	if c.Connector != "" {
		fmt.Fprintf(r.out, "  Connector:    %s\n", c.Connector)
	}
	fmt.Fprintf(r.out, "  Chain ID:     %d\n", c.ChainID)
	if c.CanSign() {
		fmt.Fprintf(r.out, "  Account:      %s\n", c.Account.Hex())
	} else {
		fmt.Fprintln(r.out, "  Account:      none (read-only)")
	}
	if c.Error != nil {
		fmt.Fprintf(r.out, "  Error:        %v\n", c.Error)
	}
	if c.WalletError != nil {
		fmt.Fprintf(r.out, "  Wallet error: %v\n", c.WalletError)
	}

	if s.Ether != nil || len(s.Balances) > 0 {
		fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
		fmt.Fprintln(r.out, "BALANCES")
		if s.Ether != nil {
			fmt.Fprintf(r.out, "  %-8s      %s\n", s.Ether.Asset().Symbol(), s.Ether.ToDecimal().StringFixed(6))
		}
		for _, b := range s.Balances {
			fmt.Fprintf(r.out, "  %-8s      %s\n", b.Asset().Symbol(), b.ToDecimal().StringFixed(6))
		}
	}

	if s.Exchange != nil {
		fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
		fmt.Fprintln(r.out, "EXCHANGE")
		fmt.Fprintf(r.out, "  Address:      %s\n", s.Exchange.Address.Hex())
		fmt.Fprintf(r.out, "  Fee:          %s%%\n", s.Exchange.FeePercent.StringFixed(4))
		for i, coin := range s.Exchange.Coins {
			fmt.Fprintf(r.out, "  Coin %d:       %s\n", i, coin.Hex())
		}
		if !s.Exchange.Quote.IsZero() {
			fmt.Fprintf(r.out, "  Quote:        1 -> %s\n", s.Exchange.Quote.StringFixed(6))
		}
	}

	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
	fmt.Fprintln(r.out, "GAS")
	for _, tier := range gasDomain.Tiers {
		marker := " "
		if tier == s.GasTier {
			marker = "*"
		}
		if p, ok := s.GasPrices[tier]; ok && p != nil {
			fmt.Fprintf(r.out, " %s %-8s      %s gwei (%s)\n", marker, tier, p.Gwei.StringFixed(2), p.Source)
		} else {
			fmt.Fprintf(r.out, " %s %-8s      -\n", marker, tier)
		}
	}

	if len(s.Errors) > 0 {
		fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
		fmt.Fprintln(r.out, "ERRORS")
		for _, err := range s.Errors {
			fmt.Fprintf(r.out, "  %v\n", err)
		}
	}
	fmt.Fprintln(r.out, "================================================================================")
}

// UpdateConnectionStatus outputs connection status changes.
func (r *ConsoleReporter) UpdateConnectionStatus(name string, connected bool, latency time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	status := "disconnected"
	if connected {
		status = fmt.Sprintf("connected (%s)", latency.Round(time.Millisecond))
	}
	fmt.Fprintf(r.out, "[%s] %s: %s\n", time.Now().Format("15:04:05"), name, status)
}

// Stop gracefully shuts down the console reporter.
func (r *ConsoleReporter) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "web3-connect Stopped")
	return nil
}
