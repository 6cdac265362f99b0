package injected

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/web3-connect/business/connection/domain"
	"github.com/fd1az/web3-connect/internal/logger"
	"github.com/fd1az/web3-connect/internal/ratelimit"
)

// walletState is what the poller needs from the provider.
type walletState interface {
	Accounts(ctx context.Context) ([]common.Address, error)
	ChainID(ctx context.Context) (uint64, error)
}

// Poller turns periodic eth_accounts / eth_chainId reads into wallet events.
// The first successful read sets the baseline and emits nothing.
type Poller struct {
	wallet  walletState
	hub     *EventHub
	limiter *ratelimit.Limiter
	logger  logger.LoggerInterface

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	primed   bool
	chainID  uint64
	accounts []common.Address
}

// NewPoller creates a poller reading wallet every interval.
func NewPoller(wallet walletState, hub *EventHub, interval time.Duration, log logger.LoggerInterface) *Poller {
	return &Poller{
		wallet:  wallet,
		hub:     hub,
		limiter: ratelimit.Every(interval, 1),
		logger:  log,
	}
}

// Start launches the polling loop.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.run(ctx, p.done)
	return nil
}

// Close stops the loop and waits for it to exit.
func (p *Poller) Close() error {
	p.mu.Lock()
	cancel := p.cancel
	done := p.done
	p.cancel = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	return nil
}

func (p *Poller) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		if err := p.limiter.Wait(ctx); err != nil {
			return
		}
		p.poll(ctx)
	}
}

func (p *Poller) poll(ctx context.Context) {
	chainID, err := p.wallet.ChainID(ctx)
	if err != nil {
		p.logger.Debug(ctx, "wallet chain poll failed", "error", err)
		return
	}
	accounts, err := p.wallet.Accounts(ctx)
	if err != nil {
		p.logger.Debug(ctx, "wallet accounts poll failed", "error", err)
		return
	}

	p.mu.Lock()
	primed := p.primed
	chainChanged := primed && chainID != p.chainID
	accountsChanged := primed && !slices.Equal(accounts, p.accounts)
	p.primed = true
	p.chainID = chainID
	p.accounts = accounts
	p.mu.Unlock()

	if chainChanged {
		p.hub.Emit(domain.EventChainChanged, domain.EventPayload{ChainID: chainID})
	}
	if accountsChanged {
		p.hub.Emit(domain.EventAccountsChanged, domain.EventPayload{Accounts: accounts})
	}
}
