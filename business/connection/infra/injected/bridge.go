package injected

import (
	"context"
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/fd1az/web3-connect/business/connection/domain"
	"github.com/fd1az/web3-connect/internal/logger"
	"github.com/fd1az/web3-connect/internal/wsconn"
)

// bridgeMessage is an EIP-1193 event forwarded by the wallet bridge.
//
//	{"event":"chainChanged","data":"0x1"}
//	{"event":"accountsChanged","data":["0xabc..."]}
type bridgeMessage struct {
	Event domain.Event    `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Bridge receives wallet events pushed over a websocket.
type Bridge struct {
	ws     *wsconn.Client
	hub    *EventHub
	logger logger.LoggerInterface
}

// NewBridge creates a bridge to url publishing to hub.
func NewBridge(url string, hub *EventHub, log logger.LoggerInterface) (*Bridge, error) {
	ws, err := wsconn.New(wsconn.DefaultConfig(url, "wallet-bridge"))
	if err != nil {
		return nil, err
	}

	b := &Bridge{ws: ws, hub: hub, logger: log}
	ws.OnMessage(b.handle)
	ws.OnStateChange(func(state wsconn.State, err error) {
		if err != nil {
			log.Warn(context.Background(), "wallet bridge state changed", "state", state, "error", err)
			return
		}
		log.Debug(context.Background(), "wallet bridge state changed", "state", state)
	})
	return b, nil
}

// Start connects, retrying with backoff until ctx ends.
func (b *Bridge) Start(ctx context.Context) error {
	return b.ws.ConnectWithRetry(ctx)
}

// Close disconnects the bridge.
func (b *Bridge) Close() error {
	return b.ws.Close()
}

func (b *Bridge) handle(ctx context.Context, raw []byte) {
	var msg bridgeMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		b.logger.Warn(ctx, "invalid wallet bridge message", "error", err)
		return
	}

	switch msg.Event {
	case domain.EventChainChanged:
		var id hexutil.Uint64
		if err := json.Unmarshal(msg.Data, &id); err != nil {
			b.logger.Warn(ctx, "invalid chainChanged payload", "error", err)
			return
		}
		b.hub.Emit(domain.EventChainChanged, domain.EventPayload{ChainID: uint64(id)})

	case domain.EventAccountsChanged:
		var accounts []common.Address
		if err := json.Unmarshal(msg.Data, &accounts); err != nil {
			b.logger.Warn(ctx, "invalid accountsChanged payload", "error", err)
			return
		}
		b.hub.Emit(domain.EventAccountsChanged, domain.EventPayload{Accounts: accounts})

	default:
		b.logger.Debug(ctx, "ignoring wallet bridge event", "event", msg.Event)
	}
}
