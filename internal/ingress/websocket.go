package ingress

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/arbbot/internal/chain"
)

// WebsocketStream subscribes to a push feed over a websocket, grounded on
// the teacher's stream/helius.go dial-and-subscribe shape, generalized from
// a single mock SwapEvent parse into the two canonical update kinds (account
// and transaction notifications) this pipeline needs, decoded through
// wireFrame instead of the teacher's map[string]interface{} spot-parsing.
type WebsocketStream struct {
	endpoint      string
	subscriptions []map[string]interface{}
	logger        *logrus.Logger

	conn   *websocket.Conn
	cancel context.CancelFunc
}

// WebsocketConfig configures a WebsocketStream.
type WebsocketConfig struct {
	Endpoint      string
	Subscriptions []map[string]interface{}
	Logger        *logrus.Logger
}

func NewWebsocketStream(cfg WebsocketConfig) *WebsocketStream {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &WebsocketStream{endpoint: cfg.Endpoint, subscriptions: cfg.Subscriptions, logger: cfg.Logger}
}

var _ StreamProvider = (*WebsocketStream)(nil)

// Start dials the endpoint, sends every configured subscription, and reads
// frames until ctx is canceled or the connection drops, reconnecting with
// exponential backoff — the same retry shape as the teacher's rpc.Client.Call
// applied to a long-lived socket instead of a single request.
func (w *WebsocketStream) Start(ctx context.Context, onAccount AccountHandler, onTx TransactionHandler) error {
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := w.connectAndListen(ctx, onAccount, onTx)
		if err == nil || ctx.Err() != nil {
			return ctx.Err()
		}
		w.logger.WithError(err).WithField("backoff", backoff).Warn("stream disconnected, reconnecting")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (w *WebsocketStream) connectAndListen(ctx context.Context, onAccount AccountHandler, onTx TransactionHandler) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.endpoint, nil)
	if err != nil {
		return fmt.Errorf("ingress: websocket dial %s: %w", w.endpoint, err)
	}
	w.conn = conn
	defer conn.Close()

	for _, sub := range w.subscriptions {
		if err := conn.WriteJSON(sub); err != nil {
			return fmt.Errorf("ingress: websocket subscribe: %w", err)
		}
	}
	w.logger.WithField("endpoint", w.endpoint).Info("connected to stream endpoint")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		var frame wireNotification
		if err := conn.ReadJSON(&frame); err != nil {
			return fmt.Errorf("ingress: websocket read: %w", err)
		}

		switch frame.Method {
		case "accountNotification":
			update, err := decodeAccountFrame(frame)
			if err != nil {
				w.logger.WithError(err).Debug("dropping unparsable account frame")
				continue
			}
			if onAccount != nil {
				onAccount(ctx, chain.FromStreamUpdate(update))
			}
		case "transactionNotification":
			grpcUpdate, err := decodeTransactionFrame(frame)
			if err != nil {
				w.logger.WithError(err).Debug("dropping unparsable transaction frame")
				continue
			}
			tx, err := chain.ToUnifiedFromGrpc(grpcUpdate)
			if err != nil {
				w.logger.WithError(err).Debug("dropping transaction frame that failed canonicalization")
				continue
			}
			if onTx != nil {
				onTx(ctx, tx)
			}
		}
	}
}

// Stop tears down an active connection.
func (w *WebsocketStream) Stop() error {
	if w.cancel != nil {
		w.cancel()
	}
	if w.conn != nil {
		return w.conn.Close()
	}
	return nil
}
