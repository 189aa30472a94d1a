package chain

import (
	"context"
	"time"

	"golang.org/x/xerrors"
)

const (
	batchDelay = 500 * time.Millisecond
	emptyDelay = time.Second
)

// EventHandler consumes decoded chain logs for the topics it registers.
type EventHandler interface {
	Topics() []string
	Handle(ctx context.Context, topic string, entry Log) error
}

// NodeAPI is the slice of the rpc client the listener needs.
type NodeAPI interface {
	NewFilter(ctx context.Context, query FilterQuery) (string, error)
	GetFilterChanges(ctx context.Context, filterID string) ([]Log, error)
	UninstallFilter(ctx context.Context, filterID string) (bool, error)
}

// Listener runs a single threaded poll loop over a node side log filter.
// Handlers are resolved at registration, one failing event never aborts the
// loop or the rest of its batch.
type Listener struct {
	node      NodeAPI
	handlers  map[string]EventHandler
	fromBlock string
}

func NewListener(node NodeAPI) *Listener {
	return &Listener{
		node:     node,
		handlers: make(map[string]EventHandler),
	}
}

func (l *Listener) SetFromBlock(block string) {
	l.fromBlock = block
}

func (l *Listener) Register(handler EventHandler) error {
	for _, topic := range handler.Topics() {
		if _, exist := l.handlers[topic]; exist {
			return xerrors.Errorf("topic %s already registered", topic)
		}
		l.handlers[topic] = handler
	}
	return nil
}

func (l *Listener) topics() []string {
	topics := make([]string, 0, len(l.handlers))
	for topic := range l.handlers {
		topics = append(topics, topic)
	}
	return topics
}

// Run installs the filter and polls until ctx is cancelled. Filter setup
// failure is returned as-is, there is no retry for it. The filter is
// uninstalled on every exit path.
func (l *Listener) Run(ctx context.Context) error {
	query := FilterQuery{
		Topics: [][]string{l.topics()}, // nested array = OR
	}
	if l.fromBlock != "" {
		query.FromBlock = l.fromBlock
	}

	filterID, err := l.node.NewFilter(ctx, query)
	if err != nil {
		return xerrors.Errorf("install filter: %w", err)
	}

	log.Infow("filter installed", "filterId", filterID)
	defer l.cleanup(filterID)

	for {
		if err := sleepCtx(ctx, 0); err != nil {
			return nil
		}

		logs, err := l.node.GetFilterChanges(ctx, filterID)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Warnf("get filter changes failed: %v", err)
			if err := sleepCtx(ctx, emptyDelay); err != nil {
				return nil
			}
			continue
		}

		if len(logs) == 0 {
			if err := sleepCtx(ctx, emptyDelay); err != nil {
				return nil
			}
			continue
		}

		for _, entry := range logs {
			l.dispatch(ctx, entry)
		}

		if err := sleepCtx(ctx, batchDelay); err != nil {
			return nil
		}
	}
}

func (l *Listener) dispatch(ctx context.Context, entry Log) {
	if len(entry.Topics) == 0 {
		log.Debugw("log entry without topics, skipping", "block", entry.BlockNumber)
		return
	}

	for _, topic := range entry.Topics {
		handler, exist := l.handlers[topic]
		if !exist {
			continue
		}

		if err := handler.Handle(ctx, topic, entry); err != nil {
			log.Errorw("event handler failed",
				"topic", topic,
				"tx", entry.TransactionHash,
				"block", entry.BlockNumber,
				"err", err)
		}
	}
}

func (l *Listener) cleanup(filterID string) {
	// the run ctx may already be cancelled, cleanup gets its own deadline
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done, err := l.node.UninstallFilter(ctx, filterID)
	if err != nil {
		log.Warnf("uninstall filter %s failed: %v", filterID, err)
		return
	}
	if done {
		log.Infow("filter cleaned up", "filterId", filterID)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d == 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
