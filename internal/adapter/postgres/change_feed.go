package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/internal/domain/types"
	"github.com/hpyride/hpyride/pkg/logger"
	wrap "github.com/hpyride/hpyride/pkg/logger/wrapper"
)

// ChangeChannel is the NOTIFY channel written by the notify_row_change trigger.
const ChangeChannel = "row_changes"

type Dispatcher interface {
	Dispatch(c models.RowChange) (int, error)
}

// ChangeListener turns Postgres notifications into row changes for the dispatcher.
// It holds one pooled connection for as long as it runs.
type ChangeListener struct {
	db         *pgxpool.Pool
	channel    string
	dispatcher Dispatcher
	log        logger.Logger
}

func NewChangeListener(db *pgxpool.Pool, dispatcher Dispatcher, log logger.Logger) *ChangeListener {
	return &ChangeListener{
		db:         db,
		channel:    ChangeChannel,
		dispatcher: dispatcher,
		log:        log,
	}
}

// Run listens until ctx is done. A lost connection ends Run with an error.
func (l *ChangeListener) Run(ctx context.Context) error {
	const op = "ChangeListener.Run"
	ctx = wrap.WithChannel(ctx, l.channel)

	conn, err := l.db.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("%s: acquire: %w", op, err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return fmt.Errorf("%s: listen: %w", op, err)
	}
	l.log.Info(wrap.WithAction(ctx, types.ActionChangeFeedListening), "listening for row changes")

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if errors.Is(ctx.Err(), context.Canceled) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
				l.log.Info(wrap.WithAction(context.WithoutCancel(ctx), types.ActionChangeFeedStopped), "change feed stopped")
				return nil
			}
			return fmt.Errorf("%s: wait: %w", op, err)
		}

		c, err := DecodeNotification([]byte(n.Payload))
		if err != nil {
			l.log.Warn(ctx, "dropping malformed row change", "error", err.Error())
			continue
		}

		delivered, err := l.dispatcher.Dispatch(c)
		if err != nil {
			l.log.Error(ctx, "failed to dispatch row change", err, "table", c.Table)
			continue
		}
		l.log.Debug(ctx, "row change dispatched", "table", c.Table, "type", string(c.Type), "subscribers", delivered)
	}
}

// DecodeNotification parses a trigger payload. A missing commit timestamp is set to now.
func DecodeNotification(payload []byte) (models.RowChange, error) {
	var c models.RowChange
	if err := json.Unmarshal(payload, &c); err != nil {
		return models.RowChange{}, err
	}
	if c.Table == "" {
		return models.RowChange{}, errors.New("row change without table")
	}
	switch c.Type {
	case types.ChangeInsert, types.ChangeUpdate, types.ChangeDelete:
	default:
		return models.RowChange{}, fmt.Errorf("unknown change type %q", c.Type)
	}

	if isJSONNull(c.Record) {
		c.Record = nil
	}
	if isJSONNull(c.OldRecord) {
		c.OldRecord = nil
	}
	if c.CommitTimestamp.IsZero() {
		c.CommitTimestamp = time.Now().UTC()
	}
	return c, nil
}

func isJSONNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}
