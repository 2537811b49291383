package database

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

const channelSuffix = "_changed"

// Notifier publishes "something changed" signals for a table through
// Postgres NOTIFY, so every running instance picks them up.
type Notifier struct {
	db *gorm.DB
}

func NewNotifier(db *gorm.DB) *Notifier {
	return &Notifier{db: db}
}

func (n *Notifier) Notify(ctx context.Context, table string) error {
	// Payload is empty on purpose: subscribers refetch, they never patch
	// from the event itself.
	return n.db.WithContext(ctx).Exec("SELECT pg_notify(?, '')", table+channelSuffix).Error
}

// Sink receives table change signals. Satisfied by realtime.Hub.
type Sink interface {
	Publish(table string)
}

// Listener bridges Postgres NOTIFY into a Sink.
type Listener struct {
	pql *pq.Listener
}

// Listen starts a LISTEN connection for the given tables and forwards every
// notification to sink. Delivery is at-least-once; reconnects re-listen
// automatically.
func Listen(dsn string, sink Sink, tables ...string) (*Listener, error) {
	pql := pq.NewListener(dsn, 2*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Printf("[listen] event %d: %v", ev, err)
		}
	})
	for _, t := range tables {
		if err := pql.Listen(t + channelSuffix); err != nil {
			pql.Close()
			return nil, err
		}
	}

	go func() {
		for n := range pql.Notify {
			if n == nil {
				// reconnect marker: state is unknown, signal everything
				for _, t := range tables {
					sink.Publish(t)
				}
				continue
			}
			sink.Publish(strings.TrimSuffix(n.Channel, channelSuffix))
		}
	}()

	return &Listener{pql: pql}, nil
}

func (l *Listener) Close() error {
	return l.pql.Close()
}
