// Package event streams and records store events.
package event

import "github.com/kazz187/taskgantt/internal/eventbus"

// Source hands out event subscriptions. Both the bus and the store satisfy it.
type Source interface {
	Subscribe(bufSize int) (string, <-chan eventbus.Event)
	Unsubscribe(id string)
}
