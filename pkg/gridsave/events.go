package gridsave

import (
	"time"

	"github.com/fintab-labs/gridsave/internal/domain"
)

// FlushSuccessEvent is emitted after a batched upsert is accepted.
type FlushSuccessEvent struct {
	Records  int
	Duration time.Duration
}

// FlushErrorEvent is emitted after a batched upsert fails. The pending set
// has been retained; nothing is lost.
type FlushErrorEvent struct {
	Err     error
	Records int
}

// StatusChangeEvent is emitted whenever the save indicator changes.
type StatusChangeEvent struct {
	Previous SaveStatus
	Current  SaveStatus
}

// EventHandler receives session events.
type EventHandler interface {
	OnFlushSuccess(event FlushSuccessEvent)
	OnFlushError(event FlushErrorEvent)
	OnStatusChange(event StatusChangeEvent)
}

// eventEmitterWrapper adapts EventHandler to the internal emitter interface.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnFlushSuccess(records int, duration time.Duration) {
	e.handler.OnFlushSuccess(FlushSuccessEvent{Records: records, Duration: duration})
}

func (e *eventEmitterWrapper) OnFlushError(err error, records int) {
	e.handler.OnFlushError(FlushErrorEvent{Err: err, Records: records})
}

func (e *eventEmitterWrapper) OnStatusChange(previous, current domain.SaveStatus) {
	e.handler.OnStatusChange(StatusChangeEvent{Previous: previous, Current: current})
}
