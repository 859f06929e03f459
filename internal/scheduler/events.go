package scheduler

import "time"

// ReminderEvent is emitted exactly once per task when its due time passes.
type ReminderEvent struct {
	TaskID  int64
	Title   string
	DueAt   time.Time
	FiredAt time.Time
}

const subscriberBuffer = 16

// Subscribe registers a channel that receives reminder events. The channel
// is buffered; a subscriber that stops draining loses events rather than
// stalling the scan loop.
func (s *Scheduler) Subscribe() chan ReminderEvent {
	ch := make(chan ReminderEvent, subscriberBuffer)
	s.subsMu.Lock()
	s.subs[ch] = struct{}{}
	s.subsMu.Unlock()
	return ch
}

// Unsubscribe removes and closes a channel returned by Subscribe.
func (s *Scheduler) Unsubscribe(ch chan ReminderEvent) {
	s.subsMu.Lock()
	if _, ok := s.subs[ch]; ok {
		delete(s.subs, ch)
		close(ch)
	}
	s.subsMu.Unlock()
}

func (s *Scheduler) publish(event ReminderEvent) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

func (s *Scheduler) closeSubscribers() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for ch := range s.subs {
		delete(s.subs, ch)
		close(ch)
	}
}
