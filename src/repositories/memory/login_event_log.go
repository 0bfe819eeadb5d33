package memory

import (
	"context"
	"sync"

	"github.com/khabaroff/portfolio-site/src/models"
	"github.com/khabaroff/portfolio-site/src/repositories"
)

// DefaultEventsPerUser bounds each user's ring when no capacity is given
const DefaultEventsPerUser = 20

// LoginEventLog keeps the most recent events of each user in a fixed-size ring
type LoginEventLog struct {
	mu       sync.Mutex
	capacity int
	rings    map[string]*ring
}

type ring struct {
	events []models.LoginEvent
	next   int
	full   bool
}

// NewLoginEventLog creates a ring-buffer event log holding capacity events per user
func NewLoginEventLog(capacity int) *LoginEventLog {
	if capacity <= 0 {
		capacity = DefaultEventsPerUser
	}
	return &LoginEventLog{
		capacity: capacity,
		rings:    make(map[string]*ring),
	}
}

func (l *LoginEventLog) Append(_ context.Context, event models.LoginEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.rings[event.Username]
	if !ok {
		r = &ring{events: make([]models.LoginEvent, l.capacity)}
		l.rings[event.Username] = r
	}
	r.events[r.next] = event
	r.next = (r.next + 1) % l.capacity
	if r.next == 0 {
		r.full = true
	}
	return nil
}

func (l *LoginEventLog) Recent(_ context.Context, username string, limit int) ([]models.LoginEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.rings[username]
	if !ok {
		return []models.LoginEvent{}, nil
	}

	size := r.next
	if r.full {
		size = l.capacity
	}
	if limit <= 0 || limit > size {
		limit = size
	}

	out := make([]models.LoginEvent, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (r.next - i + l.capacity) % l.capacity
		out = append(out, r.events[idx])
	}
	return out, nil
}

var _ repositories.LoginEventLog = (*LoginEventLog)(nil)
