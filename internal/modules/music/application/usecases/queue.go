package usecases

import (
	"context"

	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/groovebox/internal/modules/music/domain"
)

// DefaultPageSize is the number of queue entries shown per page.
const DefaultPageSize = 10

// QueueListInput contains the input for the List use case.
type QueueListInput struct {
	GuildID  snowflake.ID
	Page     int // 1-indexed page number
	PageSize int // items per page (optional, defaults to 10)
}

// QueueListOutput contains the result of the List use case.
type QueueListOutput struct {
	CurrentTrack *domain.Track
	Tracks       []*domain.Track
	TotalTracks  int
	CurrentPage  int
	TotalPages   int
}

// QueueRemoveInput contains the input for the Remove use case.
type QueueRemoveInput struct {
	GuildID  snowflake.ID
	Position int // 1-indexed position as shown in the queue listing
}

// QueueService handles queue inspection and manipulation.
type QueueService struct {
	registry domain.SessionRegistry
}

// NewQueueService creates a new QueueService.
func NewQueueService(registry domain.SessionRegistry) *QueueService {
	return &QueueService{registry: registry}
}

// List returns the current queue with pagination.
func (q *QueueService) List(_ context.Context, input QueueListInput) (*QueueListOutput, error) {
	session := q.registry.Get(input.GuildID)
	if session == nil {
		return nil, ErrQueueEmpty
	}

	pageSize := input.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	page := input.Page
	if page <= 0 {
		page = 1
	}

	var current *domain.Track
	var pending []*domain.Track
	session.WithLock(func() {
		current = session.Queue.NowPlaying()
		pending = session.Queue.Pending()
	})

	totalTracks := len(pending)
	totalPages := (totalTracks + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := min(start+pageSize, totalTracks)

	var pageTracks []*domain.Track
	if start < totalTracks {
		pageTracks = pending[start:end]
	}

	return &QueueListOutput{
		CurrentTrack: current,
		Tracks:       pageTracks,
		TotalTracks:  totalTracks,
		CurrentPage:  page,
		TotalPages:   totalPages,
	}, nil
}

// Remove removes the pending track at the given 1-indexed position.
func (q *QueueService) Remove(_ context.Context, input QueueRemoveInput) (*domain.Track, error) {
	session := q.registry.Get(input.GuildID)
	if session == nil {
		return nil, ErrQueueEmpty
	}

	var removed *domain.Track
	var empty bool
	session.WithLock(func() {
		empty = session.Queue.IsEmpty()
		if !empty {
			removed = session.Queue.RemoveAt(input.Position - 1)
		}
	})
	if empty {
		return nil, ErrQueueEmpty
	}
	if removed == nil {
		return nil, ErrInvalidPosition
	}
	return removed, nil
}

// Shuffle randomizes the order of the pending tracks.
func (q *QueueService) Shuffle(_ context.Context, guildID snowflake.ID) (int, error) {
	session := q.registry.Get(guildID)
	if session == nil {
		return 0, ErrQueueEmpty
	}

	var count int
	session.WithLock(func() {
		count = session.Queue.Len()
		session.Queue.Shuffle()
	})
	if count == 0 {
		return 0, ErrQueueEmpty
	}
	return count, nil
}

// Clear removes all pending tracks, leaving the current track playing.
func (q *QueueService) Clear(_ context.Context, guildID snowflake.ID) (int, error) {
	session := q.registry.Get(guildID)
	if session == nil {
		return 0, ErrQueueEmpty
	}

	var count int
	session.WithLock(func() {
		queue := session.Queue
		count = queue.Len()
		for queue.Len() > 0 {
			queue.RemoveAt(0)
		}
	})
	if count == 0 {
		return 0, ErrQueueEmpty
	}
	return count, nil
}

// History returns the guild's played-track history, newest first.
func (q *QueueService) History(_ context.Context, guildID snowflake.ID) ([]*domain.Track, error) {
	session := q.registry.Get(guildID)
	if session == nil {
		return nil, ErrQueueEmpty
	}

	var history []*domain.Track
	session.WithLock(func() {
		history = session.Queue.History()
	})
	return history, nil
}
