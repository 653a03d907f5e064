package cardclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/membercards/pkg/db/models"
	"github.com/angelmondragon/membercards/pkg/logger"
)

// State is where a card load ended up.
type State string

const (
	StateLoading       State = "loading"
	StateSuccess       State = "success"
	StateOfflineCached State = "offline-cached"
	StateError         State = "error"
)

const (
	// MessageUnavailableOffline is shown when the network failed and the card was never cached.
	MessageUnavailableOffline = "card unavailable offline; open it once while online and try again"
	// MessageMissingID is shown when no member id was supplied.
	MessageMissingID = "member id is required"
)

// Result is the outcome of a single Load.
type Result struct {
	State   State
	Member  *models.Member
	View    *View
	Message string
	// Err is the fetch failure that triggered the cache lookup, if any.
	Err error
}

type loadRecorder interface {
	IncCardLoad(state string)
}

// Loader fetches a member card and falls back to the local cache when the
// registry cannot be reached.
type Loader struct {
	fetcher Fetcher
	cache   Cache
	logg    *logger.Logger
	metrics loadRecorder
}

// NewLoader wires the fetcher, cache and optional logger/metrics.
func NewLoader(fetcher Fetcher, cache Cache, logg *logger.Logger, metrics loadRecorder) (*Loader, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if cache == nil {
		return nil, fmt.Errorf("cache is required")
	}
	return &Loader{fetcher: fetcher, cache: cache, logg: logg, metrics: metrics}, nil
}

// Load runs loading -> success | offline-cached | error for id.
func (l *Loader) Load(ctx context.Context, id string) Result {
	res := l.load(ctx, strings.TrimSpace(id))
	if l.metrics != nil {
		l.metrics.IncCardLoad(string(res.State))
	}
	return res
}

func (l *Loader) load(ctx context.Context, id string) Result {
	if id == "" {
		return Result{State: StateError, Message: MessageMissingID}
	}
	if l.logg != nil {
		ctx = l.logg.WithMemberID(ctx, id)
	}

	member, payload, fetchErr := l.fetch(ctx, id)
	if fetchErr == nil {
		if err := l.cache.Put(ctx, id, payload); err != nil {
			l.warn(ctx, "card.cache_write_failed", err)
		}
		view := Render(*member, false)
		return Result{State: StateSuccess, Member: member, View: &view}
	}

	l.warn(ctx, "card.fetch_failed", fetchErr)

	raw, ok, err := l.cache.Get(ctx, id)
	if err != nil {
		l.warn(ctx, "card.cache_read_failed", err)
	}
	if !ok || err != nil {
		return Result{State: StateError, Message: MessageUnavailableOffline, Err: fetchErr}
	}

	var cached models.Member
	if err := json.Unmarshal(raw, &cached); err != nil {
		l.warn(ctx, "card.cache_corrupt", err)
		return Result{State: StateError, Message: MessageUnavailableOffline, Err: fetchErr}
	}
	view := Render(cached, true)
	return Result{State: StateOfflineCached, Member: &cached, View: &view, Err: fetchErr}
}

// fetch returns the decoded member and its canonical serialized form.
func (l *Loader) fetch(ctx context.Context, id string) (*models.Member, []byte, error) {
	body, err := l.fetcher.FetchMember(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	var member models.Member
	if err := json.Unmarshal(body, &member); err != nil {
		return nil, nil, fmt.Errorf("decode member: %w", err)
	}
	if member.ID == "" {
		return nil, nil, errors.New("decode member: record has no id")
	}
	payload, err := json.Marshal(member)
	if err != nil {
		return nil, nil, fmt.Errorf("encode member: %w", err)
	}
	return &member, payload, nil
}

func (l *Loader) warn(ctx context.Context, msg string, err error) {
	if l.logg == nil {
		return
	}
	l.logg.Warn(l.logg.WithField(ctx, "error", err.Error()), msg)
}
