package widgetdata

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Reader resolves widget data for one payload type against a session
// source and a payload cache. It is safe for concurrent use.
type Reader[T Payload] struct {
	sessions SessionSource
	cache    Cache[T]
	config   readerConfig
}

// NewReader creates a reader. A nil sessions source behaves like a missing
// session store and every call resolves to NoData.
func NewReader[T Payload](sessions SessionSource, cache Cache[T], opts ...ReaderOption) *Reader[T] {
	var zero T
	cfg := readerConfig{
		kind:     zero.WidgetKind(),
		observer: NoOpObserver{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt.apply(&cfg)
	}
	if cfg.name == "" {
		cfg.name = string(cfg.kind)
	}
	if cfg.observer == nil {
		cfg.observer = NoOpObserver{}
	}
	return &Reader[T]{sessions: sessions, cache: cache, config: cfg}
}

// WidgetData resolves what the widget shows for selection. Store failures
// never surface as errors: an unreadable session resolves to NoData and a
// failed cache lookup counts as a miss. Both are reported to the observer.
func (r *Reader[T]) WidgetData(ctx context.Context, selection SiteSelection, defaultSiteID *int, isJetpack bool) Outcome[T] {
	start := r.config.now()
	requestID := uuid.NewString()

	var session *SessionState
	var sessionErr error
	if r.sessions != nil {
		session, sessionErr = r.sessions.Session(ctx)
		if sessionErr != nil {
			session = nil
		}
	}

	lookup := &cacheSnapshot[T]{ctx: ctx, reader: r, requestID: requestID}
	outcome := Resolve[T](selection, defaultSiteID, isJetpack, session, lookup)

	siteID, _ := EffectiveSiteID(selection, defaultSiteID)
	if outcome.Failure() == FailureNoSite {
		siteID = ""
	}

	r.config.observer.OnResolve(ctx, &ResolveEvent{
		RequestID:    requestID,
		Widget:       r.config.name,
		Kind:         r.config.kind,
		SiteID:       siteID,
		IsJetpack:    isJetpack,
		Outcome:      outcome.Failure(),
		StartTime:    start,
		Duration:     r.config.now().Sub(start),
		SessionError: sessionErr,
	})
	return outcome
}

// cacheSnapshot adapts a Cache to Lookup, fetching each site at most once.
type cacheSnapshot[T Payload] struct {
	ctx       context.Context
	reader    *Reader[T]
	requestID string

	fetched bool
	siteID  string
	payload T
	found   bool
}

func (s *cacheSnapshot[T]) fetch(siteID string) {
	if s.fetched && s.siteID == siteID {
		return
	}
	s.fetched, s.siteID = true, siteID

	var zero T
	s.payload, s.found = zero, false
	if s.reader.cache == nil {
		return
	}

	start := s.reader.config.now()
	payload, found, err := s.reader.cache.Get(s.ctx, siteID)
	if err == nil {
		s.payload, s.found = payload, found
	}

	s.reader.config.observer.OnCacheCheck(s.ctx, &CacheCheckEvent{
		RequestID: s.requestID,
		Widget:    s.reader.config.name,
		Kind:      s.reader.config.kind,
		SiteID:    siteID,
		Hit:       s.found,
		Latency:   s.reader.config.now().Sub(start),
		Error:     err,
	})
}

func (s *cacheSnapshot[T]) HasPayload(siteID string) bool {
	s.fetch(siteID)
	return s.found
}

func (s *cacheSnapshot[T]) Payload(siteID string) (T, bool) {
	s.fetch(siteID)
	return s.payload, s.found
}
