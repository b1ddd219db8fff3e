package search

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"mediatrack/searchservice/internal/domain"
)

type warmerConfig struct {
	cacheTTL      time.Duration
	staleTTL      time.Duration
	interval      time.Duration
	popularWindow time.Duration
	minHits       int
	maxWarm       int
	maxEntries    int
}

func defaultWarmerConfig() warmerConfig {
	return warmerConfig{
		cacheTTL:      45 * time.Minute,
		staleTTL:      3 * time.Hour,
		interval:      10 * time.Minute,
		popularWindow: 6 * time.Hour,
		minHits:       3,
		maxWarm:       15,
		maxEntries:    2000,
	}
}

type cachedSearchResponse struct {
	response   domain.SearchResponse
	storedAt   time.Time
	refreshing bool
}

type popularQuery struct {
	request     domain.SearchRequest
	sourceNames []string
	hits        int
	lastHitAt   time.Time
}

type warmSpec struct {
	key         string
	request     domain.SearchRequest
	sourceNames []string
	hits        int
}

// buildSearchCacheKey folds every request dimension that changes the response
// into the key, so two requests share an entry only when their results would
// be identical.
func buildSearchCacheKey(request domain.SearchRequest, sourceNames []string) string {
	categories := make([]string, 0, len(request.Categories))
	for _, category := range request.Categories {
		categories = append(categories, string(category))
	}
	sort.Strings(categories)

	sources := make([]string, 0, len(sourceNames))
	for _, name := range sourceNames {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			sources = append(sources, name)
		}
	}
	sort.Strings(sources)

	parts := []string{
		"q=" + strings.ToLower(strings.TrimSpace(request.Query)),
		"cat=" + strings.Join(categories, ","),
		"limit=" + strconv.Itoa(request.Limit),
		"offset=" + strconv.Itoa(request.Offset),
		"sort=" + string(request.SortBy),
		"src=" + strings.Join(sources, ","),
	}
	return strings.Join(parts, "|")
}

// cacheLookup returns the cached response if present and not past the stale
// horizon. The second return reports a hit; the third reports that the entry
// is past its soft TTL and should be refreshed in the background.
func (s *Service) cacheLookup(key string, now time.Time) (domain.SearchResponse, bool, bool) {
	s.cacheMu.RLock()
	entry, ok := s.cache[key]
	s.cacheMu.RUnlock()

	if ok {
		age := now.Sub(entry.storedAt)
		if age <= s.warmerCfg.staleTTL {
			needsRefresh := age > s.warmerCfg.cacheTTL && s.markRefreshing(key)
			return cloneSearchResponse(entry.response), true, needsRefresh
		}
		s.cacheMu.Lock()
		if current, still := s.cache[key]; still && current == entry {
			delete(s.cache, key)
		}
		s.cacheMu.Unlock()
	}

	if s.redisCache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
		defer cancel()
		if response, found, err := s.redisCache.Get(ctx, key); err != nil {
			slog.Debug("redis cache get failed", slog.String("error", err.Error()))
		} else if found {
			s.cacheStoreMemoryOnly(key, response, now)
			return cloneSearchResponse(response), true, false
		}
	}

	return domain.SearchResponse{}, false, false
}

// markRefreshing claims the refresh slot for an entry. Only the first caller
// after the entry goes stale gets true.
func (s *Service) markRefreshing(key string) bool {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	entry, ok := s.cache[key]
	if !ok || entry.refreshing {
		return false
	}
	entry.refreshing = true
	return true
}

// cacheClearRefreshing releases a failed refresh so the next stale hit can
// retry it.
func (s *Service) cacheClearRefreshing(key string) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	entry, ok := s.cache[key]
	if !ok {
		return
	}
	entry.refreshing = false
}

func (s *Service) cacheStore(key string, response domain.SearchResponse, now time.Time) {
	if s.cacheDisabled {
		return
	}
	s.cacheStoreMemoryOnly(key, response, now)

	if s.redisCache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()
		if err := s.redisCache.Set(ctx, key, response, s.warmerCfg.cacheTTL); err != nil {
			slog.Debug("redis cache set failed", slog.String("error", err.Error()))
		}
	}
}

func (s *Service) cacheStoreMemoryOnly(key string, response domain.SearchResponse, now time.Time) {
	stored := cloneSearchResponse(response)
	stored.FromCache = false

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.cache[key] = &cachedSearchResponse{response: stored, storedAt: now}
	s.trimCacheLocked()
}

// trimCacheLocked evicts the oldest entries once the map exceeds its cap.
// Caller holds cacheMu.
func (s *Service) trimCacheLocked() {
	max := s.warmerCfg.maxEntries
	if max <= 0 || len(s.cache) <= max {
		return
	}
	type aged struct {
		key      string
		storedAt time.Time
	}
	entries := make([]aged, 0, len(s.cache))
	for key, entry := range s.cache {
		entries = append(entries, aged{key: key, storedAt: entry.storedAt})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].storedAt.Before(entries[j].storedAt)
	})
	for _, entry := range entries[:len(s.cache)-max] {
		delete(s.cache, entry.key)
	}
}

func (s *Service) markPopular(key string, request domain.SearchRequest, sourceNames []string, now time.Time) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	entry, ok := s.popular[key]
	if !ok {
		entry = &popularQuery{request: request, sourceNames: sourceNames}
		s.popular[key] = entry
	}
	entry.hits++
	entry.lastHitAt = now
}

// runWarmer periodically re-executes the most-hit queries so their cache
// entries never go stale for active users. Exits when ctx is cancelled.
func (s *Service) runWarmer(ctx context.Context) {
	ticker := time.NewTicker(s.warmerCfg.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runWarmCycle(ctx)
		}
	}
}

func (s *Service) runWarmCycle(ctx context.Context) {
	specs := s.collectWarmSpecs(time.Now())
	for _, spec := range specs {
		if ctx.Err() != nil {
			return
		}
		request := spec.request
		request.NoCache = false
		if _, err := s.searchNoCache(ctx, request, spec.sourceNames); err != nil {
			slog.Debug("cache warm failed",
				slog.String("query", spec.request.Query),
				slog.String("error", err.Error()),
			)
		}
	}
}

// collectWarmSpecs snapshots popular queries worth warming and drops entries
// whose hits aged out of the window.
func (s *Service) collectWarmSpecs(now time.Time) []warmSpec {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	specs := make([]warmSpec, 0, len(s.popular))
	for key, entry := range s.popular {
		if now.Sub(entry.lastHitAt) > s.warmerCfg.popularWindow {
			delete(s.popular, key)
			continue
		}
		if entry.hits < s.warmerCfg.minHits {
			continue
		}
		cached, ok := s.cache[key]
		if ok && now.Sub(cached.storedAt) <= s.warmerCfg.cacheTTL {
			continue
		}
		specs = append(specs, warmSpec{
			key:         key,
			request:     entry.request,
			sourceNames: entry.sourceNames,
			hits:        entry.hits,
		})
	}

	sort.Slice(specs, func(i, j int) bool {
		return specs[i].hits > specs[j].hits
	})
	if len(specs) > s.warmerCfg.maxWarm {
		specs = specs[:s.warmerCfg.maxWarm]
	}
	return specs
}

func cloneSearchResponse(response domain.SearchResponse) domain.SearchResponse {
	cloned := response
	cloned.Items = make([]domain.SearchResult, len(response.Items))
	copy(cloned.Items, response.Items)
	cloned.Sources = make([]domain.SourceStatus, len(response.Sources))
	copy(cloned.Sources, response.Sources)
	return cloned
}
