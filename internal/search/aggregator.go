package search

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"log/slog"

	"golang.org/x/sync/semaphore"
	"mediatrack/searchservice/internal/domain"
	"mediatrack/searchservice/internal/metrics"
)

// maxConcurrentSources bounds the fan-out so a wide category selection does
// not open a connection to every vendor API at once.
const maxConcurrentSources = 8

type preparedSearch struct {
	query       string
	queryMeta   titleMeta
	categories  []domain.MediaCategory
	limit       int
	offset      int
	fetchLimit  int
	sortBy      domain.SearchSortBy
	selected    []Source
	sourceNames []string
}

func (p preparedSearch) cacheRequest() domain.SearchRequest {
	return domain.SearchRequest{
		Query:      p.query,
		Categories: p.categories,
		Limit:      p.limit,
		Offset:     p.offset,
		SortBy:     p.sortBy,
	}
}

func (s *Service) Search(ctx context.Context, request domain.SearchRequest, sourceNames []string) (domain.SearchResponse, error) {
	prepared, err := s.prepareSearch(request, sourceNames)
	if err != nil {
		return domain.SearchResponse{}, err
	}

	if s.cacheDisabled || request.NoCache {
		return s.executePreparedSearch(ctx, prepared)
	}

	startedAt := time.Now()
	cacheKey := buildSearchCacheKey(prepared.cacheRequest(), prepared.sourceNames)

	if cached, ok, needsRefresh := s.cacheLookup(cacheKey, startedAt); ok {
		metrics.CacheHitsTotal.Inc()
		// Track popularity even on cache hits, so the warmer keeps hot queries fresh.
		s.markPopular(cacheKey, prepared.cacheRequest(), prepared.sourceNames, startedAt)
		if needsRefresh {
			s.refreshCacheAsync(cacheKey, prepared)
		}
		cached.ElapsedMS = time.Since(startedAt).Milliseconds()
		cached.FromCache = true
		return cached, nil
	}

	metrics.CacheMissesTotal.Inc()
	response, err := s.executePreparedSearch(ctx, prepared)
	if err != nil {
		return domain.SearchResponse{}, err
	}
	s.cacheStore(cacheKey, response, time.Now())
	s.markPopular(cacheKey, prepared.cacheRequest(), prepared.sourceNames, time.Now())
	return response, nil
}

func (s *Service) searchNoCache(ctx context.Context, request domain.SearchRequest, sourceNames []string) (domain.SearchResponse, error) {
	prepared, err := s.prepareSearch(request, sourceNames)
	if err != nil {
		return domain.SearchResponse{}, err
	}

	response, err := s.executePreparedSearch(ctx, prepared)
	if err != nil {
		return domain.SearchResponse{}, err
	}

	cacheKey := buildSearchCacheKey(prepared.cacheRequest(), prepared.sourceNames)
	s.cacheStore(cacheKey, response, time.Now())
	return response, nil
}

func (s *Service) refreshCacheAsync(cacheKey string, prepared preparedSearch) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout+2*time.Second)
		defer cancel()
		response, err := s.executePreparedSearch(ctx, prepared)
		if err != nil {
			s.cacheClearRefreshing(cacheKey)
			return
		}
		s.cacheStore(cacheKey, response, time.Now())
	}()
}

func (s *Service) prepareSearch(request domain.SearchRequest, sourceNames []string) (preparedSearch, error) {
	normalizedQuery := strings.TrimSpace(request.Query)
	if normalizedQuery == "" {
		return preparedSearch{}, ErrInvalidQuery
	}
	if request.Offset < 0 {
		return preparedSearch{}, ErrInvalidOffset
	}

	limit := request.Limit
	if limit <= 0 {
		limit = 25
	}
	if limit > 100 {
		limit = 100
	}
	// Fetch more than one page's worth so the filter and deduplicator have
	// slack to discard without starving the requested page.
	fetchLimit := limit + request.Offset
	if fetchLimit < 25 {
		fetchLimit = 25
	}
	if fetchLimit > 100 {
		fetchLimit = 100
	}

	categories, err := normalizeCategories(request.Categories)
	if err != nil {
		return preparedSearch{}, err
	}
	selected, err := s.resolveSources(sourceNames, categories)
	if err != nil {
		return preparedSearch{}, err
	}

	sourceKeys := make([]string, 0, len(selected))
	for _, source := range selected {
		name := strings.ToLower(strings.TrimSpace(source.Name()))
		if name != "" {
			sourceKeys = append(sourceKeys, name)
		}
	}

	return preparedSearch{
		query:       normalizedQuery,
		queryMeta:   parseTitleMeta(normalizedQuery),
		categories:  categories,
		limit:       limit,
		offset:      request.Offset,
		fetchLimit:  fetchLimit,
		sortBy:      domain.NormalizeSortBy(string(request.SortBy)),
		selected:    selected,
		sourceNames: sourceKeys,
	}, nil
}

func normalizeCategories(raw []domain.MediaCategory) ([]domain.MediaCategory, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	seen := make(map[domain.MediaCategory]struct{}, len(raw))
	out := make([]domain.MediaCategory, 0, len(raw))
	for _, category := range raw {
		normalized, ok := domain.NormalizeCategory(string(category))
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out, nil
}

func (s *Service) executePreparedSearch(ctx context.Context, prepared preparedSearch) (domain.SearchResponse, error) {
	runCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	startedAt := time.Now()
	now := time.Now()
	statuses := make([]domain.SourceStatus, len(prepared.selected))
	resultsByKey := make(map[string]domain.SearchResult)

	wantedCategories := make(map[domain.MediaCategory]struct{}, len(prepared.categories))
	for _, category := range prepared.categories {
		wantedCategories[category] = struct{}{}
	}

	var mu sync.Mutex
	sem := semaphore.NewWeighted(maxConcurrentSources)
	var wg sync.WaitGroup
	for i, source := range prepared.selected {
		wg.Add(1)
		go func(index int, current Source) {
			defer wg.Done()

			sourceKey := strings.ToLower(strings.TrimSpace(current.Name()))
			statusName := strings.ToLower(strings.TrimSpace(current.Info().Name))
			if statusName == "" {
				statusName = sourceKey
			}

			if err := sem.Acquire(runCtx, 1); err != nil {
				mu.Lock()
				statuses[index] = domain.SourceStatus{Name: statusName, OK: false, Error: "context cancelled"}
				mu.Unlock()
				return
			}
			defer sem.Release(1)

			if blocked, until, lastErr := s.isSourceBlocked(sourceKey, time.Now()); blocked {
				mu.Lock()
				statuses[index] = domain.SourceStatus{
					Name:  statusName,
					OK:    false,
					Error: "source temporarily unhealthy until " + until.UTC().Format(time.RFC3339) + ": " + lastErr,
				}
				mu.Unlock()
				return
			}

			sourceStartedAt := time.Now()
			var items []domain.SearchResult
			searchErr := RetryWithBackoff(runCtx, DefaultRetryConfig(), func() error {
				var err error
				items, err = current.Search(runCtx, domain.SearchRequest{
					Query:      prepared.query,
					Categories: prepared.categories,
					Limit:      prepared.fetchLimit,
					SortBy:     prepared.sortBy,
				})
				return err
			})
			s.recordSourceResult(sourceKey, prepared.query, searchErr, time.Since(sourceStartedAt), time.Now())

			if searchErr != nil {
				slog.Warn("source search failed",
					slog.String("source", sourceKey),
					slog.String("query", prepared.query),
					slog.String("error", searchErr.Error()),
				)
			}

			status := domain.SourceStatus{
				Name: statusName,
				OK:   searchErr == nil,
			}
			if searchErr != nil {
				status.Error = searchErr.Error()
			}

			// Quality-filter and score before merging: every result entering
			// the deduplicator has already passed the filter.
			items = applyQualityFilter(items, s.filter)
			items = restrictToCategories(items, wantedCategories)
			scoreAll(items, prepared.queryMeta, s.weights, now)
			status.Count = len(items)

			mu.Lock()
			statuses[index] = status
			for _, item := range items {
				key := dedupeKey(item)
				existing, exists := resultsByKey[key]
				if !exists || shouldReplace(existing, item) {
					resultsByKey[key] = item
				}
			}
			mu.Unlock()
		}(i, source)
	}
	wg.Wait()

	items := make([]domain.SearchResult, 0, len(resultsByKey))
	for _, item := range resultsByKey {
		items = append(items, item)
	}

	sortResults(items, prepared.sortBy)

	total := len(items)
	start := prepared.offset
	if start > total {
		start = total
	}
	end := start + prepared.limit
	if end > total {
		end = total
	}
	page := make([]domain.SearchResult, 0, end-start)
	page = append(page, items[start:end]...)

	metrics.ResultsReturned.WithLabelValues(string(prepared.sortBy)).Observe(float64(len(page)))

	return domain.SearchResponse{
		Query:      prepared.query,
		Items:      page,
		Sources:    statuses,
		ElapsedMS:  time.Since(startedAt).Milliseconds(),
		TotalItems: total,
		Limit:      prepared.limit,
		Offset:     prepared.offset,
		HasMore:    end < total,
		SortBy:     prepared.sortBy,
	}, nil
}

func restrictToCategories(items []domain.SearchResult, wanted map[domain.MediaCategory]struct{}) []domain.SearchResult {
	if len(wanted) == 0 {
		return items
	}
	filtered := make([]domain.SearchResult, 0, len(items))
	for _, item := range items {
		if _, ok := wanted[item.Category]; ok {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
