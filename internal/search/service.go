package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"mediatrack/searchservice/internal/domain"
)

var (
	ErrInvalidQuery    = errors.New("query is required")
	ErrNoSources       = errors.New("no search sources configured")
	ErrUnknownSource   = errors.New("unknown source")
	ErrUnknownCategory = errors.New("unknown category")
	ErrInvalidOffset   = errors.New("offset must be >= 0")
)

// Source is one external search API adapter. Search returns the mapped
// results or an explicit error; adapters never swallow transport or parse
// failures themselves, the aggregator isolates them per source.
type Source interface {
	Name() string
	Info() domain.SourceInfo
	Categories() []domain.MediaCategory
	Search(ctx context.Context, request domain.SearchRequest) ([]domain.SearchResult, error)
}

type Service struct {
	sources       map[string]Source
	timeout       time.Duration
	weights       domain.ScoringTable
	filter        domain.FilterPolicy
	cacheDisabled bool
	cacheMu       sync.RWMutex
	cache         map[string]*cachedSearchResponse
	popular       map[string]*popularQuery
	warmerCfg     warmerConfig
	warmerRun     atomic.Bool
	redisCache    *RedisCacheBackend
	healthMu      sync.Mutex
	health        map[string]*sourceHealth
}

type ServiceOption func(*Service)

func WithRedisCache(backend *RedisCacheBackend) ServiceOption {
	return func(s *Service) {
		s.redisCache = backend
	}
}

func WithCacheTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.warmerCfg.cacheTTL = ttl
			s.warmerCfg.staleTTL = ttl * 3
		}
	}
}

func WithCacheDisabled(disabled bool) ServiceOption {
	return func(s *Service) {
		s.cacheDisabled = disabled
	}
}

func WithScoringTable(table domain.ScoringTable) ServiceOption {
	return func(s *Service) {
		if len(table) > 0 {
			s.weights = table
		}
	}
}

func WithFilterPolicy(policy domain.FilterPolicy) ServiceOption {
	return func(s *Service) {
		s.filter = policy
	}
}

func NewService(sources []Source, timeout time.Duration, opts ...ServiceOption) *Service {
	registry := make(map[string]Source, len(sources))
	for _, source := range sources {
		if source == nil {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(source.Name()))
		if name == "" {
			continue
		}
		registry[name] = source
		for _, alias := range sourceAliases(name) {
			if _, exists := registry[alias]; !exists {
				registry[alias] = source
			}
		}
	}

	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	svc := &Service{
		sources:   registry,
		timeout:   timeout,
		weights:   domain.DefaultScoringTable(),
		filter:    domain.DefaultFilterPolicy(),
		cache:     make(map[string]*cachedSearchResponse),
		popular:   make(map[string]*popularQuery),
		warmerCfg: defaultWarmerConfig(),
		health:    make(map[string]*sourceHealth),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// StartBackground launches the popular-query cache warmer. Safe to call once;
// subsequent calls are no-ops.
func (s *Service) StartBackground(ctx context.Context) {
	if s.warmerRun.CompareAndSwap(false, true) {
		go s.runWarmer(ctx)
	}
}

func sourceAliases(name string) []string {
	switch name {
	case "googlebooks":
		return []string{"books", "google-books"}
	case "itunes":
		return []string{"applemusic"}
	case "omdb":
		return []string{"imdb"}
	default:
		return nil
	}
}

func (s *Service) Sources() []domain.SourceInfo {
	if len(s.sources) == 0 {
		return nil
	}
	items := make([]domain.SourceInfo, 0, len(s.sources))
	seen := make(map[string]struct{}, len(s.sources))
	for _, source := range s.sources {
		info := source.Info()
		if info.Name == "" {
			info.Name = strings.ToLower(strings.TrimSpace(source.Name()))
		}
		info.Name = strings.ToLower(strings.TrimSpace(info.Name))
		if info.Name == "" {
			continue
		}
		if _, exists := seen[info.Name]; exists {
			continue
		}
		seen[info.Name] = struct{}{}
		if info.Label == "" {
			info.Label = info.Name
		}
		if len(info.Categories) == 0 {
			info.Categories = source.Categories()
		}
		items = append(items, info)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Name < items[j].Name
	})
	return items
}

func (s *Service) resolveSources(sourceNames []string, categories []domain.MediaCategory) ([]Source, error) {
	if len(s.sources) == 0 {
		return nil, ErrNoSources
	}

	wanted := make(map[domain.MediaCategory]struct{}, len(categories))
	for _, category := range categories {
		wanted[category] = struct{}{}
	}
	servesWanted := func(source Source) bool {
		if len(wanted) == 0 {
			return true
		}
		for _, category := range source.Categories() {
			if _, ok := wanted[category]; ok {
				return true
			}
		}
		return false
	}

	if len(sourceNames) == 0 {
		all := make([]Source, 0, len(s.sources))
		seen := make(map[string]struct{}, len(s.sources))
		for _, source := range s.sources {
			key := strings.ToLower(strings.TrimSpace(source.Name()))
			if key == "" {
				continue
			}
			if _, exists := seen[key]; exists {
				continue
			}
			seen[key] = struct{}{}
			if !servesWanted(source) {
				continue
			}
			all = append(all, source)
		}
		if len(all) == 0 {
			return nil, ErrNoSources
		}
		sort.Slice(all, func(i, j int) bool {
			return strings.ToLower(all[i].Name()) < strings.ToLower(all[j].Name())
		})
		return all, nil
	}

	selected := make([]Source, 0, len(sourceNames))
	seen := make(map[string]struct{}, len(sourceNames))
	for _, rawName := range sourceNames {
		name := strings.ToLower(strings.TrimSpace(rawName))
		if name == "" {
			continue
		}
		source, ok := s.sources[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSource, name)
		}
		key := strings.ToLower(strings.TrimSpace(source.Name()))
		if key == "" {
			key = name
		}
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		if !servesWanted(source) {
			continue
		}
		selected = append(selected, source)
	}

	if len(selected) == 0 {
		return nil, ErrNoSources
	}
	return selected, nil
}
