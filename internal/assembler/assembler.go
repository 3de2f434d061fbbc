// internal/assembler/assembler.go

// Package assembler orchestrates the full pipeline: query understanding,
// embedding, concurrent source fan-out, ranking, diversification, and the
// cached ContextBundle result.
package assembler

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"finsight-context/internal/cache"
	apperrors "finsight-context/internal/common/errors"
	"finsight-context/internal/common/logger"
	"finsight-context/internal/common/metrics"
	"finsight-context/internal/common/observability"
	"finsight-context/internal/embedding"
	"finsight-context/internal/models"
	"finsight-context/internal/retrieval"
	"finsight-context/internal/understanding"
)

// Config holds orchestration defaults.
type Config struct {
	MaxItems            int
	HardMaxItems        int
	SourceTimeout       time.Duration
	DefaultContextTypes []models.SourceType
}

func (c *Config) applyDefaults() {
	if c.MaxItems <= 0 {
		c.MaxItems = 15
	}
	if c.HardMaxItems <= 0 {
		c.HardMaxItems = 50
	}
	if c.SourceTimeout <= 0 {
		c.SourceTimeout = 3 * time.Second
	}
	if len(c.DefaultContextTypes) == 0 {
		c.DefaultContextTypes = []models.SourceType{
			models.SourceReceipt,
			models.SourceWarranty,
			models.SourceConversation,
		}
	}
}

// Assembler is constructed once at process start with every dependency
// injected; no shared mutable state beyond the cache.
type Assembler struct {
	gateway *embedding.Gateway
	sources map[models.SourceType]retrieval.Source
	cache   cache.Store
	obs     *observability.Observability
	logger  logger.Logger
	cfg     Config

	newID func() string
	now   func() time.Time
}

func New(gateway *embedding.Gateway, sources []retrieval.Source, store cache.Store, obs *observability.Observability, log logger.Logger, cfg Config) *Assembler {
	cfg.applyDefaults()

	byType := make(map[models.SourceType]retrieval.Source, len(sources))
	for _, source := range sources {
		byType[source.Type()] = source
	}

	return &Assembler{
		gateway: gateway,
		sources: byType,
		cache:   store,
		obs:     obs,
		logger:  log.WithFields(map[string]interface{}{"component": "assembler"}),
		cfg:     cfg,
		newID:   uuid.NewString,
		now:     time.Now,
	}
}

// Assemble turns a free-text query into a cached, ranked ContextBundle.
// Embedding failure is the only fatal outcome; any subset of sources may
// fail and the bundle is built from whatever succeeded.
func (a *Assembler) Assemble(ctx context.Context, queryText, tenantID, conversationID string, opts models.QueryOptions) (*models.ContextBundle, error) {
	started := a.now()
	opts = a.normalizeOptions(opts)

	bundleKey := cache.BundleKey(queryText, tenantID, opts)
	if raw, ok := cache.GetWithMetrics(ctx, a.cache, bundleKey, cache.TTLContext); ok {
		var cached models.ContextBundle
		if err := json.Unmarshal(raw, &cached); err == nil {
			a.obs.RecordAssembly(ctx, "cached")
			return &cached, nil
		}
	}

	understandStart := a.now()
	intent := understanding.Classify(queryText)
	entities := understanding.Extract(queryText)
	a.obs.RecordStageDuration(ctx, "understand", a.now().Sub(understandStart))

	embedStart := a.now()
	vector, err := a.gateway.Embed(ctx, queryText)
	a.obs.RecordStageDuration(ctx, "embed", a.now().Sub(embedStart))
	if err != nil {
		a.obs.RecordAssembly(ctx, "failed")
		a.logger.Error("context assembly aborted", map[string]interface{}{
			"tenantId": tenantID,
			"error":    err.Error(),
		})
		return nil, apperrors.NewContextUnavailableError(err)
	}

	retrieveStart := a.now()
	collected := a.fanOut(ctx, retrieval.RetrieveInput{
		Vector:         vector,
		TenantID:       tenantID,
		ConversationID: conversationID,
		Entities:       entities,
		Options:        opts,
	}, opts.ContextTypes)
	a.obs.RecordStageDuration(ctx, "retrieve", a.now().Sub(retrieveStart))

	rankStart := a.now()
	items := rankAndDiversify(collected, opts.MaxItems)
	a.obs.RecordStageDuration(ctx, "rank", a.now().Sub(rankStart))

	bundle := &models.ContextBundle{
		ID: a.newID(),
		Query: models.Query{
			Text:           queryText,
			TenantID:       tenantID,
			ConversationID: conversationID,
			Options:        opts,
		},
		Intent:    intent,
		Entities:  entities,
		Items:     items,
		Summary:   buildSummary(items),
		CreatedAt: a.now().UTC(),
	}

	if raw, err := json.Marshal(bundle); err == nil {
		a.cache.Put(ctx, bundleKey, raw, cache.TTLContext)
	}

	metrics.AssembleDuration.Observe(a.now().Sub(started).Seconds())
	metrics.EvidenceItemsReturned.Observe(float64(len(items)))
	a.obs.RecordAssembly(ctx, "completed")

	return bundle, nil
}

// normalizeOptions applies defaults and clamps the global cap to the hard
// ceiling. Unknown context types are dropped.
func (a *Assembler) normalizeOptions(opts models.QueryOptions) models.QueryOptions {
	if opts.MaxItems <= 0 {
		opts.MaxItems = a.cfg.MaxItems
	}
	if opts.MaxItems > a.cfg.HardMaxItems {
		opts.MaxItems = a.cfg.HardMaxItems
	}

	if len(opts.ContextTypes) == 0 {
		opts.ContextTypes = a.cfg.DefaultContextTypes
	} else {
		valid := make([]models.SourceType, 0, len(opts.ContextTypes))
		for _, t := range opts.ContextTypes {
			if models.IsValidSourceType(t) {
				valid = append(valid, t)
			}
		}
		if len(valid) == 0 {
			valid = a.cfg.DefaultContextTypes
		}
		opts.ContextTypes = valid
	}

	return opts
}

// fanOut launches every selected source concurrently, joins all of them, and
// tolerates per-source failure. Results are concatenated in the fixed source
// enumeration order so completion timing never leaks into output order.
func (a *Assembler) fanOut(ctx context.Context, in retrieval.RetrieveInput, selected []models.SourceType) []models.EvidenceItem {
	buckets := make(map[models.SourceType][]models.EvidenceItem, len(selected))

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	for _, sourceType := range selected {
		source, ok := a.sources[sourceType]
		if !ok {
			continue
		}

		wg.Add(1)
		go func(st models.SourceType, src retrieval.Source) {
			defer wg.Done()

			callCtx, cancel := context.WithTimeout(ctx, a.cfg.SourceTimeout)
			defer cancel()

			items, err := src.Retrieve(callCtx, in)
			if err != nil {
				// Non-fatal: the source already logged and counted it.
				return
			}

			mu.Lock()
			buckets[st] = items
			mu.Unlock()
		}(sourceType, source)
	}

	wg.Wait()

	var collected []models.EvidenceItem
	for _, sourceType := range models.AllSourceTypes {
		collected = append(collected, buckets[sourceType]...)
	}
	return collected
}

// rankAndDiversify sorts by relevance descending (stable, so equal scores
// keep retrieval order) and applies the per-type diversity caps.
func rankAndDiversify(items []models.EvidenceItem, maxItems int) []models.EvidenceItem {
	sorted := make([]models.EvidenceItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Relevance > sorted[j].Relevance
	})

	admitted := diversify(sorted, maxItems)

	var top float64
	if len(admitted) > 0 {
		top = admitted[0].Relevance
	}
	for i := range admitted {
		admitted[i].Rank = i + 1
		if top > 0 {
			admitted[i].NormalizedRelevance = admitted[i].Relevance / top
		}
	}
	return admitted
}
