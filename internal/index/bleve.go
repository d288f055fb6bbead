package index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"go.uber.org/zap"

	"github.com/hyperjump/ontomatch/internal/models"
	"github.com/hyperjump/ontomatch/internal/query"
	"github.com/hyperjump/ontomatch/internal/storage"
	"github.com/hyperjump/ontomatch/pkg/utils"
)

// BleveGateway implements Gateway with one Bleve index per index ID under a base
// directory. Hits are materialized from the target store.
type BleveGateway struct {
	dir          string
	store        storage.TargetStore
	resultWindow int
	logger       *zap.Logger

	mu      sync.Mutex
	indexes map[string]bleve.Index
	closed  bool
}

// BleveGatewayOption configures a BleveGateway.
type BleveGatewayOption func(*BleveGateway)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) BleveGatewayOption {
	return func(g *BleveGateway) { g.logger = l }
}

// WithResultWindow caps the hits returned per search. Values <= 0 keep the default.
func WithResultWindow(n int) BleveGatewayOption {
	return func(g *BleveGateway) {
		if n > 0 {
			g.resultWindow = n
		}
	}
}

// NewBleveGateway creates a gateway rooted at dir. Indexes are opened lazily.
func NewBleveGateway(dir string, store storage.TargetStore, opts ...BleveGatewayOption) (*BleveGateway, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: target store is required", models.ErrInvalidArgument)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}
	g := &BleveGateway{
		dir:          dir,
		store:        store,
		resultWindow: DefaultResultWindow,
		indexes:      make(map[string]bleve.Index),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = utils.OrNop(g.logger)
	return g, nil
}

func (g *BleveGateway) indexPath(indexID string) (string, error) {
	if strings.TrimSpace(indexID) == "" || strings.ContainsAny(indexID, `/\`) || indexID == "." || indexID == ".." {
		return "", fmt.Errorf("%w: invalid index id %q", models.ErrInvalidArgument, indexID)
	}
	return filepath.Join(g.dir, indexID), nil
}

// open returns the cached index for indexID, opening it from disk on first use.
// When create is true a missing index is created; otherwise ErrIndexNotFound is returned.
func (g *BleveGateway) open(indexID string, create bool) (bleve.Index, error) {
	path, err := g.indexPath(indexID)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil, fmt.Errorf("%w: gateway is closed", models.ErrIndexUnavailable)
	}
	if idx, ok := g.indexes[indexID]; ok {
		return idx, nil
	}

	var idx bleve.Index
	if _, statErr := os.Stat(path); statErr == nil {
		idx, err = bleve.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to open index %s: %w", models.ErrIndexUnavailable, indexID, err)
		}
	} else if !os.IsNotExist(statErr) {
		return nil, fmt.Errorf("%w: %w", models.ErrIndexUnavailable, statErr)
	} else if !create {
		return nil, fmt.Errorf("%w: %s", models.ErrIndexNotFound, indexID)
	} else {
		im, mapErr := newIndexMapping()
		if mapErr != nil {
			return nil, fmt.Errorf("failed to build index mapping: %w", mapErr)
		}
		idx, err = bleve.New(path, im)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to create index %s: %w", models.ErrIndexUnavailable, indexID, err)
		}
		g.logger.Debug("index created", zap.String("index", indexID), zap.String("path", path))
	}
	g.indexes[indexID] = idx
	return idx, nil
}

// IndexTargets validates and writes targets to the Bleve index, then to the target store.
// The store is only written once the batch is indexed, so stored targets are always
// searchable. A store failure leaves new documents indexed without a payload; Search
// skips those hits.
func (g *BleveGateway) IndexTargets(ctx context.Context, indexID string, targets []*models.TargetEntity) error {
	for _, t := range targets {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	idx, err := g.open(indexID, true)
	if err != nil {
		return err
	}
	batch := idx.NewBatch()
	for _, t := range targets {
		if err := batch.Index(t.UniqueID(), toDocument(t)); err != nil {
			return fmt.Errorf("failed to index target %s: %w", t.UniqueID(), err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		return fmt.Errorf("%w: batch index into %s: %w", models.ErrIndexUnavailable, indexID, err)
	}
	if err := g.store.PutTargets(ctx, indexID, targets); err != nil {
		return fmt.Errorf("failed to store targets: %w", err)
	}
	g.logger.Debug("targets indexed", zap.String("index", indexID), zap.Int("count", len(targets)))
	return nil
}

// RemoveTargets deletes targets from the Bleve index and the target store.
// Ids that are not stored under indexID are skipped.
func (g *BleveGateway) RemoveTargets(ctx context.Context, indexID string, uniqueIDs []string) (int, error) {
	idx, err := g.open(indexID, false)
	if err != nil {
		return 0, err
	}
	present := make([]string, 0, len(uniqueIDs))
	for _, id := range uniqueIDs {
		if _, err := g.store.GetTarget(ctx, indexID, id); err != nil {
			if errors.Is(err, storage.ErrTargetNotFound) {
				g.logger.Debug("target not stored", zap.String("index", indexID), zap.String("id", id))
				continue
			}
			return 0, fmt.Errorf("failed to look up target %s: %w", id, err)
		}
		present = append(present, id)
	}
	if len(present) == 0 {
		return 0, nil
	}

	batch := idx.NewBatch()
	for _, id := range present {
		batch.Delete(id)
	}
	if err := idx.Batch(batch); err != nil {
		return 0, fmt.Errorf("%w: batch delete from %s: %w", models.ErrIndexUnavailable, indexID, err)
	}
	for i, id := range present {
		if err := g.store.DeleteTarget(ctx, indexID, id); err != nil {
			return i, fmt.Errorf("failed to delete stored target %s: %w", id, err)
		}
	}
	g.logger.Debug("targets removed", zap.String("index", indexID), zap.Int("count", len(present)))
	return len(present), nil
}

// Search runs intent against indexID.
func (g *BleveGateway) Search(ctx context.Context, intent *query.Intent, indexID string) ([]Hit, error) {
	if intent == nil {
		return nil, fmt.Errorf("%w: intent is required", models.ErrInvalidArgument)
	}
	idx, err := g.open(indexID, false)
	if err != nil {
		return nil, err
	}
	q, err := translate(intent)
	if err != nil {
		return nil, err
	}

	req := bleve.NewSearchRequestOptions(q, g.resultWindow, 0, false)
	res, err := idx.SearchInContext(ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: search in %s: %w", models.ErrIndexUnavailable, indexID, err)
	}
	if len(res.Hits) == 0 {
		return nil, nil
	}

	ids := make([]string, len(res.Hits))
	for i, h := range res.Hits {
		ids[i] = h.ID
	}
	targets, err := g.store.GetTargets(ctx, indexID, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: loading hits from %s: %w", models.ErrIndexUnavailable, indexID, err)
	}
	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		t, ok := targets[h.ID]
		if !ok {
			g.logger.Warn("indexed target missing from store", zap.String("index", indexID), zap.String("id", h.ID))
			continue
		}
		hits = append(hits, Hit{Target: t, RawScore: h.Score})
	}
	g.logger.Debug("index searched",
		zap.String("index", indexID),
		zap.String("family", string(intent.Family)),
		zap.Bool("exact", intent.Exact),
		zap.Uint64("total", res.Total),
		zap.Int("hits", len(hits)),
	)
	return hits, nil
}

// Close closes every opened index. The gateway cannot be used afterwards.
func (g *BleveGateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	var errs []error
	for id, idx := range g.indexes {
		if err := idx.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close index %s: %w", id, err))
		}
	}
	g.indexes = map[string]bleve.Index{}
	return errors.Join(errs...)
}

// translate turns an intent into a Bleve query.
func translate(intent *query.Intent) (blevequery.Query, error) {
	if len(intent.Groups) == 0 {
		return nil, fmt.Errorf("%w: intent has no clause groups", models.ErrInvalidArgument)
	}
	groups := make([]blevequery.Query, 0, len(intent.Groups))
	for _, g := range intent.Groups {
		clauses := make([]blevequery.Query, 0, len(g.Clauses))
		for _, c := range g.Clauses {
			mq, err := matchClause(c)
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, mq)
		}
		if len(clauses) == 0 {
			continue
		}
		groups = append(groups, combine(clauses, g.RequireAll))
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("%w: intent has no clauses", models.ErrInvalidArgument)
	}
	root := combine(groups, intent.RequireAllGroups)

	if intent.EntityType == "" {
		return root, nil
	}
	tq := bleve.NewTermQuery(intent.EntityType)
	tq.SetField(fieldEntityType)
	return bleve.NewConjunctionQuery(root, tq), nil
}

func combine(qs []blevequery.Query, all bool) blevequery.Query {
	if len(qs) == 1 {
		return qs[0]
	}
	if all {
		return bleve.NewConjunctionQuery(qs...)
	}
	return bleve.NewDisjunctionQuery(qs...)
}

func matchClause(c query.Clause) (*blevequery.MatchQuery, error) {
	var field string
	switch c.Target {
	case query.TargetDataField:
		if c.Field == "" {
			return nil, fmt.Errorf("%w: data clause without field name", models.ErrInvalidArgument)
		}
		field = fieldRuleFields + "." + c.Field
	case query.TargetLabel:
		field = fieldLabel
	case query.TargetSynonyms:
		field = fieldSynonyms
	default:
		return nil, fmt.Errorf("%w: unknown clause target %v", models.ErrInvalidArgument, c.Target)
	}

	mq := bleve.NewMatchQuery(c.Text)
	mq.SetField(field)
	mq.Analyzer = AnalyzerName
	mq.SetFuzziness(c.Fuzziness)
	if c.Boost > 0 {
		mq.SetBoost(c.Boost)
	}
	if c.RequireAllWords {
		mq.SetOperator(blevequery.MatchQueryOperatorAnd)
	} else {
		mq.SetOperator(blevequery.MatchQueryOperatorOr)
	}
	return mq, nil
}
