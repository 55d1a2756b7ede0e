package document

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/refgraph/refgraph/types"
)

// loader drains a load queue against the injected resolver and identity
// store, merging the results into one graph's inclusion set.
type loader struct {
	deps       Deps
	inclusions *inclusionSet
	locale     string
}

// drain resolves the queue group by group. Groups have no fetch-order
// dependency and run concurrently; ids within a group always go out as a
// single batch call. A cancelled context or a failing batch stops the
// remaining groups, but entities already merged stay valid.
func (l *loader) drain(ctx context.Context, queue *loadQueue) error {
	if queue.empty() {
		return nil
	}
	if l.deps.Resolver == nil {
		return fmt.Errorf("document: no resolver configured")
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, key := range queue.order {
		group := queue.groups[key]
		g.Go(func() error {
			return l.resolveGroup(ctx, group)
		})
	}
	return g.Wait()
}

func (l *loader) resolveGroup(ctx context.Context, group *queueGroup) error {
	signature := group.spec.Signature()
	log := l.deps.logger()

	missing := make([]any, 0, len(group.ids))
	for _, id := range group.ids {
		key := types.NewIdentityKey(group.entityType, id, signature)
		if l.deps.Identity != nil {
			if cached, ok := l.deps.Identity.Get(key); ok {
				l.inclusions.merge(cached, signature)
				continue
			}
		}
		missing = append(missing, id)
	}

	if len(missing) == 0 {
		log.Debug("batch %s[%s]: all %d ids served from identity store",
			group.entityType, signature, len(group.ids))
		return nil
	}

	log.Debug("batch %s[%s]: resolving %d of %d ids",
		group.entityType, signature, len(missing), len(group.ids))

	entities, err := l.deps.Resolver.Resolve(ctx, group.entityType, missing, group.spec, l.locale)
	if err != nil {
		return err
	}

	for _, entity := range entities {
		if key, ok := identityOf(entity, signature); ok && l.deps.Identity != nil {
			l.deps.Identity.Put(key, entity)
		}
		l.inclusions.merge(entity, signature)
	}
	return nil
}

// identityOf derives the identity key of a resolved entity, whatever its
// concrete shape.
func identityOf(entity any, signature string) (types.IdentityKey, bool) {
	switch val := entity.(type) {
	case *Document:
		return types.KeyForEntity(val.data, signature)
	case map[string]any:
		return types.KeyForEntity(val, signature)
	default:
		return types.IdentityKey{}, false
	}
}
