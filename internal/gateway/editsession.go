package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/sal-retail/backoffice/internal/domain/order"
	"github.com/sal-retail/backoffice/internal/domain/product"
)

// errEditNotFound marks an unknown or expired editing session.
var errEditNotFound = errors.New("edit session not found")

// editSession is one order's in-progress working copy plus the product
// catalog snapshot taken when the edit was opened.
type editSession struct {
	id       string
	mu       sync.Mutex
	wc       *order.WorkingCopy
	products []product.Product
	lastUsed time.Time
}

// editSessions holds open editing sessions in memory. Sessions idle past
// the TTL are evicted in the background: an abandoned browser tab must not
// pin a working copy forever.
type editSessions struct {
	mu   sync.Mutex
	ttl  time.Duration
	byID map[string]*editSession
}

func newEditSessions(ctx context.Context, ttl time.Duration) *editSessions {
	s := &editSessions{
		ttl:  ttl,
		byID: make(map[string]*editSession),
	}

	go func() {
		ticker := time.NewTicker(ttl / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.evict(now)
			}
		}
	}()

	return s
}

func (s *editSessions) open(wc *order.WorkingCopy, products []product.Product) *editSession {
	es := &editSession{
		id:       uuid.New().String(),
		wc:       wc,
		products: products,
		lastUsed: time.Now(),
	}

	s.mu.Lock()
	s.byID[es.id] = es
	s.mu.Unlock()
	return es
}

func (s *editSessions) get(id string) (*editSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	es, ok := s.byID[id]
	if !ok {
		return nil, errors.Wrapf(errEditNotFound, "%s", id)
	}
	es.lastUsed = time.Now()
	return es, nil
}

func (s *editSessions) close(id string) {
	s.mu.Lock()
	delete(s.byID, id)
	s.mu.Unlock()
}

func (s *editSessions) evict(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, es := range s.byID {
		if now.Sub(es.lastUsed) >= s.ttl {
			delete(s.byID, id)
		}
	}
}

// findProduct resolves a product from the session's catalog snapshot.
func (es *editSession) findProduct(id int64) (product.Product, error) {
	for _, p := range es.products {
		if p.ID == id {
			return p, nil
		}
	}
	return product.Product{}, errors.Wrapf(product.ErrNotFound, "product %d", id)
}
