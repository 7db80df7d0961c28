package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository/memory"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

const cartKey = "panier"

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func product(id int64, price string) domain.Product {
	return domain.Product{ID: id, Nom: "Produit", Prix: decimal.RequireFromString(price)}
}

// countRecorder collects emitted counts.
type countRecorder struct {
	mu     sync.Mutex
	counts []int
}

func (r *countRecorder) record(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts = append(r.counts, n)
}

func (r *countRecorder) all() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.counts...)
}

// failingKV fails every operation.
type failingKV struct{}

func (failingKV) Get(context.Context, string) ([]byte, error) { return nil, errors.New("disk gone") }
func (failingKV) Set(context.Context, string, []byte) error   { return errors.New("disk gone") }
func (failingKV) Delete(context.Context, string) error        { return errors.New("disk gone") }

func TestCart_StartsEmpty(t *testing.T) {
	c := NewCart(context.Background(), memory.NewKV(), cartKey, newTestLogger())

	assert.Empty(t, c.Lines())
	assert.Zero(t, c.Count())
	assert.True(t, c.Total().IsZero())
}

func TestCart_AddMergesSameProduct(t *testing.T) {
	ctx := context.Background()
	c := NewCart(ctx, memory.NewKV(), cartKey, newTestLogger())

	c.Add(ctx, product(1, "10"), 2)
	c.Add(ctx, product(1, "10"), 3)

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 5, c.QuantityOf(1))
	assert.True(t, decimal.NewFromInt(50).Equal(c.Total()))
	assert.Equal(t, 5, c.Count())
}

func TestCart_AddKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	c := NewCart(ctx, memory.NewKV(), cartKey, newTestLogger())

	c.Add(ctx, product(3, "1"), 1)
	c.Add(ctx, product(1, "1"), 1)
	c.Add(ctx, product(2, "1"), 1)
	c.Add(ctx, product(1, "1"), 1)

	var ids []int64
	for _, l := range c.Lines() {
		ids = append(ids, l.Product.ID)
	}
	assert.Equal(t, []int64{3, 1, 2}, ids)
}

func TestCart_AddKeepsFirstSnapshot(t *testing.T) {
	ctx := context.Background()
	c := NewCart(ctx, memory.NewKV(), cartKey, newTestLogger())

	c.Add(ctx, product(1, "10"), 1)
	c.Add(ctx, product(1, "99"), 1)

	assert.Equal(t, "10", c.Lines()[0].Product.Prix.String())
	assert.True(t, decimal.NewFromInt(20).Equal(c.Total()))
}

func TestCart_AddCopiesProduct(t *testing.T) {
	ctx := context.Background()
	c := NewCart(ctx, memory.NewKV(), cartKey, newTestLogger())
	p := product(1, "10")
	p.Categorie = &domain.Category{ID: 1, Nom: "Boissons"}

	c.Add(ctx, p, 1)
	p.Categorie.Nom = "changed"

	assert.Equal(t, "Boissons", c.Lines()[0].Product.Categorie.Nom)
}

func TestCart_AddNonPositiveNeverLeavesBadLine(t *testing.T) {
	ctx := context.Background()
	c := NewCart(ctx, memory.NewKV(), cartKey, newTestLogger())

	c.Add(ctx, product(1, "10"), 0)
	assert.False(t, c.Contains(1))

	c.Add(ctx, product(2, "10"), 2)
	c.Add(ctx, product(2, "10"), -2)
	assert.False(t, c.Contains(2))
	assert.Zero(t, c.Count())
}

func TestCart_Remove(t *testing.T) {
	ctx := context.Background()
	c := NewCart(ctx, memory.NewKV(), cartKey, newTestLogger())
	c.Add(ctx, product(1, "10"), 2)
	c.Add(ctx, product(2, "5"), 1)

	c.Remove(ctx, 1)

	assert.Zero(t, c.QuantityOf(1))
	assert.False(t, c.Contains(1))
	assert.Equal(t, 1, c.Count())
}

func TestCart_RemoveAbsentIsNoop(t *testing.T) {
	ctx := context.Background()
	c := NewCart(ctx, memory.NewKV(), cartKey, newTestLogger())
	c.Add(ctx, product(1, "10"), 2)

	c.Remove(ctx, 42)

	assert.Equal(t, 2, c.QuantityOf(1))
	assert.Zero(t, c.QuantityOf(42))
}

func TestCart_SetQuantity(t *testing.T) {
	ctx := context.Background()
	c := NewCart(ctx, memory.NewKV(), cartKey, newTestLogger())
	c.Add(ctx, product(1, "10"), 2)

	c.SetQuantity(ctx, 1, 7)
	assert.Equal(t, 7, c.QuantityOf(1))

	c.SetQuantity(ctx, 99, 3)
	assert.False(t, c.Contains(99))
}

func TestCart_SetQuantityNonPositiveRemoves(t *testing.T) {
	for _, q := range []int{0, -1, -100} {
		ctx := context.Background()
		c := NewCart(ctx, memory.NewKV(), cartKey, newTestLogger())
		c.Add(ctx, product(1, "10"), 2)
		c.Add(ctx, product(2, "4"), 1)

		c.SetQuantity(ctx, 1, q)

		lines := c.Lines()
		require.Len(t, lines, 1, "quantity %d", q)
		assert.Equal(t, int64(2), lines[0].Product.ID)
	}
}

func TestCart_Clear(t *testing.T) {
	ctx := context.Background()
	store := memory.NewKV()
	c := NewCart(ctx, store, cartKey, newTestLogger())
	c.Add(ctx, product(1, "10"), 2)

	c.Clear(ctx)

	assert.Empty(t, c.Lines())
	assert.Zero(t, c.Count())
	data, err := store.Get(ctx, cartKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestCart_LinesIsDefensiveCopy(t *testing.T) {
	ctx := context.Background()
	c := NewCart(ctx, memory.NewKV(), cartKey, newTestLogger())
	c.Add(ctx, product(1, "10"), 2)

	lines := c.Lines()
	lines[0].Quantity = 100
	lines[0].Product.Nom = "changed"
	_ = append(lines, domain.CartLine{Product: product(9, "1"), Quantity: 1})

	assert.Equal(t, 2, c.QuantityOf(1))
	assert.Equal(t, "Produit", c.Lines()[0].Product.Nom)
	assert.Len(t, c.Lines(), 1)
}

func TestCart_CountEmitsOnEveryMutation(t *testing.T) {
	ctx := context.Background()
	c := NewCart(ctx, memory.NewKV(), cartKey, newTestLogger())
	rec := &countRecorder{}
	unsubscribe := c.SubscribeCount(rec.record)
	defer unsubscribe()

	c.Add(ctx, product(1, "10"), 2)
	c.Add(ctx, product(2, "10"), 3)
	c.SetQuantity(ctx, 1, 1)
	c.Remove(ctx, 2)
	c.Remove(ctx, 2)
	c.Clear(ctx)

	assert.Equal(t, []int{0, 2, 5, 4, 1, 1, 0}, rec.all())
}

func TestCart_RandomSequencesKeepInvariants(t *testing.T) {
	ctx := context.Background()

	for seed := uint64(1); seed <= 20; seed++ {
		rng := rand.New(rand.NewSource(int64(seed)))
		store := memory.NewKV()
		c := NewCart(ctx, store, cartKey, newTestLogger())
		rec := &countRecorder{}
		c.SubscribeCount(rec.record)

		for step := 0; step < 200; step++ {
			id := rng.Int63n(6) + 1
			qty := rng.Intn(7) - 2
			switch rng.Intn(10) {
			case 0, 1, 2, 3:
				c.Add(ctx, product(id, "2.5"), qty)
			case 4, 5, 6:
				c.SetQuantity(ctx, id, qty)
			case 7, 8:
				c.Remove(ctx, id)
			default:
				c.Clear(ctx)
			}

			lines := c.Lines()
			counts := rec.all()
			require.Equal(t, lines.ItemCount(), counts[len(counts)-1], "seed %d step %d", seed, step)
			require.Equal(t, lines.ItemCount(), c.Count(), "seed %d step %d", seed, step)

			seen := make(map[int64]bool, len(lines))
			for _, l := range lines {
				require.False(t, seen[l.Product.ID], "seed %d step %d: duplicate product %d", seed, step, l.Product.ID)
				require.Positive(t, l.Quantity, "seed %d step %d", seed, step)
				seen[l.Product.ID] = true
			}
		}

		restored := NewCart(ctx, store, cartKey, newTestLogger())
		assert.Equal(t, lineQuantities(c.Lines()), lineQuantities(restored.Lines()), "seed %d", seed)
	}
}

// lineQuantities lists (product id, quantity) pairs in cart order.
func lineQuantities(lines domain.CartLines) [][2]int64 {
	var out [][2]int64
	for _, l := range lines {
		out = append(out, [2]int64{l.Product.ID, int64(l.Quantity)})
	}
	return out
}

func TestCart_SubscribeReplaysRestoredCount(t *testing.T) {
	ctx := context.Background()
	store := memory.NewKV()
	first := NewCart(ctx, store, cartKey, newTestLogger())
	first.Add(ctx, product(1, "10"), 4)

	second := NewCart(ctx, store, cartKey, newTestLogger())
	rec := &countRecorder{}
	second.SubscribeCount(rec.record)

	assert.Equal(t, []int{4}, rec.all())
}

func TestCart_UnsubscribeStopsEmissions(t *testing.T) {
	ctx := context.Background()
	c := NewCart(ctx, memory.NewKV(), cartKey, newTestLogger())
	rec := &countRecorder{}
	unsubscribe := c.SubscribeCount(rec.record)

	unsubscribe()
	c.Add(ctx, product(1, "10"), 1)

	assert.Equal(t, []int{0}, rec.all())
}

func TestCart_RoundTripThroughStore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewKV()
	c := NewCart(ctx, store, cartKey, newTestLogger())
	c.Add(ctx, product(2, "3.5"), 2)
	c.Add(ctx, product(1, "10"), 1)

	restored := NewCart(ctx, store, cartKey, newTestLogger())

	assert.Equal(t, c.Lines(), restored.Lines())
	assert.Equal(t, 3, restored.Count())
	assert.True(t, c.Total().Equal(restored.Total()))
}

func TestCart_PersistedShape(t *testing.T) {
	ctx := context.Background()
	store := memory.NewKV()
	c := NewCart(ctx, store, cartKey, newTestLogger())
	c.Add(ctx, product(1, "10"), 2)

	data, err := store.Get(ctx, cartKey)
	require.NoError(t, err)
	var raw []struct {
		Product  map[string]any `json:"product"`
		Quantity int            `json:"quantity"`
	}
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 1)
	assert.Equal(t, 2, raw[0].Quantity)
	assert.EqualValues(t, 1, raw[0].Product["id"])
}

func TestCart_UndecodablePayloadStartsEmpty(t *testing.T) {
	ctx := context.Background()
	store := memory.NewKV()
	require.NoError(t, store.Set(ctx, cartKey, []byte(`{not json`)))

	c := NewCart(ctx, store, cartKey, newTestLogger())
	rec := &countRecorder{}
	c.SubscribeCount(rec.record)

	assert.Empty(t, c.Lines())
	assert.Equal(t, []int{0}, rec.all())

	moved, err := store.Get(ctx, cartKey+corruptSuffix)
	require.NoError(t, err)
	assert.Equal(t, `{not json`, string(moved))
	_, err = store.Get(ctx, cartKey)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestCart_RestoreSanitizesPayload(t *testing.T) {
	ctx := context.Background()
	store := memory.NewKV()
	require.NoError(t, store.Set(ctx, cartKey, []byte(
		`[{"product":{"id":1,"nom":"A","prix":"2"},"quantity":1},
		  {"product":{"id":2,"nom":"B","prix":"3"},"quantity":0},
		  {"product":{"id":1,"nom":"A","prix":"2"},"quantity":2}]`)))

	c := NewCart(ctx, store, cartKey, newTestLogger())

	require.Len(t, c.Lines(), 1)
	assert.Equal(t, 3, c.QuantityOf(1))
	assert.Equal(t, 3, c.Count())
}

func TestCart_StorageFailureDoesNotFail(t *testing.T) {
	ctx := context.Background()
	c := NewCart(ctx, failingKV{}, cartKey, newTestLogger())

	c.Add(ctx, product(1, "10"), 2)
	c.SetQuantity(ctx, 1, 3)

	assert.Equal(t, 3, c.QuantityOf(1))
	assert.Equal(t, 3, c.Count())
}

func TestCart_ConcurrentAddsEmitInOrder(t *testing.T) {
	ctx := context.Background()
	c := NewCart(ctx, memory.NewKV(), cartKey, newTestLogger())
	rec := &countRecorder{}
	c.SubscribeCount(rec.record)

	const workers, perWorker = 8, 25
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				c.Add(ctx, product(int64(w), "1"), 1)
			}
		}(w)
	}
	wg.Wait()

	counts := rec.all()
	require.Len(t, counts, workers*perWorker+1)
	for i, n := range counts {
		assert.Equal(t, i, n)
	}
	assert.Equal(t, workers*perWorker, c.Count())
}
