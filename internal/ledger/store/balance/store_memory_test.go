package balance

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "rightsledger/pkg/domain"
	"rightsledger/pkg/platform/sentinel"
)

func TestInMemory_AddSubGet(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()
	tok := id.TokenID(1)

	held, err := store.Get(ctx, tok, "0xholder")
	require.NoError(t, err)
	assert.Zero(t, held)

	require.NoError(t, store.Add(ctx, tok, "0xholder", 3))
	require.NoError(t, store.Sub(ctx, tok, "0xholder", 2))

	held, err = store.Get(ctx, tok, "0xholder")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), held)
}

func TestInMemory_SubRejectsOverdraft(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()
	tok := id.TokenID(1)

	require.NoError(t, store.Add(ctx, tok, "0xholder", 1))

	err := store.Sub(ctx, tok, "0xholder", 2)
	require.ErrorIs(t, err, sentinel.ErrInsufficient)

	// Failed debit must leave the balance untouched.
	held, err := store.Get(ctx, tok, "0xholder")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), held)
}

func TestInMemory_BalancesAreIndependentPerToken(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()

	require.NoError(t, store.Add(ctx, id.TokenID(1), "0xholder", 5))

	held, err := store.Get(ctx, id.TokenID(2), "0xholder")
	require.NoError(t, err)
	assert.Zero(t, held)
}

// Concurrent overdraft attempts must net out to exactly the minted supply.
func TestInMemory_ConcurrentDebits(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()
	tok := id.TokenID(1)

	const supply = 50
	require.NoError(t, store.Add(ctx, tok, "0xholder", supply))

	var wg sync.WaitGroup
	successes := make(chan struct{}, supply*2)
	for range supply * 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.Sub(ctx, tok, "0xholder", 1); err == nil {
				successes <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(successes)

	assert.Len(t, successes, supply)

	held, err := store.Get(ctx, tok, "0xholder")
	require.NoError(t, err)
	assert.Zero(t, held)
}
