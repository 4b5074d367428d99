package main

import (
	"context"
	"testing"

	"github.com/anonto42/regional-voices/backend/internal/repositories/memstore"
	"github.com/anonto42/regional-voices/backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedRegionsIsIdempotent(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()

	require.NoError(t, seedRegions(ctx, store, logger.Discard()))
	require.NoError(t, seedRegions(ctx, store, logger.Discard()))

	got, err := store.ListRegions(ctx)
	require.NoError(t, err)
	assert.Len(t, got, len(regions))
	assert.Equal(t, "Andaman and Nicobar Islands", got[0].Name)
}
