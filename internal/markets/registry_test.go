package markets

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dividend-seeker/internal/contracts"
)

func writeList(t *testing.T, dir, market, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, market+".json"), []byte(body), 0o644))
}

func TestFileRegistry_Tickers(t *testing.T) {
	dir := t.TempDir()
	writeList(t, dir, "demo", `{"name":"demo","count":4,"tickers":[" A ","B","a","","C"]}`)

	tickers, err := NewFileRegistry(dir).Tickers(context.Background(), "demo")
	require.NoError(t, err)

	assert.Equal(t, []contracts.Ticker{
		{Symbol: "A", Market: "demo"},
		{Symbol: "B", Market: "demo"},
		{Symbol: "C", Market: "demo"},
	}, tickers)
}

func TestFileRegistry_Errors(t *testing.T) {
	dir := t.TempDir()
	writeList(t, dir, "empty", `{"name":"empty","tickers":[]}`)
	writeList(t, dir, "broken", `{not json`)

	reg := NewFileRegistry(dir)
	ctx := context.Background()

	_, err := reg.Tickers(ctx, "missing")
	assert.ErrorIs(t, err, contracts.ErrUnknownMarket)

	_, err = reg.Tickers(ctx, "../etc/passwd")
	assert.ErrorIs(t, err, contracts.ErrUnknownMarket)

	_, err = reg.Tickers(ctx, "empty")
	assert.ErrorIs(t, err, contracts.ErrEmptyTickerList)

	_, err = reg.Tickers(ctx, "broken")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, contracts.ErrUnknownMarket)
}

func TestFileRegistry_Markets(t *testing.T) {
	dir := t.TempDir()
	writeList(t, dir, "sp500", `{"tickers":["T"]}`)
	writeList(t, dir, "cac40", `{"tickers":["OR.PA"]}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	ids, err := NewFileRegistry(dir).Markets()
	require.NoError(t, err)
	assert.Equal(t, []string{"cac40", "sp500"}, ids)

	ids, err = NewFileRegistry(filepath.Join(dir, "nope")).Markets()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestStaticRegistry(t *testing.T) {
	reg := StaticRegistry{"demo": {"A", "B"}, "none": nil}
	ctx := context.Background()

	tickers, err := reg.Tickers(ctx, "demo")
	require.NoError(t, err)
	assert.Len(t, tickers, 2)

	_, err = reg.Tickers(ctx, "other")
	assert.ErrorIs(t, err, contracts.ErrUnknownMarket)

	_, err = reg.Tickers(ctx, "none")
	assert.ErrorIs(t, err, contracts.ErrEmptyTickerList)
}

func TestValidMarketID(t *testing.T) {
	assert.True(t, ValidMarketID("ftse_mib"))
	assert.True(t, ValidMarketID("sp500"))
	assert.False(t, ValidMarketID(""))
	assert.False(t, ValidMarketID("SP500"))
	assert.False(t, ValidMarketID("a/b"))
}
