package transport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptionsDefaultsPathToSlash(t *testing.T) {
	opts, err := ParseOptions(context.Background(), "tcp://127.0.0.1:9527")
	require.NoError(t, err)
	assert.Equal(t, "tcp", opts.Address.Scheme)
	assert.Equal(t, "127.0.0.1:9527", opts.Address.Host)
	assert.Equal(t, "/", opts.Address.Path)
}

func TestParseOptionsAcceptsBareHostPort(t *testing.T) {
	opts, err := ParseOptions(context.Background(), "127.0.0.1:9527")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9527", opts.Address.Host)
}

func TestParseOptionsAppliesOptionsInOrder(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "outer")

	opts, err := ParseOptions(context.Background(), "tcp://127.0.0.1:0", WithContext(ctx))
	require.NoError(t, err)
	assert.Equal(t, "outer", opts.Context.Value(key{}))
}

func TestOptionsAddressWithoutHost(t *testing.T) {
	opts, err := ParseOptions(context.Background(), "tcp://127.0.0.1:9527")
	require.NoError(t, err)
	assert.Equal(t, ":9527", opts.AddressWithoutHost())
}

func TestOptionsValueIntCoercesLooseTypes(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "42")
	opts := &Options{Context: ctx}

	assert.Equal(t, 42, opts.ValueInt(key{}, 7))
}

func TestOptionsValueIntFallsBackWhenAbsent(t *testing.T) {
	opts := &Options{Context: context.Background()}
	assert.Equal(t, 7, opts.ValueInt(struct{}{}, 7))
}

func TestOptionsValueIntFallsBackWhenUnparsable(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "not-a-number")
	opts := &Options{Context: ctx}

	assert.Equal(t, 7, opts.ValueInt(key{}, 7))
}

func TestOptionsApplyStopsAtFirstError(t *testing.T) {
	opts := &Options{Context: context.Background()}
	calls := 0
	boom := func(*Options) error { calls++; return assert.AnError }
	never := func(*Options) error { calls++; return nil }

	err := opts.Apply(boom, never)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, calls)
}
