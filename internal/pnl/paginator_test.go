package pnl

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// scriptedSignatures replays one canned response per call; an entry with a
// non-nil err simulates a failed RPC round trip.
type scriptedSignatures struct {
	responses []signatureResponse
	calls     int
	lastOpts  *rpc.GetSignaturesForAddressOpts
}

type signatureResponse struct {
	page []*rpc.TransactionSignature
	err  error
}

func (s *scriptedSignatures) GetSignaturesForAddress(
	_ context.Context,
	_ solana.PublicKey,
	opts *rpc.GetSignaturesForAddressOpts,
) ([]*rpc.TransactionSignature, error) {
	s.lastOpts = opts
	if s.calls >= len(s.responses) {
		return nil, errors.New("unexpected extra call")
	}
	resp := s.responses[s.calls]
	s.calls++
	return resp.page, resp.err
}

// makePage builds n distinct fake signatures; seed keeps signatures unique
// across pages.
func makePage(n, seed int) []*rpc.TransactionSignature {
	page := make([]*rpc.TransactionSignature, n)
	for i := 0; i < n; i++ {
		var sig solana.Signature
		sig[0] = byte(seed)
		sig[1] = byte(i)
		sig[2] = byte(i >> 8)
		page[i] = &rpc.TransactionSignature{Signature: sig}
	}
	return page
}

func newTestPaginator(t *testing.T, source *scriptedSignatures, pageSize int) *Paginator {
	t.Helper()
	return NewPaginator(source, pageSize, 3, time.Millisecond, zaptest.NewLogger(t))
}

var testWallet = solana.MustPublicKeyFromBase58("9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin")

func TestPaginator_WalksUntilEmptyPage(t *testing.T) {
	source := &scriptedSignatures{responses: []signatureResponse{
		{page: makePage(500, 1)},
		{page: makePage(500, 2)},
		{page: nil},
	}}
	p := newTestPaginator(t, source, 500)

	var before solana.Signature
	var pages int
	for {
		page, err := p.NextPage(context.Background(), testWallet, before)
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		pages++
		before = page[len(page)-1].Signature
	}

	assert.Equal(t, 2, pages)
	assert.Equal(t, 3, source.calls, "empty page must end the walk without retries")
}

func TestPaginator_CursorAdvancesToOldestEntry(t *testing.T) {
	first := makePage(500, 1)
	source := &scriptedSignatures{responses: []signatureResponse{
		{page: first},
		{page: nil},
	}}
	p := newTestPaginator(t, source, 500)

	page, err := p.NextPage(context.Background(), testWallet, solana.Signature{})
	require.NoError(t, err)

	_, err = p.NextPage(context.Background(), testWallet, page[len(page)-1].Signature)
	require.NoError(t, err)
	require.NotNil(t, source.lastOpts)
	assert.Equal(t, first[len(first)-1].Signature, source.lastOpts.Before)
}

func TestPaginator_ShortPageRetriedKeepingBest(t *testing.T) {
	short := makePage(3, 1)
	source := &scriptedSignatures{responses: []signatureResponse{
		{page: short},
		{page: short},
		{page: short},
	}}
	p := NewPaginator(source, 10, 3, time.Millisecond, zaptest.NewLogger(t))

	page, err := p.NextPage(context.Background(), testWallet, solana.Signature{})
	require.NoError(t, err, "a persistently short page is a result, not an error")
	assert.Equal(t, 3, source.calls)
	assert.Len(t, page, 3)
}

func TestPaginator_KeepsLongestPageAcrossAttempts(t *testing.T) {
	source := &scriptedSignatures{responses: []signatureResponse{
		{page: makePage(2, 1)},
		{page: makePage(7, 2)},
		{page: makePage(4, 3)},
	}}
	p := NewPaginator(source, 10, 3, time.Millisecond, zaptest.NewLogger(t))

	page, err := p.NextPage(context.Background(), testWallet, solana.Signature{})
	require.NoError(t, err)
	assert.Len(t, page, 7)
}

func TestPaginator_FullPageReturnsImmediately(t *testing.T) {
	source := &scriptedSignatures{responses: []signatureResponse{
		{page: makePage(10, 1)},
	}}
	p := NewPaginator(source, 10, 3, time.Millisecond, zaptest.NewLogger(t))

	page, err := p.NextPage(context.Background(), testWallet, solana.Signature{})
	require.NoError(t, err)
	assert.Equal(t, 1, source.calls)
	assert.Len(t, page, 10)
}

func TestPaginator_ErrorThenSuccess(t *testing.T) {
	source := &scriptedSignatures{responses: []signatureResponse{
		{err: errors.New("node hiccup")},
		{page: makePage(10, 1)},
	}}
	p := NewPaginator(source, 10, 3, time.Millisecond, zaptest.NewLogger(t))

	page, err := p.NextPage(context.Background(), testWallet, solana.Signature{})
	require.NoError(t, err)
	assert.Len(t, page, 10)
}

func TestPaginator_ShortPageWinsOverTrailingError(t *testing.T) {
	source := &scriptedSignatures{responses: []signatureResponse{
		{page: makePage(3, 1)},
		{err: errors.New("node hiccup")},
		{err: errors.New("node hiccup")},
	}}
	p := NewPaginator(source, 10, 3, time.Millisecond, zaptest.NewLogger(t))

	page, err := p.NextPage(context.Background(), testWallet, solana.Signature{})
	require.NoError(t, err)
	assert.Len(t, page, 3)
}

func TestPaginator_AllAttemptsFailed(t *testing.T) {
	rpcErr := errors.New("connection refused")
	source := &scriptedSignatures{responses: []signatureResponse{
		{err: rpcErr}, {err: rpcErr}, {err: rpcErr},
	}}
	p := NewPaginator(source, 10, 3, time.Millisecond, zaptest.NewLogger(t))

	_, err := p.NextPage(context.Background(), testWallet, solana.Signature{})
	require.Error(t, err)
	assert.ErrorIs(t, err, rpcErr)
	assert.Equal(t, 3, source.calls)
}

func TestLinearBackOff(t *testing.T) {
	b := &linearBackOff{delay: time.Second}
	assert.Equal(t, time.Second, b.NextBackOff())
	assert.Equal(t, 2*time.Second, b.NextBackOff())
	assert.Equal(t, 3*time.Second, b.NextBackOff())
	b.Reset()
	assert.Equal(t, time.Second, b.NextBackOff())
}
