package crawler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun/extra/bunbig"

	"github.com/stakewatch/stakewatch/internal/core"
)

type fakeAccounts struct {
	mx         sync.Mutex
	accounts   map[uint64]*core.Account
	heartbeats map[uint64]int
}

var _ core.AccountRepository = (*fakeAccounts)(nil)

func newFakeAccounts(accounts ...*core.Account) *fakeAccounts {
	f := &fakeAccounts{
		accounts:   map[uint64]*core.Account{},
		heartbeats: map[uint64]int{},
	}
	for _, acc := range accounts {
		f.accounts[acc.ID] = acc
	}
	return f
}

func (f *fakeAccounts) AddAccount(_ context.Context, acc *core.Account) error {
	f.mx.Lock()
	defer f.mx.Unlock()
	f.accounts[acc.ID] = acc
	return nil
}

func (f *fakeAccounts) GetAccount(_ context.Context, id uint64) (*core.Account, error) {
	f.mx.Lock()
	defer f.mx.Unlock()
	acc, ok := f.accounts[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	clone := *acc
	return &clone, nil
}

func (f *fakeAccounts) GetAccounts(_ context.Context, _ *core.AccountFilter, _, _ int) ([]*core.Account, error) {
	f.mx.Lock()
	defer f.mx.Unlock()
	var ret []*core.Account
	for _, acc := range f.accounts {
		ret = append(ret, acc)
	}
	return ret, nil
}

func (f *fakeAccounts) GetIdleAccounts(_ context.Context) ([]*core.Account, error) {
	f.mx.Lock()
	defer f.mx.Unlock()
	var ret []*core.Account
	for _, acc := range f.accounts {
		if !acc.CurrentlySyncing {
			clone := *acc
			ret = append(ret, &clone)
		}
	}
	return ret, nil
}

func (f *fakeAccounts) SetSyncing(_ context.Context, id uint64) (bool, error) {
	f.mx.Lock()
	defer f.mx.Unlock()
	acc, ok := f.accounts[id]
	if !ok || acc.CurrentlySyncing {
		return false, nil
	}
	acc.CurrentlySyncing = true
	acc.LastHeartbeat = time.Now()
	return true, nil
}

func (f *fakeAccounts) ClearSyncing(_ context.Context, id uint64) error {
	f.mx.Lock()
	defer f.mx.Unlock()
	if acc, ok := f.accounts[id]; ok {
		acc.CurrentlySyncing = false
	}
	return nil
}

func (f *fakeAccounts) UpdateHeartbeat(_ context.Context, id uint64, at time.Time) error {
	f.mx.Lock()
	defer f.mx.Unlock()
	if acc, ok := f.accounts[id]; ok {
		acc.LastHeartbeat = at
		f.heartbeats[id]++
	}
	return nil
}

func (f *fakeAccounts) GetStaleSyncing(_ context.Context, olderThan time.Duration) ([]*core.Account, error) {
	f.mx.Lock()
	defer f.mx.Unlock()
	var ret []*core.Account
	for _, acc := range f.accounts {
		if !acc.CurrentlySyncing {
			continue
		}
		if acc.LastHeartbeat.IsZero() || time.Since(acc.LastHeartbeat) > olderThan {
			clone := *acc
			ret = append(ret, &clone)
		}
	}
	return ret, nil
}

func (f *fakeAccounts) UpdateBalance(_ context.Context, id uint64, amount *bunbig.Int, denom string) error {
	f.mx.Lock()
	defer f.mx.Unlock()
	if acc, ok := f.accounts[id]; ok {
		acc.Balance = amount
		acc.BalanceDenom = denom
	}
	return nil
}

func (f *fakeAccounts) heartbeatCount(id uint64) int {
	f.mx.Lock()
	defer f.mx.Unlock()
	return f.heartbeats[id]
}

type fakeTxRepo struct {
	mx      sync.Mutex
	records map[string]*core.TxRecord
	inserts int
}

var _ core.TxRepository = (*fakeTxRepo)(nil)

func newFakeTxRepo() *fakeTxRepo {
	return &fakeTxRepo{records: map[string]*core.TxRecord{}}
}

func recordKey(accountID uint64, category core.TxCategory, hash string) string {
	return fmt.Sprintf("%d/%s/%s", accountID, category, hash)
}

func (f *fakeTxRepo) AddRecord(_ context.Context, rec *core.TxRecord) error {
	f.mx.Lock()
	defer f.mx.Unlock()
	key := recordKey(rec.AccountID, rec.Category, rec.Hash)
	if _, ok := f.records[key]; ok {
		return errors.New("duplicate key value violates unique constraint")
	}
	f.records[key] = rec
	f.inserts++
	return nil
}

func (f *fakeTxRepo) RecordExists(_ context.Context, accountID uint64, category core.TxCategory, hash string) (bool, error) {
	f.mx.Lock()
	defer f.mx.Unlock()
	_, ok := f.records[recordKey(accountID, category, hash)]
	return ok, nil
}

func (f *fakeTxRepo) LatestHeight(_ context.Context, accountID uint64) (uint64, error) {
	f.mx.Lock()
	defer f.mx.Unlock()
	var max uint64
	for _, rec := range f.records {
		if rec.AccountID == accountID && rec.Height > max {
			max = rec.Height
		}
	}
	return max, nil
}

func (f *fakeTxRepo) GetRecords(_ context.Context, _ *core.TxRecordFilter, _, _ int) ([]*core.TxRecord, error) {
	return nil, nil
}

func (f *fakeTxRepo) GetRecordsAfter(_ context.Context, _ uint64, _ int) ([]*core.TxRecord, error) {
	return nil, nil
}

func (f *fakeTxRepo) UpdateParsed(_ context.Context, _ *core.TxRecord) error {
	return nil
}

func (f *fakeTxRepo) insertCount() int {
	f.mx.Lock()
	defer f.mx.Unlock()
	return f.inserts
}

type fetchCall struct {
	filter    string
	minHeight uint64
	page      int
}

type fetchResult struct {
	envelopes []*core.Envelope
	// raw overrides the reported page item count; zero means every item
	// decoded
	raw int
	err error
}

// fakeFetcher pops scripted results per filter in order, returning an
// empty page once a filter's script runs out.
type fakeFetcher struct {
	mx      sync.Mutex
	scripts map[string][]fetchResult
	calls   []fetchCall
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{scripts: map[string][]fetchResult{}}
}

func (f *fakeFetcher) push(filter string, res fetchResult) {
	f.mx.Lock()
	defer f.mx.Unlock()
	f.scripts[filter] = append(f.scripts[filter], res)
}

func (f *fakeFetcher) FetchPage(_ context.Context, filter string, minHeight uint64, page int) ([]*core.Envelope, int, error) {
	f.mx.Lock()
	defer f.mx.Unlock()
	f.calls = append(f.calls, fetchCall{filter: filter, minHeight: minHeight, page: page})

	script := f.scripts[filter]
	if len(script) == 0 {
		return nil, 0, nil
	}
	res := script[0]
	f.scripts[filter] = script[1:]

	fetched := res.raw
	if fetched == 0 {
		fetched = len(res.envelopes)
	}
	return res.envelopes, fetched, res.err
}

func (f *fakeFetcher) callsFor(filter string) []fetchCall {
	f.mx.Lock()
	defer f.mx.Unlock()
	var ret []fetchCall
	for _, c := range f.calls {
		if c.filter == filter {
			ret = append(ret, c)
		}
	}
	return ret
}

func (f *fakeFetcher) callCount() int {
	f.mx.Lock()
	defer f.mx.Unlock()
	return len(f.calls)
}

type fakeNotifier struct {
	mx       sync.Mutex
	notified []*core.TxRecord
}

func (f *fakeNotifier) Notify(_ *core.Account, rec *core.TxRecord) {
	f.mx.Lock()
	defer f.mx.Unlock()
	f.notified = append(f.notified, rec)
}

func (f *fakeNotifier) count() int {
	f.mx.Lock()
	defer f.mx.Unlock()
	return len(f.notified)
}

type fakeBalances struct {
	coins []core.Coin
}

func (f *fakeBalances) FetchBalance(_ context.Context, _ string) ([]core.Coin, error) {
	return f.coins, nil
}
