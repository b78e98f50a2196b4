package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang-signal-scryper/internal/entity"
	"golang-signal-scryper/internal/scanner/dto"
	"golang-signal-scryper/internal/scanner/repository"
	"golang-signal-scryper/pkg/common"
	"golang-signal-scryper/pkg/utils"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

type fakeAccountRepo struct {
	mu           sync.Mutex
	accounts     map[string]*entity.Account
	findErr      error
	summaryCalls int
}

func newFakeAccountRepo(accounts ...entity.Account) *fakeAccountRepo {
	r := &fakeAccountRepo{accounts: map[string]*entity.Account{}}
	for i := range accounts {
		a := accounts[i]
		r.accounts[a.Handle] = &a
	}
	return r
}

func (r *fakeAccountRepo) get(handle string) entity.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.accounts[handle]
}

func (r *fakeAccountRepo) FindActive(ctx context.Context) ([]entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	var out []entity.Account
	for _, a := range r.accounts {
		if a.Monitoring.IsActive {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Handle < out[j].Handle })
	return out, nil
}

func (r *fakeAccountRepo) FindByHandle(ctx context.Context, handle string) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[handle]
	if !ok {
		return nil, common.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAccountRepo) List(ctx context.Context, filter repository.AccountFilter) ([]entity.Account, int64, error) {
	all, _ := r.FindActive(ctx)
	return all, int64(len(all)), nil
}

func (r *fakeAccountRepo) Upsert(ctx context.Context, accounts []entity.Account) (int, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var inserted, updated int
	for i := range accounts {
		a := accounts[i]
		if existing, ok := r.accounts[a.Handle]; ok {
			existing.Profile = a.Profile
			existing.DisplayName = a.DisplayName
			updated++
			continue
		}
		a.Monitoring.IsActive = false
		r.accounts[a.Handle] = &a
		inserted++
	}
	return inserted, updated, nil
}

func (r *fakeAccountRepo) EnsureActive(ctx context.Context, account *entity.Account) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.accounts[account.Handle]; ok {
		existing.Monitoring.IsActive = true
		cp := *existing
		return &cp, nil
	}
	a := *account
	a.Monitoring.IsActive = true
	r.accounts[a.Handle] = &a
	return &a, nil
}

func (r *fakeAccountRepo) UpdateMonitoring(ctx context.Context, handle string, isActive *bool, frequency *entity.ScanFrequency) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[handle]
	if !ok {
		return nil, common.ErrAccountNotFound
	}
	if isActive != nil {
		a.Monitoring.IsActive = *isActive
	}
	if frequency != nil {
		a.Monitoring.ScanFrequency = *frequency
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAccountRepo) SetActiveBatch(ctx context.Context, handles []string, isActive bool) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, h := range handles {
		if a, ok := r.accounts[h]; ok {
			a.Monitoring.IsActive = isActive
			n++
		}
	}
	return n, nil
}

func (r *fakeAccountRepo) UpdateMetadata(ctx context.Context, handle string, tags []string, notes *string) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[handle]
	if !ok {
		return nil, common.ErrAccountNotFound
	}
	if tags != nil {
		a.Tags = pq.StringArray(tags)
	}
	if notes != nil {
		a.Notes = *notes
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAccountRepo) UpdateSummary(ctx context.Context, handle string, summary repository.AccountSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[handle]
	if !ok {
		return common.ErrAccountNotFound
	}
	r.summaryCalls++
	a.Stats = summary.Stats
	a.QualityRating = summary.Rating
	a.RecentMentions = datatypes.JSONSlice[entity.RecentMention](summary.RecentMentions)
	a.MainTopics = pq.StringArray(summary.MainTopics)
	return nil
}

type fakePostRepo struct {
	mu    sync.Mutex
	posts map[string]*entity.PostAnalysis
	order []string
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: map[string]*entity.PostAnalysis{}}
}

func (r *fakePostRepo) get(postID string) entity.PostAnalysis {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.posts[postID]
}

func (r *fakePostRepo) Upsert(ctx context.Context, post *entity.PostAnalysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *post
	if existing, ok := r.posts[post.PostID]; ok {
		cp.Notification = existing.Notification
	} else {
		r.order = append(r.order, post.PostID)
	}
	r.posts[post.PostID] = &cp
	return nil
}

func (r *fakePostRepo) FindByPostID(ctx context.Context, postID string) (*entity.PostAnalysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[postID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakePostRepo) FindAllByHandle(ctx context.Context, handle string) ([]entity.PostAnalysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.PostAnalysis
	for _, id := range r.order {
		if p := r.posts[id]; p.AccountHandle == handle {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakePostRepo) ListByHandle(ctx context.Context, handle string, limit, offset int) ([]entity.PostAnalysis, error) {
	return r.FindAllByHandle(ctx, handle)
}

func (r *fakePostRepo) UpdateNotificationDecision(ctx context.Context, postID string, shouldNotify bool, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.posts[postID]
	p.Notification.ShouldNotify = shouldNotify
	p.Notification.Reason = reason
	return nil
}

func (r *fakePostRepo) MarkNotified(ctx context.Context, postID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.posts[postID]
	p.Notification.Notified = true
	p.Notification.NotifiedAt = utils.ToPointer(at)
	return nil
}

type fakeConfigRepo struct {
	mu    sync.Mutex
	cfg   *entity.ScanConfig
	loads int
	saves int
	err   error
}

func (r *fakeConfigRepo) GetOrCreate(ctx context.Context, defaults entity.ScanConfig) (*entity.ScanConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads++
	if r.err != nil {
		return nil, r.err
	}
	if r.cfg == nil {
		cfg := defaults
		cfg.ID = 1
		r.cfg = &cfg
	}
	cp := *r.cfg
	return &cp, nil
}

func (r *fakeConfigRepo) Save(ctx context.Context, cfg *entity.ScanConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	cp := *cfg
	r.cfg = &cp
	return nil
}

type fakeCycleRepo struct {
	mu     sync.Mutex
	cycles map[string]entity.ScanCycle
	recent []entity.ScanCycle
}

func newFakeCycleRepo() *fakeCycleRepo {
	return &fakeCycleRepo{cycles: map[string]entity.ScanCycle{}}
}

func (r *fakeCycleRepo) Create(ctx context.Context, cycle *entity.ScanCycle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cycles[cycle.ID] = *cycle
	return nil
}

func (r *fakeCycleRepo) Update(ctx context.Context, cycle *entity.ScanCycle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cycles[cycle.ID] = *cycle
	return nil
}

func (r *fakeCycleRepo) FindRecent(ctx context.Context, limit int) ([]entity.ScanCycle, error) {
	return r.recent, nil
}

// fakeSource serves canned posts and tracks how many fetches run at once.
type fakeSource struct {
	mu        sync.Mutex
	posts     map[string][]dto.Post
	errs      map[string]error
	profile   *dto.Profile
	following []dto.Profile
	delay     time.Duration
	onFetch   func()
	started   chan string
	release   chan struct{}

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	fetches     atomic.Int32
}

func (f *fakeSource) FetchRecentPosts(ctx context.Context, handle string, limit int) ([]dto.Post, error) {
	f.fetches.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.maxInFlight.Load()
		if n <= peak || f.maxInFlight.CompareAndSwap(peak, n) {
			break
		}
	}

	if f.started != nil {
		f.started <- handle
	}
	if f.release != nil {
		<-f.release
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.onFetch != nil {
		f.onFetch()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[handle]; err != nil {
		return nil, err
	}
	return f.posts[handle], nil
}

func (f *fakeSource) FetchProfile(ctx context.Context, handle string) (*dto.Profile, error) {
	if f.profile == nil {
		return nil, errors.New("profile unavailable")
	}
	p := *f.profile
	return &p, nil
}

func (f *fakeSource) FetchFollowing(ctx context.Context, handle string) ([]dto.Profile, error) {
	return f.following, nil
}

type fakeDispatcher struct {
	mu    sync.Mutex
	sent  []dto.Notification
	calls int
	err   error
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, n dto.Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, n)
	return nil
}

type fakeLock struct {
	acquired bool
	err      error
	released atomic.Int32
}

func (l *fakeLock) Acquire(ctx context.Context) (bool, error) { return l.acquired, l.err }

func (l *fakeLock) Release(ctx context.Context) error {
	l.released.Add(1)
	return nil
}

func activeAccount(handle string, followers int64) entity.Account {
	return entity.Account{
		Handle:     handle,
		Profile:    entity.AccountProfile{FollowersCount: followers},
		Monitoring: entity.MonitoringSettings{IsActive: true, ScanFrequency: entity.ScanFrequencyHourly},
	}
}
