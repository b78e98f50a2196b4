package service

import (
	"context"
	"fmt"

	"golang-signal-scryper/internal/entity"
	"golang-signal-scryper/internal/scanner/dto"
	"golang-signal-scryper/internal/scanner/repository"
	"golang-signal-scryper/pkg/common"
	"golang-signal-scryper/pkg/logger"
	"golang-signal-scryper/pkg/utils"
)

// AccountService manages the monitored roster.
type AccountService interface {
	List(ctx context.Context, req dto.ListAccountsRequest) (*dto.ListAccountsResponse, error)
	Get(ctx context.Context, handle string) (*entity.Account, error)
	Add(ctx context.Context, handle string) (*entity.Account, error)
	ImportFollowing(ctx context.Context, handle string) (*dto.UpsertResult, error)
	UpdateMonitoring(ctx context.Context, handle string, req *dto.UpdateMonitoringRequest) (*entity.Account, error)
	BatchMonitoring(ctx context.Context, req *dto.BatchMonitoringRequest) (int64, error)
	UpdateMetadata(ctx context.Context, handle string, req *dto.UpdateMetadataRequest) (*entity.Account, error)
	ListPosts(ctx context.Context, handle string, limit, offset int) ([]entity.PostAnalysis, error)
}

// NewAccountService creates a new AccountService.
func NewAccountService(
	accountRepo repository.AccountRepository,
	postRepo repository.PostAnalysisRepository,
	source repository.PostSource,
	log *logger.Logger,
) AccountService {
	return &accountService{
		accountRepo: accountRepo,
		postRepo:    postRepo,
		source:      source,
		logger:      log,
	}
}

type accountService struct {
	accountRepo repository.AccountRepository
	postRepo    repository.PostAnalysisRepository
	source      repository.PostSource
	logger      *logger.Logger
}

func (s *accountService) List(ctx context.Context, req dto.ListAccountsRequest) (*dto.ListAccountsResponse, error) {
	accounts, total, err := s.accountRepo.List(ctx, repository.AccountFilter{
		Search:    req.Search,
		IsActive:  req.IsActive(),
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
		Limit:     req.Limit,
		Offset:    req.Offset,
	})
	if err != nil {
		s.logger.Error("Failed to list accounts", logger.ErrorField(err))
		return nil, err
	}
	if accounts == nil {
		accounts = []entity.Account{}
	}
	return &dto.ListAccountsResponse{Items: accounts, Total: total}, nil
}

func (s *accountService) Get(ctx context.Context, handle string) (*entity.Account, error) {
	return s.accountRepo.FindByHandle(ctx, utils.NormalizeHandle(handle))
}

// Add puts a handle under active monitoring. The profile snapshot comes from the
// post source when it is reachable; otherwise the account starts with a bare profile.
func (s *accountService) Add(ctx context.Context, handle string) (*entity.Account, error) {
	handle = utils.NormalizeHandle(handle)
	if handle == "" {
		return nil, fmt.Errorf("%w: handle is required", common.ErrInvalidArgument)
	}

	account := newAccount(dto.Profile{Handle: handle, DisplayName: handle}, entity.AddedByManual)
	profile, err := s.source.FetchProfile(ctx, handle)
	if err != nil {
		s.logger.Warn("Failed to fetch profile, adding account without it",
			logger.StringField("handle", handle),
			logger.ErrorField(err),
		)
	} else {
		profile.Handle = handle
		account = newAccount(*profile, entity.AddedByManual)
	}
	account.Monitoring.IsActive = true

	saved, err := s.accountRepo.EnsureActive(ctx, &account)
	if err != nil {
		s.logger.Error("Failed to add account", logger.StringField("handle", handle), logger.ErrorField(err))
		return nil, err
	}
	return saved, nil
}

// ImportFollowing adds every account followed by handle. New rows start inactive.
func (s *accountService) ImportFollowing(ctx context.Context, handle string) (*dto.UpsertResult, error) {
	handle = utils.NormalizeHandle(handle)
	if handle == "" {
		return nil, fmt.Errorf("%w: handle is required", common.ErrInvalidArgument)
	}

	profiles, err := s.source.FetchFollowing(ctx, handle)
	if err != nil {
		return nil, err
	}

	accounts := make([]entity.Account, 0, len(profiles))
	for _, p := range profiles {
		accounts = append(accounts, newAccount(p, entity.AddedByFollowingScan))
	}

	inserted, updated, err := s.accountRepo.Upsert(ctx, accounts)
	if err != nil {
		s.logger.Error("Failed to import following", logger.StringField("handle", handle), logger.ErrorField(err))
		return nil, err
	}

	s.logger.Info("Imported following",
		logger.StringField("handle", handle),
		logger.IntField("inserted", inserted),
		logger.IntField("updated", updated),
	)
	return &dto.UpsertResult{Inserted: inserted, Updated: updated}, nil
}

func (s *accountService) UpdateMonitoring(ctx context.Context, handle string, req *dto.UpdateMonitoringRequest) (*entity.Account, error) {
	var frequency *entity.ScanFrequency
	if req.ScanFrequency != nil {
		f := entity.ScanFrequency(*req.ScanFrequency)
		if !validScanFrequency(f) {
			return nil, fmt.Errorf("%w: unknown scan_frequency %q", common.ErrInvalidArgument, f)
		}
		frequency = &f
	}
	return s.accountRepo.UpdateMonitoring(ctx, utils.NormalizeHandle(handle), req.IsActive, frequency)
}

func (s *accountService) BatchMonitoring(ctx context.Context, req *dto.BatchMonitoringRequest) (int64, error) {
	if req.IsActive == nil {
		return 0, fmt.Errorf("%w: is_active is required", common.ErrInvalidArgument)
	}
	handles := make([]string, 0, len(req.Handles))
	for _, h := range req.Handles {
		if h = utils.NormalizeHandle(h); h != "" {
			handles = append(handles, h)
		}
	}
	return s.accountRepo.SetActiveBatch(ctx, handles, *req.IsActive)
}

func (s *accountService) UpdateMetadata(ctx context.Context, handle string, req *dto.UpdateMetadataRequest) (*entity.Account, error) {
	return s.accountRepo.UpdateMetadata(ctx, utils.NormalizeHandle(handle), req.Tags, req.Notes)
}

func (s *accountService) ListPosts(ctx context.Context, handle string, limit, offset int) ([]entity.PostAnalysis, error) {
	posts, err := s.postRepo.ListByHandle(ctx, utils.NormalizeHandle(handle), limit, offset)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []entity.PostAnalysis{}
	}
	return posts, nil
}

func newAccount(p dto.Profile, addedBy entity.AddedBy) entity.Account {
	now := utils.TimeNow()
	return entity.Account{
		Handle:      utils.NormalizeHandle(p.Handle),
		UserID:      p.UserID,
		DisplayName: p.DisplayName,
		Profile: entity.AccountProfile{
			Bio:             p.Bio,
			FollowersCount:  p.FollowersCount,
			FollowingCount:  p.FollowingCount,
			Verified:        p.Verified,
			ProfileImageURL: p.ProfileImageURL,
		},
		Monitoring: entity.MonitoringSettings{
			AddedAt:       now,
			AddedBy:       addedBy,
			ScanFrequency: entity.ScanFrequencyHourly,
		},
		QualityRating: entity.QualityRating{LastUpdated: now},
		MainTopics:    stringArray(nil),
		Tags:          stringArray(nil),
	}
}

func validScanFrequency(f entity.ScanFrequency) bool {
	switch f {
	case entity.ScanFrequencyRealTime, entity.ScanFrequencyHourly, entity.ScanFrequencyDaily:
		return true
	}
	return false
}
