package service

import (
	"context"
	"errors"
	"sync"

	venueserrors "stagedoor/internal/venues/errors"
	"stagedoor/internal/venues/repository"
	"stagedoor/internal/venues/validator"
	"stagedoor/pkg/config"
	apperrors "stagedoor/pkg/errors"
	"stagedoor/pkg/locale"
	"stagedoor/pkg/model"
	"stagedoor/pkg/sanitizer"
)

type VenueService interface {
	Create(ctx context.Context, venue *model.Venue) error
	GetByID(ctx context.Context, id string) (*model.Venue, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Venue, int64, error)
	Search(ctx context.Context, name string, city string, limit int, offset int64) ([]*model.Venue, int64, error)
	Update(ctx context.Context, id string, updates *model.VenueUpdate) error
	Delete(ctx context.Context, id string) error
	CreateBlock(ctx context.Context, venueID string, block *model.VenueBlock) error
	GetBlocks(ctx context.Context, venueID string, fromDate string, toDate string) ([]*model.VenueBlock, error)
	DeleteBlock(ctx context.Context, venueID string, blockID string) error
}

type venueService struct {
	repo      repository.VenueRepository
	blockRepo repository.VenueBlockRepository
	validator *validator.VenueValidator
	cfg       *config.Config
}

func NewVenueService(
	repo repository.VenueRepository,
	blockRepo repository.VenueBlockRepository,
	validator *validator.VenueValidator,
	cfg *config.Config,
) VenueService {
	return &venueService{
		repo:      repo,
		blockRepo: blockRepo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *venueService) Create(ctx context.Context, venue *model.Venue) error {
	s.sanitize(venue)
	s.applyDefaults(venue)
	if err := s.validate(venue); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, venue); err != nil {
		s.cfg.Log.Error("Failed to create venue", "error", err)
		return apperrors.Internal("Failed to create venue", err)
	}

	s.cfg.Log.Info("Venue created successfully",
		"id", venue.ID,
		"name", venue.Name,
		"city", venue.City,
	)
	return nil
}

func (s *venueService) GetByID(ctx context.Context, id string) (*model.Venue, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Venue ID cannot be empty")
	}

	venue, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, venueserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Venue", id)
		}
		if errors.Is(err, venueserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid venue ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve venue", err)
	}

	return venue, nil
}

func (s *venueService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Venue, int64, error) {
	var count int64
	var venues []*model.Venue
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count venues", "error", errCount)
			errCount = apperrors.Internal("Failed to count venues", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		venues, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list venues", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve venues", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return venues, count, nil
}

func (s *venueService) Search(ctx context.Context, name string, city string, limit int, offset int64) ([]*model.Venue, int64, error) {
	name = sanitizer.NormalizeName(name)
	city = sanitizer.NormalizeCity(city)

	var count int64
	var venues []*model.Venue
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.CountBySearch(ctx, name, city)
		if err != nil {
			s.cfg.Log.Error("Failed to count venues by search", "name", name, "city", city, "error", err)
			errCount = apperrors.Internal("Failed to count venues", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		venues, err = s.repo.Search(ctx, name, city, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to search venues", "name", name, "city", city, "error", err)
			errFind = apperrors.Internal("Failed to search venues", err)
		}
	}()

	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return venues, count, nil
}

func (s *venueService) Update(ctx context.Context, id string, updates *model.VenueUpdate) error {
	if id == "" {
		return apperrors.InvalidInput("Venue ID cannot be empty")
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, venueserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Venue", id)
		}
		if errors.Is(err, venueserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid venue ID format")
		}
		return apperrors.Internal("Failed to check venue existence", err)
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Venue update validation failed", "id", id, "error", err)
		return apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := s.mergeVenueUpdates(existing, updates)
	s.sanitize(merged)
	if err := s.validate(merged); err != nil {
		return err
	}

	if _, err := s.repo.Update(ctx, id, merged); err != nil {
		s.cfg.Log.Error("Failed to update venue", "id", id, "error", err)
		return apperrors.Internal("Failed to update venue", err)
	}

	s.cfg.Log.Info("Venue updated successfully", "id", id)
	return nil
}

func (s *venueService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Venue ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, venueserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Venue", id)
		}
		if errors.Is(err, venueserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid venue ID format")
		}
		return apperrors.Internal("Failed to delete venue", err)
	}

	s.cfg.Log.Info("Venue deleted successfully", "id", id)
	return nil
}

func (s *venueService) CreateBlock(ctx context.Context, venueID string, block *model.VenueBlock) error {
	if _, err := s.GetByID(ctx, venueID); err != nil {
		return err
	}

	block.VenueID = venueID
	block.Reason = sanitizer.NormalizeNotes(block.Reason)

	if err := s.validator.ValidateBlock(block); err != nil {
		s.cfg.Log.Warn("Venue block validation failed", "venue_id", venueID, "error", err)
		return apperrors.Validation("Venue block validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.blockRepo.Create(ctx, block); err != nil {
		s.cfg.Log.Error("Failed to create venue block", "venue_id", venueID, "error", err)
		return apperrors.Internal("Failed to create venue block", err)
	}

	s.cfg.Log.Info("Venue block created",
		"id", block.ID,
		"venue_id", venueID,
		"date", block.Date,
		"full_day", block.FullDay,
	)
	return nil
}

func (s *venueService) GetBlocks(ctx context.Context, venueID string, fromDate string, toDate string) ([]*model.VenueBlock, error) {
	if venueID == "" {
		return nil, apperrors.InvalidInput("Venue ID cannot be empty")
	}
	if fromDate == "" || toDate == "" {
		return nil, apperrors.InvalidInput("Both 'from' and 'to' dates are required")
	}

	blocks, err := s.blockRepo.FindByVenueAndDates(ctx, venueID, fromDate, toDate)
	if err != nil {
		s.cfg.Log.Error("Failed to retrieve venue blocks", "venue_id", venueID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve venue blocks", err)
	}

	return blocks, nil
}

func (s *venueService) DeleteBlock(ctx context.Context, venueID string, blockID string) error {
	block, err := s.blockRepo.FindByID(ctx, blockID)
	if err != nil {
		if errors.Is(err, venueserrors.ErrBlockNotFound) {
			return apperrors.NotFoundWithID("Venue block", blockID)
		}
		if errors.Is(err, venueserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid block ID format")
		}
		return apperrors.Internal("Failed to retrieve venue block", err)
	}

	if block.VenueID != venueID {
		return apperrors.NotFoundWithID("Venue block", blockID)
	}

	if err := s.blockRepo.Delete(ctx, blockID); err != nil {
		return apperrors.Internal("Failed to delete venue block", err)
	}

	s.cfg.Log.Info("Venue block deleted", "id", blockID, "venue_id", venueID)
	return nil
}

// --- Helpers ---

func (s *venueService) sanitize(v *model.Venue) {
	v.Name = sanitizer.NormalizeName(v.Name)
	v.City = sanitizer.NormalizeCity(v.City)
	v.Address = sanitizer.NormalizeName(v.Address)
	v.ContactPhone = sanitizer.NormalizePhone(v.ContactPhone)
}

func (s *venueService) applyDefaults(v *model.Venue) {
	if v.OpenTime == "" {
		v.OpenTime = s.cfg.DefaultOpenTime
	}
	if v.CloseTime == "" {
		v.CloseTime = s.cfg.DefaultCloseTime
	}
	if v.TimeZone == "" {
		v.TimeZone = locale.InferTimezoneFromPhone(v.ContactPhone)
	}
}

func (s *venueService) mergeVenueUpdates(existing *model.Venue, updates *model.VenueUpdate) *model.Venue {
	merged := *existing

	if updates.Name != "" {
		merged.Name = updates.Name
	}
	if updates.City != "" {
		merged.City = updates.City
	}
	if updates.Address != "" {
		merged.Address = updates.Address
	}
	if updates.ContactPhone != "" {
		merged.ContactPhone = updates.ContactPhone
	}
	if updates.TimeZone != "" {
		merged.TimeZone = updates.TimeZone
	}
	if updates.OpenTime != "" {
		merged.OpenTime = updates.OpenTime
	}
	if updates.CloseTime != "" {
		merged.CloseTime = updates.CloseTime
	}
	if updates.SlotApprovalRequired != nil {
		merged.SlotApprovalRequired = *updates.SlotApprovalRequired
	}

	return &merged
}

func (s *venueService) validate(venue *model.Venue) error {
	if err := s.validator.Validate(venue); err != nil {
		s.cfg.Log.Warn("Venue validation failed", "error", err)
		return apperrors.Validation("Venue validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}
