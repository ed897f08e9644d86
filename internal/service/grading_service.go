package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-assessment-api/internal/dto"
	"github.com/noah-isme/sma-assessment-api/internal/models"
	"github.com/noah-isme/sma-assessment-api/pkg/database"
	appErrors "github.com/noah-isme/sma-assessment-api/pkg/errors"
	"github.com/noah-isme/sma-assessment-api/pkg/validation"
)

// Sentinel grades produced when no band applies or bands cannot be loaded.
const (
	FailGrade   = "F"
	FailRemark  = "Fail"
	ErrorRemark = "Error"
)

const (
	bandEpsilon  = 1e-9
	bandCoverage = 0.01
)

// DefaultGradeLevels is the built-in table used when a school has no grading system.
// Neighbouring bands share their boundary; the higher band wins.
func DefaultGradeLevels() []models.GradeLevel {
	return []models.GradeLevel{
		{MinScore: 80, MaxScore: 100, Grade: "A1", Remark: "Excellent"},
		{MinScore: 70, MaxScore: 80, Grade: "A2", Remark: "Very Good"},
		{MinScore: 60, MaxScore: 70, Grade: "B1", Remark: "Good"},
		{MinScore: 50, MaxScore: 60, Grade: "B2", Remark: "Fair"},
		{MinScore: 45, MaxScore: 50, Grade: "C1", Remark: "Pass"},
		{MinScore: 40, MaxScore: 45, Grade: "C2", Remark: "Weak Pass"},
		{MinScore: 0, MaxScore: 40, Grade: FailGrade, Remark: FailRemark},
	}
}

type gradingSystemRepository interface {
	FindDefault(ctx context.Context, schoolID string) (*models.GradingSystem, error)
	FindByID(ctx context.Context, id string) (*models.GradingSystem, error)
	ListBySchool(ctx context.Context, schoolID string) ([]models.GradingSystem, error)
	Create(ctx context.Context, system *models.GradingSystem) error
	ReplaceLevels(ctx context.Context, systemID string, levels []models.GradeLevel) error
	SetDefault(ctx context.Context, schoolID, systemID string) error
	Delete(ctx context.Context, id string) error
}

// GradingCache caches a school's default grading system. Invalidate also drops
// cached values that embed grades resolved from it.
type GradingCache interface {
	Get(ctx context.Context, schoolID string) (*models.GradingSystem, bool)
	Set(ctx context.Context, schoolID string, system *models.GradingSystem)
	Invalidate(ctx context.Context, schoolID string)
}

// GradeScale resolves totals against one loaded set of bands.
type GradeScale struct {
	levels []models.GradeLevel
	failed bool
}

// NewGradeScale orders levels by descending maximum score. An empty set
// falls back to DefaultGradeLevels.
func NewGradeScale(levels []models.GradeLevel) *GradeScale {
	if len(levels) == 0 {
		levels = DefaultGradeLevels()
	}
	ordered := make([]models.GradeLevel, len(levels))
	copy(ordered, levels)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].MaxScore > ordered[j].MaxScore })
	return &GradeScale{levels: ordered}
}

func failedGradeScale() *GradeScale {
	return &GradeScale{failed: true}
}

// Resolve returns the first band containing total, {F, Fail} when none does and
// nil for a nil total. A scale whose bands could not be loaded yields {F, Error}.
func (s *GradeScale) Resolve(total *float64) *models.GradeResult {
	if total == nil {
		return nil
	}
	if s == nil || s.failed {
		return &models.GradeResult{Grade: FailGrade, Remark: ErrorRemark, Fallback: true}
	}
	for _, level := range s.levels {
		if level.MinScore <= *total && *total <= level.MaxScore {
			return &models.GradeResult{Grade: level.Grade, Remark: level.Remark}
		}
	}
	return &models.GradeResult{Grade: FailGrade, Remark: FailRemark}
}

// Degraded reports whether the scale stands in for bands that failed to load.
func (s *GradeScale) Degraded() bool {
	return s == nil || s.failed
}

// Levels returns the ordered bands of the scale.
func (s *GradeScale) Levels() []models.GradeLevel {
	if s == nil {
		return nil
	}
	return s.levels
}

// GradingService resolves grades and manages school grading systems.
type GradingService struct {
	repo      gradingSystemRepository
	cache     GradingCache
	metrics   *MetricsService
	validator *validation.Validator
	logger    *zap.Logger
}

// NewGradingService constructs the grading service. cache may be nil.
func NewGradingService(repo gradingSystemRepository, cache GradingCache, metrics *MetricsService, validator *validation.Validator, logger *zap.Logger) *GradingService {
	if validator == nil {
		validator = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradingService{repo: repo, cache: cache, metrics: metrics, validator: validator, logger: logger}
}

// LoadScale loads the school's default bands once for repeated resolution.
// Lookup failures never propagate; they produce a scale that resolves to {F, Error}.
func (s *GradingService) LoadScale(ctx context.Context, schoolID string) *GradeScale {
	if s.cache != nil {
		if system, ok := s.cache.Get(ctx, schoolID); ok {
			return s.scaleFor(system)
		}
	}

	system, err := s.repo.FindDefault(ctx, schoolID)
	if err != nil {
		if !database.IsNotFound(err) {
			s.logger.Warn("grading system lookup failed", zap.String("school_id", schoolID), zap.Error(err))
			s.metrics.RecordGradingFallback("lookup_error")
			return failedGradeScale()
		}
		system = &models.GradingSystem{SchoolID: schoolID}
	}
	if s.cache != nil {
		s.cache.Set(ctx, schoolID, system)
	}
	return s.scaleFor(system)
}

func (s *GradingService) scaleFor(system *models.GradingSystem) *GradeScale {
	if system == nil || len(system.Levels) == 0 {
		s.metrics.RecordGradingFallback("default_table")
		return NewGradeScale(nil)
	}
	return NewGradeScale(system.Levels)
}

// ResolveGrade maps a total to a grade for the school. A nil total yields nil.
func (s *GradingService) ResolveGrade(ctx context.Context, total *float64, schoolID string) *models.GradeResult {
	if total == nil {
		return nil
	}
	return s.LoadScale(ctx, schoolID).Resolve(total)
}

// ListSystems returns the school's grading systems with band issues flagged.
func (s *GradingService) ListSystems(ctx context.Context, actor AuthorizationContext) ([]models.GradingSystem, error) {
	systems, err := s.repo.ListBySchool(ctx, actor.SchoolID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list grading systems")
	}
	for i := range systems {
		systems[i].Issues = AnalyzeGradeLevels(systems[i].Levels)
	}
	return systems, nil
}

// CreateSystem stores a new grading system for the actor's school.
func (s *GradingService) CreateSystem(ctx context.Context, actor AuthorizationContext, req dto.CreateGradingSystemRequest) (*models.GradingSystem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, s.validator.Message(err))
	}
	levels, err := toGradeLevels(req.Levels)
	if err != nil {
		return nil, err
	}
	system := &models.GradingSystem{
		SchoolID:  actor.SchoolID,
		Name:      strings.TrimSpace(req.Name),
		IsDefault: req.IsDefault,
		Levels:    levels,
	}
	if err := s.repo.Create(ctx, system); err != nil {
		if database.KindOf(err) == database.KindUniqueViolation {
			return nil, appErrors.Clone(appErrors.ErrConflict, "grading system name already exists")
		}
		return nil, appErrors.Internal(err, "failed to create grading system")
	}
	s.invalidate(ctx, actor.SchoolID)
	system.Issues = AnalyzeGradeLevels(system.Levels)
	s.logger.Info("grading system created", zap.String("school_id", actor.SchoolID), zap.String("grading_system_id", system.ID))
	return system, nil
}

// ReplaceLevels rewrites the bands of a grading system.
func (s *GradingService) ReplaceLevels(ctx context.Context, actor AuthorizationContext, systemID string, req dto.ReplaceGradeLevelsRequest) (*models.GradingSystem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, s.validator.Message(err))
	}
	system, err := s.findOwned(ctx, actor, systemID)
	if err != nil {
		return nil, err
	}
	levels, err := toGradeLevels(req.Levels)
	if err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceLevels(ctx, system.ID, levels); err != nil {
		return nil, appErrors.Internal(err, "failed to replace grade levels")
	}
	s.invalidate(ctx, actor.SchoolID)
	system.Levels = NewGradeScale(levels).Levels()
	system.Issues = AnalyzeGradeLevels(system.Levels)
	system.UpdatedAt = time.Now().UTC()
	return system, nil
}

// SetDefault makes a grading system the school's default.
func (s *GradingService) SetDefault(ctx context.Context, actor AuthorizationContext, systemID string) error {
	if _, err := s.findOwned(ctx, actor, systemID); err != nil {
		return err
	}
	if err := s.repo.SetDefault(ctx, actor.SchoolID, systemID); err != nil {
		if database.IsNotFound(err) {
			return appErrors.Clone(appErrors.ErrNotFound, "grading system not found")
		}
		return appErrors.Internal(err, "failed to set default grading system")
	}
	s.invalidate(ctx, actor.SchoolID)
	return nil
}

// DeleteSystem removes a non-default grading system.
func (s *GradingService) DeleteSystem(ctx context.Context, actor AuthorizationContext, systemID string) error {
	system, err := s.findOwned(ctx, actor, systemID)
	if err != nil {
		return err
	}
	if system.IsDefault {
		return appErrors.Clone(appErrors.ErrConflict, "default grading system cannot be deleted")
	}
	if err := s.repo.Delete(ctx, systemID); err != nil {
		if database.IsNotFound(err) {
			return appErrors.Clone(appErrors.ErrNotFound, "grading system not found")
		}
		return appErrors.Internal(err, "failed to delete grading system")
	}
	s.invalidate(ctx, actor.SchoolID)
	return nil
}

func (s *GradingService) findOwned(ctx context.Context, actor AuthorizationContext, systemID string) (*models.GradingSystem, error) {
	system, err := s.repo.FindByID(ctx, systemID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grading system not found")
		}
		return nil, appErrors.Internal(err, "failed to load grading system")
	}
	if err := actor.ensureSchool(system.SchoolID); err != nil {
		return nil, err
	}
	return system, nil
}

func (s *GradingService) invalidate(ctx context.Context, schoolID string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, schoolID)
	}
}

func toGradeLevels(reqs []dto.GradeLevelRequest) ([]models.GradeLevel, error) {
	levels := make([]models.GradeLevel, 0, len(reqs))
	for i, req := range reqs {
		if req.MinScore > req.MaxScore {
			return nil, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("level %d (%s): minScore %s exceeds maxScore %s", i+1, req.Grade, formatScore(req.MinScore), formatScore(req.MaxScore)))
		}
		levels = append(levels, models.GradeLevel{
			MinScore: req.MinScore,
			MaxScore: req.MaxScore,
			Grade:    strings.TrimSpace(req.Grade),
			Remark:   strings.TrimSpace(req.Remark),
		})
	}
	return levels, nil
}

// AnalyzeGradeLevels flags overlapping and non-contiguous neighbouring bands.
// Bands may share a boundary, and a gap of up to 0.01 is treated as contiguous
// for two-decimal scores.
func AnalyzeGradeLevels(levels []models.GradeLevel) []models.GradeLevelIssue {
	if len(levels) == 0 {
		return nil
	}
	ordered := NewGradeScale(levels).Levels()
	var issues []models.GradeLevelIssue
	for i := 0; i+1 < len(ordered); i++ {
		upper, lower := ordered[i], ordered[i+1]
		switch {
		case lower.MaxScore > upper.MinScore+bandEpsilon:
			issues = append(issues, models.GradeLevelIssue{
				Kind:   models.GradeLevelOverlap,
				Upper:  upper.Grade,
				Lower:  lower.Grade,
				Detail: fmt.Sprintf("%s ends at %s above %s start %s", lower.Grade, formatScore(lower.MaxScore), upper.Grade, formatScore(upper.MinScore)),
			})
		case upper.MinScore-lower.MaxScore > bandCoverage+bandEpsilon:
			issues = append(issues, models.GradeLevelIssue{
				Kind:   models.GradeLevelGap,
				Upper:  upper.Grade,
				Lower:  lower.Grade,
				Detail: fmt.Sprintf("scores between %s and %s match no band", formatScore(lower.MaxScore), formatScore(upper.MinScore)),
			})
		}
	}
	return issues
}

type cachedGradingCache struct {
	cache *CacheService
	ttl   time.Duration
}

// NewGradingCache adapts the cache service to the GradingCache port.
func NewGradingCache(cache *CacheService, ttl time.Duration) GradingCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &cachedGradingCache{cache: cache, ttl: ttl}
}

// GradingCacheKey is the cache key of a school's default grading system.
func GradingCacheKey(schoolID string) string {
	return "grading:school:" + schoolID
}

func (c *cachedGradingCache) Get(ctx context.Context, schoolID string) (*models.GradingSystem, bool) {
	var system models.GradingSystem
	if !c.cache.Get(ctx, GradingCacheKey(schoolID), &system) {
		return nil, false
	}
	return &system, true
}

func (c *cachedGradingCache) Set(ctx context.Context, schoolID string, system *models.GradingSystem) {
	if system == nil {
		return
	}
	c.cache.Set(ctx, GradingCacheKey(schoolID), system, c.ttl)
}

// Sheet keys are not school scoped, so every cached sheet goes.
func (c *cachedGradingCache) Invalidate(ctx context.Context, schoolID string) {
	c.cache.Delete(ctx, GradingCacheKey(schoolID))
	c.cache.Invalidate(ctx, sheetCachePattern)
}
