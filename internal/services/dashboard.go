package services

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/regional-voices/backend/internal/models"
	"github.com/anonto42/regional-voices/backend/internal/repositories"
)

// RegionContributions is one region and its contributions, newest first
type RegionContributions struct {
	Region        models.Region
	Contributions []models.Contribution
}

// DashboardStats is the staff dashboard summary
type DashboardStats struct {
	TotalUsers         int64
	ActiveUsers        int64
	TotalContributions int64
	ByRegion           []RegionContributions
}

// DashboardService computes read-only usage statistics
type DashboardService struct {
	users         repositories.UserRepository
	sessions      repositories.SessionRepository
	contributions repositories.ContributionRepository
	regions       repositories.RegionRepository
	now           func() time.Time
}

// NewDashboardService creates a DashboardService
func NewDashboardService(users repositories.UserRepository, sessions repositories.SessionRepository, contributions repositories.ContributionRepository, regions repositories.RegionRepository) *DashboardService {
	return &DashboardService{
		users:         users,
		sessions:      sessions,
		contributions: contributions,
		regions:       regions,
		now:           time.Now,
	}
}

// Stats counts users, unexpired sessions and contributions and groups
// contributions by region. Active users are sessions, not distinct users.
func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}
	var err error

	if stats.TotalUsers, err = s.users.CountUsers(ctx); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if stats.ActiveUsers, err = s.sessions.CountActive(ctx, s.now()); err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}
	if stats.TotalContributions, err = s.contributions.CountContributions(ctx); err != nil {
		return nil, fmt.Errorf("count contributions: %w", err)
	}

	regions, err := s.regions.ListRegions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list regions: %w", err)
	}
	all, err := s.contributions.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list contributions: %w", err)
	}

	byRegion := make(map[uint][]models.Contribution, len(regions))
	for _, c := range all {
		byRegion[c.RegionID] = append(byRegion[c.RegionID], c)
	}
	stats.ByRegion = make([]RegionContributions, 0, len(regions))
	for _, r := range regions {
		stats.ByRegion = append(stats.ByRegion, RegionContributions{Region: r, Contributions: byRegion[r.ID]})
	}
	return stats, nil
}
