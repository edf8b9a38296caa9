// internal/services/permit_query_service.go
package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/javajoker/move-permit-backend/internal/models"
	"github.com/javajoker/move-permit-backend/internal/permits"
)

// PermitQueryService serves read-only projections. Nothing here writes.
type PermitQueryService struct {
	store  *PermitStore
	leases LeaseDirectory
}

// PermitSummary counts permits per lifecycle bucket.
type PermitSummary struct {
	Total    int64                         `json:"total"`
	Draft    int64                         `json:"draft"`
	Pending  int64                         `json:"pending"`
	Approved int64                         `json:"approved"`
	Terminal int64                         `json:"terminal"`
	ByStatus map[models.PermitStatus]int64 `json:"by_status"`
}

func NewPermitQueryService(store *PermitStore, leases LeaseDirectory) *PermitQueryService {
	return &PermitQueryService{
		store:  store,
		leases: leases,
	}
}

func (s *PermitQueryService) TenantSummary(ctx context.Context, tenantID uuid.UUID) (*PermitSummary, error) {
	counts, err := s.store.CountByStatus(ctx, PermitScope{TenantID: &tenantID}, nil)
	if err != nil {
		return nil, err
	}
	return summarize(counts), nil
}

// ManagerSummary counts permits on the properties the actor manages,
// optionally narrowed to one property.
func (s *PermitQueryService) ManagerSummary(ctx context.Context, actor permits.Actor, propertyID *uuid.UUID) (*PermitSummary, error) {
	propertyIDs, err := s.managedProperties(ctx, actor)
	if err != nil {
		return nil, err
	}

	counts, err := s.store.CountByStatus(ctx, PermitScope{PropertyIDs: propertyIDs}, propertyID)
	if err != nil {
		return nil, err
	}
	return summarize(counts), nil
}

func (s *PermitQueryService) ListForTenant(ctx context.Context, tenantID uuid.UUID, filter PermitFilter) ([]models.MovePermitRequest, int64, error) {
	return s.store.ListForTenant(ctx, tenantID, filter)
}

func (s *PermitQueryService) ListForManager(ctx context.Context, actor permits.Actor, filter PermitFilter) ([]models.MovePermitRequest, int64, error) {
	propertyIDs, err := s.managedProperties(ctx, actor)
	if err != nil {
		return nil, 0, err
	}
	return s.store.ListForManager(ctx, propertyIDs, filter)
}

// managedProperties returns nil for admins, meaning every property.
func (s *PermitQueryService) managedProperties(ctx context.Context, actor permits.Actor) ([]uuid.UUID, error) {
	switch actor.Role {
	case models.ActorRoleAdmin:
		return nil, nil
	case models.ActorRoleOwner:
		return s.leases.ManagedPropertyIDs(ctx, actor.ID)
	default:
		return nil, fmt.Errorf("%w: %s cannot list managed permits", permits.ErrUnauthorizedActor, actor.Role)
	}
}

func summarize(counts map[models.PermitStatus]int64) *PermitSummary {
	summary := &PermitSummary{ByStatus: make(map[models.PermitStatus]int64)}
	for _, status := range models.PermitStatuses() {
		count := counts[status]
		summary.ByStatus[status] = count
		summary.Total += count

		switch {
		case status == models.PermitStatusDraft:
			summary.Draft += count
		case status == models.PermitStatusSubmitted || status == models.PermitStatusUnderReview:
			summary.Pending += count
		case status == models.PermitStatusApproved:
			summary.Approved += count
		case status.IsTerminal():
			summary.Terminal += count
		}
	}
	return summary
}
