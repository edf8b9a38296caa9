// internal/services/permit_store_test.go
package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/javajoker/move-permit-backend/internal/models"
	"github.com/javajoker/move-permit-backend/internal/permits"
	"github.com/javajoker/move-permit-backend/internal/testutil"
)

type PermitStoreTestSuite struct {
	suite.Suite
	db    *gorm.DB
	store *PermitStore
	ctx   context.Context
}

func (suite *PermitStoreTestSuite) SetupTest() {
	suite.db = testutil.NewDB(suite.T())
	suite.store = NewPermitStore(suite.db)
	suite.ctx = context.Background()
}

func (suite *PermitStoreTestSuite) newDraft(permitType models.PermitType) *models.MovePermitRequest {
	permit := &models.MovePermitRequest{
		ReferenceNumber:   "MI-" + uuid.NewString()[:8],
		TenantID:          uuid.New(),
		PropertyID:        uuid.New(),
		LeaseID:           uuid.New(),
		PermitType:        permitType,
		Status:            models.PermitStatusDraft,
		RequestedMoveDate: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	suite.Require().NoError(suite.store.Create(suite.ctx, permit))
	return permit
}

func (suite *PermitStoreTestSuite) TestGetUnknownPermit() {
	_, err := suite.store.Get(suite.ctx, uuid.New())
	suite.ErrorIs(err, permits.ErrPermitNotFound)
}

func (suite *PermitStoreTestSuite) TestCompareAndSetStatusDetectsStaleWriter() {
	permit := suite.newDraft(models.PermitTypeMoveIn)
	suite.Require().NoError(suite.db.Model(permit).Update("status", models.PermitStatusUnderReview).Error)

	now := time.Now().UTC()
	err := suite.store.CompareAndSetStatus(suite.ctx, permit.ID, models.PermitStatusUnderReview, models.PermitStatusApproved,
		map[string]interface{}{"decided_at": now})
	suite.Require().NoError(err)

	err = suite.store.CompareAndSetStatus(suite.ctx, permit.ID, models.PermitStatusUnderReview, models.PermitStatusRejected, nil)
	suite.ErrorIs(err, permits.ErrStaleState)

	stored, err := suite.store.Get(suite.ctx, permit.ID)
	suite.Require().NoError(err)
	suite.Equal(models.PermitStatusApproved, stored.Status)
	suite.NotNil(stored.DecidedAt)
}

func (suite *PermitStoreTestSuite) TestRemoveVehicleRepacksPositions() {
	permit := suite.newDraft(models.PermitTypeMoveIn)
	for _, plate := range []string{"A-1", "B-2", "C-3"} {
		_, err := suite.store.AppendVehicle(suite.ctx, permit.ID, models.PermitVehicle{PlateNumber: plate, Description: "van"})
		suite.Require().NoError(err)
	}

	suite.Require().NoError(suite.store.RemoveVehicle(suite.ctx, permit.ID, 1))

	stored, err := suite.store.Get(suite.ctx, permit.ID)
	suite.Require().NoError(err)
	suite.Require().Len(stored.Vehicles, 2)
	suite.Equal("A-1", stored.Vehicles[0].PlateNumber)
	suite.Equal(0, stored.Vehicles[0].Position)
	suite.Equal("C-3", stored.Vehicles[1].PlateNumber)
	suite.Equal(1, stored.Vehicles[1].Position)

	suite.ErrorIs(suite.store.RemoveVehicle(suite.ctx, permit.ID, 2), permits.ErrInvalidIndex)
	suite.ErrorIs(suite.store.RemoveVehicle(suite.ctx, permit.ID, -1), permits.ErrInvalidIndex)
}

func (suite *PermitStoreTestSuite) TestSetDocumentSlotUpserts() {
	permit := suite.newDraft(models.PermitTypeMoveOut)

	_, err := suite.store.SetDocumentSlot(suite.ctx, permit.ID, permits.SlotDewaFinalBill, models.DocumentRef{URL: "https://files.test/v1.pdf"})
	suite.Require().NoError(err)
	_, err = suite.store.SetDocumentSlot(suite.ctx, permit.ID, permits.SlotDewaFinalBill, models.DocumentRef{URL: "https://files.test/v2.pdf", Filename: "bill.pdf"})
	suite.Require().NoError(err)

	stored, err := suite.store.Get(suite.ctx, permit.ID)
	suite.Require().NoError(err)
	suite.Require().Len(stored.Documents, 1)
	doc, ok := stored.Document(string(permits.SlotDewaFinalBill))
	suite.True(ok)
	suite.Equal("https://files.test/v2.pdf", doc.URL)
	suite.Equal("bill.pdf", doc.Filename)

	suite.Require().NoError(suite.store.ClearDocumentSlot(suite.ctx, permit.ID, permits.SlotDewaFinalBill))
	stored, err = suite.store.Get(suite.ctx, permit.ID)
	suite.Require().NoError(err)
	suite.Empty(stored.Documents)
}

func (suite *PermitStoreTestSuite) TestSetDocumentSlotRejectsForeignSlot() {
	permit := suite.newDraft(models.PermitTypeMoveOut)

	_, err := suite.store.SetDocumentSlot(suite.ctx, permit.ID, permits.SlotSecurityDepositReceipt, models.DocumentRef{URL: "https://files.test/x.pdf"})
	suite.ErrorIs(err, permits.ErrUnknownDocumentSlot)

	var count int64
	suite.Require().NoError(suite.db.Model(&models.PermitDocument{}).Where("permit_id = ?", permit.ID).Count(&count).Error)
	suite.Zero(count)
}

func (suite *PermitStoreTestSuite) TestDraftMutationsLockedOutsideDraft() {
	permit := suite.newDraft(models.PermitTypeMoveIn)
	suite.Require().NoError(suite.store.CompareAndSetStatus(suite.ctx, permit.ID, models.PermitStatusDraft, models.PermitStatusSubmitted, nil))

	_, err := suite.store.AppendVehicle(suite.ctx, permit.ID, models.PermitVehicle{PlateNumber: "X", Description: "Y"})
	suite.ErrorIs(err, permits.ErrPermitLocked)

	_, err = suite.store.SetDocumentSlot(suite.ctx, permit.ID, permits.SlotPassportCopy, models.DocumentRef{URL: "https://files.test/p.pdf"})
	suite.ErrorIs(err, permits.ErrPermitLocked)

	instructions := "late"
	suite.ErrorIs(suite.store.UpdateDraftFields(suite.ctx, permit.ID, DraftFields{SpecialInstructions: &instructions}), permits.ErrPermitLocked)
	suite.ErrorIs(suite.store.UpdateDraftFields(suite.ctx, uuid.New(), DraftFields{SpecialInstructions: &instructions}), permits.ErrPermitNotFound)
}

func (suite *PermitStoreTestSuite) TestCreateRejectsSecondActivePermit() {
	first := suite.newDraft(models.PermitTypeMoveIn)

	second := &models.MovePermitRequest{
		ReferenceNumber: "MI-SECOND1",
		TenantID:        first.TenantID,
		PropertyID:      first.PropertyID,
		LeaseID:         first.LeaseID,
		PermitType:      models.PermitTypeMoveIn,
		Status:          models.PermitStatusDraft,
	}
	suite.ErrorIs(suite.store.Create(suite.ctx, second), permits.ErrDuplicateActiveRequest)

	active, err := suite.store.HasActivePermit(suite.ctx, first.LeaseID, models.PermitTypeMoveIn, nil)
	suite.Require().NoError(err)
	suite.True(active)

	active, err = suite.store.HasActivePermit(suite.ctx, first.LeaseID, models.PermitTypeMoveIn, &first.ID)
	suite.Require().NoError(err)
	suite.False(active)
}

func (suite *PermitStoreTestSuite) TestEventsAreSequenced() {
	permit := suite.newDraft(models.PermitTypeMoveIn)
	actor := uuid.New()

	for _, step := range []struct {
		cmd      models.PermitCommand
		from, to models.PermitStatus
	}{
		{models.PermitCommandSubmit, models.PermitStatusDraft, models.PermitStatusSubmitted},
		{models.PermitCommandCancel, models.PermitStatusSubmitted, models.PermitStatusCancelled},
	} {
		suite.Require().NoError(suite.store.RecordEvent(suite.ctx, &models.PermitEvent{
			PermitID:   permit.ID,
			Command:    step.cmd,
			FromStatus: step.from,
			ToStatus:   step.to,
			ActorID:    actor,
			ActorRole:  models.ActorRoleTenant,
		}))
	}

	events, err := suite.store.Events(suite.ctx, permit.ID)
	suite.Require().NoError(err)
	suite.Require().Len(events, 2)
	suite.Equal(1, events[0].Sequence)
	suite.Equal(models.PermitCommandSubmit, events[0].Command)
	suite.Equal(2, events[1].Sequence)
	suite.Equal(models.PermitStatusCancelled, events[1].ToStatus)
}

func TestPermitStoreSuite(t *testing.T) {
	suite.Run(t, new(PermitStoreTestSuite))
}
