package vacation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlashr/vacation-engine/vacation"
	"github.com/atlashr/vacation-engine/vacation/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type workflowFixture struct {
	workflow *vacation.ApprovalWorkflow
	ledger   *vacation.GrantLedger
	policy   *vacation.VacationPolicy
	mem      *store.Memory
}

func newWorkflowFixture(t *testing.T, approverCount int) *workflowFixture {
	t.Helper()

	mem := store.NewMemory()
	users := vacation.NewStaticDirectory()
	users.Add("emp-1", "Mina Park")
	users.Add("mgr-1", "Jonas Wei")
	users.Add("mgr-2", "Sara Ito")
	clock := vacation.FixedClock{At: testNow}
	ledger := vacation.NewGrantLedger(mem, clock, users)

	catalog := vacation.NewPolicyCatalog(mem, clock)
	amt := vacation.DaysInt(3)
	id, err := catalog.Register(context.Background(), vacation.PolicyInput{
		Name:                  "Sick Leave",
		VacationType:          "sick",
		GrantMethod:           vacation.GrantOnRequest,
		GrantTime:             &amt,
		ApprovalRequiredCount: approverCount,
		EffectiveType:         vacation.EffectiveImmediate,
		ExpirationType:        vacation.ExpireAfterThreeMonths,
		CanDelete:             true,
	})
	require.NoError(t, err)
	policy, err := catalog.Get(context.Background(), id)
	require.NoError(t, err)

	return &workflowFixture{
		workflow: vacation.NewApprovalWorkflow(mem, ledger, clock, users),
		ledger:   ledger,
		policy:   policy,
		mem:      mem,
	}
}

func (f *workflowFixture) submit(t *testing.T, approvers ...string) *vacation.GrantRequest {
	t.Helper()
	req, err := f.workflow.Submit(context.Background(), vacation.SubmitInput{
		UserID:      "emp-1",
		Policy:      f.policy,
		Description: "flu",
		ApproverIDs: approvers,
	})
	require.NoError(t, err)
	return req
}

func (f *workflowFixture) rows(t *testing.T, id vacation.RequestID) []vacation.VacationApproval {
	t.Helper()
	rows, err := f.workflow.Approvals(context.Background(), id)
	require.NoError(t, err)
	return rows
}

// =============================================================================
// SUBMISSION
// =============================================================================

func TestApprovalWorkflow_Submit_CreatesOrderedPendingRows(t *testing.T) {
	// GIVEN: A two-approver policy
	// WHEN: Submitting with two approvers
	// THEN: The request is in progress with ordered pending rows and no grant

	f := newWorkflowFixture(t, 2)
	req := f.submit(t, "mgr-1", "mgr-2")

	assert.Equal(t, vacation.RequestInProgress, req.Status)
	assert.Nil(t, req.GrantID)

	rows := f.rows(t, req.ID)
	require.Len(t, rows, 2)
	assert.Equal(t, "mgr-1", rows[0].ApproverID)
	assert.Equal(t, 1, rows[0].ApprovalOrder)
	assert.Equal(t, vacation.ApprovalPending, rows[0].Status)
	assert.Equal(t, "mgr-2", rows[1].ApproverID)
	assert.Equal(t, 2, rows[1].ApprovalOrder)

	grants, err := f.ledger.ListGrants(context.Background(), "emp-1")
	require.NoError(t, err)
	assert.Empty(t, grants, "no grant exists while the request is in progress")
}

func TestApprovalWorkflow_Submit_ApproverCountMustMatchPolicy(t *testing.T) {
	// GIVEN: A two-approver policy
	// WHEN: Submitting with a single approver
	// THEN: Submission fails with ErrInvalidValue

	f := newWorkflowFixture(t, 2)

	_, err := f.workflow.Submit(context.Background(), vacation.SubmitInput{
		UserID:      "emp-1",
		Policy:      f.policy,
		ApproverIDs: []string{"mgr-1"},
	})
	assert.ErrorIs(t, err, vacation.ErrInvalidValue)
}

func TestApprovalWorkflow_Submit_UnknownApprover_Rejected(t *testing.T) {
	// GIVEN: An approver id not present in the directory
	// WHEN: Submitting
	// THEN: Submission fails with ErrNotFound and nothing is saved

	f := newWorkflowFixture(t, 1)

	_, err := f.workflow.Submit(context.Background(), vacation.SubmitInput{
		UserID:      "emp-1",
		Policy:      f.policy,
		ApproverIDs: []string{"ghost"},
	})
	require.ErrorIs(t, err, vacation.ErrNotFound)

	requests, err := f.workflow.ListRequests(context.Background(), "emp-1")
	require.NoError(t, err)
	assert.Empty(t, requests)
}

// =============================================================================
// SEQUENTIAL APPROVAL
// =============================================================================

func TestApprovalWorkflow_Approve_FinalApprovalMaterializesGrant(t *testing.T) {
	// GIVEN: A submitted two-approver request
	// WHEN: Both approvers act in order
	// THEN: The request becomes approved, a grant exists, and grantId links it

	f := newWorkflowFixture(t, 2)
	ctx := context.Background()
	req := f.submit(t, "mgr-1", "mgr-2")
	rows := f.rows(t, req.ID)

	mid, err := f.workflow.Approve(ctx, rows[0].ID, "mgr-1")
	require.NoError(t, err)
	assert.Equal(t, vacation.RequestInProgress, mid.Status, "request stays open until the last approval")

	done, err := f.workflow.Approve(ctx, rows[1].ID, "mgr-2")
	require.NoError(t, err)
	assert.Equal(t, vacation.RequestApproved, done.Status)
	require.NotNil(t, done.GrantID)

	g, err := f.ledger.GetGrant(ctx, *done.GrantID)
	require.NoError(t, err)
	assert.Equal(t, "emp-1", g.UserID)
	assert.Equal(t, "sick", g.VacationType)
	assert.True(t, g.GrantTime.Equal(vacation.DaysInt(3)))
	// immediate + after_three_months from the fixed clock's date
	assert.Equal(t, date(2025, time.June, 1), g.GrantDate)
	assert.Equal(t, date(2025, time.August, 31), g.ExpiryDate)
}

func TestApprovalWorkflow_Approve_OutOfOrder_Refused(t *testing.T) {
	// GIVEN: A two-approver request with the first approver still pending
	// WHEN: The second approver tries to act
	// THEN: The action fails with ErrIllegalState

	f := newWorkflowFixture(t, 2)
	req := f.submit(t, "mgr-1", "mgr-2")
	rows := f.rows(t, req.ID)

	_, err := f.workflow.Approve(context.Background(), rows[1].ID, "mgr-2")
	assert.ErrorIs(t, err, vacation.ErrIllegalState)
}

func TestApprovalWorkflow_Approve_WrongApprover_Refused(t *testing.T) {
	// GIVEN: A pending approval row assigned to mgr-1
	// WHEN: mgr-2 tries to approve it
	// THEN: The action fails with ErrIllegalState

	f := newWorkflowFixture(t, 1)
	req := f.submit(t, "mgr-1")
	rows := f.rows(t, req.ID)

	_, err := f.workflow.Approve(context.Background(), rows[0].ID, "mgr-2")
	assert.ErrorIs(t, err, vacation.ErrIllegalState)
}

func TestApprovalWorkflow_Approve_Twice_Refused(t *testing.T) {
	// GIVEN: An already-approved row
	// WHEN: Approving it again
	// THEN: The action fails; rows transition at most once

	f := newWorkflowFixture(t, 1)
	ctx := context.Background()
	req := f.submit(t, "mgr-1")
	rows := f.rows(t, req.ID)

	_, err := f.workflow.Approve(ctx, rows[0].ID, "mgr-1")
	require.NoError(t, err)

	_, err = f.workflow.Approve(ctx, rows[0].ID, "mgr-1")
	assert.ErrorIs(t, err, vacation.ErrIllegalState)
}

// =============================================================================
// REJECTION
// =============================================================================

func TestApprovalWorkflow_Reject_TerminatesRequest(t *testing.T) {
	// GIVEN: A two-approver request approved by the first approver
	// WHEN: The second approver rejects
	// THEN: The request is rejected, the reason is recorded, no grant exists

	f := newWorkflowFixture(t, 2)
	ctx := context.Background()
	req := f.submit(t, "mgr-1", "mgr-2")
	rows := f.rows(t, req.ID)

	_, err := f.workflow.Approve(ctx, rows[0].ID, "mgr-1")
	require.NoError(t, err)

	done, err := f.workflow.Reject(ctx, rows[1].ID, "mgr-2", "blackout week")
	require.NoError(t, err)
	assert.Equal(t, vacation.RequestRejected, done.Status)
	assert.Nil(t, done.GrantID)

	rows = f.rows(t, req.ID)
	assert.Equal(t, vacation.ApprovalRejected, rows[1].Status)
	assert.Equal(t, "blackout week", rows[1].RejectionReason)

	grants, err := f.ledger.ListGrants(ctx, "emp-1")
	require.NoError(t, err)
	assert.Empty(t, grants)
}

func TestApprovalWorkflow_ActOnRejectedRequest_Refused(t *testing.T) {
	// GIVEN: A request rejected by its first approver
	// WHEN: The second approver tries to approve their row
	// THEN: The action fails with ErrIllegalState

	f := newWorkflowFixture(t, 2)
	ctx := context.Background()
	req := f.submit(t, "mgr-1", "mgr-2")
	rows := f.rows(t, req.ID)

	_, err := f.workflow.Reject(ctx, rows[0].ID, "mgr-1", "no")
	require.NoError(t, err)

	_, err = f.workflow.Approve(ctx, rows[1].ID, "mgr-2")
	assert.ErrorIs(t, err, vacation.ErrIllegalState)
}

// =============================================================================
// CANCELLATION
// =============================================================================

func TestApprovalWorkflow_Cancel_SkipsPendingRows(t *testing.T) {
	// GIVEN: An in-progress request
	// WHEN: The requester cancels it
	// THEN: The request is canceled and pending rows become skipped

	f := newWorkflowFixture(t, 2)
	ctx := context.Background()
	req := f.submit(t, "mgr-1", "mgr-2")

	require.NoError(t, f.workflow.Cancel(ctx, req.ID, "emp-1"))

	got, err := f.workflow.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, vacation.RequestCanceled, got.Status)

	for _, row := range f.rows(t, req.ID) {
		assert.Equal(t, vacation.ApprovalSkipped, row.Status)
	}
}

func TestApprovalWorkflow_Cancel_OnlyRequester(t *testing.T) {
	// GIVEN: An in-progress request from emp-1
	// WHEN: Someone else tries to cancel it
	// THEN: The cancel fails with ErrIllegalState

	f := newWorkflowFixture(t, 1)
	req := f.submit(t, "mgr-1")

	err := f.workflow.Cancel(context.Background(), req.ID, "mgr-1")
	assert.ErrorIs(t, err, vacation.ErrIllegalState)
}

func TestApprovalWorkflow_Cancel_ApprovedRequest_Refused(t *testing.T) {
	// GIVEN: A fully approved request
	// WHEN: The requester tries to cancel it
	// THEN: The cancel fails; terminal requests never change state

	f := newWorkflowFixture(t, 1)
	ctx := context.Background()
	req := f.submit(t, "mgr-1")
	rows := f.rows(t, req.ID)

	_, err := f.workflow.Approve(ctx, rows[0].ID, "mgr-1")
	require.NoError(t, err)

	err = f.workflow.Cancel(ctx, req.ID, "emp-1")
	assert.ErrorIs(t, err, vacation.ErrIllegalState)
}

// =============================================================================
// PENDING QUEUES
// =============================================================================

func TestApprovalWorkflow_PendingFor_ListsOpenRowsOnly(t *testing.T) {
	// GIVEN: One in-progress request assigned to mgr-1 and one canceled
	// WHEN: Listing mgr-1's pending approvals
	// THEN: Only the live request's row appears

	f := newWorkflowFixture(t, 1)
	ctx := context.Background()

	live := f.submit(t, "mgr-1")
	canceled := f.submit(t, "mgr-1")
	require.NoError(t, f.workflow.Cancel(ctx, canceled.ID, "emp-1"))

	pending, err := f.workflow.PendingFor(ctx, "mgr-1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, live.ID, pending[0].RequestID)
}
