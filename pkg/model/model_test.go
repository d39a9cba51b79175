package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleAtLeast(t *testing.T) {
	assert.True(t, RoleOwner.AtLeast(RoleAdmin))
	assert.True(t, RoleAdmin.AtLeast(RoleAdmin))
	assert.False(t, RoleMember.AtLeast(RoleAdmin))
	assert.False(t, Role("root").AtLeast(RoleViewer))
}

func TestBeforeCreateAssignsIDs(t *testing.T) {
	org := &Organization{}
	require.NoError(t, org.BeforeCreate(nil))
	assert.Len(t, org.ID, 36)

	keep := &Vault{ID: "fixed"}
	require.NoError(t, keep.BeforeCreate(nil))
	assert.Equal(t, "fixed", keep.ID)
	assert.Equal(t, VaultActive, keep.Status)

	job := &AIJob{}
	require.NoError(t, job.BeforeCreate(nil))
	assert.Equal(t, JobPending, job.Status)
	assert.False(t, job.RunAfter.IsZero())
}

func TestAgendaRoundTrip(t *testing.T) {
	in := Agenda{{Title: "Budget", DurationMinutes: 20}}
	v, err := in.Value()
	require.NoError(t, err)

	var out Agenda
	require.NoError(t, out.Scan([]byte(v.(string))))
	assert.Equal(t, in, out)

	require.NoError(t, out.Scan(nil))
	assert.Nil(t, out)
}

func TestJSONColumn(t *testing.T) {
	var j JSON
	require.NoError(t, j.Scan(`{"a":1}`))
	data, err := j.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(data))

	var empty JSON
	v, err := empty.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.Error(t, j.Scan(42))
}

func TestOverdue(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)

	item := &ActionItem{Status: ActionOpen, DueDate: &past}
	assert.True(t, item.Overdue(now))
	item.Status = ActionCompleted
	assert.False(t, item.Overdue(now))

	req := &ComplianceRequirement{Status: CompliancePending, DueDate: past}
	assert.True(t, req.Overdue(now))
	req.Status = ComplianceWaived
	assert.False(t, req.Overdue(now))
}

func TestInvitationExpired(t *testing.T) {
	now := time.Now()
	inv := &Invitation{ExpiresAt: now}
	assert.True(t, inv.Expired(now))
	assert.False(t, inv.Expired(now.Add(-time.Second)))
}

func TestFrequencyMonths(t *testing.T) {
	assert.Equal(t, 0, FrequencyOneTime.Months())
	assert.Equal(t, 3, FrequencyQuarterly.Months())
	assert.Equal(t, 12, FrequencyAnnually.Months())
}
