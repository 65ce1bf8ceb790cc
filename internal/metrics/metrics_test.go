package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersByStatus(t *testing.T) {
	before := testutil.ToFloat64(friendRequestsTotal.WithLabelValues("success"))
	IncFriendRequest("success")
	IncFriendRequest("success")
	assert.Equal(t, before+2, testutil.ToFloat64(friendRequestsTotal.WithLabelValues("success")))

	before = testutil.ToFloat64(badgeAwardsTotal.WithLabelValues("exists"))
	IncBadgeAward("exists")
	assert.Equal(t, before+1, testutil.ToFloat64(badgeAwardsTotal.WithLabelValues("exists")))

	before = testutil.ToFloat64(usersProvisionedTotal)
	IncUserProvisioned()
	assert.Equal(t, before+1, testutil.ToFloat64(usersProvisionedTotal))
}

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}
