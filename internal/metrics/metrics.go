package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusExists  = "exists"
)

var (
	domainMetricsOnce sync.Once

	friendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "friend_requests_total",
			Help: "Total number of friend request attempts",
		},
		[]string{"status"},
	)

	friendAcceptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "friend_accepts_total",
			Help: "Total number of friend request accept attempts",
		},
		[]string{"status"},
	)

	friendDeclinesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "friend_declines_total",
			Help: "Total number of friend request decline attempts",
		},
		[]string{"status"},
	)

	friendRemovalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "friend_removals_total",
			Help: "Total number of unfriend attempts",
		},
		[]string{"status"},
	)

	badgeAwardsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badge_awards_total",
			Help: "Total number of badge award attempts",
		},
		[]string{"status"},
	)

	usersProvisionedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "users_provisioned_total",
			Help: "Total number of users created on first sight of an identity",
		},
	)
)

func Register() {
	domainMetricsOnce.Do(func() {
		prometheus.MustRegister(
			friendRequestsTotal,
			friendAcceptsTotal,
			friendDeclinesTotal,
			friendRemovalsTotal,
			badgeAwardsTotal,
			usersProvisionedTotal,
		)
	})
}

func IncFriendRequest(status string) {
	Register()
	friendRequestsTotal.WithLabelValues(status).Inc()
}

func IncFriendAccept(status string) {
	Register()
	friendAcceptsTotal.WithLabelValues(status).Inc()
}

func IncFriendDecline(status string) {
	Register()
	friendDeclinesTotal.WithLabelValues(status).Inc()
}

func IncFriendRemoval(status string) {
	Register()
	friendRemovalsTotal.WithLabelValues(status).Inc()
}

func IncBadgeAward(status string) {
	Register()
	badgeAwardsTotal.WithLabelValues(status).Inc()
}

func IncUserProvisioned() {
	Register()
	usersProvisionedTotal.Inc()
}
