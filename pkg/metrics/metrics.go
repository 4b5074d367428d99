package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portal_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// Content
	ContributionsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_contributions_created_total",
			Help: "Total number of contributions submitted",
		},
		[]string{"category"},
	)

	CommentsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "portal_comments_created_total",
			Help: "Total number of comments posted",
		},
	)

	// Social graph
	LikesToggled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_likes_toggled_total",
			Help: "Total number of like toggles",
		},
		[]string{"action"}, // "like", "unlike"
	)

	FollowsToggled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_follows_toggled_total",
			Help: "Total number of follow toggles",
		},
		[]string{"action"}, // "follow", "unfollow"
	)

	NotificationsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_notifications_emitted_total",
			Help: "Total number of notifications created",
		},
		[]string{"verb"},
	)

	// Identity
	Registrations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "portal_registrations_total",
			Help: "Total number of successful registrations",
		},
	)

	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_login_attempts_total",
			Help: "Total number of login attempts by outcome",
		},
		[]string{"outcome"}, // "success", "failure"
	)
)

// RecordHTTPRequest observes one handled request
func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// RecordLike counts a like toggle
func RecordLike(liked bool) {
	if liked {
		LikesToggled.WithLabelValues("like").Inc()
		return
	}
	LikesToggled.WithLabelValues("unlike").Inc()
}

// RecordFollow counts a follow toggle
func RecordFollow(following bool) {
	if following {
		FollowsToggled.WithLabelValues("follow").Inc()
		return
	}
	FollowsToggled.WithLabelValues("unfollow").Inc()
}

// RecordLogin counts a login attempt
func RecordLogin(ok bool) {
	if ok {
		LoginAttempts.WithLabelValues("success").Inc()
		return
	}
	LoginAttempts.WithLabelValues("failure").Inc()
}
