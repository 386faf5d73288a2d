package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Session guard metrics
var (
	// GuardChecks counts authentication checks by trigger (mount, storage, interval, signal).
	GuardChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_guard_checks_total",
			Help: "Session guard authentication checks by trigger",
		},
		[]string{"source"},
	)

	// GuardRedirects counts redirects to the auth route.
	GuardRedirects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "session_guard_redirects_total",
			Help: "Redirects to the auth route issued by session guards",
		},
	)

	// GuardsMounted tracks currently mounted guards.
	GuardsMounted = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "session_guards_mounted",
			Help: "Number of currently mounted session guards",
		},
	)
)

// Notification delivery metrics
var (
	// NotificationsDisplayed counts display requests by status (ok/error).
	NotificationsDisplayed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_displayed_total",
			Help: "Notification display requests by status",
		},
		[]string{"status"},
	)

	// NotificationClicks counts click handling by outcome (focused/opened/ignored/error).
	NotificationClicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_clicks_total",
			Help: "Notification clicks by routing outcome",
		},
		[]string{"outcome"},
	)

	// PendingUnits tracks units of work the notification worker must finish before idling.
	PendingUnits = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notification_worker_pending_units",
			Help: "Notification worker units of work not yet settled",
		},
	)

	// OpenWindows tracks registered application windows.
	OpenWindows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "application_windows_open",
			Help: "Registered application windows",
		},
	)
)
