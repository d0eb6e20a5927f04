package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginSuccessTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_login_success_total",
		Help: "Successful logins by method.",
	}, []string{"method"})

	loginFailureTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_login_failure_total",
		Help: "Failed login attempts by method.",
	}, []string{"method"})

	lockoutTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_visual_lockout_total",
		Help: "Visual password challenges that reached lockout.",
	})
)
