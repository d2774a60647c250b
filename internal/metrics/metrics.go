package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notevault_login_attempts_total",
		Help: "Login attempts by outcome.",
	}, []string{"outcome"})

	SessionsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notevault_sessions_issued_total",
		Help: "Sessions minted on register or login.",
	})

	SessionsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notevault_sessions_swept_total",
		Help: "Expired sessions removed by the background sweep.",
	})

	AlertsRaised = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notevault_alerts_raised_total",
		Help: "Security alerts created by the detector.",
	})
)
