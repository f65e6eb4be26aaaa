package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	subscriptionsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscriptions_created_total",
			Help: "Subscrições criadas, por intervalo do plano.",
		},
		[]string{"interval"},
	)

	subscriptionsCanceled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_cancel_requests_total",
			Help: "Pedidos de cancelamento ao fim do período aceitos.",
		},
	)

	subscriptionsExpired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscriptions_expired_total",
			Help: "Subscrições que passaram para expired, por origem.",
		},
		[]string{"source"},
	)

	subscriptionConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_duplicate_active_total",
			Help: "Tentativas de criar uma segunda subscrição ativa.",
		},
	)
)
