package market

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BuysTotal tracks accepted buy transitions.
	BuysTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "truthmarket_buys_total",
		Help: "Total number of accepted buy transitions",
	})

	// SellsTotal tracks accepted sell transitions.
	SellsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "truthmarket_sells_total",
		Help: "Total number of accepted sell transitions",
	})

	// ResolvesTotal tracks accepted resolve transitions.
	ResolvesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "truthmarket_resolves_total",
		Help: "Total number of accepted resolve transitions",
	})

	// WithdrawsTotal tracks accepted withdraw transitions.
	WithdrawsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "truthmarket_withdraws_total",
		Help: "Total number of accepted withdraw transitions",
	})

	// TransitionsRejectedTotal tracks rejected transitions by error class.
	TransitionsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "truthmarket_transitions_rejected_total",
			Help: "Total number of rejected transitions",
		},
		[]string{"transition", "class"},
	)
)
