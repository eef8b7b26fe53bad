package gate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var rejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "tradepost_auth_rejections_total",
	Help: "Requests rejected by the authorization gate, by reason",
}, []string{"reason"})
