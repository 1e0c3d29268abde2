package app

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/petuhovskiy/powerpick/internal/draw"
	"github.com/petuhovskiy/powerpick/internal/freq"
	"github.com/petuhovskiy/powerpick/internal/gate"
)

var (
	DrawRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "powerpick_draw_requests_total",
		Help: "Draw requests by outcome",
	}, []string{"outcome"})

	LabelDraws = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "powerpick_label_draws_total",
		Help: "How often each label was drawn",
	}, []string{"domain", "label"})

	Exports = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "powerpick_exports_total",
		Help: "Image export requests by outcome",
	}, []string{"outcome"})

	GateOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "powerpick_gate_open",
		Help: "1 when a draw is allowed, 0 during the cooldown",
	})
)

// metricsObserver reports session events to prometheus.
type metricsObserver struct{}

func (metricsObserver) DrawRequest(outcome string) {
	DrawRequests.WithLabelValues(outcome).Inc()
}

func (metricsObserver) Drawn(res draw.Result) {
	for _, n := range res.Main {
		LabelDraws.WithLabelValues(freq.MainName, strconv.Itoa(n)).Inc()
	}
	LabelDraws.WithLabelValues(freq.SecondaryName, strconv.Itoa(res.Secondary)).Inc()
}

func (metricsObserver) Export(outcome string) {
	Exports.WithLabelValues(outcome).Inc()
}

func (metricsObserver) GateChanged(s gate.State) {
	if s.Open() {
		GateOpen.Set(1)
	} else {
		GateOpen.Set(0)
	}
}
