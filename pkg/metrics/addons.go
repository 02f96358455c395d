package metrics

import "github.com/prometheus/client_golang/prometheus"

// AddonMetrics counts engagement events on addons.
type AddonMetrics struct {
	views     prometheus.Counter
	downloads prometheus.Counter
}

func NewAddonMetrics(reg prometheus.Registerer) *AddonMetrics {
	if reg == nil {
		return &AddonMetrics{}
	}
	views := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "addon_views_total",
		Help:      "Addon view increments accepted.",
	})
	downloads := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "addon_downloads_total",
		Help:      "Addon download increments accepted.",
	})
	reg.MustRegister(views, downloads)
	return &AddonMetrics{views: views, downloads: downloads}
}

func (m *AddonMetrics) IncView() {
	if m == nil || m.views == nil {
		return
	}
	m.views.Inc()
}

func (m *AddonMetrics) IncDownload() {
	if m == nil || m.downloads == nil {
		return
	}
	m.downloads.Inc()
}
