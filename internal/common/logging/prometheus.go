package logging

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
)

// PrometheusHook implements logrus.Hook, counting log lines by level.
type PrometheusHook struct {
	counters map[log.Level]prometheus.Counter
}

// NewPrometheusHook creates and registers counters for each level on reg.
func NewPrometheusHook(reg prometheus.Registerer) *PrometheusHook {
	vec := promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
		Name: "loadfixture_log_messages_total",
		Help: "Total number of log lines logged by level",
	}, []string{"level"})

	counters := make(map[log.Level]prometheus.Counter)
	for _, level := range []log.Level{
		log.DebugLevel,
		log.InfoLevel,
		log.WarnLevel,
		log.ErrorLevel,
	} {
		counters[level] = vec.WithLabelValues(level.String())
	}
	return &PrometheusHook{counters: counters}
}

func (h *PrometheusHook) Levels() []log.Level {
	return log.AllLevels
}

func (h *PrometheusHook) Fire(entry *log.Entry) error {
	if counter, ok := h.counters[entry.Level]; ok {
		counter.Inc()
	}
	return nil
}
