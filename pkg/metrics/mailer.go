package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MailerMetrics tracks outbound email delivery per template.
type MailerMetrics struct {
	sent     *prometheus.CounterVec
	failed   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMailerMetrics registers the mailer metrics on the provided registerer.
func NewMailerMetrics(reg prometheus.Registerer) *MailerMetrics {
	if reg == nil {
		return &MailerMetrics{}
	}
	sent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "emails_sent_total",
		Help: "Emails accepted by the delivery provider.",
	}, []string{"template", "locale"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "emails_failed_total",
		Help: "Emails the delivery provider rejected.",
	}, []string{"template", "locale"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "email_send_duration_seconds",
		Help:    "Latency of email delivery calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"template"})
	reg.MustRegister(sent, failed, duration)
	return &MailerMetrics{
		sent:     sent,
		failed:   failed,
		duration: duration,
	}
}

// IncSent increments the sent counter for the template/locale pair.
func (m *MailerMetrics) IncSent(template, locale string) {
	if m == nil || m.sent == nil {
		return
	}
	m.sent.WithLabelValues(normalizeLabel(template), normalizeLabel(locale)).Inc()
}

// IncFailed increments the failure counter for the template/locale pair.
func (m *MailerMetrics) IncFailed(template, locale string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(template), normalizeLabel(locale)).Inc()
}

// ObserveSendDuration records how long a delivery call took.
func (m *MailerMetrics) ObserveSendDuration(template string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(template)).Observe(d.Seconds())
}
