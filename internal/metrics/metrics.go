package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the service counters exported at /metrics.
type Metrics struct {
	OTPRequests            *prometheus.CounterVec
	OTPVerifications       *prometheus.CounterVec
	Deliveries             *prometheus.CounterVec
	DeliverySeconds        *prometheus.HistogramVec
	ProximityReadings      prometheus.Counter
	ProximityNotifications *prometheus.CounterVec
	ActiveVisitors         prometheus.Gauge
	GalleryDecisions       *prometheus.CounterVec
	AccountEvents          *prometheus.CounterVec
}

// New registers the collectors on reg. Passing nil returns a Metrics value
// whose collectors are not registered anywhere, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "woodland_otp_requests_total",
			Help: "OTP requests by outcome.",
		}, []string{"result"}),
		OTPVerifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "woodland_otp_verifications_total",
			Help: "OTP verification attempts by outcome.",
		}, []string{"result"}),
		Deliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "woodland_mail_deliveries_total",
			Help: "Outgoing mail deliveries by kind and outcome.",
		}, []string{"kind", "result"}),
		DeliverySeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "woodland_mail_delivery_duration_seconds",
			Help:    "Duration of calls to the mail gateway.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		ProximityReadings: factory.NewCounter(prometheus.CounterOpts{
			Name: "woodland_proximity_readings_total",
			Help: "Location readings evaluated against the landmark list.",
		}),
		ProximityNotifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "woodland_proximity_notifications_total",
			Help: "Proximity notifications emitted per landmark.",
		}, []string{"landmark"}),
		ActiveVisitors: factory.NewGauge(prometheus.GaugeOpts{
			Name: "woodland_proximity_active_visitors",
			Help: "Visitors with proximity state currently tracked.",
		}),
		GalleryDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "woodland_gallery_decisions_total",
			Help: "Moderation decisions on submitted images.",
		}, []string{"decision"}),
		AccountEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "woodland_account_events_total",
			Help: "Visitor account registrations and logins by outcome.",
		}, []string{"event"}),
	}
}
