package controllers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	logger "github.com/sirupsen/logrus"
)

const metricNamespace = "pinbump_automerge"

const (
	webhookEventsMetricName  = "processed_github_events_total"
	mergeDecisionsMetricName = "merge_decisions_total"
)

const (
	eventTypeLabel  = "event_type"
	resultLabel     = "result"
	repositoryLabel = "repository"
	stateLabel      = "state"
)

type resultLabelVal string

const (
	resultLabelProcessedVal resultLabelVal = "processed"
	resultLabelIgnoredVal   resultLabelVal = "ignored"
	resultLabelInvalidVal   resultLabelVal = "invalid"
	resultLabelFailedVal    resultLabelVal = "failed"
)

type metricCollector struct {
	registry       *prometheus.Registry
	webhookEvents  *prometheus.CounterVec
	mergeDecisions *prometheus.CounterVec
}

func newMetricCollector() *metricCollector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &metricCollector{
		registry: registry,
		webhookEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricNamespace,
				Name:      webhookEventsMetricName,
				Help:      "count of received github webhook events",
			},
			[]string{eventTypeLabel, resultLabel},
		),
		mergeDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricNamespace,
				Name:      mergeDecisionsMetricName,
				Help:      "count of auto-merge decisions",
			},
			[]string{repositoryLabel, stateLabel},
		),
	}
}

func (m *metricCollector) EventInc(eventType string, result resultLabelVal) {
	cnt, err := m.webhookEvents.GetMetricWith(prometheus.Labels{
		eventTypeLabel: eventType,
		resultLabel:    string(result),
	})
	if err != nil {
		logger.Warnf("could not record metric %s: %v", webhookEventsMetricName, err)
		return
	}
	cnt.Inc()
}

func (m *metricCollector) DecisionInc(repository, state string) {
	cnt, err := m.mergeDecisions.GetMetricWith(prometheus.Labels{
		repositoryLabel: repository,
		stateLabel:      state,
	})
	if err != nil {
		logger.Warnf("could not record metric %s: %v", mergeDecisionsMetricName, err)
		return
	}
	cnt.Inc()
}
