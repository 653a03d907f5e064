package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MemberMetrics counts registry mutations and card loads.
type MemberMetrics struct {
	mutations *prometheus.CounterVec
	cardLoads *prometheus.CounterVec
}

// NewMemberMetrics registers the member metrics on the provided registerer.
func NewMemberMetrics(reg prometheus.Registerer) *MemberMetrics {
	if reg == nil {
		return &MemberMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "members_mutations_total",
		Help: "Member registry mutations by operation.",
	}, []string{"operation"})
	cardLoads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "card_loads_total",
		Help: "Card loads by terminal state.",
	}, []string{"state"})
	reg.MustRegister(mutations, cardLoads)
	return &MemberMetrics{mutations: mutations, cardLoads: cardLoads}
}

// IncMutation increments the counter for create, update or delete.
func (m *MemberMetrics) IncMutation(operation string) {
	if m == nil || m.mutations == nil {
		return
	}
	m.mutations.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncCardLoad increments the counter for a card load that ended in state.
func (m *MemberMetrics) IncCardLoad(state string) {
	if m == nil || m.cardLoads == nil {
		return
	}
	m.cardLoads.WithLabelValues(normalizeLabel(state)).Inc()
}
