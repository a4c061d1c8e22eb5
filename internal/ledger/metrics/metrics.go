package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the ledger module.
type Metrics struct {
	TokensCreated      prometheus.Counter
	UnitsMinted        prometheus.Counter
	ReceiptsRecorded   prometheus.Counter
	ShareUpdates       prometheus.Counter
	OwnerTransfers     prometheus.Counter
	Burns              prometheus.Counter
	FeesCollected      prometheus.Counter
	RejectedOperations *prometheus.CounterVec
}

// New creates a Metrics instance with all ledger module metrics registered
// on the default registry.
func New() *Metrics {
	return &Metrics{
		TokensCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rightsledger_tokens_created_total",
			Help: "Total number of rights tokens created",
		}),
		UnitsMinted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rightsledger_units_minted_total",
			Help: "Total balance units minted across all tokens",
		}),
		ReceiptsRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rightsledger_receipts_recorded_total",
			Help: "Total sale receipts appended to the ledger",
		}),
		ShareUpdates: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rightsledger_revenue_share_updates_total",
			Help: "Total revenue-share configuration replacements",
		}),
		OwnerTransfers: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rightsledger_owner_transfers_total",
			Help: "Total owner-authorized transfers completed",
		}),
		Burns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rightsledger_burns_total",
			Help: "Total burn operations completed",
		}),
		FeesCollected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rightsledger_fees_collected_total",
			Help: "Total fee units retained by the treasury",
		}),
		RejectedOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rightsledger_rejected_operations_total",
			Help: "Operations rejected before any state change, by error code",
		}, []string{"operation", "code"}),
	}
}
