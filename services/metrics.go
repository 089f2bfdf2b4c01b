package services

import "github.com/prometheus/client_golang/prometheus"

var (
	compoundsAddedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "compounds_added_total",
		Help: "Total number of compounds added to the database.",
	})
	compoundsClearedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "compound_clears_total",
		Help: "Total number of clear-all operations.",
	})
	searchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "compound_search_duration_seconds",
		Help:    "Duration of compound searches including property preload.",
		Buckets: prometheus.DefBuckets,
	})
	crossCheckMismatches = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "compound_search_crosscheck_mismatches_total",
		Help: "Searches whose SQL result differed from the in-memory reference filter.",
	})
	snapshotsUploaded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "compound_snapshots_uploaded_total",
		Help: "Total number of compound snapshots uploaded to object storage.",
	})
)

func init() {
	prometheus.MustRegister(
		compoundsAddedCounter,
		compoundsClearedCounter,
		searchDuration,
		crossCheckMismatches,
		snapshotsUploaded,
	)
}
