package redisx

import "time"

const (
	// Cache laporan top products: report:top_products -> JSON array
	KeyTopProducts = "report:top_products"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLReportCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
