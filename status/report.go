package status

import (
	"math"
	"time"
)

// Bucket counts the entities sharing one status value.
type Bucket struct {
	Count      int     `json:"count" bson:"count"`
	Percentage float64 `json:"percentage" bson:"percentage"`
}

// Report is a percentage breakdown of current status values over a set of
// entities. An empty input yields TotalCount 0 and no buckets.
type Report struct {
	GeneratedAt time.Time         `json:"generated_at" bson:"generated_at"`
	TotalCount  int               `json:"total_count" bson:"total_count"`
	Buckets     map[string]Bucket `json:"buckets" bson:"buckets"`
}

// GenerateReport groups items by the selected status value and computes
// counts and percentages, rounded to two decimal places. One implementation
// serves operational, admin and energy reports for every entity kind; the
// selector picks the dimension.
func GenerateReport[E any](items []E, selector func(E) string) Report {
	report := Report{
		GeneratedAt: time.Now().UTC(),
		TotalCount:  len(items),
		Buckets:     make(map[string]Bucket, 8),
	}
	if len(items) == 0 {
		return report
	}
	for _, item := range items {
		value := selector(item)
		bucket := report.Buckets[value]
		bucket.Count++
		report.Buckets[value] = bucket
	}
	total := float64(report.TotalCount)
	for value, bucket := range report.Buckets {
		bucket.Percentage = math.Round(float64(bucket.Count)/total*10000) / 100
		report.Buckets[value] = bucket
	}
	return report
}
