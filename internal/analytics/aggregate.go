// Package analytics computes dashboard statistics over a snapshot of sales
// records. Every call recomputes from the full input; nothing is cached.
package analytics

import (
	"sort"

	"github.com/mamadbah2/plotsales/internal/domain/models"
)

// DefaultRecentWindow is the size of the "latest records" view.
const DefaultRecentWindow = 5

// Bucket is one entry of an ordered grouping.
type Bucket[K comparable, V int | float64] struct {
	Key   K
	Value V
}

// TotalActual sums the negotiated price of every record.
func TotalActual(records []models.SalesRecord) float64 {
	return sum(records, func(r models.SalesRecord) float64 { return r.ActualPrice })
}

// TotalReceived sums the collected amount of every record.
func TotalReceived(records []models.SalesRecord) float64 {
	return sum(records, func(r models.SalesRecord) float64 { return r.ReceivedAmount })
}

// TotalBalance sums the stored per-record balances. This differs from
// TotalActual-TotalReceived whenever a record was over-paid.
func TotalBalance(records []models.SalesRecord) float64 {
	return sum(records, func(r models.SalesRecord) float64 { return r.BalanceAmount })
}

func sum(records []models.SalesRecord, valueFn func(models.SalesRecord) float64) float64 {
	var total float64
	for _, r := range records {
		total += valueFn(r)
	}
	return total
}

// GroupSumByKey sums valueFn per key. Buckets keep the order in which keys first appear.
func GroupSumByKey[K comparable](records []models.SalesRecord, keyFn func(models.SalesRecord) K, valueFn func(models.SalesRecord) float64) []Bucket[K, float64] {
	return group(records, keyFn, valueFn)
}

// GroupCountByKey counts records per key in first-seen order.
func GroupCountByKey[K comparable](records []models.SalesRecord, keyFn func(models.SalesRecord) K) []Bucket[K, int] {
	return group(records, keyFn, func(models.SalesRecord) int { return 1 })
}

func group[K comparable, V int | float64](records []models.SalesRecord, keyFn func(models.SalesRecord) K, valueFn func(models.SalesRecord) V) []Bucket[K, V] {
	buckets := make([]Bucket[K, V], 0)
	index := make(map[K]int)
	for _, r := range records {
		key := keyFn(r)
		pos, ok := index[key]
		if !ok {
			pos = len(buckets)
			index[key] = pos
			buckets = append(buckets, Bucket[K, V]{Key: key})
		}
		buckets[pos].Value += valueFn(r)
	}
	return buckets
}

// NewSales keeps only NEW_SALE records. Follow-up payments are excluded from
// attribution so a rep is not credited twice for one sale.
func NewSales(records []models.SalesRecord) []models.SalesRecord {
	out := make([]models.SalesRecord, 0, len(records))
	for _, r := range records {
		if r.IsNewSale() {
			out = append(out, r)
		}
	}
	return out
}

// RevenueByRep is the sales representative leaderboard over new sales.
func RevenueByRep(records []models.SalesRecord) []models.RepRevenue {
	buckets := GroupSumByKey(NewSales(records),
		func(r models.SalesRecord) string { return r.SalesRep },
		func(r models.SalesRecord) float64 { return r.ActualPrice })

	out := make([]models.RepRevenue, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, models.RepRevenue{SalesRep: b.Key, Revenue: b.Value})
	}
	return out
}

// UnitsByProduct counts new sales per product type.
func UnitsByProduct(records []models.SalesRecord) []models.ProductUnits {
	buckets := GroupCountByKey(NewSales(records), func(r models.SalesRecord) string { return r.ProductType })

	out := make([]models.ProductUnits, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, models.ProductUnits{ProductType: b.Key, Units: b.Value})
	}
	return out
}

// RecentWindow returns the last n records in storage order, newest first. It is a
// window over submission order, not a sort by transaction date. n <= 0 falls back
// to DefaultRecentWindow.
func RecentWindow(records []models.SalesRecord, n int) []models.SalesRecord {
	if n <= 0 {
		n = DefaultRecentWindow
	}
	start := len(records) - n
	if start < 0 {
		start = 0
	}

	out := make([]models.SalesRecord, 0, len(records)-start)
	for i := len(records) - 1; i >= start; i-- {
		out = append(out, records[i])
	}
	return out
}

// InstallSchedule projects records with an install date into schedule entries,
// ascending by install date. Equal dates keep submission order.
func InstallSchedule(records []models.SalesRecord) []models.ScheduleEntry {
	entries := make([]models.ScheduleEntry, 0)
	for _, r := range records {
		if r.InstallDate == "" {
			continue
		}
		entries = append(entries, models.ScheduleEntry{
			InstallDate: r.InstallDate,
			UnitID:      r.UnitID,
			ProductType: r.ProductType,
			UserName:    r.UserName,
			BuyerName:   r.BuyerName,
			SalesRep:    r.SalesRep,
			Notes:       r.Notes,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].InstallDate < entries[j].InstallDate
	})
	return entries
}

// Summarize builds the full dashboard view.
func Summarize(records []models.SalesRecord) models.DashboardSummary {
	newSales := NewSales(records)
	return models.DashboardSummary{
		RecordCount:    len(records),
		NewSaleCount:   len(newSales),
		TotalActual:    TotalActual(records),
		TotalReceived:  TotalReceived(records),
		TotalBalance:   TotalBalance(records),
		RevenueByRep:   RevenueByRep(records),
		UnitsByProduct: UnitsByProduct(records),
		Recent:         RecentWindow(records, DefaultRecentWindow),
	}
}
