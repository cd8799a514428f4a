package insider

// GroupKey returns the grouping key for a record. Company alone, or company
// and insider joined with "|" when grouping per individual.
func GroupKey(r FilingRecord, groupBy GroupBy) string {
	if groupBy == GroupByCompanyInsider {
		return r.Company + "|" + r.Insider
	}
	return r.Company
}

// Aggregate folds records into per-key totals in a single pass. The returned
// set preserves first-seen key order, so identical input always produces
// identical output. Empty input returns an empty set.
func Aggregate(records []FilingRecord, groupBy GroupBy) *AggregateSet {
	set := NewAggregateSet()
	for _, r := range records {
		e := set.upsert(GroupKey(r, groupBy))
		e.TotalShares += r.Shares
		e.TotalValue += r.Value()
		e.TransactionCounts[r.TransactionType]++
		e.RecordCount++
	}
	return set
}
