package engine

import "context"

// scheduleExpansion is the common shape the Expander needs from either a
// RecurringSchedule or a RecurringIncome, letting expand() stay a single
// function rather than being duplicated per entity type.
type scheduleExpansion struct {
	recurrence          Recurrence
	amount              Amount
	targetAccountID     AccountID
	sourceAccountID     *AccountID
	includeInStatistics bool
	tags                []TagID
	origin              Origin
	sourceOrigin        Origin
	sourceID            string
}

// ExpandSchedule materializes a RecurringSchedule into target (and,
// when SourceAccountID is set, mirrored source) occurrences over w.
// suppressed lists the due dates already covered by a RecurringInstance
// for this schedule - the Expander omits both legs on those dates
// (§4.2); LedgerMerge supplies the instance's own occurrence instead.
func ExpandSchedule(ctx context.Context, s RecurringSchedule, w Window, today Date, suppressed map[Date]bool, tags TagSet) ([]Occurrence, error) {
	return expand(ctx, scheduleExpansion{
		recurrence:          Recurrence{StartDate: s.StartDate, EndDate: s.EndDate, Period: s.Period},
		amount:              s.Amount,
		targetAccountID:     s.TargetAccountID,
		sourceAccountID:     s.SourceAccountID,
		includeInStatistics: s.IncludeInStatistics,
		tags:                s.Tags,
		origin:              OriginScheduleTarget,
		sourceOrigin:        OriginScheduleSource,
		sourceID:            string(s.ID),
	}, w, today, suppressed, tags)
}

// ExpandIncome materializes a RecurringIncome into occurrences. Incomes
// are always positive-directed into TargetAccountID and never carry a
// source account.
func ExpandIncome(ctx context.Context, inc RecurringIncome, w Window, today Date, suppressed map[Date]bool, tags TagSet) ([]Occurrence, error) {
	return expand(ctx, scheduleExpansion{
		recurrence:          Recurrence{StartDate: inc.StartDate, EndDate: inc.EndDate, Period: inc.Period},
		amount:              inc.Amount,
		targetAccountID:     inc.TargetAccountID,
		includeInStatistics: inc.IncludeInStatistics,
		tags:                inc.Tags,
		origin:              OriginIncome,
		sourceID:            string(inc.ID),
	}, w, today, suppressed, tags)
}

func expand(ctx context.Context, se scheduleExpansion, w Window, today Date, suppressed map[Date]bool, tagSet TagSet) ([]Occurrence, error) {
	dates, err := se.recurrence.Enumerate(ctx, w)
	if err != nil {
		return nil, err
	}

	te := newTagExpander(tagSet)
	expandedTags := te.expand(se.tags)

	var out []Occurrence
	for _, d := range dates {
		if suppressed != nil && suppressed[d] {
			continue
		}
		var paidOn *Date
		if d.BeforeOrEqual(today) {
			p := d
			paidOn = &p
		}
		out = append(out, Occurrence{
			Date:                d,
			Amount:              se.amount,
			AccountID:           se.targetAccountID,
			Tags:                expandedTags,
			PaidOn:              paidOn,
			Origin:              se.origin,
			IncludeInStatistics: se.includeInStatistics,
			SourceID:            se.sourceID,
		})
		if se.sourceAccountID != nil {
			out = append(out, Occurrence{
				Date:                d,
				Amount:              se.amount.Neg(),
				AccountID:           *se.sourceAccountID,
				Tags:                expandedTags,
				PaidOn:              paidOn,
				Origin:              se.sourceOrigin,
				IncludeInStatistics: se.includeInStatistics,
				SourceID:            se.sourceID,
			})
		}
	}
	return out, nil
}
