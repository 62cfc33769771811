package budget

// DeriveStatus computes an item's status from its allocation and the running total
// of its transactions. It is the only source of truth for Item.Status.
//
// Zero spend is always Planned, including on a zero-price item, so a freshly
// created item never starts anywhere else.
func DeriveStatus(price, spent int64) Status {
	switch {
	case spent <= 0:
		return StatusPlanned
	case spent > price:
		return StatusExceeded
	case spent == price:
		return StatusComplete
	default:
		return StatusPartial
	}
}
