package itinerary

// MaxAmount bounds every cost and total, in VND. Amounts travel as JSON
// numbers, and integers up to 2^53 survive a float64 round trip exactly.
const MaxAmount int64 = 1 << 53

// AmountFromFloat converts a decoded JSON number to a whole amount in
// [0, MaxAmount]. NaN and non-positive values give 0.
func AmountFromFloat(f float64) int64 {
	switch {
	case !(f > 0):
		return 0
	case f >= float64(MaxAmount):
		return MaxAmount
	}
	return int64(f)
}

// ClampAmount limits n to [0, MaxAmount].
func ClampAmount(n int64) int64 {
	return min(max(n, 0), MaxAmount)
}

// AddAmounts adds two amounts, saturating at MaxAmount.
func AddAmounts(a, b int64) int64 {
	return ClampAmount(ClampAmount(a) + ClampAmount(b))
}
