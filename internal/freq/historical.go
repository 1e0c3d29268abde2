package freq

const (
	MainName      = "main"
	SecondaryName = "secondary"
)

// Observed Powerball frequencies, white balls 1-69.
var historicalMain = map[int]int{
	1: 89, 2: 92, 3: 94, 4: 86, 5: 80, 6: 94, 7: 84, 8: 83, 9: 87, 10: 82,
	11: 90, 12: 98, 13: 66, 14: 80, 15: 87, 16: 94, 17: 87, 18: 87, 19: 92, 20: 91,
	21: 112, 22: 84, 23: 112, 24: 89, 25: 81, 26: 72, 27: 105, 28: 101, 29: 80, 30: 88,
	31: 87, 32: 103, 33: 108, 34: 78, 35: 84, 36: 104, 37: 101, 38: 85, 39: 99, 40: 93,
	41: 82, 42: 84, 43: 88, 44: 99, 45: 95, 46: 75, 47: 98, 48: 79, 49: 71, 50: 90,
	51: 78, 52: 94, 53: 100, 54: 88, 55: 82, 56: 86, 57: 85, 58: 81, 59: 96, 60: 81,
	61: 115, 62: 103, 63: 104, 64: 106, 65: 78, 66: 88, 67: 93, 68: 89, 69: 108,
}

// Observed Powerball frequencies, red ball 1-26.
var historicalSecondary = map[int]int{
	1: 48, 2: 46, 3: 48, 4: 60, 5: 54, 6: 46, 7: 42, 8: 44, 9: 55, 10: 43,
	11: 44, 12: 40, 13: 47, 14: 55, 15: 38, 16: 37, 17: 41, 18: 56, 19: 46, 20: 52,
	21: 58, 22: 43, 23: 41, 24: 58, 25: 56, 26: 47,
}

// Historical returns the built-in tables.
func Historical() Set {
	main, err := New(MainName, historicalMain)
	if err != nil {
		panic(err)
	}
	secondary, err := New(SecondaryName, historicalSecondary)
	if err != nil {
		panic(err)
	}
	return Set{Main: main, Secondary: secondary}
}
