package common

import "time"

const (
	// LoginCodeTTL is how long an issued login code stays valid.
	LoginCodeTTL = 10 * time.Minute

	// LoginCodeLength is the number of decimal digits in a login code.
	LoginCodeLength = 6

	loginCodeMin = 100000
	loginCodeMax = 999999
)
