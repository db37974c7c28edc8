package util

import "math/rand/v2"

const hexDigits = "0123456789abcdef"

// VisitorIDPrefix marks visitor ids minted by the server for clients without one.
const VisitorIDPrefix = "v_"

const visitorIDHexLen = 32

// GenerateRandomID returns prefix followed by hexLength random hex characters.
func GenerateRandomID(prefix string, hexLength int) string {
	return prefix + GenerateRandomHex(hexLength)
}

// GenerateRandomHex returns length lowercase hex characters. Not for secrets.
func GenerateRandomHex(length int) string {
	if length <= 0 {
		return ""
	}
	buf := make([]byte, length)
	for i := range buf {
		buf[i] = hexDigits[rand.IntN(len(hexDigits))]
	}
	return string(buf)
}

// GenerateVisitorID mints an anonymous landing-page visitor id.
func GenerateVisitorID() string {
	return GenerateRandomID(VisitorIDPrefix, visitorIDHexLen)
}
