package instrument

import "strings"

// exchangeSuffixes maps Yahoo exchange suffixes to ISO alpha-2 countries
var exchangeSuffixes = map[string]string{
	"NS": "IN", "BO": "IN",
	"L": "GB", "IL": "GB",
	"HK": "HK",
	"T": "JP",
	"SS": "CN", "SZ": "CN",
	"TO": "CA", "V": "CA",
	"AX": "AU",
	"DE": "DE", "F": "DE",
	"PA": "FR",
	"AS": "NL",
	"MI": "IT",
	"MC": "ES",
	"SW": "CH",
	"KS": "KR", "KQ": "KR",
	"TW": "TW",
	"SI": "SG",
	"SA": "BR",
	"MX": "MX",
	"JO": "ZA",
}

// exchangeZones maps exchange time zones to countries for tickers listed
// without a suffix
var exchangeZones = map[string]string{
	"America/New_York": "US",
	"America/Chicago":  "US",
	"Asia/Kolkata":     "IN",
	"Europe/London":    "GB",
	"Asia/Tokyo":       "JP",
	"Asia/Hong_Kong":   "HK",
	"Asia/Shanghai":    "CN",
	"America/Toronto":  "CA",
	"Australia/Sydney": "AU",
}

// CountryCode resolves the listing country of an equity from its exchange
// suffix, falling back to the exchange time zone.
func CountryCode(symbol, exchangeTimezone string) (string, bool) {
	if i := strings.LastIndex(symbol, "."); i >= 0 && i < len(symbol)-1 {
		if c, ok := exchangeSuffixes[strings.ToUpper(symbol[i+1:])]; ok {
			return c, true
		}
	}
	c, ok := exchangeZones[exchangeTimezone]
	return c, ok
}
