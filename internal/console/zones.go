package console

// Zone is one entry of the startup time-zone menu.
type Zone struct {
	ID    string
	Label string
}

// Zones is the menu in display order; selection n picks Zones[n-1].
var Zones = []Zone{ //nolint:gochecknoglobals
	{ID: "America/New_York", Label: "Eastern Time Zone (ET) - New York City, NY"},
	{ID: "America/Chicago", Label: "Central Time Zone (CT) - Chicago, IL"},
	{ID: "America/Denver", Label: "Mountain Time Zone (MT) - Denver, CO"},
	{ID: "America/Los_Angeles", Label: "Pacific Time Zone (PT) - Los Angeles, CA"},
	{ID: "America/Anchorage", Label: "Alaska Time Zone (AKT) - Anchorage, AK"},
	{ID: "Pacific/Honolulu", Label: "Hawaii-Aleutian Time Zone (HAT) - Honolulu, HI"},
	{ID: "America/Puerto_Rico", Label: "Atlantic Time Zone (AT) - San Juan, PR"},
}

// DefaultZone is Pacific time.
var DefaultZone = Zones[3] //nolint:gochecknoglobals

// Select maps a 1-based menu number to its zone.
func Select(n int) (Zone, bool) {
	if n < 1 || n > len(Zones) {
		return Zone{}, false
	}
	return Zones[n-1], true
}

// Lookup finds a menu zone by its IANA identifier.
func Lookup(id string) (Zone, bool) {
	for _, z := range Zones {
		if z.ID == id {
			return z, true
		}
	}
	return Zone{}, false
}
