package httpapi

import (
	"net/http"
	"time"
	_ "time/tzdata"
)

// currentTime mirrors the fields timeapi.io returns for /Time/current/zone.
type currentTime struct {
	Year         int    `json:"year"`
	Month        int    `json:"month"`
	Day          int    `json:"day"`
	Hour         int    `json:"hour"`
	Minute       int    `json:"minute"`
	Seconds      int    `json:"seconds"`
	MilliSeconds int    `json:"milliSeconds"`
	DateTime     string `json:"dateTime"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	TimeZone     string `json:"timeZone"`
	DayOfWeek    string `json:"dayOfWeek"`
	DstActive    bool   `json:"dstActive"`
}

func (h *Handler) handleCurrentTime(w http.ResponseWriter, r *http.Request) {
	zone := r.URL.Query().Get("timeZone")
	if zone == "" {
		writeError(w, http.StatusBadRequest, "missing timeZone")
		return
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid Timezone")
		return
	}

	t := h.now().In(loc)
	writeJSON(w, http.StatusOK, currentTime{
		Year:         t.Year(),
		Month:        int(t.Month()),
		Day:          t.Day(),
		Hour:         t.Hour(),
		Minute:       t.Minute(),
		Seconds:      t.Second(),
		MilliSeconds: t.Nanosecond() / int(time.Millisecond),
		DateTime:     t.Format("2006-01-02T15:04:05.0000000"),
		Date:         t.Format("01/02/2006"),
		Time:         t.Format("15:04"),
		TimeZone:     zone,
		DayOfWeek:    t.Weekday().String(),
		DstActive:    t.IsDST(),
	})
}
