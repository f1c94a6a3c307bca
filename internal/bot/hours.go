package bot

import "time"

// Hours is the store's daily open interval in local hours. Open is
// inclusive, Close exclusive; Close < Open describes an overnight
// interval.
type Hours struct {
	Open  int
	Close int
	Loc   *time.Location
}

// OpenAt reports whether the store is open at t.
func (h Hours) OpenAt(t time.Time) bool {
	if h.Loc != nil {
		t = t.In(h.Loc)
	}
	hr := t.Hour()
	switch {
	case h.Open == h.Close:
		return false
	case h.Open < h.Close:
		return hr >= h.Open && hr < h.Close
	default:
		return hr >= h.Open || hr < h.Close
	}
}
