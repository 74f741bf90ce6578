package models

import "time"

// Cookie is a browser cookie captured from an authenticated session
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"` // Seconds since epoch, 0 or negative for session cookies
	Secure   bool    `json:"secure"`
	HTTPOnly bool    `json:"http_only"`
	SameSite string  `json:"same_site"` // "Strict", "Lax", "None" or empty
}

// Session is a named, cached authentication context
type Session struct {
	Name      string    `json:"name" badgerhold:"key"`
	Origin    string    `json:"origin"`
	Cookies   []Cookie  `json:"cookies"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the session is older than ttl (ttl <= 0 never expires)
// or any of its persistent cookies has passed its expiry.
func (s *Session) Expired(now time.Time, ttl time.Duration) bool {
	if ttl > 0 && now.Sub(s.CreatedAt) > ttl {
		return true
	}
	for _, c := range s.Cookies {
		if c.Expires > 0 && time.Unix(int64(c.Expires), 0).Before(now) {
			return true
		}
	}
	return false
}
