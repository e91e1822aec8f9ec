package store

import (
	"net/http"
	"net/url"
	"time"
)

// CookieJar exposes the session's backend credentials as an
// http.CookieJar.  The jar only ever serves the single backend the API
// client is bound to, so cookies are not scoped by domain or path.
func (s *Store) CookieJar() http.CookieJar { return &jar{s: s} }

type jar struct{ s *Store }

func (j *jar) SetCookies(_ *url.URL, cookies []*http.Cookie) {
	if len(cookies) == 0 {
		return
	}
	now := time.Now()
	set := make([]Cookie, 0, len(cookies))
	for _, c := range cookies {
		ck := Cookie{Name: c.Name, Value: c.Value}
		switch {
		case c.MaxAge < 0:
			ck.Value = ""
		case c.MaxAge > 0:
			ck.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		case !c.Expires.IsZero():
			if !c.Expires.After(now) {
				ck.Value = ""
			}
			ck.Expires = c.Expires
		}
		set = append(set, ck)
	}
	j.s.Dispatch(CookiesUpdated{Cookies: set})
}

func (j *jar) Cookies(_ *url.URL) []*http.Cookie {
	now := time.Now()
	var out []*http.Cookie
	for _, c := range j.s.State().Auth.Cookies {
		if !c.Expires.IsZero() && !c.Expires.After(now) {
			continue
		}
		out = append(out, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	return out
}

// StaticJar returns a read-only jar over a fixed cookie set.  It lets a
// detached call (logout) keep credentials after the store was cleared.
func StaticJar(cookies []Cookie) http.CookieJar {
	st := New()
	st.Dispatch(CookiesUpdated{Cookies: cookies})
	return &readOnlyJar{jar{s: st}}
}

type readOnlyJar struct{ jar }

func (readOnlyJar) SetCookies(*url.URL, []*http.Cookie) {}
