package store

func reduce(s State, a Action) State {
	switch a := a.(type) {
	case Hydrated:
		s.Auth = a.Snapshot.Auth
		s.Auth.Loading = false
		if s.Auth.User == nil {
			s.Auth.IsAuthenticated = false
		}
		s.Cart = a.Snapshot.Cart
		if s.Cart.Status == "" || s.Cart.Status == CartLoading {
			s.Cart.Status = CartIdle
		}
		s.Hydrated = true
		return s
	case Toasted:
		s.Toasts = append(append([]Toast(nil), s.Toasts...), a.Toast)
		return s
	case LoggedOut:
		s.Auth = AuthState{}
		s.Cart = CartState{Status: CartIdle}
		return s
	}
	s.Auth = reduceAuth(s.Auth, a)
	s.Cart = reduceCart(s.Cart, a)
	s.Villas = reduceVillas(s.Villas, a)
	return s
}

func reduceAuth(s AuthState, a Action) AuthState {
	switch a := a.(type) {
	case AuthStarted:
		s.Loading = true
		s.Error = ""
	case AuthSucceeded:
		u := a.User
		s.Loading = false
		s.IsAuthenticated = true
		s.User = &u
		s.Token = a.Token
		s.Error = ""
	case AuthFailed:
		s.Loading = false
		s.IsAuthenticated = false
		s.User = nil
		s.Token = ""
		s.Cookies = nil
		s.Error = a.Err
	case RoleUpdateStarted:
		s.Loading = true
		s.Error = ""
	case RoleUpdated:
		s.Loading = false
		// a role can only be attached to a signed-in session
		if s.IsAuthenticated {
			u := a.User
			s.User = &u
		}
	case RoleUpdateFailed:
		s.Loading = false
		s.Error = a.Err
	case UserReplaced:
		u := a.User
		s.User = &u
		s.IsAuthenticated = true
	case CookiesUpdated:
		s.Cookies = mergeCookies(s.Cookies, a.Cookies)
	}
	return s
}

func reduceCart(s CartState, a Action) CartState {
	switch a := a.(type) {
	case CartFetchStarted:
		s.Status = CartLoading
	case CartLoaded:
		s.Items = a.Items
		s.Status = CartSucceeded
	case CartFetchFailed:
		s.Status = CartFailed
	case CartReplaced:
		s.Items = a.Items
	case CartCleared:
		s.Items = nil
	}
	return s
}

func reduceVillas(s VillaState, a Action) VillaState {
	switch a := a.(type) {
	case VillasRequested:
		s.seq = a.Seq
		s.Query = a.Query
		s.Loading = true
		s.Error = ""
	case VillasLoaded:
		if a.Seq < s.seq {
			return s
		}
		s.Villas = a.Villas
		s.Loading = false
	case VillasFailed:
		if a.Seq < s.seq {
			return s
		}
		s.Loading = false
		s.Error = a.Err
	case VillasCleared:
		s.Villas = nil
		s.Error = ""
	}
	return s
}

func mergeCookies(have, set []Cookie) []Cookie {
	latest := make(map[string]Cookie, len(set))
	for _, c := range set {
		latest[c.Name] = c
	}
	out := make([]Cookie, 0, len(have)+len(set))
	for _, c := range have {
		if n, ok := latest[c.Name]; ok {
			c = n
			delete(latest, c.Name)
		}
		if c.Value != "" {
			out = append(out, c)
		}
	}
	for _, c := range set {
		if n, ok := latest[c.Name]; ok && n.Value != "" {
			out = append(out, n)
			delete(latest, c.Name)
		}
	}
	return out
}
