package hostenv

// Relay is a Bridge that replays a code obtained elsewhere, such as a code
// forwarded by an embedded page to a server-side gateway. Ready fires
// immediately and RequestAccess settles synchronously.
type Relay struct {
	Code string
	Err  error
}

func (r Relay) Error(fn func(error)) {
	if r.Err != nil && fn != nil {
		fn(r.Err)
	}
}

func (r Relay) Ready(fn func()) {
	if r.Err == nil && fn != nil {
		fn()
	}
}

func (r Relay) RequestAccess(req AccessRequest) {
	if r.Err != nil {
		if req.Fail != nil {
			req.Fail(r.Err)
		}
		return
	}
	if req.Success != nil {
		req.Success(AccessResponse{Code: r.Code})
	}
}
