package flows

import "context"

// Service is the centralized flow runner built by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

func (s Service) Authenticate(ctx context.Context) (*Result, error) {
	return RunAuthenticate(ctx, s.deps.Auth)
}

func (s Service) Callback(ctx context.Context, code, state string) (*Result, error) {
	return RunCallback(ctx, code, state, s.deps.Auth)
}
