package model

// Principal is the already-authenticated actor behind a request. The gateway
// does not authenticate anyone itself; upstream auth hands the principal in.
// A nil *Principal means an anonymous request.
type Principal struct {
	ID    int64 `json:"id"`
	Admin bool  `json:"admin"`
}
