package handler

type ContextKey string

var (
	VetCtx       ContextKey = "vet"
	RequestIDCtx ContextKey = "requestID"
)
