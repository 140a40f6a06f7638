// Package httpapi exposes the study use cases over HTTP with chi.
//
// Responses use one JSON envelope:
//
//	{"data": ...}
//	{"error": {"code": "quota_exceeded", "message": "Subjects limit reached"}}
//
// Authentication happens upstream; the caller's identity is read with a
// UserIDFunc.
package httpapi
