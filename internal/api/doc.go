// Package api exposes the storefront over HTTP/JSON.
//
// Errors use a single shape, {"message": ..., "errors": {field: [...]}},
// with 401 for missing credentials, 403 for another user's order, 404 for
// missing records and 422 for validation and stock failures.
package api
