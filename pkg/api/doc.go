// Package api exposes the authorization evaluator over HTTP.
//
// # Overview
//
// The server is a thin JSON layer over pkg/security: one endpoint for
// authorization checks, and admin endpoints for targeted rules, permission
// masks and group membership. All policy lives in the evaluator; handlers
// only parse, delegate and map errors onto status codes.
//
// # Endpoints
//
// Authorization:
//
//	POST /api/v1/check
//
// Rules:
//
//	GET    /api/v1/rules
//	POST   /api/v1/rules
//	POST   /api/v1/rules/resolve
//	DELETE /api/v1/rules/{target_type}/{target_id}
//
// Masks:
//
//	GET /api/v1/masks
//	PUT /api/v1/masks/bounding
//	PUT /api/v1/masks/commands/{command}
//
// Membership:
//
//	GET    /api/v1/groups/{group}/members
//	POST   /api/v1/groups/{group}/members
//	DELETE /api/v1/groups/{group}/members/{id}
//
// Targeted grants are two-phase over this API as well: a POST without
// "confirmed": true returns the proposal and stores nothing.
//
// # Related Packages
//
//   - pkg/security: The evaluator behind every endpoint
//   - pkg/httputil: Request/response helpers and middleware
package api
