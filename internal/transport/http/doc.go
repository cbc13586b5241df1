// Package http implements the HTTP request handlers for the screener API.
// It is a thin layer between transport and business logic: handlers parse
// and validate query parameters, call the service layer, and translate
// service errors into RFC 7807 problem responses. No business logic lives
// here.
//
// A typical request flows through these layers:
//
//	HTTP Request → Chi Router → Middleware → Handler → Service
//	                                              ↓
//	HTTP Response ← Handler ← Service Response ←─┘
//
// Errors follow the RFC 7807 Problem Details specification:
//
//	{
//	    "type": "/errors/invalid-parameter",
//	    "title": "Invalid Parameter",
//	    "status": 400,
//	    "detail": "sort must be one of the table columns",
//	    "instance": "/api/market/records"
//	}
package http
