// Package app provides application initialization and lifecycle management
// for the screener service. It wires all major components together at
// startup and handles graceful shutdown.
//
// # Initialization Flow
//
// The typical initialization sequence:
//
//	1. Load configuration from files and environment
//	2. Initialize logging
//	3. Create the upstream market data client
//	4. Initialize services with their dependencies
//	5. Set up HTTP handlers and middleware
//	6. Configure and start the HTTP server
//	7. Set up graceful shutdown handlers
//
// # Graceful Shutdown
//
// The package handles SIGINT and SIGTERM so that active requests are
// completed and the background refresh loop stops before exit. All
// initialization errors are returned to the caller; the app never calls
// os.Exit() directly.
package app
