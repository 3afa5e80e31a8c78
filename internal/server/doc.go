// Package server hosts the raw TCP accept loop that feeds connections into the
// proxy handler, plus the optional Fiber diagnostics app bound to
// proxy.admin_port. Keep exports narrow and accept explicit dependencies.
package server
