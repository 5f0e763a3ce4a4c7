// Package health serves liveness and readiness probes next to /metrics.
//
// Readiness aggregates one check per platform adapter:
//
//	checker := health.New(0)
//	for key, a := range manager.Adapters() {
//	    checker.Register("platform:"+key, health.AdapterCheck(a.Health))
//	}
//	health.Mount(mux, checker, health.VersionInfo{Version: version})
//
// An adapter turns unhealthy after three consecutive server-side or
// transport failures and healthy again on its next success, so /readyz
// follows platform outages without probing the platforms itself.
package health
