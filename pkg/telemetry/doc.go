// Package telemetry instruments a vigil.Coordinator.
//
// Prometheus and OTel each build a vigil.Hooks value; Combine fans one
// coordinator's notifications out to several:
//
//	co := vigil.New(src,
//	    vigil.WithHooks(telemetry.Combine(
//	        telemetry.Prometheus(telemetry.WithNamespace("myapp")),
//	        telemetry.OTel(),
//	    )),
//	)
//
// Expose the Prometheus metrics with promhttp as usual; pkg/inspector
// mounts the handler when metrics are enabled.
package telemetry
