/*
Package domain contains the data model of an infrastructure analysis run.

It is kept free of I/O: the types here describe what a run holds and how it
may change, while collaborators (tools, generation, storage) live behind ports.

# Key Entities

  - WorkflowState: the single record threaded through a run (report, results, marker, error).
  - Progress: the enumerated marker that advances Start -> ReportLoaded -> AnomaliesDetected ->
    OptimizationsProposed -> Completed, strictly in order.
  - StepID: the identifiers the router selects between, including the terminal Error and End.
  - Outcome: the success-or-failure variant returned by every step.
  - Anomalies / Recommendations: the two schema-validated records.
  - LifecycleHooks: the observability channel (step, tool and report events).
*/
package domain
