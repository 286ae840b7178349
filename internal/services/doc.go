// Package services wires configuration, conversion, extraction, summary
// building and export into the operations the command line exposes.
//
// PipelineService is the only entry point collaborators need:
//
//	svc, err := services.NewPipelineService(cfg, paths, services.Dependencies{Logger: logger})
//	result, err := svc.ConvertArchive(ctx, "export.zip")
//	outcome, err := svc.BuildSummary(ctx, services.SummaryRequest{IncludeLocation: true})
//	if outcome.HasResult() {
//	    fmt.Println(outcome.Path)
//	}
//
// BuildSummary reports a missing database or an empty selection as
// summary.NoResult. Callers must check the status before using the rows.
package services
