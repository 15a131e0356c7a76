// Package evaluation scores stored sections against the rubrics.
//
// An Orchestrator selects every section that has no evaluation for its model
// label, sends each one to an ordered list of providers and persists the
// first response that passes schema validation:
//
//	orchestrator, err := evaluation.NewOrchestrator(repo, "claude", providers,
//		evaluation.WithConcurrency(2),
//		evaluation.WithLimit(50),
//	)
//	if err != nil {
//		return err
//	}
//	defer orchestrator.Release()
//
//	summary, err := orchestrator.Run(ctx)
//
// Work selection is recomputed on every run, so an interrupted run resumes
// where it stopped. A section that every provider failed on is skipped and
// selected again by the next run.
package evaluation
