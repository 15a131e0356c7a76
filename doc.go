// Package pedagogue evaluates the pedagogical quality of PDF courses.
//
// Courses are ingested from a directory, split into sections, scored by
// language-model providers against seven rubrics and aggregated into
// reports. The Engine wires every step from one config.Config:
//
//	cfg, err := config.Load("pedagogue.yaml", "")
//	if err != nil {
//		return err
//	}
//	engine, err := pedagogue.Open(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer engine.Close()
//
//	pipeline, err := engine.NewIngestionPipeline(ctx)
//	...
//	orchestrator, err := engine.NewOrchestrator(ctx)
//	...
//	summary, err := orchestrator.Run(ctx)
package pedagogue
