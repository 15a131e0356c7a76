// Package ingestion turns a directory of PDF courses into stored sections.
//
// For every file the Pipeline computes the content fingerprint, skips courses
// that are already stored with sections, extracts the text, segments it and
// replaces the course's sections in one transaction:
//
//	pipeline, err := ingestion.NewPipeline(repo, extract.NewPDF(), segmenter,
//		ingestion.WithFallbackSegmenter(heuristic),
//		ingestion.WithPoolSize(4),
//	)
//	if err != nil {
//		return err
//	}
//	defer pipeline.Release()
//
//	summary, err := pipeline.Run(ctx, "courses")
//
// Files are processed concurrently on a worker pool. A failing file is
// counted in the Summary and does not stop the run.
package ingestion
