// Package printing holds the host-facing adapters of the print pipeline:
// the staging store for uploaded documents, the headless Chrome rendering
// driver and its embedded viewer, the printer enumerators, the PDF composer
// and the native print dispatchers.
//
//	stager, _ := printing.NewFileSystemStager(&printing.FileSystemStagerConfig{BaseDir: dir})
//	renderer, _ := printing.NewChromedpRenderer(&printing.ChromedpConfig{ViewerBaseURL: "http://127.0.0.1:18032"})
//	pages, err := renderer.Render(ctx, stagedPath)
package printing
