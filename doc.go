// Package r2r provides a Go client for the R2R retrieval-and-generation
// service.
//
// The client builds JSON and multipart/form-data requests, resolves search
// and generation settings against their defaults, and delivers RAG answers
// either as one parsed response or as a stream of UTF-8 text chunks.
//
// # Search and RAG
//
//	client, _ := r2r.New("http://localhost:8000")
//	res, _ := client.Search(ctx, "who is aristotle?", &r2r.SearchOptions{Limit: 5})
//	for _, hit := range res.Results.VectorSearchResults {
//	    fmt.Println(hit.Score, hit.Text())
//	}
//
// # Streaming
//
//	s, _ := client.StreamRAG(ctx, "who is aristotle?", nil)
//	for chunk, err := range s.Chunks() {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Print(chunk)
//	}
//
// # Uploads
//
//	_, err := client.IngestFiles(ctx, []r2r.Upload{
//	    r2r.FileFromPath("aristotle.txt"),
//	    r2r.FileFromReader("notes.md", strings.NewReader("# notes")),
//	}, &r2r.IngestFilesOptions{Metadatas: []map[string]any{{"title": "Aristotle"}}})
//
// Path uploads go through a FileSystem (OSFileSystem by default). With
// NoFileSystem they fail with ErrUnsupportedEnvironment before any request.
package r2r
