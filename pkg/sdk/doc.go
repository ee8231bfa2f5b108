// Package archpilot is the embedded client for the archpilot knowledge base:
// it loads an index artifact into memory and answers semantic search queries
// in-process, without running the HTTP server.
//
// A query embedder must be supplied; the artifact records which embedding
// model its vectors came from and the client refuses to start on a mismatch.
//
//	client, err := archpilot.New(ctx, "kb/index.jsonl", archpilot.WithEmbedder(emb))
//	if err != nil { ... }
//	defer client.Close()
//
//	results, err := client.Search(ctx, "how do I port NEON intrinsics to SVE?", nil)
package archpilot
