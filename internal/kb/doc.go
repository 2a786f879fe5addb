// Package kb is the guideline knowledge base used to cite findings.
//
// Guideline files are split into chunks of roughly DefaultChunkSize
// characters, embedded with an Embedder, and searched by cosine similarity.
// Embeddings can be cached in a state.Store so unchanged guidelines are not
// re-embedded across runs. A guideline the embedder fails on is skipped, so
// an unreachable embedding service leaves a partial or empty KB.
package kb
