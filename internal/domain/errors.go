package domain

import "errors"

var (
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrRelevanceProviderError signals a relevance model provider failure.
	ErrRelevanceProviderError = errors.New("relevance provider error")
	// ErrSafetyProviderError signals a toxicity classifier failure.
	ErrSafetyProviderError = errors.New("safety provider error")
	// ErrCorpusEmpty marks the degraded mode where no corpus is loaded.
	// Retrieval returns empty candidates instead of failing; this sentinel
	// exists for logging and health reporting only.
	ErrCorpusEmpty = errors.New("corpus is empty")
)
