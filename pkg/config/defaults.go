package config

const (
	defaultStorageDriver = "sqlite"

	defaultAPIListen = ":8080"

	defaultEmbeddingProvider = "ollama"
	defaultEmbeddingTarget   = "http://localhost:11434"
	defaultEmbeddingModel    = "mxbai-embed-large"

	defaultScraperCommand        = "node scraper/server.js"
	defaultScraperTimeoutMinutes = 15
	defaultScraperBatchSize      = 10

	defaultSessionProvider = "local"
	defaultSessionTTLHours = 24

	defaultRecommendTopK = 10
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			Driver: defaultStorageDriver,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Embedding: EmbeddingConfig{
			Provider: defaultEmbeddingProvider,
			Target:   defaultEmbeddingTarget,
			Model:    defaultEmbeddingModel,
		},
		Scraper: ScraperConfig{
			Command:        defaultScraperCommand,
			TimeoutMinutes: defaultScraperTimeoutMinutes,
			BatchSize:      defaultScraperBatchSize,
		},
		Session: SessionConfig{
			Provider: defaultSessionProvider,
			TTLHours: defaultSessionTTLHours,
		},
		Recommend: RecommendConfig{
			TopK: defaultRecommendTopK,
		},
	}
}
