package config

const (
	defaultAPIListen       = ":8080"
	defaultReadTimeout     = "30s"
	defaultWriteTimeout    = "60s"
	defaultRequestTimeout  = "30s"
	defaultClientAPITarget = "http://localhost:8080"

	defaultVectorProvider   = "memory"
	defaultVectorCollection = "debate_cards"

	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingTarget     = "http://localhost:11434"
	defaultEmbeddingModel      = "nomic-embed-text"
	defaultEmbeddingDimensions = 768

	defaultEventStreamProvider = "none"
	defaultEventStreamBrokers  = "localhost:9092"
	defaultEventStreamTopic    = "cards.events"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		API: APIConfig{
			Listen:         defaultAPIListen,
			ReadTimeout:    defaultReadTimeout,
			WriteTimeout:   defaultWriteTimeout,
			RequestTimeout: defaultRequestTimeout,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
		VectorStore: VectorStoreConfig{
			Provider:   defaultVectorProvider,
			Collection: defaultVectorCollection,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultEmbeddingTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		EventStream: EventStreamConfig{
			Provider: defaultEventStreamProvider,
			Brokers:  defaultEventStreamBrokers,
			Topic:    defaultEventStreamTopic,
		},
	}
}
