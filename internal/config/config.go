package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GeminiConfig configures the hosted embedding and generation models.
// The API key itself stays out of the file; only the environment
// variable holding it is named here.
type GeminiConfig struct {
	APIKeyEnv       string `yaml:"api_key_env"`
	EmbeddingModel  string `yaml:"embedding_model"`
	GenerationModel string `yaml:"generation_model"`
}

// ChunkerConfig configures how extracted text is split into chunks.
// Overlap is a pointer so an explicit zero in the file stays zero
// instead of being promoted to the default.
type ChunkerConfig struct {
	ChunkSize int  `yaml:"chunk_size"`
	Overlap   *int `yaml:"overlap"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// StoreConfig selects and configures the vector store backend.
type StoreConfig struct {
	Type       string        `yaml:"type"`
	Dir        string        `yaml:"dir"`
	Collection string        `yaml:"collection"`
	Qdrant     *QdrantConfig `yaml:"qdrant,omitempty"`
}

// RetrievalConfig configures query-time behavior.
type RetrievalConfig struct {
	TopK           int    `yaml:"top_k"`
	AnswerLanguage string `yaml:"answer_language"`
}

// ArxivConfig configures the arXiv paper fetcher. DelaySecs is a
// pointer for the same reason as ChunkerConfig.Overlap: zero is a
// valid setting.
type ArxivConfig struct {
	MaxResults int      `yaml:"max_results"`
	DelaySecs  *float64 `yaml:"delay_secs"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	PDFDir    string          `yaml:"pdf_dir"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Store     StoreConfig     `yaml:"store"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Arxiv     ArxivConfig     `yaml:"arxiv"`
}

// APIKey resolves the model API key from the configured environment
// variable.
func (c *AppConfig) APIKey() string {
	return os.Getenv(c.Gemini.APIKeyEnv)
}

// Load reads a config from a specified path. If the file does not
// exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./paperchat.yaml first, then
// ~/.config/paperchat/config.yaml. If neither exists, it writes
// defaults to the user path and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "paperchat.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as
// needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "paperchat", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *AppConfig) {
	if cfg.PDFDir == "" {
		cfg.PDFDir = filepath.Join("data", "raw_pdfs")
	}
	if cfg.Gemini.APIKeyEnv == "" {
		cfg.Gemini.APIKeyEnv = "GOOGLE_API_KEY"
	}
	if cfg.Gemini.EmbeddingModel == "" {
		cfg.Gemini.EmbeddingModel = "text-embedding-004"
	}
	if cfg.Gemini.GenerationModel == "" {
		cfg.Gemini.GenerationModel = "gemini-flash-latest"
	}
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 500
	}
	if cfg.Chunker.Overlap == nil {
		overlap := 100
		cfg.Chunker.Overlap = &overlap
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = "sqlite"
	}
	if cfg.Store.Dir == "" {
		cfg.Store.Dir = filepath.Join("data", "vector_db")
	}
	if cfg.Store.Collection == "" {
		cfg.Store.Collection = "research_papers"
	}
	if cfg.Store.Type == "qdrant" && cfg.Store.Qdrant != nil {
		if cfg.Store.Qdrant.URL == "" {
			cfg.Store.Qdrant.URL = "http://localhost:6333"
		}
		if cfg.Store.Qdrant.TimeoutSecs == 0 {
			cfg.Store.Qdrant.TimeoutSecs = 15
		}
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 20
	}
	if cfg.Retrieval.AnswerLanguage == "" {
		cfg.Retrieval.AnswerLanguage = "English"
	}
	if cfg.Arxiv.MaxResults == 0 {
		cfg.Arxiv.MaxResults = 50
	}
	if cfg.Arxiv.DelaySecs == nil {
		delay := 2.0
		cfg.Arxiv.DelaySecs = &delay
	}
}
