package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del análisis.
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis"`
	Data     DataConfig     `yaml:"data"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

// AnalysisConfig controla la reconciliación temporal y la clasificación.
type AnalysisConfig struct {
	MaxBookGapSeconds   float64 `yaml:"max_book_gap_seconds"`  // tolerancia de snapshots alrededor de un fill
	PriceMaxGapSeconds  float64 `yaml:"price_max_gap_seconds"` // tolerancia del lookup causal de precio
	Method              string  `yaml:"method"`                // vanished | bbo
	VanishedTolerance   float64 `yaml:"vanished_tolerance"`    // fracción del size que debe desaparecer
	DepthLevels         int     `yaml:"depth_levels"`
	MinBookEvents       int     `yaml:"min_book_events"`  // mínimo de snapshots por serie de asset
	MinObservations     int     `yaml:"min_observations"` // mínimo de puntos por serie de ventana
	WindowSeconds       float64 `yaml:"window_seconds"`
	MinWindowSeconds    float64 `yaml:"min_window_seconds"` // cobertura mínima de la serie
	SettlementThreshold float64 `yaml:"settlement_threshold"`
	Workers             int     `yaml:"workers"` // 0 = NumCPU × 2
}

// DataConfig apunta a las fuentes de datos de la sesión.
type DataConfig struct {
	FillsPath  string `yaml:"fills_path"`  // JSON de fills (lo escribe -fetch)
	BooksDir   string `yaml:"books_dir"`   // capturas <slug>.jsonl.gz (modo l2)
	PricesPath string `yaml:"prices_path"` // price_log.csv (modo edge)

	Wallet     string `yaml:"wallet"`      // wallet objetivo para -fetch
	SlugPrefix string `yaml:"slug_prefix"` // filtro de ventanas (ej. btc-updown-15m-)
	DataAPI    string `yaml:"data_api"`    // base URL de la data API
}

// StorageConfig controla dónde se persisten los reportes.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rechaza configuraciones sin sentido. Parar temprano vale más que
// una corrida entera con resultados inservibles.
func (c *Config) Validate() error {
	if c.Analysis.VanishedTolerance <= 0 || c.Analysis.VanishedTolerance > 1 {
		return fmt.Errorf("config.Validate: vanished_tolerance must be in (0, 1], got %v", c.Analysis.VanishedTolerance)
	}
	if c.Analysis.SettlementThreshold <= 0.5 || c.Analysis.SettlementThreshold > 1 {
		return fmt.Errorf("config.Validate: settlement_threshold must be in (0.5, 1], got %v", c.Analysis.SettlementThreshold)
	}
	if c.Analysis.Method != "vanished" && c.Analysis.Method != "bbo" {
		return fmt.Errorf("config.Validate: method must be vanished or bbo, got %q", c.Analysis.Method)
	}
	if c.Analysis.MinWindowSeconds > c.Analysis.WindowSeconds {
		return fmt.Errorf("config.Validate: min_window_seconds (%v) exceeds window_seconds (%v)",
			c.Analysis.MinWindowSeconds, c.Analysis.WindowSeconds)
	}
	return nil
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("FILLSCOPE_WALLET"); v != "" {
		cfg.Data.Wallet = v
	}
	if v := os.Getenv("FILLSCOPE_DATA_API"); v != "" {
		cfg.Data.DataAPI = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Analysis.MaxBookGapSeconds <= 0 {
		cfg.Analysis.MaxBookGapSeconds = 5
	}
	if cfg.Analysis.PriceMaxGapSeconds <= 0 {
		cfg.Analysis.PriceMaxGapSeconds = 5
	}
	if cfg.Analysis.Method == "" {
		cfg.Analysis.Method = "vanished"
	}
	if cfg.Analysis.VanishedTolerance == 0 {
		cfg.Analysis.VanishedTolerance = 0.8
	}
	if cfg.Analysis.DepthLevels <= 0 {
		cfg.Analysis.DepthLevels = 5
	}
	if cfg.Analysis.MinBookEvents <= 0 {
		cfg.Analysis.MinBookEvents = 100
	}
	if cfg.Analysis.MinObservations <= 0 {
		cfg.Analysis.MinObservations = 10
	}
	if cfg.Analysis.WindowSeconds <= 0 {
		cfg.Analysis.WindowSeconds = 900
	}
	if cfg.Analysis.MinWindowSeconds <= 0 {
		cfg.Analysis.MinWindowSeconds = 850
	}
	if cfg.Analysis.SettlementThreshold == 0 {
		cfg.Analysis.SettlementThreshold = 0.95
	}
	if cfg.Data.FillsPath == "" {
		cfg.Data.FillsPath = "data/fills.json"
	}
	if cfg.Data.BooksDir == "" {
		cfg.Data.BooksDir = "data/books"
	}
	if cfg.Data.PricesPath == "" {
		cfg.Data.PricesPath = "data/price_log.csv"
	}
	if cfg.Data.SlugPrefix == "" {
		cfg.Data.SlugPrefix = "btc-updown-15m-"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "fillscope.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
