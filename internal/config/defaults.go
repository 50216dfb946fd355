package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Pipeline.DefaultScope == 0 {
		cfg.Pipeline.DefaultScope = 3
	}
	if cfg.Pipeline.PatchOutputDir == "" {
		cfg.Pipeline.PatchOutputDir = "/usr/local/var/naosu/patched"
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".pdf", ".docx", ".xlsx", ".pptx"}
	}
}
