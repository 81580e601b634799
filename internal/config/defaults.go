package config

const (
	defaultConfigPath     = "~/.config/o2rconv/config.toml"
	defaultLogDir         = "~/.local/share/o2rconv/logs"
	defaultHistoryDB      = "~/.local/share/o2rconv/history.db"
	defaultTorchBinary    = "torch"
	defaultArchiveFormat  = "o2r"
	defaultExportType     = "binary"
	defaultManifestFile   = "torch.hash.yml"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultWatchDebounce  = 1500
	defaultWatchExtension = ".z64"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:    defaultLogDir,
			HistoryDB: defaultHistoryDB,
		},
		Torch: Torch{
			Binary:        defaultTorchBinary,
			ArchiveFormat: defaultArchiveFormat,
			ExportType:    defaultExportType,
		},
		Verify: Verify{
			ManifestFile:   defaultManifestFile,
			InspectArchive: true,
		},
		Watch: Watch{
			DebounceMillis: defaultWatchDebounce,
			Extensions:     []string{defaultWatchExtension, ".v64", ".n64"},
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
