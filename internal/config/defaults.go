package config

const (
	defaultConfigPath          = "~/.config/soundunpack/config.toml"
	defaultToolsDir            = "~/.local/share/soundunpack/tools"
	defaultTmpDirName          = "soundunpack"
	defaultPsarc               = "psarc.exe"
	defaultWw2ogg              = "ww2ogg/ww2ogg.exe"
	defaultRevorb              = "revorb.exe"
	defaultCodebooks           = "ww2ogg/packed_codebooks_aoTuV_603.bin"
	defaultLauncher            = "wine"
	defaultMode                = "current"
	defaultMetadataFile        = "SOUNDBANKSINFO.XML"
	defaultOutputExtension     = ".ogg"
	defaultUnlocalizedLanguage = "SFX"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			SourceDir:      ".",
			DestinationDir: ".",
		},
		Tools: Tools{
			Dir:       defaultToolsDir,
			Psarc:     defaultPsarc,
			Ww2ogg:    defaultWw2ogg,
			Revorb:    defaultRevorb,
			Codebooks: defaultCodebooks,
			Launcher:  defaultLauncher,
		},
		Archives: Archives{
			Mode:                defaultMode,
			MetadataFile:        defaultMetadataFile,
			OutputExtension:     defaultOutputExtension,
			UnlocalizedLanguage: defaultUnlocalizedLanguage,
		},
		Catalog: Catalog{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
