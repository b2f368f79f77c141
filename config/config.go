package config

import (
	"encoding/json"
	"os"
	"sync"
)

// AppConfig holds the structure of the configuration
type AppConfig struct {
	SelfPath  string `json:"selfpath"`
	Port      string `json:"port"`
	Blocksize int    `json:"blocksize"`

	// Board defaults used when /new-game omits them
	Height    int `json:"height"`
	Width     int `json:"width"`
	BaseSpeed int `json:"basespeed"`
	Lives     int `json:"lives"`

	// Largest board /new-game will build
	MaxHeight int `json:"maxheight"`
	MaxWidth  int `json:"maxwidth"`

	TickInterval  int    `json:"tickinterval"` // milliseconds, 0 disables the server side loop
	KeepScore     bool   `json:"keepscore"`
	GrowthPerFood int    `json:"growthperfood"`
	Seed          int64  `json:"seed"` // 0 seeds from the clock
	SpriteDir     string `json:"spritedir"`
}

var (
	instance *AppConfig
	once     sync.Once
)

// Defaults returns the values written to a fresh config file
func Defaults() AppConfig {
	return AppConfig{
		SelfPath:      "http://www.example.com",
		Port:          "38870",
		Blocksize:     20,
		Height:        21,
		Width:         11,
		BaseSpeed:     20,
		Lives:         3,
		MaxHeight:     200,
		MaxWidth:      200,
		TickInterval:  16,
		KeepScore:     false,
		GrowthPerFood: 1,
		Seed:          0,
		SpriteDir:     "./sprites",
	}
}

// LoadConfig initializes and returns the instance of AppConfig
func LoadConfig(filePath string) *AppConfig {
	once.Do(func() {
		defaults := Defaults()
		instance = &defaults
		// Load the config file if it exists, otherwise create one
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			saveConfig(filePath)
		} else {
			loadConfig(filePath)
		}
	})
	return instance
}

// loadConfig loads the settings from the file
func loadConfig(filePath string) {
	file, err := os.Open(filePath)
	if err != nil {
		panic(err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(instance); err != nil {
		panic(err)
	}
}

// saveConfig saves the current settings to the file
func saveConfig(filePath string) {
	file, err := os.Create(filePath)
	if err != nil {
		panic(err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(instance); err != nil {
		panic(err)
	}
}

// Get returns a copy of the loaded configuration, or the defaults before LoadConfig ran
func Get() AppConfig {
	if instance == nil {
		return Defaults()
	}
	return *instance
}

// GetConfigValue returns the value of the configuration by key
func GetConfigValue(key string) interface{} {
	cfg := Get()
	switch key {
	case "selfpath":
		return cfg.SelfPath
	case "port":
		return cfg.Port
	case "blocksize":
		return cfg.Blocksize
	case "height":
		return cfg.Height
	case "width":
		return cfg.Width
	case "basespeed":
		return cfg.BaseSpeed
	case "lives":
		return cfg.Lives
	case "maxheight":
		return cfg.MaxHeight
	case "maxwidth":
		return cfg.MaxWidth
	case "tickinterval":
		return cfg.TickInterval
	case "keepscore":
		return cfg.KeepScore
	case "growthperfood":
		return cfg.GrowthPerFood
	case "seed":
		return cfg.Seed
	case "spritedir":
		return cfg.SpriteDir
	default:
		return ""
	}
}
